package route

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/annel0/aetherlink/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecords_RoundTrip(t *testing.T) {
	s := newSampleSolver(t)
	from := Location{Zone: worldtest.ZoneLimsa, Position: pt(11, 11), Region: worldtest.RegionHome}
	r := s.Solve(from, Target{Zone: worldtest.ZoneSouthern, Position: pt(20, 20)}, pref("uldah"))
	require.NotEmpty(t, r)

	data, err := json.Marshal(r.Records())
	require.NoError(t, err)

	var recs []LegRecord
	require.NoError(t, json.Unmarshal(data, &recs))

	decoded, err := DecodeRoute(s.Graph(), recs)
	require.NoError(t, err)
	assert.Equal(t, r, decoded, "Маршрут должен восстанавливаться без потерь")
}

func TestDecode_Errors(t *testing.T) {
	g := worldtest.MustGraph()

	t.Run("Unknown kind", func(t *testing.T) {
		_, err := Decode(g, LegRecord{Kind: "swim"})
		assert.Error(t, err)
	})

	t.Run("Unknown anchor", func(t *testing.T) {
		_, err := Decode(g, LegRecord{Kind: "anchor", AnchorID: 9999})
		assert.True(t, errors.Is(err, ErrUnknownReference))
	})

	t.Run("Unknown connector", func(t *testing.T) {
		_, err := Decode(g, LegRecord{Kind: "boundary", ConnectorID: 77})
		assert.True(t, errors.Is(err, ErrUnknownReference))
	})

	t.Run("Against connector direction", func(t *testing.T) {
		_, err := Decode(g, LegRecord{
			Kind: "boundary", ConnectorID: worldtest.ConnectorCliff,
			FromZone: worldtest.ZoneOuter, ToZone: worldtest.ZoneLower,
		})
		assert.Error(t, err)
	})

	t.Run("Region falls back to gateway destination", func(t *testing.T) {
		leg, err := Decode(g, LegRecord{Kind: "region", AnchorID: worldtest.AnchorUldahPlaza})
		require.NoError(t, err)
		assert.Equal(t, worldtest.RegionOther, leg.(RegionLeg).DestinationRegion)
	})

	t.Run("Region from record must match gateway", func(t *testing.T) {
		_, err := Decode(g, LegRecord{Kind: "region", AnchorID: worldtest.AnchorUldahPlaza, DestinationRegion: worldtest.RegionHome})
		assert.ErrorIs(t, err, ErrRegionMismatch)

		leg, err := Decode(g, LegRecord{Kind: "region", AnchorID: worldtest.AnchorUldahPlaza, DestinationRegion: worldtest.RegionOther})
		require.NoError(t, err)
		assert.Equal(t, worldtest.RegionOther, leg.(RegionLeg).DestinationRegion)
	})
}

func TestParseLegKind(t *testing.T) {
	for _, k := range []LegKind{KindAnchor, KindNetwork, KindBoundary, KindRegion} {
		parsed, err := ParseLegKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, parsed)
	}
	assert.Equal(t, "LegKind(9)", LegKind(9).String())
}

func TestValidate_Violations(t *testing.T) {
	g := worldtest.MustGraph()
	plaza, _ := g.Anchor(worldtest.AnchorLimsaPlaza)
	docks, _ := g.Anchor(worldtest.AnchorLimsaDocks)
	uldah, _ := g.Anchor(worldtest.AnchorUldahPlaza)
	grotto, _ := g.Connector(worldtest.ConnectorGrotto)

	middle := Location{Zone: worldtest.ZoneMiddle, Position: pt(20, 20)}

	cases := []struct {
		name  string
		route Route
	}{
		{"Network node in foreign zone", Route{NetworkLeg{Anchor: docks}}},
		{"Network leg to primary", Route{AnchorLeg{Anchor: plaza}, NetworkLeg{Anchor: plaza}}},
		{"Anchor leg to network node", Route{AnchorLeg{Anchor: docks}}},
		{"Region leg not first", Route{AnchorLeg{Anchor: plaza}, RegionLeg{Anchor: uldah, DestinationRegion: worldtest.RegionOther}}},
		{"Boundary from wrong zone", Route{AnchorLeg{Anchor: plaza}, BoundaryLeg{Connector: grotto, From: worldtest.ZoneMiddle, To: worldtest.ZoneLower}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.route.Validate(middle)
			var invErr *InvariantError
			assert.True(t, errors.As(err, &invErr), "Ожидалась InvariantError, получено %v", err)
		})
	}

	ok := Route{AnchorLeg{Anchor: plaza}, NetworkLeg{Anchor: docks}}
	assert.NoError(t, ok.Validate(middle))
	assert.True(t, ok.EndsIn(middle, worldtest.ZoneLimsa))
	assert.True(t, Route(nil).EndsIn(middle, worldtest.ZoneMiddle))
	assert.Equal(t, 1, ok.Hops())
}
