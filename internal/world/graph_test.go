package world_test

import (
	"sync"
	"testing"

	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world"
	"github.com/annel0/aetherlink/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph_Sample(t *testing.T) {
	g, err := world.NewGraph(worldtest.SampleData())
	require.NoError(t, err)

	stats := g.Stats()
	assert.Equal(t, 2, stats.Regions)
	assert.Equal(t, 9, stats.Zones)
	assert.Equal(t, 8, stats.Anchors)
	assert.Equal(t, 5, stats.Primary)
	assert.Equal(t, 3, stats.Connectors)
	assert.Equal(t, 2, stats.Gateways)
}

func TestNewGraph_ReferentialIntegrity(t *testing.T) {
	t.Run("Connector to unknown zone", func(t *testing.T) {
		data := worldtest.SampleData()
		data.Connectors = append(data.Connectors, world.Connector{ID: 99, From: worldtest.ZoneLimsa, To: 777})

		g, err := world.NewGraph(data)
		assert.Nil(t, g)
		require.Error(t, err)
		assert.True(t, world.IsGraphConstructionError(err))
		assert.Contains(t, err.Error(), "connector 99 references unknown zone 777")
	})

	t.Run("Anchor in unknown zone", func(t *testing.T) {
		data := worldtest.SampleData()
		data.Anchors = append(data.Anchors, world.Anchor{ID: 9000, Zone: 555, IsPrimary: true})

		_, err := world.NewGraph(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "anchor 9000 references unknown zone 555")
	})

	t.Run("Duplicate ids", func(t *testing.T) {
		data := worldtest.SampleData()
		data.Zones = append(data.Zones, world.Zone{ID: worldtest.ZoneLimsa, Region: worldtest.RegionHome})
		data.Anchors = append(data.Anchors, world.Anchor{ID: worldtest.AnchorHorizon, Zone: worldtest.ZoneWestern})

		_, err := world.NewGraph(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate zone 1")
		assert.Contains(t, err.Error(), "duplicate anchor 501")
	})

	t.Run("Unknown region", func(t *testing.T) {
		data := worldtest.SampleData()
		data.Zones = append(data.Zones, world.Zone{ID: 77, Region: 9})

		_, err := world.NewGraph(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "zone 77 references unknown region 9")
	})

	t.Run("Gateway outside destination region", func(t *testing.T) {
		data := worldtest.SampleData()
		data.Anchors = append(data.Anchors, world.Anchor{
			ID: 4242, Zone: worldtest.ZoneMiddle, IsPrimary: true, DestinationRegion: worldtest.RegionOther,
		})

		_, err := world.NewGraph(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gateway anchor 4242")
	})

	t.Run("Gateway preference to plain anchor", func(t *testing.T) {
		data := worldtest.SampleData()
		data.Gateways["horizon"] = worldtest.AnchorHorizon

		_, err := world.NewGraph(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), `gateway "horizon" anchor 501 has no destination region`)
	})

	t.Run("Self loop connector", func(t *testing.T) {
		data := worldtest.SampleData()
		data.Connectors = append(data.Connectors, world.Connector{ID: 50, From: worldtest.ZoneLower, To: worldtest.ZoneLower})

		_, err := world.NewGraph(data)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "joins zone 3 to itself")
	})
}

func TestNewGraph_ImplicitRegions(t *testing.T) {
	g, err := world.NewGraph(worldtest.ScenarioABC())
	require.NoError(t, err)

	_, ok := g.Region(1)
	assert.True(t, ok, "Регион должен выводиться из назначения зон")
}

func TestGraph_AnchorsInZone(t *testing.T) {
	g := worldtest.MustGraph()

	anchors := g.AnchorsInZone(worldtest.ZoneLimsa)
	require.Len(t, anchors, 3)
	ids := []world.AnchorID{anchors[0].ID, anchors[1].ID, anchors[2].ID}
	assert.ElementsMatch(t, []world.AnchorID{101, 102, 103}, ids)

	assert.Empty(t, g.AnchorsInZone(worldtest.ZoneLower))
	assert.Empty(t, g.AnchorsInZone(9999))
}

func TestGraph_NearestAnchorTo(t *testing.T) {
	g := worldtest.MustGraph()
	docks := vec.Vec2Float{X: 29, Y: 29}

	a, ok := g.NearestAnchorTo(worldtest.ZoneLimsa, docks, false)
	require.True(t, ok)
	assert.Equal(t, worldtest.AnchorLimsaPlaza, a.ID, "Без сетевых узлов остаётся только основной якорь")

	a, ok = g.NearestAnchorTo(worldtest.ZoneLimsa, docks, true)
	require.True(t, ok)
	assert.Equal(t, worldtest.AnchorLimsaDocks, a.ID)

	_, ok = g.NearestAnchorTo(worldtest.ZoneLower, docks, true)
	assert.False(t, ok, "В зоне без якорей ничего не находится")
}

func TestGraph_NearestAnchorTo_TieBreak(t *testing.T) {
	data := world.Data{
		Zones: []world.Zone{{ID: 1, Region: 1}},
		Anchors: []world.Anchor{
			{ID: 7, Zone: 1, Position: vec.Vec2Float{X: 10, Y: 0}, IsPrimary: true},
			{ID: 3, Zone: 1, Position: vec.Vec2Float{X: -10, Y: 0}, IsPrimary: true},
		},
	}
	g, err := world.NewGraph(data)
	require.NoError(t, err)

	a, ok := g.NearestAnchorTo(1, vec.Vec2Float{}, false)
	require.True(t, ok)
	assert.Equal(t, world.AnchorID(3), a.ID, "При равном расстоянии выигрывает меньший ID")
}

func TestGraph_ConnectorsFrom(t *testing.T) {
	g := worldtest.MustGraph()

	from := g.ConnectorsFrom(worldtest.ZoneLower)
	require.Len(t, from, 2)
	assert.Equal(t, worldtest.ConnectorGrotto, from[0].ID)
	assert.Equal(t, worldtest.ConnectorCliff, from[1].ID)

	assert.Empty(t, g.ConnectorsFrom(worldtest.ZoneOuter), "Направленный переход не ведёт обратно")
}

func TestGraph_CrossRegionAnchorFor(t *testing.T) {
	g := worldtest.MustGraph()

	a, ok := g.CrossRegionAnchorFor("uldah")
	require.True(t, ok)
	assert.Equal(t, worldtest.AnchorUldahPlaza, a.ID)
	assert.Equal(t, worldtest.RegionOther, a.DestinationRegion)

	_, ok = g.CrossRegionAnchorFor("gridania")
	assert.False(t, ok)

	assert.Equal(t, []world.PreferenceKey{"limsa", "uldah"}, g.Preferences())
}

func TestGraph_Neighbors(t *testing.T) {
	g, err := world.NewGraph(worldtest.ScenarioABC())
	require.NoError(t, err)

	edges := g.Neighbors(1)
	require.Len(t, edges, 2)
	assert.Equal(t, world.ZoneID(2), edges[0].To)
	assert.Equal(t, world.EdgeConnector, edges[0].Kind)
	assert.Equal(t, world.ZoneID(3), edges[1].To)
	assert.Equal(t, world.EdgeAnchor, edges[1].Kind, "Зоны с основными якорями связаны телепортом")

	sample := worldtest.MustGraph()
	for _, e := range sample.Neighbors(worldtest.ZoneLimsa) {
		assert.NotEqual(t, worldtest.ZoneUldah, e.To, "Телепорт не пересекает границу региона")
	}
}

func TestGraph_ZoneByName(t *testing.T) {
	g := worldtest.MustGraph()

	z, ok := g.ZoneByName("  middle la noscea ")
	require.True(t, ok)
	assert.Equal(t, worldtest.ZoneMiddle, z.ID)

	_, ok = g.ZoneByName("Gridania")
	assert.False(t, ok)
}

func TestGraph_ConcurrentReads(t *testing.T) {
	g := worldtest.MustGraph()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_, _ = g.NearestAnchorTo(worldtest.ZoneLimsa, vec.Vec2Float{X: 20, Y: 20}, true)
				_ = g.Neighbors(worldtest.ZoneMiddle)
				_ = g.ConnectorsFrom(worldtest.ZoneLower)
			}
		}()
	}
	wg.Wait()
}
