package worlddata

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/annel0/aetherlink/internal/world"
	"github.com/annel0/aetherlink/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_SampleWorld(t *testing.T) {
	data, err := Load(filepath.Join("testdata", "world.yaml"))
	require.NoError(t, err)

	assert.Len(t, data.Regions, 2)
	assert.Len(t, data.Zones, 10)
	assert.Equal(t, world.AnchorID(8), data.Gateways["limsa"])

	g, err := world.NewGraph(data)
	require.NoError(t, err, "Тестовая таблица должна проходить проверку целостности")

	z, ok := g.ZoneByName("middle la noscea")
	require.True(t, ok)
	assert.Equal(t, world.ZoneID(134), z.ID)

	gw, ok := g.CrossRegionAnchorFor("ishgard")
	require.True(t, ok)
	assert.Equal(t, world.RegionID(2), gw.DestinationRegion)
}

func TestLoadGraph(t *testing.T) {
	g, err := LoadGraph(filepath.Join("testdata", "world.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 13, g.Stats().Anchors)

	_, err = LoadGraph(filepath.Join("testdata", "missing.yaml"))
	assert.Error(t, err)
}

func TestParse_SchemaViolations(t *testing.T) {
	cases := map[string]string{
		"Missing zones": `
anchors: []
`,
		"Zero id": `
zones: [{id: 0, name: A, region: 1}]
anchors: []
`,
		"Unknown field": `
zones: [{id: 1, name: A, region: 1, climate: rainy}]
anchors: []
`,
		"Position without y": `
zones: [{id: 1, name: A, region: 1}]
anchors: [{id: 1, zone: 1, position: {x: 3}}]
`,
		"Text coordinate": `
zones: [{id: 1, name: A, region: 1}]
anchors: [{id: 1, zone: 1, position: {x: far, y: 3}}]
`,
		"Gateway to zero anchor": `
zones: [{id: 1, name: A, region: 1}]
anchors: []
gateways: {home: 0}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err, "Документ должен быть отклонён схемой")
		})
	}
}

func TestParse_Minimal(t *testing.T) {
	data, err := Parse([]byte(`
zones:
  - {id: 1, name: A, region: 1}
  - {id: 2, name: B, region: 1}
anchors:
  - {id: 10, zone: 1, position: {x: 0, y: 0}, primary: true}
connectors:
  - {id: 1, from: 1, to: 2}
`))
	require.NoError(t, err)
	require.Len(t, data.Connectors, 1)
	assert.False(t, data.Connectors[0].Bidirectional)
	assert.True(t, data.Zones[0].Bounds.IsZero(), "Границы не заданы")

	_, err = world.NewGraph(data)
	assert.NoError(t, err)
}

func TestMarshal_RoundTrip(t *testing.T) {
	src := worldtest.SampleData()
	raw, err := Marshal(src)
	require.NoError(t, err)

	back, err := Parse(raw)
	require.NoError(t, err, "Сериализованная таблица должна проходить схему")
	assert.Equal(t, src, back)

	path := filepath.Join(t.TempDir(), "world.yaml")
	require.NoError(t, os.WriteFile(path, raw, 0o644))
	g, err := LoadGraph(path)
	require.NoError(t, err)
	assert.Equal(t, worldtest.MustGraph().Stats(), g.Stats())
}
