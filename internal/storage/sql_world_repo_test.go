package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/annel0/aetherlink/internal/world"
	"github.com/annel0/aetherlink/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteWorldRepo(t *testing.T) {
	repo, err := NewSQLiteWorldRepo(filepath.Join(t.TempDir(), "world.db"))
	require.NoError(t, err)
	defer repo.Close()
	ctx := context.Background()

	t.Run("Empty database", func(t *testing.T) {
		_, found, err := repo.LoadWorld(ctx)
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Save and Load", func(t *testing.T) {
		src := worldtest.SampleData()
		require.NoError(t, repo.SaveWorld(ctx, src))

		loaded, found, err := repo.LoadWorld(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.ElementsMatch(t, src.Zones, loaded.Zones)
		assert.ElementsMatch(t, src.Anchors, loaded.Anchors)
		assert.ElementsMatch(t, src.Connectors, loaded.Connectors)
		assert.ElementsMatch(t, src.Regions, loaded.Regions)
		assert.Equal(t, src.Gateways, loaded.Gateways)

		g, err := world.NewGraph(loaded)
		require.NoError(t, err)
		assert.Equal(t, worldtest.MustGraph().Stats(), g.Stats())
	})

	t.Run("Replace", func(t *testing.T) {
		require.NoError(t, repo.SaveWorld(ctx, worldtest.ScenarioABC()))

		loaded, found, err := repo.LoadWorld(ctx)
		require.NoError(t, err)
		require.True(t, found)
		assert.Len(t, loaded.Zones, 3)
		assert.Empty(t, loaded.Gateways)
	})
}

func TestSQLiteWorldRepo_InMemory(t *testing.T) {
	repo, err := NewSQLiteWorldRepo(":memory:")
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.SaveWorld(context.Background(), worldtest.ScenarioABC()))
	loaded, found, err := repo.LoadWorld(context.Background())
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, loaded.Anchors, 2)
}
