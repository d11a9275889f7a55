package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/aetherlink/internal/config"
	"github.com/annel0/aetherlink/internal/world"
)

const worldFile = "../worlddata/testdata/world.yaml"

func TestLoadWorld_File(t *testing.T) {
	data, err := LoadWorld(context.Background(), config.WorldConfig{Source: "file", DataPath: worldFile})
	require.NoError(t, err)
	assert.NotEmpty(t, data.Zones)

	_, err = world.NewGraph(data)
	assert.NoError(t, err)
}

func TestLoadWorld_SQLiteSeedsFromFile(t *testing.T) {
	ctx := context.Background()
	cfg := config.WorldConfig{
		Source:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "world.db"),
		DataPath: worldFile,
	}

	seeded, err := LoadWorld(ctx, cfg)
	require.NoError(t, err)

	// второй запуск читает из базы, файл уже не нужен
	cfg.DataPath = ""
	loaded, err := LoadWorld(ctx, cfg)
	require.NoError(t, err)
	assert.Len(t, loaded.Zones, len(seeded.Zones))
	assert.Len(t, loaded.Anchors, len(seeded.Anchors))
	assert.Equal(t, seeded.Gateways, loaded.Gateways)
}

func TestLoadWorld_BadgerSeedsFromFile(t *testing.T) {
	ctx := context.Background()
	cfg := config.WorldConfig{Source: "badger", SnapshotPath: t.TempDir(), DataPath: worldFile}

	seeded, err := LoadWorld(ctx, cfg)
	require.NoError(t, err)

	cfg.DataPath = ""
	loaded, err := LoadWorld(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, len(seeded.Connectors), len(loaded.Connectors))
}

func TestLoadWorld_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := LoadWorld(ctx, config.WorldConfig{Source: "ftp"})
	assert.Error(t, err)

	_, err = LoadWorld(ctx, config.WorldConfig{Source: "sqlite", DSN: filepath.Join(t.TempDir(), "empty.db")})
	assert.Error(t, err, "пустое хранилище без файла")

	_, err = ImportWorld(ctx, config.WorldConfig{Source: "file"}, worldFile)
	assert.Error(t, err)
}

func TestImportWorld(t *testing.T) {
	ctx := context.Background()
	cfg := config.WorldConfig{Source: "sqlite", DSN: filepath.Join(t.TempDir(), "world.db")}

	imported, err := ImportWorld(ctx, cfg, worldFile)
	require.NoError(t, err)

	loaded, err := LoadWorld(ctx, cfg)
	require.NoError(t, err)
	assert.Len(t, loaded.Zones, len(imported.Zones))
}
