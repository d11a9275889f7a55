// Package app собирает зависимости сервиса из конфигурации.
package app

import (
	"context"
	"fmt"

	"github.com/annel0/aetherlink/internal/config"
	"github.com/annel0/aetherlink/internal/logging"
	"github.com/annel0/aetherlink/internal/storage"
	"github.com/annel0/aetherlink/internal/world"
	"github.com/annel0/aetherlink/internal/worlddata"
)

// OpenWorldRepo открывает хранилище таблицы мира для source=sqlite|mysql|badger.
// Для source=file возвращает nil: таблица читается прямо из файла.
func OpenWorldRepo(cfg config.WorldConfig) (storage.WorldRepo, error) {
	switch cfg.Source {
	case "file":
		return nil, nil
	case "sqlite":
		return storage.NewSQLiteWorldRepo(cfg.DSN)
	case "mysql":
		return storage.NewMariaWorldRepo(cfg.DSN)
	case "badger":
		return storage.NewWorldStorage(cfg.SnapshotPath)
	default:
		return nil, fmt.Errorf("неизвестный world.source: %q", cfg.Source)
	}
}

// LoadWorld читает таблицу мира из настроенного источника.
// Пустое хранилище заполняется из world.data_path, если он задан.
func LoadWorld(ctx context.Context, cfg config.WorldConfig) (world.Data, error) {
	repo, err := OpenWorldRepo(cfg)
	if err != nil {
		return world.Data{}, err
	}
	if repo == nil {
		logging.Info("📄 Таблица мира из файла %s", cfg.DataPath)
		return worlddata.Load(cfg.DataPath)
	}
	defer repo.Close()

	return loadOrSeed(ctx, repo, cfg)
}

func loadOrSeed(ctx context.Context, repo storage.WorldRepo, cfg config.WorldConfig) (world.Data, error) {
	data, found, err := repo.LoadWorld(ctx)
	if err != nil {
		return world.Data{}, fmt.Errorf("load world from %s: %w", cfg.Source, err)
	}
	if found {
		logging.Info("🗄️ Таблица мира из %s: %d зон, %d якорей", cfg.Source, len(data.Zones), len(data.Anchors))
		return data, nil
	}
	if cfg.DataPath == "" {
		return world.Data{}, fmt.Errorf("хранилище %s пустое и world.data_path не задан", cfg.Source)
	}

	data, err = worlddata.Load(cfg.DataPath)
	if err != nil {
		return world.Data{}, err
	}
	// граф проверяем до записи, чтобы не сохранить битую таблицу
	if _, err := world.NewGraph(data); err != nil {
		return world.Data{}, err
	}
	if err := repo.SaveWorld(ctx, data); err != nil {
		return world.Data{}, fmt.Errorf("seed world into %s: %w", cfg.Source, err)
	}
	logging.Info("🌱 Хранилище %s заполнено из %s", cfg.Source, cfg.DataPath)
	return data, nil
}

// ImportWorld записывает таблицу из файла в хранилище, заменяя прежнюю
func ImportWorld(ctx context.Context, cfg config.WorldConfig, path string) (world.Data, error) {
	data, err := worlddata.Load(path)
	if err != nil {
		return world.Data{}, err
	}
	if _, err := world.NewGraph(data); err != nil {
		return world.Data{}, err
	}
	repo, err := OpenWorldRepo(cfg)
	if err != nil {
		return world.Data{}, err
	}
	if repo == nil {
		return world.Data{}, fmt.Errorf("world.source=file не поддерживает импорт")
	}
	defer repo.Close()
	return data, repo.SaveWorld(ctx, data)
}
