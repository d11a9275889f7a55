package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/annel0/aetherlink/internal/world"
	"github.com/dgraph-io/badger/v3"
	"github.com/klauspost/compress/zstd"
)

const (
	snapshotKey     = "world:snapshot"
	snapshotMetaKey = "world:meta"
	snapshotVersion = 1
)

// SnapshotMeta описание сохранённого снимка таблицы мира
type SnapshotMeta struct {
	Version        int       `json:"version"`
	SavedAt        time.Time `json:"saved_at"`
	Zones          int       `json:"zones"`
	Anchors        int       `json:"anchors"`
	Connectors     int       `json:"connectors"`
	RawSize        int       `json:"raw_size"`
	CompressedSize int       `json:"compressed_size"`
}

// WorldStorage хранит снимок таблицы мира в BadgerDB (JSON, сжатый zstd)
type WorldStorage struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool

	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewWorldStorage открывает хранилище снимков в каталоге dataPath/world
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	dbPath := filepath.Join(dataPath, "world")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB
	return openWorldStorage(opts, dbPath)
}

// NewInMemoryWorldStorage создаёт хранилище без диска (для тестов и CLI)
func NewInMemoryWorldStorage() (*WorldStorage, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return openWorldStorage(opts, "")
}

func openWorldStorage(opts badger.Options, dbPath string) (*WorldStorage, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("zstd decoder: %w", err)
	}

	return &WorldStorage{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
		encoder: enc,
		decoder: dec,
	}, nil
}

// Close закрывает хранилище данных
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}

	ws.isReady = false
	ws.encoder.Close()
	ws.decoder.Close()
	return ws.db.Close()
}

// SaveWorld сохраняет снимок таблицы мира и его описание одной транзакцией
func (ws *WorldStorage) SaveWorld(ctx context.Context, data world.Data) error {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("ошибка сериализации таблицы мира: %w", err)
	}
	compressed := ws.encoder.EncodeAll(raw, nil)

	meta := SnapshotMeta{
		Version:        snapshotVersion,
		SavedAt:        time.Now().UTC(),
		Zones:          len(data.Zones),
		Anchors:        len(data.Anchors),
		Connectors:     len(data.Connectors),
		RawSize:        len(raw),
		CompressedSize: len(compressed),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("ошибка сериализации описания снимка: %w", err)
	}

	err = ws.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(snapshotKey), compressed); err != nil {
			return err
		}
		return txn.Set([]byte(snapshotMetaKey), metaJSON)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

// LoadWorld загружает последний снимок таблицы мира
func (ws *WorldStorage) LoadWorld(ctx context.Context) (world.Data, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return world.Data{}, false, ErrNotReady
	}
	if err := ctx.Err(); err != nil {
		return world.Data{}, false, err
	}

	var compressed []byte
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotKey))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return world.Data{}, false, nil
	}
	if err != nil {
		return world.Data{}, false, fmt.Errorf("ошибка чтения снимка: %w", err)
	}

	raw, err := ws.decoder.DecodeAll(compressed, nil)
	if err != nil {
		return world.Data{}, false, fmt.Errorf("снимок повреждён: %w", err)
	}

	var data world.Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return world.Data{}, false, fmt.Errorf("ошибка десериализации таблицы мира: %w", err)
	}
	return data, true, nil
}

// Meta возвращает описание последнего снимка
func (ws *WorldStorage) Meta() (SnapshotMeta, bool, error) {
	ws.mutex.RLock()
	defer ws.mutex.RUnlock()

	if !ws.isReady {
		return SnapshotMeta{}, false, ErrNotReady
	}

	var meta SnapshotMeta
	err := ws.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(snapshotMetaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return SnapshotMeta{}, false, nil
	}
	if err != nil {
		return SnapshotMeta{}, false, err
	}
	return meta, true, nil
}
