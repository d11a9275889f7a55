package storage

import (
	"context"
	"errors"

	"github.com/annel0/aetherlink/internal/world"
)

// ErrNotReady хранилище закрыто или не инициализировано
var ErrNotReady = errors.New("хранилище не готово")

// WorldRepo определяет интерфейс для сохранения и загрузки статической таблицы мира.
// Таблица сохраняется и читается целиком: граф строится один раз при старте.
type WorldRepo interface {
	// SaveWorld заменяет сохранённую таблицу мира.
	// Параметры:
	//   ctx - контекст для отмены операции
	//   data - плоская таблица мира
	// Возвращает:
	//   error - ошибка при сохранении
	SaveWorld(ctx context.Context, data world.Data) error

	// LoadWorld загружает таблицу мира.
	// Возвращает:
	//   world.Data - таблица мира
	//   bool - false если таблица ещё не сохранялась
	//   error - ошибка при загрузке
	LoadWorld(ctx context.Context) (world.Data, bool, error)

	// Close освобождает ресурсы хранилища.
	Close() error
}
