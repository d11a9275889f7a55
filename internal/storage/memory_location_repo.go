package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/annel0/aetherlink/internal/route"
)

// MemoryLocationRepo реализует LocationRepo в памяти.
// Используется, когда Redis недоступен, или для локальной разработки.
// ВНИМАНИЕ: Данные теряются при перезапуске сервера!
type MemoryLocationRepo struct {
	mu   sync.RWMutex
	data map[string]route.Location
}

func NewMemoryLocationRepo() *MemoryLocationRepo {
	return &MemoryLocationRepo{
		data: make(map[string]route.Location),
	}
}

// Save сохраняет позицию путника в памяти.
func (r *MemoryLocationRepo) Save(ctx context.Context, travelerID string, loc route.Location) error {
	if err := validateTravelerID(travelerID); err != nil {
		return err
	}
	if !loc.Position.IsFinite() {
		return fmt.Errorf("недействительная позиция для %s: %+v", travelerID, loc.Position)
	}

	// Проверяем контекст на отмену
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.data[travelerID] = loc
	r.mu.Unlock()
	return nil
}

// Load загружает позицию путника из памяти.
func (r *MemoryLocationRepo) Load(ctx context.Context, travelerID string) (route.Location, bool, error) {
	if err := validateTravelerID(travelerID); err != nil {
		return route.Location{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return route.Location{}, false, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	loc, exists := r.data[travelerID]
	return loc, exists, nil
}

// Delete удаляет сохраненную позицию путника из памяти.
func (r *MemoryLocationRepo) Delete(ctx context.Context, travelerID string) error {
	if err := validateTravelerID(travelerID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.data[travelerID]; !exists {
		return fmt.Errorf("позиция для путника %s не найдена", travelerID)
	}
	delete(r.data, travelerID)
	return nil
}

// Count возвращает количество сохраненных позиций (для тестов и мониторинга).
func (r *MemoryLocationRepo) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
