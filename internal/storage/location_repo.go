package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/annel0/aetherlink/internal/route"
)

// LocationRepo хранит последнюю известную позицию путника.
// Позиция обновляется после успешного телепорта и используется, если клиент
// не прислал текущую позицию в запросе маршрута.
type LocationRepo interface {
	// Save сохраняет позицию путника.
	Save(ctx context.Context, travelerID string, loc route.Location) error

	// Load загружает позицию путника.
	// Возвращает:
	//   route.Location - позиция
	//   bool - false если позиция не сохранялась
	//   error - ошибка при загрузке
	Load(ctx context.Context, travelerID string) (route.Location, bool, error)

	// Delete удаляет сохранённую позицию.
	Delete(ctx context.Context, travelerID string) error
}

func validateTravelerID(id string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("недействительный travelerID: %q", id)
	}
	return nil
}
