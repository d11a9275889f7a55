// Package teleport выполняет один выбранный шаг маршрута для путника.
package teleport

import (
	"strings"

	"github.com/annel0/aetherlink/internal/route"
)

// Condition битовая маска состояний путника
type Condition uint32

const (
	InCombat Condition = 1 << iota
	Casting
	BoundByDuty
	BetweenAreas
	Occupied
	Jumping
)

// DefaultForbidden состояния, в которых телепорт запрещён
const DefaultForbidden = InCombat | Casting | BoundByDuty | BetweenAreas | Occupied | Jumping

var conditionNames = []struct {
	flag Condition
	name string
}{
	{InCombat, "in_combat"},
	{Casting, "casting"},
	{BoundByDuty, "bound_by_duty"},
	{BetweenAreas, "between_areas"},
	{Occupied, "occupied"},
	{Jumping, "jumping"},
}

// Has проверяет наличие хотя бы одного флага из mask
func (c Condition) Has(mask Condition) bool {
	return c&mask != 0
}

func (c Condition) String() string {
	if c == 0 {
		return "none"
	}
	var parts []string
	for _, cn := range conditionNames {
		if c&cn.flag != 0 {
			parts = append(parts, cn.name)
		}
	}
	return strings.Join(parts, "|")
}

// ParseConditions собирает маску из имён. Неизвестные имена пропускаются.
func ParseConditions(names []string) Condition {
	var c Condition
	for _, n := range names {
		n = strings.ToLower(strings.TrimSpace(n))
		for _, cn := range conditionNames {
			if cn.name == n {
				c |= cn.flag
			}
		}
	}
	return c
}

// TravelerState текущее состояние путника на момент выполнения шага
type TravelerState struct {
	TravelerID string
	Location   route.Location
	Conditions Condition
}
