package route

import (
	"fmt"

	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world"
)

// LegKind тег варианта шага маршрута
type LegKind uint8

const (
	KindAnchor LegKind = iota + 1
	KindNetwork
	KindBoundary
	KindRegion
)

var legKindNames = map[LegKind]string{
	KindAnchor:   "anchor",
	KindNetwork:  "network",
	KindBoundary: "boundary",
	KindRegion:   "region",
}

func (k LegKind) String() string {
	if name, ok := legKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("LegKind(%d)", uint8(k))
}

// ParseLegKind разбирает строковое имя варианта
func ParseLegKind(s string) (LegKind, error) {
	for k, name := range legKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown leg kind %q", s)
}

func (k LegKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *LegKind) UnmarshalText(text []byte) error {
	parsed, err := ParseLegKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// PathLeg закрытый вариант шага маршрута: AnchorLeg, NetworkLeg, BoundaryLeg или RegionLeg.
// Шаги ссылаются на сущности графа и не владеют ими.
type PathLeg interface {
	Kind() LegKind
	// ArrivalZone зона, в которой оказывается путник после шага
	ArrivalZone() world.ZoneID
	sealed()
}

// AnchorLeg телепорт на основной якорь
type AnchorLeg struct {
	Anchor *world.Anchor
	// ReachableDirectly true, если шаг можно выполнить из исходной позиции без предыдущих шагов
	ReachableDirectly bool
}

// NetworkLeg перемещение на узел локальной сети зоны
type NetworkLeg struct {
	Anchor *world.Anchor
}

// BoundaryLeg пеший переход через границу зон, без телепорта
type BoundaryLeg struct {
	Connector *world.Connector
	From      world.ZoneID
	To        world.ZoneID
}

// RegionLeg телепорт на шлюз с переходом в другой регион
type RegionLeg struct {
	Anchor            *world.Anchor
	DestinationRegion world.RegionID
}

func (AnchorLeg) Kind() LegKind   { return KindAnchor }
func (NetworkLeg) Kind() LegKind  { return KindNetwork }
func (BoundaryLeg) Kind() LegKind { return KindBoundary }
func (RegionLeg) Kind() LegKind   { return KindRegion }

func (l AnchorLeg) ArrivalZone() world.ZoneID   { return l.Anchor.Zone }
func (l NetworkLeg) ArrivalZone() world.ZoneID  { return l.Anchor.Zone }
func (l BoundaryLeg) ArrivalZone() world.ZoneID { return l.To }
func (l RegionLeg) ArrivalZone() world.ZoneID   { return l.Anchor.Zone }

func (AnchorLeg) sealed()   {}
func (NetworkLeg) sealed()  {}
func (BoundaryLeg) sealed() {}
func (RegionLeg) sealed()   {}

// AnchorOf возвращает якорь шага, если он есть (у BoundaryLeg его нет)
func AnchorOf(leg PathLeg) (*world.Anchor, bool) {
	switch l := leg.(type) {
	case AnchorLeg:
		return l.Anchor, true
	case NetworkLeg:
		return l.Anchor, true
	case RegionLeg:
		return l.Anchor, true
	default:
		return nil, false
	}
}

// Location текущее положение путника
type Location struct {
	Zone     world.ZoneID  `json:"zone"`
	Position vec.Vec2Float `json:"position"`
	// Region 0 означает "регион зоны"
	Region world.RegionID `json:"region,omitempty"`
	// NetworkGroup локальная сеть, в которой находится путник (0 означает любую сеть зоны)
	NetworkGroup uint32 `json:"network_group,omitempty"`
}

// Target точка назначения
type Target struct {
	Zone     world.ZoneID  `json:"zone"`
	Position vec.Vec2Float `json:"position"`
}

// Route упорядоченная последовательность шагов. Создаётся заново на каждый запрос.
type Route []PathLeg

// Kinds возвращает теги шагов маршрута (удобно для логов и тестов)
func (r Route) Kinds() []LegKind {
	out := make([]LegKind, len(r))
	for i, leg := range r {
		out[i] = leg.Kind()
	}
	return out
}

// Hops количество переходов между зонами (AnchorLeg, BoundaryLeg, RegionLeg).
// NetworkLeg не меняет зону и не считается: именно Hops сравнивается с
// минимальным числом переходов поиска в ширину.
func (r Route) Hops() int {
	n := 0
	for _, leg := range r {
		if leg.Kind() != KindNetwork {
			n++
		}
	}
	return n
}
