package world

import (
	"github.com/annel0/aetherlink/internal/vec"
)

// Идентификаторы сущностей мира. Нулевое значение означает "не задано".
type (
	ZoneID      uint32
	AnchorID    uint32
	RegionID    uint32
	ConnectorID uint32
)

// PreferenceKey ключ выбора домашнего шлюза (например, "limsa", "gridania", "uldah").
type PreferenceKey string

// Region группа зон с общим пулом телепортов (сервер/инстанс)
type Region struct {
	ID   RegionID `json:"id" yaml:"id"`
	Name string   `json:"name" yaml:"name"`
}

// Zone отдельная область мира со своей системой координат
type Zone struct {
	ID     ZoneID   `json:"id" yaml:"id"`
	Name   string   `json:"name" yaml:"name"`
	Region RegionID `json:"region" yaml:"region"`
	Bounds vec.Rect `json:"bounds" yaml:"bounds"`
}

// Centroid возвращает опорную точку зоны для промежуточных прыжков
func (z *Zone) Centroid() vec.Vec2Float {
	return z.Bounds.Center()
}

// Anchor точка телепорта.
//
// IsPrimary == true: основной вэйпоинт, доступен откуда угодно в пределах региона.
// IsPrimary == false: узел локальной сети зоны, доступен только изнутри этой сети.
// DestinationRegion != 0 помечает шлюз в другой регион.
type Anchor struct {
	ID                AnchorID      `json:"id" yaml:"id"`
	Zone              ZoneID        `json:"zone" yaml:"zone"`
	Position          vec.Vec2Float `json:"position" yaml:"position"`
	Name              string        `json:"name,omitempty" yaml:"name"`
	IsPrimary         bool          `json:"primary" yaml:"primary"`
	NetworkGroup      uint32        `json:"network_group,omitempty" yaml:"network_group"`
	DestinationRegion RegionID      `json:"destination_region,omitempty" yaml:"destination_region"`
}

// IsGateway сообщает, ведёт ли якорь в другой регион
func (a *Anchor) IsGateway() bool {
	return a.DestinationRegion != 0
}

// Connector пеший переход между соседними зонами без телепорта
type Connector struct {
	ID            ConnectorID `json:"id" yaml:"id"`
	From          ZoneID      `json:"from" yaml:"from"`
	To            ZoneID      `json:"to" yaml:"to"`
	Bidirectional bool        `json:"bidirectional" yaml:"bidirectional"`
	Label         string      `json:"label,omitempty" yaml:"label"`
}

// Other возвращает зону на противоположной стороне перехода
func (c *Connector) Other(zone ZoneID) ZoneID {
	if c.From == zone {
		return c.To
	}
	return c.From
}

// Allows проверяет, можно ли пройти переход из зоны from
func (c *Connector) Allows(from ZoneID) bool {
	return c.From == from || (c.Bidirectional && c.To == from)
}

// Data плоская таблица мира, поставляемая внешним источником данных
type Data struct {
	Regions    []Region                   `json:"regions" yaml:"regions"`
	Zones      []Zone                     `json:"zones" yaml:"zones"`
	Anchors    []Anchor                   `json:"anchors" yaml:"anchors"`
	Connectors []Connector                `json:"connectors" yaml:"connectors"`
	Gateways   map[PreferenceKey]AnchorID `json:"gateways,omitempty" yaml:"gateways"`
}

// EdgeKind тип ребра графа смежности зон
type EdgeKind uint8

const (
	// EdgeAnchor телепорт между основными якорями двух зон одного региона
	EdgeAnchor EdgeKind = iota + 1
	// EdgeConnector пеший переход через границу зон
	EdgeConnector
)

func (k EdgeKind) String() string {
	switch k {
	case EdgeAnchor:
		return "anchor"
	case EdgeConnector:
		return "connector"
	default:
		return "unknown"
	}
}

// Edge ребро графа смежности. Для EdgeConnector заполнен Connector.
type Edge struct {
	To        ZoneID
	Kind      EdgeKind
	Connector *Connector
}

// Stats краткая сводка по загруженному графу
type Stats struct {
	Regions    int `json:"regions"`
	Zones      int `json:"zones"`
	Anchors    int `json:"anchors"`
	Primary    int `json:"primary"`
	Connectors int `json:"connectors"`
	Gateways   int `json:"gateways"`
	Edges      int `json:"edges"`
}
