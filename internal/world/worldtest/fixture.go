// Package worldtest содержит общую тестовую таблицу мира.
package worldtest

import (
	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world"
)

const (
	RegionHome  world.RegionID = 1
	RegionOther world.RegionID = 2
)

// Зоны тестового мира
const (
	ZoneLimsa    world.ZoneID = 1
	ZoneMiddle   world.ZoneID = 2
	ZoneLower    world.ZoneID = 3
	ZoneIsle     world.ZoneID = 4
	ZoneWestern  world.ZoneID = 5
	ZoneOuter    world.ZoneID = 6
	ZoneUldah    world.ZoneID = 11
	ZoneCentral  world.ZoneID = 12
	ZoneSouthern world.ZoneID = 13
)

// Якоря тестового мира
const (
	AnchorLimsaPlaza  world.AnchorID = 101
	AnchorLimsaDocks  world.AnchorID = 102
	AnchorLimsaBridge world.AnchorID = 103
	AnchorSummerford  world.AnchorID = 201
	AnchorHorizon     world.AnchorID = 501
	AnchorUldahPlaza  world.AnchorID = 1101
	AnchorUldahGate   world.AnchorID = 1102
	AnchorBlackBrush  world.AnchorID = 1201
)

// Переходы тестового мира
const (
	ConnectorGrotto   world.ConnectorID = 1
	ConnectorCliff    world.ConnectorID = 2
	ConnectorSandgate world.ConnectorID = 3
)

// Ключи предпочтений шлюзов
const (
	PreferenceLimsa world.PreferenceKey = "limsa"
	PreferenceUldah world.PreferenceKey = "uldah"
)

func bounds(size float64) vec.Rect {
	return vec.Rect{Min: vec.Vec2Float{X: 1, Y: 1}, Max: vec.Vec2Float{X: size, Y: size}}
}

// SampleData возвращает свежую копию тестовой таблицы мира
func SampleData() world.Data {
	return world.Data{
		Regions: []world.Region{
			{ID: RegionHome, Name: "Home"},
			{ID: RegionOther, Name: "Other"},
		},
		Zones: []world.Zone{
			{ID: ZoneLimsa, Name: "Limsa Lominsa", Region: RegionHome, Bounds: bounds(42)},
			{ID: ZoneMiddle, Name: "Middle La Noscea", Region: RegionHome, Bounds: bounds(42)},
			{ID: ZoneLower, Name: "Lower La Noscea", Region: RegionHome, Bounds: bounds(42)},
			{ID: ZoneIsle, Name: "Isolated Isle", Region: RegionHome, Bounds: bounds(42)},
			{ID: ZoneWestern, Name: "Western Thanalan", Region: RegionHome, Bounds: bounds(42)},
			{ID: ZoneOuter, Name: "Outer La Noscea", Region: RegionHome, Bounds: bounds(42)},
			{ID: ZoneUldah, Name: "Ul'dah", Region: RegionOther, Bounds: bounds(42)},
			{ID: ZoneCentral, Name: "Central Thanalan", Region: RegionOther, Bounds: bounds(42)},
			{ID: ZoneSouthern, Name: "Southern Thanalan", Region: RegionOther, Bounds: bounds(42)},
		},
		Anchors: []world.Anchor{
			{ID: AnchorLimsaPlaza, Zone: ZoneLimsa, Position: vec.Vec2Float{X: 11, Y: 11}, Name: "Limsa Plaza",
				IsPrimary: true, NetworkGroup: 1, DestinationRegion: RegionHome},
			{ID: AnchorLimsaDocks, Zone: ZoneLimsa, Position: vec.Vec2Float{X: 30, Y: 30}, Name: "Docks", NetworkGroup: 1},
			{ID: AnchorLimsaBridge, Zone: ZoneLimsa, Position: vec.Vec2Float{X: 5, Y: 35}, Name: "Bridge", NetworkGroup: 1},
			{ID: AnchorSummerford, Zone: ZoneMiddle, Position: vec.Vec2Float{X: 20, Y: 20}, Name: "Summerford", IsPrimary: true},
			{ID: AnchorHorizon, Zone: ZoneWestern, Position: vec.Vec2Float{X: 10, Y: 10}, Name: "Horizon", IsPrimary: true},
			{ID: AnchorUldahPlaza, Zone: ZoneUldah, Position: vec.Vec2Float{X: 9, Y: 9}, Name: "Ul'dah Plaza",
				IsPrimary: true, NetworkGroup: 2, DestinationRegion: RegionOther},
			{ID: AnchorUldahGate, Zone: ZoneUldah, Position: vec.Vec2Float{X: 30, Y: 10}, Name: "Gate of Nald", NetworkGroup: 2},
			{ID: AnchorBlackBrush, Zone: ZoneCentral, Position: vec.Vec2Float{X: 15, Y: 15}, Name: "Black Brush", IsPrimary: true},
		},
		Connectors: []world.Connector{
			{ID: ConnectorGrotto, From: ZoneMiddle, To: ZoneLower, Bidirectional: true, Label: "Seasong Grotto"},
			{ID: ConnectorCliff, From: ZoneLower, To: ZoneOuter, Label: "Cliff Drop"},
			{ID: ConnectorSandgate, From: ZoneCentral, To: ZoneSouthern, Bidirectional: true, Label: "Sandgate"},
		},
		Gateways: map[world.PreferenceKey]world.AnchorID{
			PreferenceLimsa: AnchorLimsaPlaza,
			PreferenceUldah: AnchorUldahPlaza,
		},
	}
}

// MustGraph строит граф из SampleData и паникует при ошибке
func MustGraph() *world.Graph {
	g, err := world.NewGraph(SampleData())
	if err != nil {
		panic(err)
	}
	return g
}

// ScenarioABC мир из трёх зон: A и C с основными якорями, B без якоря, переходы A↔B и B↔C
func ScenarioABC() world.Data {
	return world.Data{
		Zones: []world.Zone{
			{ID: 1, Name: "A", Region: 1},
			{ID: 2, Name: "B", Region: 1},
			{ID: 3, Name: "C", Region: 1},
		},
		Anchors: []world.Anchor{
			{ID: 10, Zone: 1, Position: vec.Vec2Float{X: 0, Y: 0}, IsPrimary: true},
			{ID: 30, Zone: 3, Position: vec.Vec2Float{X: 100, Y: 100}, IsPrimary: true},
		},
		Connectors: []world.Connector{
			{ID: 1, From: 1, To: 2, Bidirectional: true, Label: "A-B"},
			{ID: 2, From: 2, To: 3, Bidirectional: true, Label: "B-C"},
		},
	}
}
