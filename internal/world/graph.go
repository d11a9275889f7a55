package world

import (
	"sort"
	"strings"

	"github.com/annel0/aetherlink/internal/vec"
)

// Graph статический граф якорей, переходов и регионов.
// После NewGraph не изменяется, поэтому безопасен для конкурентного чтения без блокировок.
type Graph struct {
	regions    map[RegionID]*Region
	zones      map[ZoneID]*Zone
	zoneIDs    []ZoneID
	zoneByName map[string]*Zone

	anchors      map[AnchorID]*Anchor
	anchorsByZ   map[ZoneID][]*Anchor // по возрастанию ID
	primaryZones map[ZoneID]bool

	connectors    map[ConnectorID]*Connector
	connectorsByZ map[ZoneID][]*Connector // по возрастанию ID, обе стороны

	adjacency map[ZoneID][]Edge // по возрастанию ZoneID
	gateways  map[PreferenceKey]*Anchor
}

// NewGraph строит граф из плоской таблицы мира.
// При нарушении ссылочной целостности возвращает *GraphConstructionError.
func NewGraph(data Data) (*Graph, error) {
	g := &Graph{
		regions:       make(map[RegionID]*Region, len(data.Regions)),
		zones:         make(map[ZoneID]*Zone, len(data.Zones)),
		zoneByName:    make(map[string]*Zone, len(data.Zones)),
		anchors:       make(map[AnchorID]*Anchor, len(data.Anchors)),
		anchorsByZ:    make(map[ZoneID][]*Anchor),
		primaryZones:  make(map[ZoneID]bool),
		connectors:    make(map[ConnectorID]*Connector, len(data.Connectors)),
		connectorsByZ: make(map[ZoneID][]*Connector),
		adjacency:     make(map[ZoneID][]Edge, len(data.Zones)),
		gateways:      make(map[PreferenceKey]*Anchor, len(data.Gateways)),
	}
	problems := &GraphConstructionError{}

	for i := range data.Regions {
		r := data.Regions[i]
		if r.ID == 0 {
			problems.add("region #%d has zero id", i)
			continue
		}
		if _, dup := g.regions[r.ID]; dup {
			problems.add("duplicate region %d", r.ID)
			continue
		}
		g.regions[r.ID] = &r
	}
	// Без явного списка регионов регионы выводятся из назначений зон
	implicitRegions := len(data.Regions) == 0

	for i := range data.Zones {
		z := data.Zones[i]
		switch {
		case z.ID == 0:
			problems.add("zone #%d has zero id", i)
			continue
		case g.zones[z.ID] != nil:
			problems.add("duplicate zone %d", z.ID)
			continue
		case !z.Bounds.IsZero() && !z.Bounds.Valid():
			problems.add("zone %d has invalid bounds", z.ID)
		}
		if implicitRegions {
			if _, ok := g.regions[z.Region]; !ok {
				g.regions[z.Region] = &Region{ID: z.Region}
			}
		} else if _, ok := g.regions[z.Region]; !ok {
			problems.add("zone %d references unknown region %d", z.ID, z.Region)
		}
		g.zones[z.ID] = &z
		g.zoneIDs = append(g.zoneIDs, z.ID)

		key := normalizeName(z.Name)
		if key != "" {
			if prev, ok := g.zoneByName[key]; !ok || prev.ID > z.ID {
				g.zoneByName[key] = g.zones[z.ID]
			}
		}
	}
	sort.Slice(g.zoneIDs, func(i, j int) bool { return g.zoneIDs[i] < g.zoneIDs[j] })

	for i := range data.Anchors {
		a := data.Anchors[i]
		switch {
		case a.ID == 0:
			problems.add("anchor #%d has zero id", i)
			continue
		case g.anchors[a.ID] != nil:
			problems.add("duplicate anchor %d", a.ID)
			continue
		case g.zones[a.Zone] == nil:
			problems.add("anchor %d references unknown zone %d", a.ID, a.Zone)
			continue
		case !a.Position.IsFinite():
			problems.add("anchor %d has non-finite position", a.ID)
			continue
		}
		if a.IsGateway() {
			if _, ok := g.regions[a.DestinationRegion]; !ok {
				problems.add("gateway anchor %d targets unknown region %d", a.ID, a.DestinationRegion)
			} else if g.zones[a.Zone].Region != a.DestinationRegion {
				problems.add("gateway anchor %d lies in zone %d outside destination region %d",
					a.ID, a.Zone, a.DestinationRegion)
			}
		}
		g.anchors[a.ID] = &a
		g.anchorsByZ[a.Zone] = append(g.anchorsByZ[a.Zone], g.anchors[a.ID])
		if a.IsPrimary {
			g.primaryZones[a.Zone] = true
		}
	}
	for _, list := range g.anchorsByZ {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	for i := range data.Connectors {
		c := data.Connectors[i]
		switch {
		case c.ID == 0:
			problems.add("connector #%d has zero id", i)
			continue
		case g.connectors[c.ID] != nil:
			problems.add("duplicate connector %d", c.ID)
			continue
		case g.zones[c.From] == nil:
			problems.add("connector %d references unknown zone %d", c.ID, c.From)
			continue
		case g.zones[c.To] == nil:
			problems.add("connector %d references unknown zone %d", c.ID, c.To)
			continue
		case c.From == c.To:
			problems.add("connector %d joins zone %d to itself", c.ID, c.From)
			continue
		}
		g.connectors[c.ID] = &c
		g.connectorsByZ[c.From] = append(g.connectorsByZ[c.From], g.connectors[c.ID])
		g.connectorsByZ[c.To] = append(g.connectorsByZ[c.To], g.connectors[c.ID])
	}
	for _, list := range g.connectorsByZ {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	}

	for pref, id := range data.Gateways {
		a, ok := g.anchors[id]
		switch {
		case pref == "":
			problems.add("gateway with empty preference key")
		case !ok:
			problems.add("gateway %q references unknown anchor %d", pref, id)
		case !a.IsGateway():
			problems.add("gateway %q anchor %d has no destination region", pref, id)
		default:
			g.gateways[pref] = a
		}
	}

	if len(problems.Problems) > 0 {
		sort.Strings(problems.Problems)
		return nil, problems
	}

	g.buildAdjacency()
	return g, nil
}

// buildAdjacency строит детерминированный список соседей для каждой зоны.
// Ребро телепорта предпочтительнее пешего перехода между той же парой зон.
func (g *Graph) buildAdjacency() {
	for _, from := range g.zoneIDs {
		edges := make(map[ZoneID]Edge)

		for _, c := range g.connectorsByZ[from] {
			if !c.Allows(from) {
				continue
			}
			to := c.Other(from)
			if _, seen := edges[to]; !seen {
				edges[to] = Edge{To: to, Kind: EdgeConnector, Connector: c}
			}
		}

		if g.primaryZones[from] {
			region := g.zones[from].Region
			for _, to := range g.zoneIDs {
				if to == from || !g.primaryZones[to] || g.zones[to].Region != region {
					continue
				}
				edges[to] = Edge{To: to, Kind: EdgeAnchor}
			}
		}

		list := make([]Edge, 0, len(edges))
		for _, e := range edges {
			list = append(list, e)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].To < list[j].To })
		g.adjacency[from] = list
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Zone возвращает зону по идентификатору
func (g *Graph) Zone(id ZoneID) (*Zone, bool) {
	z, ok := g.zones[id]
	return z, ok
}

// ZoneByName ищет зону по имени без учёта регистра
func (g *Graph) ZoneByName(name string) (*Zone, bool) {
	z, ok := g.zoneByName[normalizeName(name)]
	return z, ok
}

// Zones возвращает идентификаторы всех зон по возрастанию
func (g *Graph) Zones() []ZoneID {
	out := make([]ZoneID, len(g.zoneIDs))
	copy(out, g.zoneIDs)
	return out
}

// Region возвращает регион по идентификатору
func (g *Graph) Region(id RegionID) (*Region, bool) {
	r, ok := g.regions[id]
	return r, ok
}

// RegionOf возвращает регион зоны (0, если зона неизвестна)
func (g *Graph) RegionOf(zone ZoneID) RegionID {
	if z, ok := g.zones[zone]; ok {
		return z.Region
	}
	return 0
}

// Anchor возвращает якорь по идентификатору
func (g *Graph) Anchor(id AnchorID) (*Anchor, bool) {
	a, ok := g.anchors[id]
	return a, ok
}

// Connector возвращает переход по идентификатору
func (g *Graph) Connector(id ConnectorID) (*Connector, bool) {
	c, ok := g.connectors[id]
	return c, ok
}

// AnchorsInZone возвращает все якоря зоны. Порядок не гарантируется контрактом,
// фактически по возрастанию ID.
func (g *Graph) AnchorsInZone(zone ZoneID) []*Anchor {
	list := g.anchorsByZ[zone]
	out := make([]*Anchor, len(list))
	copy(out, list)
	return out
}

// HasPrimaryAnchor сообщает, есть ли в зоне хотя бы один основной якорь
func (g *Graph) HasPrimaryAnchor(zone ZoneID) bool {
	return g.primaryZones[zone]
}

// NearestAnchorTo возвращает якорь зоны, ближайший к coord.
// Без allowNetworkNodes рассматриваются только основные якоря. Ничьи решаются меньшим ID.
func (g *Graph) NearestAnchorTo(zone ZoneID, coord vec.Vec2Float, allowNetworkNodes bool) (*Anchor, bool) {
	return g.NearestAnchorWhere(zone, coord, func(a *Anchor) bool {
		return allowNetworkNodes || a.IsPrimary
	})
}

// NearestAnchorWhere как NearestAnchorTo, но с произвольным фильтром кандидатов
func (g *Graph) NearestAnchorWhere(zone ZoneID, coord vec.Vec2Float, keep func(*Anchor) bool) (*Anchor, bool) {
	var (
		best     *Anchor
		bestDist float64
	)
	for _, a := range g.anchorsByZ[zone] {
		if keep != nil && !keep(a) {
			continue
		}
		d := a.Position.DistanceTo(coord)
		// anchorsByZ отсортирован по ID, строгое сравнение оставляет меньший ID при равенстве
		if best == nil || d < bestDist {
			best, bestDist = a, d
		}
	}
	return best, best != nil
}

// ConnectorsFrom возвращает переходы, по которым можно выйти из зоны.
// Направленные переходы учитываются только в разрешённом направлении.
func (g *Graph) ConnectorsFrom(zone ZoneID) []*Connector {
	var out []*Connector
	for _, c := range g.connectorsByZ[zone] {
		if c.Allows(zone) {
			out = append(out, c)
		}
	}
	return out
}

// CrossRegionAnchorFor возвращает шлюз для ключа предпочтения.
// false означает, что для ключа ничего не настроено (не ошибка).
func (g *Graph) CrossRegionAnchorFor(pref PreferenceKey) (*Anchor, bool) {
	a, ok := g.gateways[pref]
	return a, ok
}

// Preferences возвращает настроенные ключи шлюзов по алфавиту
func (g *Graph) Preferences() []PreferenceKey {
	out := make([]PreferenceKey, 0, len(g.gateways))
	for k := range g.gateways {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Neighbors возвращает рёбра смежности зоны по возрастанию ID соседа
func (g *Graph) Neighbors(zone ZoneID) []Edge {
	return g.adjacency[zone]
}

// Stats возвращает сводку по графу
func (g *Graph) Stats() Stats {
	s := Stats{
		Regions:    len(g.regions),
		Zones:      len(g.zones),
		Anchors:    len(g.anchors),
		Connectors: len(g.connectors),
		Gateways:   len(g.gateways),
	}
	for _, a := range g.anchors {
		if a.IsPrimary {
			s.Primary++
		}
	}
	for _, edges := range g.adjacency {
		s.Edges += len(edges)
	}
	return s
}
