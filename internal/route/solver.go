package route

import (
	"github.com/annel0/aetherlink/internal/world"
)

// Solver вычисляет кратчайший по числу шагов маршрут телепортов.
// Чистая функция от входа и графа: безопасен для конкурентного использования.
type Solver struct {
	graph *world.Graph
}

// NewSolver создаёт решатель поверх неизменяемого графа
func NewSolver(graph *world.Graph) *Solver {
	return &Solver{graph: graph}
}

// Graph возвращает граф решателя
func (s *Solver) Graph() *world.Graph {
	return s.graph
}

// Solve строит маршрут от from до to. pref != nil включает межрегиональный шаг через шлюз.
// Пустой маршрут означает "маршрут не найден" либо "путник уже на месте" и не является ошибкой.
func (s *Solver) Solve(from Location, to Target, pref *world.PreferenceKey) Route {
	if !s.targetValid(to) {
		return nil
	}

	r := s.intraRegion(from, to, true)
	if pref != nil {
		r = s.withRegionLeg(from, to, *pref, r)
	}
	return r
}

// targetValid отбрасывает неизвестные зоны и координаты вне границ зоны
func (s *Solver) targetValid(to Target) bool {
	zone, ok := s.graph.Zone(to.Zone)
	if !ok {
		return false
	}
	return zone.Bounds.Contains(to.Position)
}

func (s *Solver) intraRegion(from Location, to Target, firstDirect bool) Route {
	if _, ok := s.graph.Zone(from.Zone); !ok {
		return nil
	}
	if from.Zone == to.Zone {
		return s.sameZone(from, to)
	}

	path, ok := s.zonePath(from.Zone, to.Zone)
	if !ok {
		return nil
	}

	legs := make(Route, 0, len(path)+1)
	var arrived *world.Anchor
	current := from.Zone
	for i, e := range path {
		final := i == len(path)-1
		switch e.Kind {
		case world.EdgeAnchor:
			aim := to.Position
			if !final {
				z, _ := s.graph.Zone(e.To)
				aim = z.Centroid()
			}
			a, ok := s.graph.NearestAnchorTo(e.To, aim, false)
			if !ok {
				// ребро телепорта существует только между зонами с основными якорями
				return nil
			}
			legs = append(legs, AnchorLeg{Anchor: a, ReachableDirectly: firstDirect && i == 0})
			arrived = a
		case world.EdgeConnector:
			legs = append(legs, BoundaryLeg{Connector: e.Connector, From: current, To: e.To})
			arrived = nil
		}
		current = e.To
	}

	if arrived != nil {
		limit := arrived.Position.DistanceTo(to.Position)
		if node, ok := s.networkNode(to, arrived.NetworkGroup, limit); ok {
			legs = append(legs, NetworkLeg{Anchor: node})
		}
	}
	return legs
}

// sameZone обрабатывает случай, когда путник уже в зоне назначения: поиск в ширину
// даёт ноль переходов, поэтому возможен только шаг к узлу локальной сети, который
// ближе к цели, чем любой основной якорь зоны. В зоне без основного якоря маршрут пуст.
func (s *Solver) sameZone(from Location, to Target) Route {
	if from.Position.DistanceTo(to.Position) == 0 {
		return nil
	}

	primary, ok := s.graph.NearestAnchorTo(to.Zone, to.Position, false)
	if !ok {
		return nil
	}
	node, ok := s.networkNode(to, from.NetworkGroup, primary.Position.DistanceTo(to.Position))
	if !ok {
		return nil
	}
	return Route{NetworkLeg{Anchor: node}}
}

// networkNode ищет узел локальной сети зоны цели, строго ближе limit к цели.
// Узел доступен, если его группа 0, группа путника 0 или группы совпадают.
func (s *Solver) networkNode(to Target, group uint32, limit float64) (*world.Anchor, bool) {
	node, ok := s.graph.NearestAnchorWhere(to.Zone, to.Position, func(a *world.Anchor) bool {
		return !a.IsPrimary && (a.NetworkGroup == 0 || group == 0 || a.NetworkGroup == group)
	})
	if !ok || node.Position.DistanceTo(to.Position) >= limit {
		return nil, false
	}
	return node, true
}

// zonePath поиск в ширину по графу смежности зон.
// Соседи перебираются по возрастанию ID, поэтому среди равных по длине путей
// выбирается первый найденный.
func (s *Solver) zonePath(src, dst world.ZoneID) ([]world.Edge, bool) {
	type step struct {
		from world.ZoneID
		edge world.Edge
	}

	parent := map[world.ZoneID]step{}
	visited := map[world.ZoneID]bool{src: true}
	queue := []world.ZoneID{src}

	for len(queue) > 0 && !visited[dst] {
		z := queue[0]
		queue = queue[1:]
		for _, e := range s.graph.Neighbors(z) {
			if visited[e.To] {
				continue
			}
			visited[e.To] = true
			parent[e.To] = step{from: z, edge: e}
			queue = append(queue, e.To)
		}
	}
	if !visited[dst] {
		return nil, false
	}

	var path []world.Edge
	for z := dst; z != src; z = parent[z].from {
		path = append(path, parent[z].edge)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}

// withRegionLeg добавляет межрегиональный шаг через шлюз, если цель в другом регионе
// и шлюз ведёт именно в регион цели. Иначе возвращает base без изменений.
func (s *Solver) withRegionLeg(from Location, to Target, pref world.PreferenceKey, base Route) Route {
	targetRegion := s.graph.RegionOf(to.Zone)
	current := from.Region
	if current == 0 {
		current = s.graph.RegionOf(from.Zone)
	}
	if targetRegion == current {
		return base
	}

	gw, ok := s.graph.CrossRegionAnchorFor(pref)
	if !ok || s.graph.RegionOf(gw.Zone) != targetRegion {
		return base
	}

	start := Location{
		Zone:         gw.Zone,
		Position:     gw.Position,
		Region:       gw.DestinationRegion,
		NetworkGroup: gw.NetworkGroup,
	}
	rest := s.intraRegion(start, to, false)
	if len(rest) == 0 && gw.Zone != to.Zone {
		// из зоны шлюза цель недостижима
		return base
	}

	out := make(Route, 0, len(rest)+1)
	out = append(out, RegionLeg{Anchor: gw, DestinationRegion: gw.DestinationRegion})
	return append(out, rest...)
}

// DistanceToTarget расстояние от якоря последнего шага до цели (для сортировки в UI).
// ok == false, если последний шаг не содержит якоря или маршрут пуст.
func DistanceToTarget(r Route, to Target) (float64, bool) {
	if len(r) == 0 {
		return 0, false
	}
	a, ok := AnchorOf(r[len(r)-1])
	if !ok || a.Zone != to.Zone {
		return 0, false
	}
	return a.Position.DistanceTo(to.Position), true
}
