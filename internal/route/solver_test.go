package route

import (
	"math"
	"sync"
	"testing"

	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world"
	"github.com/annel0/aetherlink/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pt(x, y float64) vec.Vec2Float { return vec.Vec2Float{X: x, Y: y} }

func pref(key string) *world.PreferenceKey {
	k := world.PreferenceKey(key)
	return &k
}

func newSampleSolver(t *testing.T) *Solver {
	t.Helper()
	g, err := world.NewGraph(worldtest.SampleData())
	require.NoError(t, err)
	return NewSolver(g)
}

func anchorIDs(r Route) []world.AnchorID {
	var ids []world.AnchorID
	for _, leg := range r {
		if a, ok := AnchorOf(leg); ok {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func TestSolve_SameZone(t *testing.T) {
	s := newSampleSolver(t)

	t.Run("Already at target", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneMiddle, Position: pt(21, 21)}
		r := s.Solve(from, Target{Zone: worldtest.ZoneMiddle, Position: pt(21, 21)}, nil)
		assert.Empty(t, r, "Совпадение позиции и цели даёт пустой маршрут")
	})

	t.Run("Network node closer than primary", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneLimsa, Position: pt(12, 12)}
		r := s.Solve(from, Target{Zone: worldtest.ZoneLimsa, Position: pt(29, 29)}, nil)

		require.Len(t, r, 1)
		leg, ok := r[0].(NetworkLeg)
		require.True(t, ok, "Ожидался NetworkLeg, получен %T", r[0])
		assert.Equal(t, worldtest.AnchorLimsaDocks, leg.Anchor.ID)
	})

	t.Run("Network node even when traveler is closer", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneLimsa, Position: pt(29.5, 29.5)}
		r := s.Solve(from, Target{Zone: worldtest.ZoneLimsa, Position: pt(29, 29)}, nil)

		require.Len(t, r, 1)
		leg, ok := r[0].(NetworkLeg)
		require.True(t, ok, "Ожидался NetworkLeg, получен %T", r[0])
		assert.Equal(t, worldtest.AnchorLimsaDocks, leg.Anchor.ID)
	})

	t.Run("Primary anchor of own zone is not a hop", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneMiddle, Position: pt(40, 40)}
		r := s.Solve(from, Target{Zone: worldtest.ZoneMiddle, Position: pt(21, 21)}, nil)
		assert.Empty(t, r, "Внутри зоны поиск в ширину даёт ноль переходов")
	})

	t.Run("Traveler closer than any anchor", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneMiddle, Position: pt(22, 22)}
		r := s.Solve(from, Target{Zone: worldtest.ZoneMiddle, Position: pt(21, 21)}, nil)
		assert.Empty(t, r)
	})

	t.Run("Zone without primary anchor", func(t *testing.T) {
		data := worldtest.SampleData()
		data.Anchors = append(data.Anchors, world.Anchor{ID: 301, Zone: worldtest.ZoneLower, Position: pt(10, 10), Name: "Cove"})
		g, err := world.NewGraph(data)
		require.NoError(t, err)

		from := Location{Zone: worldtest.ZoneLower, Position: pt(30, 30)}
		r := NewSolver(g).Solve(from, Target{Zone: worldtest.ZoneLower, Position: pt(11, 11)}, nil)
		assert.Empty(t, r, "Без основного якоря локальная сеть зоны не используется")
	})

	t.Run("Foreign network group is not reachable", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneLimsa, Position: pt(12, 12), NetworkGroup: 7}
		r := s.Solve(from, Target{Zone: worldtest.ZoneLimsa, Position: pt(29, 29)}, nil)
		assert.Empty(t, r, "Узлы чужой сети недоступны, а основной якорь дальше путника")
	})
}

func TestSolve_IntraRegion(t *testing.T) {
	s := newSampleSolver(t)
	limsa := Location{Zone: worldtest.ZoneLimsa, Position: pt(11, 11)}

	t.Run("Direct anchor hop", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneMiddle, Position: pt(25, 25)}, nil)

		require.Len(t, r, 1)
		leg, ok := r[0].(AnchorLeg)
		require.True(t, ok)
		assert.Equal(t, worldtest.AnchorSummerford, leg.Anchor.ID)
		assert.True(t, leg.ReachableDirectly)
	})

	t.Run("Anchor then boundary", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneLower, Position: pt(10, 10)}, nil)

		assert.Equal(t, []LegKind{KindAnchor, KindBoundary}, r.Kinds())
		boundary := r[1].(BoundaryLeg)
		assert.Equal(t, worldtest.ConnectorGrotto, boundary.Connector.ID)
		assert.Equal(t, worldtest.ZoneMiddle, boundary.From)
		assert.Equal(t, worldtest.ZoneLower, boundary.To)
	})

	t.Run("Directional connector chain", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneOuter, Position: pt(10, 10)}, nil)
		assert.Equal(t, []LegKind{KindAnchor, KindBoundary, KindBoundary}, r.Kinds())
	})

	t.Run("Walk out of anchorless zone first", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneLower, Position: pt(5, 5)}
		r := s.Solve(from, Target{Zone: worldtest.ZoneLimsa, Position: pt(12, 12)}, nil)

		assert.Equal(t, []LegKind{KindBoundary, KindAnchor}, r.Kinds())
		assert.False(t, r[1].(AnchorLeg).ReachableDirectly, "Второй шаг недоступен из исходной позиции")
	})

	t.Run("Trailing network leg", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneMiddle, Position: pt(20, 20)}
		r := s.Solve(from, Target{Zone: worldtest.ZoneLimsa, Position: pt(29, 29)}, nil)

		assert.Equal(t, []LegKind{KindAnchor, KindNetwork}, r.Kinds())
		assert.Equal(t, []world.AnchorID{worldtest.AnchorLimsaPlaza, worldtest.AnchorLimsaDocks}, anchorIDs(r))
	})

	t.Run("No trailing leg when primary is closest", func(t *testing.T) {
		from := Location{Zone: worldtest.ZoneMiddle, Position: pt(20, 20)}
		r := s.Solve(from, Target{Zone: worldtest.ZoneLimsa, Position: pt(12, 12)}, nil)
		assert.Equal(t, []LegKind{KindAnchor}, r.Kinds())
	})
}

func TestSolve_NoRoute(t *testing.T) {
	s := newSampleSolver(t)

	cases := []struct {
		name string
		from Location
		to   Target
	}{
		{"Isolated zone", Location{Zone: worldtest.ZoneLimsa, Position: pt(11, 11)}, Target{Zone: worldtest.ZoneIsle, Position: pt(5, 5)}},
		{"Against directional connector", Location{Zone: worldtest.ZoneOuter, Position: pt(5, 5)}, Target{Zone: worldtest.ZoneLower, Position: pt(5, 5)}},
		{"Outside zone bounds", Location{Zone: worldtest.ZoneMiddle, Position: pt(11, 11)}, Target{Zone: worldtest.ZoneLimsa, Position: pt(50, 50)}},
		{"Unknown target zone", Location{Zone: worldtest.ZoneLimsa, Position: pt(11, 11)}, Target{Zone: 404, Position: pt(5, 5)}},
		{"Unknown start zone", Location{Zone: 404, Position: pt(11, 11)}, Target{Zone: worldtest.ZoneLimsa, Position: pt(5, 5)}},
		{"NaN coordinate", Location{Zone: worldtest.ZoneMiddle, Position: pt(11, 11)}, Target{Zone: worldtest.ZoneLimsa, Position: pt(math.NaN(), 5)}},
		{"Other region without gateway", Location{Zone: worldtest.ZoneLimsa, Position: pt(11, 11)}, Target{Zone: worldtest.ZoneCentral, Position: pt(15, 16)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				r := s.Solve(tc.from, tc.to, nil)
				assert.Empty(t, r)
			})
		})
	}
}

func TestSolve_ScenarioABC(t *testing.T) {
	g, err := world.NewGraph(worldtest.ScenarioABC())
	require.NoError(t, err)
	s := NewSolver(g)

	r := s.Solve(Location{Zone: 1, Position: pt(0, 0)}, Target{Zone: 3, Position: pt(90, 90)}, nil)
	require.Len(t, r, 1, "Прямое ребро телепорта короче пути через границы")
	leg, ok := r[0].(AnchorLeg)
	require.True(t, ok)
	assert.Equal(t, world.AnchorID(30), leg.Anchor.ID)

	fromB := s.Solve(Location{Zone: 2, Position: pt(50, 50)}, Target{Zone: 3, Position: pt(90, 90)}, nil)
	assert.Equal(t, []LegKind{KindBoundary}, fromB.Kinds())
	assert.Equal(t, world.ConnectorID(2), fromB[0].(BoundaryLeg).Connector.ID)
}

func TestSolve_CrossRegion(t *testing.T) {
	s := newSampleSolver(t)
	limsa := Location{Zone: worldtest.ZoneLimsa, Position: pt(11, 11), Region: worldtest.RegionHome}

	t.Run("Gateway into target region", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneCentral, Position: pt(15, 16)}, pref("uldah"))

		assert.Equal(t, []LegKind{KindRegion, KindAnchor}, r.Kinds())
		region := r[0].(RegionLeg)
		assert.Equal(t, worldtest.AnchorUldahPlaza, region.Anchor.ID)
		assert.Equal(t, worldtest.RegionOther, region.DestinationRegion)
		assert.Equal(t, worldtest.AnchorBlackBrush, r[1].(AnchorLeg).Anchor.ID)
		assert.False(t, r[1].(AnchorLeg).ReachableDirectly)
		assert.NoError(t, r.Validate(limsa))
	})

	t.Run("Gateway then walk", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneSouthern, Position: pt(20, 20)}, pref("uldah"))
		assert.Equal(t, []LegKind{KindRegion, KindAnchor, KindBoundary}, r.Kinds())
	})

	t.Run("Gateway zone is target zone", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneUldah, Position: pt(29, 10)}, pref("uldah"))

		assert.Equal(t, []LegKind{KindRegion, KindNetwork}, r.Kinds())
		assert.Equal(t, []world.AnchorID{worldtest.AnchorUldahPlaza, worldtest.AnchorUldahGate}, anchorIDs(r))
		assert.NoError(t, r.Validate(limsa))
	})

	t.Run("Gateway into wrong region is not prepended", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneCentral, Position: pt(15, 16)}, pref("limsa"))
		assert.Empty(t, r, "Шлюз в регион, отличный от региона цели, не используется")
	})

	t.Run("Unknown preference degrades silently", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneCentral, Position: pt(15, 16)}, pref("gridania"))
		assert.Empty(t, r)
	})

	t.Run("Same region ignores preference", func(t *testing.T) {
		r := s.Solve(limsa, Target{Zone: worldtest.ZoneMiddle, Position: pt(25, 25)}, pref("uldah"))
		assert.Equal(t, []LegKind{KindAnchor}, r.Kinds())
	})

	t.Run("Traveler region overrides zone region", func(t *testing.T) {
		visiting := Location{Zone: worldtest.ZoneLimsa, Position: pt(11, 11), Region: worldtest.RegionOther}
		r := s.Solve(visiting, Target{Zone: worldtest.ZoneMiddle, Position: pt(25, 25)}, pref("limsa"))
		assert.Equal(t, []LegKind{KindRegion, KindAnchor}, r.Kinds())
	})
}

func TestSolve_Determinism(t *testing.T) {
	s := newSampleSolver(t)
	from := Location{Zone: worldtest.ZoneLower, Position: pt(5, 5)}
	to := Target{Zone: worldtest.ZoneLimsa, Position: pt(29, 29)}

	first := s.Solve(from, to, pref("uldah"))
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, s.Solve(from, to, pref("uldah")))
	}
}

// bfsHops независимый подсчёт минимального числа переходов между зонами
func bfsHops(g *world.Graph, src, dst world.ZoneID) (int, bool) {
	dist := map[world.ZoneID]int{src: 0}
	queue := []world.ZoneID{src}
	for len(queue) > 0 {
		z := queue[0]
		queue = queue[1:]
		if z == dst {
			return dist[z], true
		}
		for _, e := range g.Neighbors(z) {
			if _, seen := dist[e.To]; !seen {
				dist[e.To] = dist[z] + 1
				queue = append(queue, e.To)
			}
		}
	}
	return 0, false
}

func TestSolve_Properties(t *testing.T) {
	s := newSampleSolver(t)
	g := s.Graph()
	targets := []vec.Vec2Float{pt(1, 1), pt(12, 12), pt(29, 29), pt(21.5, 21.5), pt(42, 42)}

	for _, fromZone := range g.Zones() {
		for _, toZone := range g.Zones() {
			for _, p := range targets {
				from := Location{Zone: fromZone, Position: pt(20, 20)}
				to := Target{Zone: toZone, Position: p}

				for _, pk := range []*world.PreferenceKey{nil, pref("uldah"), pref("limsa")} {
					r := s.Solve(from, to, pk)
					require.NoError(t, r.Validate(from), "from=%d to=%d", fromZone, toZone)
					for i, leg := range r {
						if leg.Kind() == KindRegion {
							assert.Zero(t, i, "RegionLeg только первым шагом")
						}
					}
					if len(r) > 0 {
						assert.True(t, r.EndsIn(from, toZone), "Маршрут должен заканчиваться в зоне цели")
					}
				}

				r := s.Solve(from, to, nil)
				hops, reachable := bfsHops(g, fromZone, toZone)
				if !reachable {
					assert.Empty(t, r, "from=%d to=%d", fromZone, toZone)
					continue
				}
				assert.Equal(t, hops, r.Hops(), "from=%d to=%d", fromZone, toZone)
				assert.LessOrEqual(t, len(r)-r.Hops(), 1, "Не более одного завершающего NetworkLeg")
			}
		}
	}
}

func TestSolve_Concurrent(t *testing.T) {
	s := newSampleSolver(t)
	from := Location{Zone: worldtest.ZoneMiddle, Position: pt(20, 20)}
	to := Target{Zone: worldtest.ZoneOuter, Position: pt(8, 8)}
	want := s.Solve(from, to, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				assert.Equal(t, want, s.Solve(from, to, nil))
			}
		}()
	}
	wg.Wait()
}

func TestDistanceToTarget(t *testing.T) {
	s := newSampleSolver(t)
	to := Target{Zone: worldtest.ZoneMiddle, Position: pt(20, 24)}
	r := s.Solve(Location{Zone: worldtest.ZoneLimsa, Position: pt(11, 11)}, to, nil)

	d, ok := DistanceToTarget(r, to)
	require.True(t, ok)
	assert.InDelta(t, 4.0, d, 1e-9)

	_, ok = DistanceToTarget(nil, to)
	assert.False(t, ok)
}
