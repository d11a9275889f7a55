package chatlink

import (
	"testing"

	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world/worldtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner_Find(t *testing.T) {
	s := NewScanner(worldtest.MustGraph())

	t.Run("Link after free text", func(t *testing.T) {
		link, ok := s.Find("S rank spotted at Middle La Noscea ( 20.5 , 18.1 ) hurry")
		require.True(t, ok)
		assert.Equal(t, worldtest.ZoneMiddle, link.Zone.ID)
		assert.Equal(t, vec.Vec2Float{X: 20.5, Y: 18.1}, link.Position)
		assert.Equal(t, "Middle La Noscea ( 20.5 , 18.1 )", link.Raw)
		assert.Equal(t, route.Target{Zone: worldtest.ZoneMiddle, Position: vec.Vec2Float{X: 20.5, Y: 18.1}}, link.Target())
	})

	t.Run("Client marker before zone name", func(t *testing.T) {
		link, ok := s.Find("\ue0bbLimsa Lominsa (29,29)")
		require.True(t, ok)
		assert.Equal(t, worldtest.ZoneLimsa, link.Zone.ID)
		assert.Equal(t, "Limsa Lominsa (29,29)", link.Raw)
	})

	t.Run("Case insensitive", func(t *testing.T) {
		link, ok := s.Find("ul'dah (30, 10)")
		require.True(t, ok)
		assert.Equal(t, worldtest.ZoneUldah, link.Zone.ID)
	})

	t.Run("Unknown zone", func(t *testing.T) {
		_, ok := s.Find("Gridania ( 11 , 11 )")
		assert.False(t, ok)
	})

	t.Run("No coordinates", func(t *testing.T) {
		_, ok := s.Find("let's meet in Limsa Lominsa later")
		assert.False(t, ok)
	})
}

func TestScanner_FindAll(t *testing.T) {
	s := NewScanner(worldtest.MustGraph())

	links := s.FindAll("Limsa Lominsa (12,12) then Nowhere (1,1) then Southern Thanalan ( 20.0 , 21.0 )")
	require.Len(t, links, 2, "Ссылка на неизвестную зону пропускается")
	assert.Equal(t, worldtest.ZoneLimsa, links[0].Zone.ID)
	assert.Equal(t, worldtest.ZoneSouthern, links[1].Zone.ID)
}

func TestRender(t *testing.T) {
	g := worldtest.MustGraph()
	solver := route.NewSolver(g)

	from := route.Location{Zone: worldtest.ZoneMiddle, Position: vec.Vec2Float{X: 20, Y: 20}}
	r := solver.Solve(from, route.Target{Zone: worldtest.ZoneLimsa, Position: vec.Vec2Float{X: 29, Y: 29}}, nil)
	assert.Equal(t, "[Limsa Plaza] → ~Docks", Render(g, r))

	r = solver.Solve(from, route.Target{Zone: worldtest.ZoneLower, Position: vec.Vec2Float{X: 5, Y: 5}}, nil)
	assert.Equal(t, "(Seasong Grotto)", Render(g, r))

	home := route.Location{Zone: worldtest.ZoneLimsa, Position: vec.Vec2Float{X: 11, Y: 11}}
	k := worldtest.PreferenceUldah
	r = solver.Solve(home, route.Target{Zone: worldtest.ZoneCentral, Position: vec.Vec2Float{X: 15, Y: 16}}, &k)
	assert.Equal(t, "[Ul'dah Plaza] → @Other → [Black Brush]", Render(g, r))

	assert.Empty(t, Render(g, nil))
}
