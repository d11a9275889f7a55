// Package chatlink находит ссылки на карту в тексте чата и превращает их в цели маршрута.
//
// Ссылка имеет вид "<название зоны> ( x , y )", например "Middle La Noscea ( 20.5 , 18.1 )".
// Перед названием зоны может стоять произвольный текст сообщения.
package chatlink

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/vec"
	"github.com/annel0/aetherlink/internal/world"
)

var (
	linkPattern = regexp.MustCompile(`([^()]+?)\s*\(\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*\)`)
	// служебные символы клиента (приватная область Unicode) не входят в слова
	wordPattern = regexp.MustCompile(`[^\s\p{Co}\p{Cc}]+`)
)

// Link найденная в сообщении ссылка на карту
type Link struct {
	Zone     *world.Zone
	Position vec.Vec2Float
	// Raw исходный фрагмент сообщения, начиная с названия зоны
	Raw string
}

// Target цель маршрута для ссылки
func (l Link) Target() route.Target {
	return route.Target{Zone: l.Zone.ID, Position: l.Position}
}

// Scanner разбирает сообщения относительно известных зон графа
type Scanner struct {
	graph *world.Graph
}

func NewScanner(graph *world.Graph) *Scanner {
	return &Scanner{graph: graph}
}

// Find возвращает первую ссылку, название зоны в которой удалось разрешить
func (s *Scanner) Find(msg string) (Link, bool) {
	links := s.scan(msg, 1)
	if len(links) == 0 {
		return Link{}, false
	}
	return links[0], true
}

// FindAll возвращает все разрешённые ссылки в порядке появления
func (s *Scanner) FindAll(msg string) []Link {
	return s.scan(msg, -1)
}

func (s *Scanner) scan(msg string, limit int) []Link {
	var out []Link
	for _, m := range linkPattern.FindAllStringSubmatch(msg, -1) {
		x, errX := strconv.ParseFloat(m[2], 64)
		y, errY := strconv.ParseFloat(m[3], 64)
		if errX != nil || errY != nil {
			continue
		}
		zone, offset, ok := s.resolveZone(m[1])
		if !ok {
			continue
		}
		out = append(out, Link{Zone: zone, Position: vec.Vec2Float{X: x, Y: y}, Raw: m[0][offset:]})
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// resolveZone подбирает самый длинный хвост текста, совпадающий с названием зоны.
// Возвращает смещение начала названия в text.
func (s *Scanner) resolveZone(text string) (*world.Zone, int, bool) {
	locs := wordPattern.FindAllStringIndex(text, -1)
	words := make([]string, len(locs))
	for i, loc := range locs {
		words[i] = text[loc[0]:loc[1]]
	}
	for i := range words {
		if z, ok := s.graph.ZoneByName(strings.Join(words[i:], " ")); ok {
			return z, locs[i][0], true
		}
	}
	return nil, 0, false
}
