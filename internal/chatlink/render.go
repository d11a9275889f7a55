package chatlink

import (
	"fmt"
	"strings"

	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/world"
)

// Arrow разделитель шагов в тексте маршрута
const Arrow = " → "

// Render превращает маршрут в строку для дописывания к сообщению чата
func Render(g *world.Graph, r route.Route) string {
	parts := make([]string, 0, len(r))
	for _, leg := range r {
		parts = append(parts, renderLeg(g, leg))
	}
	return strings.Join(parts, Arrow)
}

func renderLeg(g *world.Graph, leg route.PathLeg) string {
	switch l := leg.(type) {
	case route.AnchorLeg:
		return "[" + anchorName(l.Anchor) + "]"
	case route.NetworkLeg:
		return "~" + anchorName(l.Anchor)
	case route.BoundaryLeg:
		label := l.Connector.Label
		if label == "" {
			if z, ok := g.Zone(l.To); ok {
				label = z.Name
			}
		}
		return "(" + label + ")"
	case route.RegionLeg:
		region := fmt.Sprintf("region %d", l.DestinationRegion)
		if r, ok := g.Region(l.DestinationRegion); ok && r.Name != "" {
			region = r.Name
		}
		return "[" + anchorName(l.Anchor) + "]" + Arrow + "@" + region
	default:
		return "?"
	}
}

func anchorName(a *world.Anchor) string {
	if a.Name != "" {
		return a.Name
	}
	return fmt.Sprintf("#%d", a.ID)
}
