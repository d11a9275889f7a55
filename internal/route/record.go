package route

import (
	"errors"
	"fmt"

	"github.com/annel0/aetherlink/internal/world"
)

// ErrUnknownReference шаг ссылается на сущность, которой нет в графе
var ErrUnknownReference = errors.New("leg references unknown world entity")

// ErrRegionMismatch регион назначения записи не совпадает с регионом шлюза в графе
var ErrRegionMismatch = errors.New("leg destination region does not match gateway")

// LegRecord сериализуемое представление шага: только идентификаторы.
// Используется кешем маршрутов и HTTP API.
type LegRecord struct {
	Kind              string            `json:"kind"`
	AnchorID          world.AnchorID    `json:"anchor_id,omitempty"`
	ConnectorID       world.ConnectorID `json:"connector_id,omitempty"`
	FromZone          world.ZoneID      `json:"from_zone,omitempty"`
	ToZone            world.ZoneID      `json:"to_zone,omitempty"`
	ReachableDirectly bool              `json:"reachable_directly,omitempty"`
	DestinationRegion world.RegionID    `json:"destination_region,omitempty"`
}

// Encode переводит шаг в запись
func Encode(leg PathLeg) LegRecord {
	rec := LegRecord{Kind: leg.Kind().String()}
	switch l := leg.(type) {
	case AnchorLeg:
		rec.AnchorID = l.Anchor.ID
		rec.ReachableDirectly = l.ReachableDirectly
	case NetworkLeg:
		rec.AnchorID = l.Anchor.ID
	case BoundaryLeg:
		rec.ConnectorID = l.Connector.ID
		rec.FromZone = l.From
		rec.ToZone = l.To
	case RegionLeg:
		rec.AnchorID = l.Anchor.ID
		rec.DestinationRegion = l.DestinationRegion
	}
	return rec
}

// Records переводит маршрут в записи
func (r Route) Records() []LegRecord {
	out := make([]LegRecord, len(r))
	for i, leg := range r {
		out[i] = Encode(leg)
	}
	return out
}

// Decode восстанавливает шаг по записи, разрешая ссылки через граф
func Decode(g *world.Graph, rec LegRecord) (PathLeg, error) {
	kind, err := ParseLegKind(rec.Kind)
	if err != nil {
		return nil, err
	}

	if kind == KindBoundary {
		c, ok := g.Connector(rec.ConnectorID)
		if !ok {
			return nil, fmt.Errorf("connector %d: %w", rec.ConnectorID, ErrUnknownReference)
		}
		if !c.Allows(rec.FromZone) || c.Other(rec.FromZone) != rec.ToZone {
			return nil, fmt.Errorf("connector %d does not lead %d -> %d", c.ID, rec.FromZone, rec.ToZone)
		}
		return BoundaryLeg{Connector: c, From: rec.FromZone, To: rec.ToZone}, nil
	}

	a, ok := g.Anchor(rec.AnchorID)
	if !ok {
		return nil, fmt.Errorf("anchor %d: %w", rec.AnchorID, ErrUnknownReference)
	}
	switch kind {
	case KindAnchor:
		return AnchorLeg{Anchor: a, ReachableDirectly: rec.ReachableDirectly}, nil
	case KindNetwork:
		return NetworkLeg{Anchor: a}, nil
	default:
		// регион назначения задаёт только граф, запись может его лишь подтвердить
		if rec.DestinationRegion != 0 && rec.DestinationRegion != a.DestinationRegion {
			return nil, fmt.Errorf("anchor %d leads to region %d, not %d: %w",
				a.ID, a.DestinationRegion, rec.DestinationRegion, ErrRegionMismatch)
		}
		return RegionLeg{Anchor: a, DestinationRegion: a.DestinationRegion}, nil
	}
}

// DecodeRoute восстанавливает маршрут по записям
func DecodeRoute(g *world.Graph, recs []LegRecord) (Route, error) {
	out := make(Route, 0, len(recs))
	for i, rec := range recs {
		leg, err := Decode(g, rec)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i, err)
		}
		out = append(out, leg)
	}
	return out, nil
}
