package route

import (
	"fmt"

	"github.com/annel0/aetherlink/internal/world"
)

// InvariantError нарушение структурного инварианта маршрута
type InvariantError struct {
	Index  int
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("route leg %d: %s", e.Index, e.Reason)
}

// Validate проверяет инварианты маршрута относительно стартовой позиции:
// RegionLeg только первым шагом, NetworkLeg и BoundaryLeg только из зоны, где уже находится путник.
func (r Route) Validate(from Location) error {
	current := from.Zone
	for i, leg := range r {
		switch l := leg.(type) {
		case AnchorLeg:
			if l.Anchor == nil || !l.Anchor.IsPrimary {
				return &InvariantError{Index: i, Reason: "anchor leg must target a primary anchor"}
			}
		case NetworkLeg:
			if l.Anchor == nil || l.Anchor.IsPrimary {
				return &InvariantError{Index: i, Reason: "network leg must target a network node"}
			}
			if l.Anchor.Zone != current {
				return &InvariantError{Index: i, Reason: fmt.Sprintf("network node %d is not in current zone %d", l.Anchor.ID, current)}
			}
		case BoundaryLeg:
			if l.Connector == nil || l.From != current || !l.Connector.Allows(current) || l.Connector.Other(current) != l.To {
				return &InvariantError{Index: i, Reason: fmt.Sprintf("boundary leg does not start in zone %d", current)}
			}
		case RegionLeg:
			if i != 0 {
				return &InvariantError{Index: i, Reason: "region leg must be the first leg"}
			}
			if l.Anchor == nil || l.DestinationRegion == 0 {
				return &InvariantError{Index: i, Reason: "region leg without gateway"}
			}
		default:
			return &InvariantError{Index: i, Reason: fmt.Sprintf("unknown leg type %T", leg)}
		}
		current = leg.ArrivalZone()
	}
	return nil
}

// EndsIn сообщает, приводит ли маршрут в указанную зону
func (r Route) EndsIn(from Location, zone world.ZoneID) bool {
	if len(r) == 0 {
		return from.Zone == zone
	}
	return r[len(r)-1].ArrivalZone() == zone
}
