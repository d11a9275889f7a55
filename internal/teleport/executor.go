package teleport

import (
	"context"
	"fmt"

	"github.com/annel0/aetherlink/internal/logging"
	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/world"
)

// Command одна команда телепорта для транспорта
type Command struct {
	TravelerID        string         `json:"traveler_id"`
	Kind              route.LegKind  `json:"kind"`
	AnchorID          world.AnchorID `json:"anchor_id"`
	Zone              world.ZoneID   `json:"zone"`
	DestinationRegion world.RegionID `json:"destination_region,omitempty"`
}

// Teleporter отправляет команду телепорта. Не ждёт завершения перемещения.
type Teleporter interface {
	Teleport(ctx context.Context, cmd Command) error
}

// TeleporterFunc адаптер функции к Teleporter
type TeleporterFunc func(ctx context.Context, cmd Command) error

func (f TeleporterFunc) Teleport(ctx context.Context, cmd Command) error { return f(ctx, cmd) }

// Executor выполняет ровно один шаг маршрута за вызов.
// Не повторяет неудачные попытки и не переходит к следующему шагу.
// Вызовы для одного путника должны сериализоваться вызывающей стороной.
type Executor struct {
	graph      *world.Graph
	teleporter Teleporter
	forbidden  Condition
	logger     *logging.Logger
}

// Option настраивает Executor
type Option func(*Executor)

// WithForbidden заменяет маску запрещённых состояний
func WithForbidden(mask Condition) Option {
	return func(e *Executor) { e.forbidden = mask }
}

// WithLogger задаёт логгер исполнителя
func WithLogger(l *logging.Logger) Option {
	return func(e *Executor) { e.logger = l }
}

// NewExecutor создаёт исполнитель поверх графа и транспорта команд
func NewExecutor(graph *world.Graph, teleporter Teleporter, opts ...Option) *Executor {
	e := &Executor{
		graph:      graph,
		teleporter: teleporter,
		forbidden:  DefaultForbidden,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = logging.GetTeleportLogger()
	}
	return e
}

// Execute проверяет предусловия и отправляет одну команду телепорта
func (e *Executor) Execute(ctx context.Context, leg route.PathLeg, state TravelerState) error {
	if leg == nil {
		return &ExecutionError{Kind: KindNotExecutable, Reason: "empty leg"}
	}
	if leg.Kind() == route.KindBoundary {
		return &ExecutionError{Kind: KindNotExecutable, Leg: route.KindBoundary, Reason: "boundary crossing is walked"}
	}

	if blocked := state.Conditions & e.forbidden; blocked != 0 {
		e.logger.Debug("🚫 Телепорт %s запрещён: %s", state.TravelerID, blocked)
		return &ExecutionError{Kind: KindForbidden, Leg: leg.Kind(), Reason: blocked.String()}
	}

	cmd, err := e.command(leg, state)
	if err != nil {
		e.logger.Warn("⚠️ Шаг %s для %s недоступен: %v", leg.Kind(), state.TravelerID, err)
		return err
	}

	if err := e.teleporter.Teleport(ctx, cmd); err != nil {
		e.logger.Error("❌ Не удалось отправить телепорт %s -> %d: %v", state.TravelerID, cmd.AnchorID, err)
		return &ExecutionError{Kind: KindDispatch, Leg: leg.Kind(), Anchor: cmd.AnchorID, Err: err}
	}

	e.logger.Info("✨ Телепорт %s: %s -> якорь %d (зона %d)", state.TravelerID, cmd.Kind, cmd.AnchorID, cmd.Zone)
	return nil
}

// command повторно разрешает якорь шага через граф: шаг мог быть выбран давно
func (e *Executor) command(leg route.PathLeg, state TravelerState) (Command, error) {
	ref, _ := route.AnchorOf(leg)
	if ref == nil {
		return Command{}, &ExecutionError{Kind: KindAnchorUnavailable, Leg: leg.Kind(), Reason: "leg without anchor"}
	}

	a, ok := e.graph.Anchor(ref.ID)
	if !ok || a.Zone != ref.Zone {
		return Command{}, &ExecutionError{Kind: KindAnchorUnavailable, Leg: leg.Kind(), Anchor: ref.ID, Reason: "anchor no longer exists"}
	}

	cmd := Command{TravelerID: state.TravelerID, Kind: leg.Kind(), AnchorID: a.ID, Zone: a.Zone}
	switch l := leg.(type) {
	case route.AnchorLeg:
		if !a.IsPrimary {
			return Command{}, &ExecutionError{Kind: KindAnchorUnavailable, Leg: leg.Kind(), Anchor: a.ID, Reason: "not a primary anchor"}
		}
	case route.NetworkLeg:
		if a.IsPrimary {
			return Command{}, &ExecutionError{Kind: KindAnchorUnavailable, Leg: leg.Kind(), Anchor: a.ID, Reason: "not a network node"}
		}
		if a.Zone != state.Location.Zone {
			return Command{}, &ExecutionError{
				Kind: KindAnchorUnavailable, Leg: leg.Kind(), Anchor: a.ID,
				Reason: fmt.Sprintf("traveler is in zone %d, node is in zone %d", state.Location.Zone, a.Zone),
			}
		}
		if g := state.Location.NetworkGroup; g != 0 && a.NetworkGroup != 0 && g != a.NetworkGroup {
			return Command{}, &ExecutionError{Kind: KindAnchorUnavailable, Leg: leg.Kind(), Anchor: a.ID, Reason: "foreign network group"}
		}
	case route.RegionLeg:
		if !a.IsGateway() {
			return Command{}, &ExecutionError{Kind: KindAnchorUnavailable, Leg: leg.Kind(), Anchor: a.ID, Reason: "not a gateway"}
		}
		if l.DestinationRegion != 0 && l.DestinationRegion != a.DestinationRegion {
			return Command{}, &ExecutionError{
				Kind: KindAnchorUnavailable, Leg: leg.Kind(), Anchor: a.ID,
				Reason: fmt.Sprintf("gateway leads to region %d, not %d", a.DestinationRegion, l.DestinationRegion),
			}
		}
		cmd.DestinationRegion = a.DestinationRegion
	}
	return cmd, nil
}

// ExecuteRecord восстанавливает шаг по записи и выполняет его
func (e *Executor) ExecuteRecord(ctx context.Context, rec route.LegRecord, state TravelerState) error {
	leg, err := route.Decode(e.graph, rec)
	if err != nil {
		kind, _ := route.ParseLegKind(rec.Kind)
		if kind == route.KindBoundary {
			return &ExecutionError{Kind: KindNotExecutable, Leg: kind, Err: err}
		}
		return &ExecutionError{Kind: KindAnchorUnavailable, Leg: kind, Anchor: rec.AnchorID, Err: err}
	}
	return e.Execute(ctx, leg, state)
}

// TeleportHome телепорт на шлюз региона, выбранного предпочтением
func (e *Executor) TeleportHome(ctx context.Context, pref world.PreferenceKey, state TravelerState) error {
	gw, ok := e.graph.CrossRegionAnchorFor(pref)
	if !ok {
		return &ExecutionError{Kind: KindAnchorUnavailable, Leg: route.KindRegion, Reason: fmt.Sprintf("no gateway for %q", pref)}
	}
	return e.Execute(ctx, route.RegionLeg{Anchor: gw, DestinationRegion: gw.DestinationRegion}, state)
}
