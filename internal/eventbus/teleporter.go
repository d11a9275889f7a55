package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/aetherlink/internal/teleport"
)

const (
	// EventTeleportCommand команда телепорта для игрового клиента
	EventTeleportCommand = "TeleportCommand"
	// EventRouteSolved аналитическое событие о построенном маршруте
	EventRouteSolved = "RouteSolved"

	// DefaultSource имя сервиса в поле Source
	DefaultSource = "aetherlink"
)

// BusTeleporter отправляет команды телепорта в шину событий.
// Реализует teleport.Teleporter: ошибка публикации становится ошибкой отправки.
type BusTeleporter struct {
	bus    EventBus
	source string
}

// NewBusTeleporter создаёт отправитель команд поверх шины
func NewBusTeleporter(bus EventBus) *BusTeleporter {
	return &BusTeleporter{bus: bus, source: DefaultSource}
}

func (t *BusTeleporter) Teleport(ctx context.Context, cmd teleport.Command) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode teleport command: %w", err)
	}
	ev := &Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        t.source,
		EventType:     EventTeleportCommand,
		Version:       1,
		CorrelationID: cmd.TravelerID,
		Priority:      9,
		Payload:       payload,
		Metadata:      map[string]string{"leg": cmd.Kind.String()},
	}
	return t.bus.Publish(ctx, ev)
}

// SubscribeTeleports подписывает обработчик на команды телепорта.
// Конверты с некорректной полезной нагрузкой пропускаются.
func SubscribeTeleports(ctx context.Context, bus EventBus, h func(ctx context.Context, cmd teleport.Command)) (Subscription, error) {
	return bus.Subscribe(ctx, Filter{Types: []string{EventTeleportCommand}}, func(ctx context.Context, ev *Envelope) {
		var cmd teleport.Command
		if err := json.Unmarshal(ev.Payload, &cmd); err != nil {
			return
		}
		h(ctx, cmd)
	})
}

// NewEvent собирает конверт с JSON-нагрузкой
func NewEvent(eventType, correlationID string, priority int, payload any) (*Envelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &Envelope{
		ID:            uuid.NewString(),
		Timestamp:     time.Now().UTC(),
		Source:        DefaultSource,
		EventType:     eventType,
		Version:       1,
		CorrelationID: correlationID,
		Priority:      priority,
		Payload:       data,
	}, nil
}
