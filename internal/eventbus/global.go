package eventbus

import (
	"context"
	"sync/atomic"
)

var globalBus atomic.Value // busHolder

type busHolder struct{ bus EventBus }

// Init устанавливает глобальную шину.
func Init(bus EventBus) { globalBus.Store(busHolder{bus: bus}) }

// Publish отправляет событие в глобальную шину, если она инициализирована.
func Publish(ctx context.Context, ev *Envelope) error {
	h, _ := globalBus.Load().(busHolder)
	if h.bus == nil {
		return nil
	}
	return h.bus.Publish(ctx, ev)
}
