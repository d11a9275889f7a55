package teleport

import (
	"errors"
	"fmt"

	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/world"
)

// ErrorKind категория отказа выполнения шага
type ErrorKind uint8

const (
	// KindNotExecutable шаг не имеет действия (пеший переход)
	KindNotExecutable ErrorKind = iota + 1
	// KindForbidden состояние путника запрещает телепорт
	KindForbidden
	// KindAnchorUnavailable якорь шага отсутствует или недоступен из текущей зоны
	KindAnchorUnavailable
	// KindDispatch команда не была принята транспортом
	KindDispatch
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotExecutable:
		return "not_executable"
	case KindForbidden:
		return "forbidden"
	case KindAnchorUnavailable:
		return "anchor_unavailable"
	case KindDispatch:
		return "dispatch"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// ExecutionError отказ выполнения шага. Команда при этом не отправлялась
// (кроме KindDispatch, где транспорт вернул ошибку).
type ExecutionError struct {
	Kind   ErrorKind
	Leg    route.LegKind
	Anchor world.AnchorID
	Reason string
	Err    error
}

func (e *ExecutionError) Error() string {
	msg := fmt.Sprintf("execute %s leg: %s", e.Leg, e.Kind)
	if e.Anchor != 0 {
		msg += fmt.Sprintf(" (anchor %d)", e.Anchor)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ExecutionError) Unwrap() error { return e.Err }

func kindOf(err error) (ErrorKind, bool) {
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind, true
	}
	return 0, false
}

// IsForbidden проверяет, запрещён ли телепорт состоянием путника
func IsForbidden(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindForbidden
}

// IsAnchorUnavailable проверяет, недоступен ли якорь шага
func IsAnchorUnavailable(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindAnchorUnavailable
}

// IsNotExecutable проверяет, что шаг не имеет исполняемого действия
func IsNotExecutable(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindNotExecutable
}

// IsDispatch проверяет, что команда не была принята транспортом
func IsDispatch(err error) bool {
	k, ok := kindOf(err)
	return ok && k == KindDispatch
}

// KindOf возвращает категорию ошибки выполнения или 0
func KindOf(err error) ErrorKind {
	k, _ := kindOf(err)
	return k
}
