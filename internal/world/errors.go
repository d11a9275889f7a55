package world

import (
	"errors"
	"fmt"
	"strings"
)

// GraphConstructionError возвращается, если таблица мира некорректна или
// нарушает ссылочную целостность. Граф при этом не создаётся.
type GraphConstructionError struct {
	Problems []string
}

func (e *GraphConstructionError) Error() string {
	if len(e.Problems) == 1 {
		return "world graph: " + e.Problems[0]
	}
	return fmt.Sprintf("world graph: %d problems: %s", len(e.Problems), strings.Join(e.Problems, "; "))
}

func (e *GraphConstructionError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// IsGraphConstructionError проверяет, является ли ошибка ошибкой построения графа
func IsGraphConstructionError(err error) bool {
	var gce *GraphConstructionError
	return errors.As(err, &gce)
}
