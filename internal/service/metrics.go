package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics счётчики сервиса маршрутов
type Metrics struct {
	RoutesSolved  *prometheus.CounterVec
	SolveDuration prometheus.Histogram
	RouteLegs     prometheus.Histogram
	LegsExecuted  *prometheus.CounterVec
	WorldReloads  prometheus.Counter
}

// NewMetrics создаёт метрики и регистрирует их в reg (nil: без регистрации)
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoutesSolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aetherlink",
			Name:      "routes_solved_total",
			Help:      "Количество запросов маршрута по источнику ответа (solved, cache, empty).",
		}, []string{"result"}),
		SolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aetherlink",
			Name:      "route_solve_duration_seconds",
			Help:      "Время ответа на запрос маршрута.",
			Buckets:   []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01, .05},
		}),
		RouteLegs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aetherlink",
			Name:      "route_legs",
			Help:      "Число шагов в выданных маршрутах.",
			Buckets:   prometheus.LinearBuckets(0, 1, 8),
		}),
		LegsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aetherlink",
			Name:      "legs_executed_total",
			Help:      "Попытки выполнения шагов по типу шага и результату.",
		}, []string{"kind", "result"}),
		WorldReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aetherlink",
			Name:      "world_reloads_total",
			Help:      "Успешные перезагрузки таблицы мира.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.RoutesSolved, m.SolveDuration, m.RouteLegs, m.LegsExecuted, m.WorldReloads)
	}
	return m
}
