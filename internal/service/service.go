package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/aetherlink/internal/cache"
	"github.com/annel0/aetherlink/internal/chatlink"
	"github.com/annel0/aetherlink/internal/eventbus"
	"github.com/annel0/aetherlink/internal/logging"
	"github.com/annel0/aetherlink/internal/route"
	"github.com/annel0/aetherlink/internal/storage"
	"github.com/annel0/aetherlink/internal/teleport"
	"github.com/annel0/aetherlink/internal/world"
)

var (
	// ErrNoChatLink в сообщении нет ссылки на известную зону
	ErrNoChatLink = errors.New("service: message has no map link")
	// ErrNoHomePreference не задан домашний шлюз
	ErrNoHomePreference = errors.New("service: home preference is not configured")
	// ErrUnknownTraveler нет сохранённого положения путника
	ErrUnknownTraveler = errors.New("service: traveler location unknown")
)

// Options зависимости и настройки RouteService. Нулевые поля допустимы.
type Options struct {
	Teleporter          teleport.Teleporter
	Cache               *cache.RouteCache
	Locations           storage.LocationRepo
	Metrics             *Metrics
	Logger              *logging.Logger
	Tracer              trace.Tracer
	ConsiderCrossRegion bool
	HomePreference      world.PreferenceKey
	Forbidden           teleport.Condition
}

// worldState всё, что зависит от таблицы мира. Заменяется целиком при перезагрузке.
type worldState struct {
	graph    *world.Graph
	solver   *route.Solver
	executor *teleport.Executor
	scanner  *chatlink.Scanner
	version  string
}

// RouteService точка входа для API и CLI: решение маршрутов, выполнение шагов,
// ссылки из чата, кеш и метрики.
type RouteService struct {
	opts  Options
	state atomic.Pointer[worldState]
	log   *logging.Logger
}

// New строит граф по таблице мира и создаёт сервис
func New(data world.Data, opts Options) (*RouteService, error) {
	if opts.Teleporter == nil {
		return nil, fmt.Errorf("service: teleporter is required")
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetRouteLogger()
	}
	if opts.Tracer == nil {
		opts.Tracer = otel.Tracer("aetherlink/service")
	}

	s := &RouteService{opts: opts, log: opts.Logger}
	st, err := s.buildState(data)
	if err != nil {
		return nil, err
	}
	s.state.Store(st)
	if opts.Cache != nil {
		opts.Cache.SetWorldVersion(st.version)
	}
	s.log.Info("🗺️ Таблица мира загружена: версия %s, %+v", st.version, st.graph.Stats())
	return s, nil
}

func (s *RouteService) buildState(data world.Data) (*worldState, error) {
	graph, err := world.NewGraph(data)
	if err != nil {
		return nil, err
	}
	version, err := WorldVersion(data)
	if err != nil {
		return nil, err
	}
	execOpts := []teleport.Option{teleport.WithLogger(logging.GetTeleportLogger())}
	if s.opts.Forbidden != 0 {
		execOpts = append(execOpts, teleport.WithForbidden(s.opts.Forbidden))
	}
	return &worldState{
		graph:    graph,
		solver:   route.NewSolver(graph),
		executor: teleport.NewExecutor(graph, s.opts.Teleporter, execOpts...),
		scanner:  chatlink.NewScanner(graph),
		version:  version,
	}, nil
}

// WorldVersion короткий хеш содержимого таблицы мира
func WorldVersion(data world.Data) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("hash world data: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:6]), nil
}

// ReloadWorld атомарно заменяет таблицу мира. Запросы в полёте дорабатывают на старом графе.
func (s *RouteService) ReloadWorld(ctx context.Context, data world.Data) error {
	st, err := s.buildState(data)
	if err != nil {
		return err
	}
	old := s.state.Swap(st)
	if s.opts.Cache != nil {
		s.opts.Cache.SetWorldVersion(st.version)
	}
	s.opts.Metrics.WorldReloads.Inc()
	s.log.Info("🔄 Таблица мира перезагружена: %s → %s", old.version, st.version)
	return nil
}

// Graph текущий граф мира
func (s *RouteService) Graph() *world.Graph { return s.state.Load().graph }

// Version текущая версия таблицы мира
func (s *RouteService) Version() string { return s.state.Load().version }

// SolveRoute строит маршрут. Пустой маршрут не является ошибкой: цель недостижима
// или ближе, чем любой якорь. Предпочтение игнорируется, если межрегиональные
// маршруты выключены.
func (s *RouteService) SolveRoute(ctx context.Context, from route.Location, to route.Target, pref *world.PreferenceKey) (route.Route, error) {
	ctx, span := s.opts.Tracer.Start(ctx, "RouteService.SolveRoute", trace.WithAttributes(
		attribute.Int("from.zone", int(from.Zone)),
		attribute.Int("to.zone", int(to.Zone)),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !s.opts.ConsiderCrossRegion {
		pref = nil
	}

	start := time.Now()
	st := s.state.Load()
	r, result := s.solveCached(ctx, st, from, to, pref)

	s.opts.Metrics.SolveDuration.Observe(time.Since(start).Seconds())
	s.opts.Metrics.RoutesSolved.WithLabelValues(result).Inc()
	s.opts.Metrics.RouteLegs.Observe(float64(len(r)))
	span.SetAttributes(attribute.Int("route.legs", len(r)), attribute.String("route.result", result))

	s.log.Debug("🧭 Маршрут %d(%.1f,%.1f) → %d(%.1f,%.1f): %v [%s]",
		from.Zone, from.Position.X, from.Position.Y, to.Zone, to.Position.X, to.Position.Y, r.Kinds(), result)

	s.publishSolved(ctx, from, to, r, result)
	return r, nil
}

func (s *RouteService) solveCached(ctx context.Context, st *worldState, from route.Location, to route.Target, pref *world.PreferenceKey) (route.Route, string) {
	rc := s.opts.Cache
	if rc == nil {
		r := s.solve(st, from, to, pref)
		return r, resultOf(r, "solved")
	}

	key := rc.Key(from, to, pref)
	if recs, ok, err := rc.Get(ctx, key); err != nil {
		s.log.Warn("⚠️ Кеш маршрутов недоступен: %v", err)
	} else if ok {
		r, err := route.DecodeRoute(st.graph, recs)
		if err == nil {
			return r, resultOf(r, "cache")
		}
		s.log.Warn("⚠️ Запись кеша %s не соответствует графу: %v", key, err)
		_ = rc.Invalidate(ctx, key)
	}

	r := s.solve(st, from, to, pref)
	if err := rc.Put(ctx, key, r); err != nil {
		s.log.Warn("⚠️ Не удалось сохранить маршрут в кеш: %v", err)
	}
	return r, resultOf(r, "solved")
}

func (s *RouteService) solve(st *worldState, from route.Location, to route.Target, pref *world.PreferenceKey) route.Route {
	r := st.solver.Solve(from, to, pref)
	if err := r.Validate(from); err != nil {
		s.log.Error("❌ Маршрут нарушает ограничения: %v (%v)", err, r.Kinds())
	}
	return r
}

func resultOf(r route.Route, source string) string {
	if len(r) == 0 {
		return "empty"
	}
	return source
}

type routeSolvedEvent struct {
	From   route.Location    `json:"from"`
	To     route.Target      `json:"to"`
	Legs   []route.LegRecord `json:"legs"`
	Result string            `json:"result"`
}

func (s *RouteService) publishSolved(ctx context.Context, from route.Location, to route.Target, r route.Route, result string) {
	ev, err := eventbus.NewEvent(eventbus.EventRouteSolved, "", 1, routeSolvedEvent{From: from, To: to, Legs: r.Records(), Result: result})
	if err != nil {
		return
	}
	if err := eventbus.Publish(ctx, ev); err != nil {
		s.log.Debug("RouteSolved не опубликован: %v", err)
	}
}

// SolveFromChat ищет в сообщении ссылку на карту и строит маршрут до неё
func (s *RouteService) SolveFromChat(ctx context.Context, from route.Location, msg string, pref *world.PreferenceKey) (route.Route, chatlink.Link, error) {
	link, ok := s.state.Load().scanner.Find(msg)
	if !ok {
		return nil, chatlink.Link{}, ErrNoChatLink
	}
	r, err := s.SolveRoute(ctx, from, link.Target(), pref)
	return r, link, err
}

// Render текстовое представление маршрута для чата
func (s *RouteService) Render(r route.Route) string {
	return chatlink.Render(s.state.Load().graph, r)
}

// ExecuteLeg выполняет один шаг маршрута. После успешной отправки команды
// положение путника обновляется в хранилище.
func (s *RouteService) ExecuteLeg(ctx context.Context, rec route.LegRecord, state teleport.TravelerState) error {
	ctx, span := s.opts.Tracer.Start(ctx, "RouteService.ExecuteLeg", trace.WithAttributes(
		attribute.String("leg.kind", rec.Kind),
		attribute.Int("leg.anchor", int(rec.AnchorID)),
		attribute.String("traveler", state.TravelerID),
	))
	defer span.End()

	st := s.state.Load()
	err := st.executor.ExecuteRecord(ctx, rec, state)
	s.recordExecution(span, rec.Kind, err)
	if err != nil {
		s.log.Warn("🚫 Шаг %s для %s не выполнен: %v", rec.Kind, state.TravelerID, err)
		return err
	}

	leg, decodeErr := route.Decode(st.graph, rec)
	if decodeErr == nil {
		s.rememberArrival(ctx, state, leg)
	}
	return nil
}

// TeleportHome телепорт на шлюз домашнего предпочтения
func (s *RouteService) TeleportHome(ctx context.Context, state teleport.TravelerState) error {
	ctx, span := s.opts.Tracer.Start(ctx, "RouteService.TeleportHome")
	defer span.End()

	pref := s.opts.HomePreference
	if pref == "" {
		return ErrNoHomePreference
	}
	st := s.state.Load()
	err := st.executor.TeleportHome(ctx, pref, state)
	s.recordExecution(span, route.KindRegion.String(), err)
	if err != nil {
		return err
	}
	if gw, ok := st.graph.CrossRegionAnchorFor(pref); ok {
		s.rememberArrival(ctx, state, route.RegionLeg{Anchor: gw, DestinationRegion: gw.DestinationRegion})
	}
	return nil
}

func (s *RouteService) recordExecution(span trace.Span, kind string, err error) {
	result := "ok"
	if err != nil {
		result = teleport.KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, result)
	}
	s.opts.Metrics.LegsExecuted.WithLabelValues(kind, result).Inc()
}

func (s *RouteService) rememberArrival(ctx context.Context, state teleport.TravelerState, leg route.PathLeg) {
	if s.opts.Locations == nil || state.TravelerID == "" {
		return
	}
	anchor, ok := route.AnchorOf(leg)
	if !ok {
		return
	}
	loc := route.Location{Zone: anchor.Zone, Position: anchor.Position, NetworkGroup: anchor.NetworkGroup}
	if rl, ok := leg.(route.RegionLeg); ok {
		loc.Region = rl.Anchor.DestinationRegion
	} else {
		loc.Region = state.Location.Region
	}
	if err := s.opts.Locations.Save(ctx, state.TravelerID, loc); err != nil {
		s.log.Warn("⚠️ Не удалось сохранить положение %s: %v", state.TravelerID, err)
	}
}

// LastLocation последнее известное положение путника
func (s *RouteService) LastLocation(ctx context.Context, travelerID string) (route.Location, error) {
	if s.opts.Locations == nil {
		return route.Location{}, ErrUnknownTraveler
	}
	loc, ok, err := s.opts.Locations.Load(ctx, travelerID)
	if err != nil {
		return route.Location{}, err
	}
	if !ok {
		return route.Location{}, ErrUnknownTraveler
	}
	return loc, nil
}
