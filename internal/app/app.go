package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/annel0/aetherlink/internal/api"
	"github.com/annel0/aetherlink/internal/auth"
	"github.com/annel0/aetherlink/internal/cache"
	"github.com/annel0/aetherlink/internal/config"
	"github.com/annel0/aetherlink/internal/eventbus"
	"github.com/annel0/aetherlink/internal/logging"
	"github.com/annel0/aetherlink/internal/service"
	"github.com/annel0/aetherlink/internal/storage"
	"github.com/annel0/aetherlink/internal/world"
)

// App собранный сервис: шина, кеш, хранилище положений, сервис маршрутов и HTTP
type App struct {
	cfg      *config.Config
	Registry *prometheus.Registry
	Bus      eventbus.EventBus
	Service  *service.RouteService
	REST     *api.RestServer

	metricsServer *http.Server
	cancel        context.CancelFunc
	closers       []func() error
}

// New собирает приложение по конфигурации. При ошибке уже открытые ресурсы закрываются.
func New(ctx context.Context, cfg *config.Config) (_ *App, err error) {
	a := &App{cfg: cfg, Registry: prometheus.NewRegistry()}
	ctx, a.cancel = context.WithCancel(ctx)
	defer func() {
		if err != nil {
			a.closeAll()
		}
	}()

	a.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	data, err := LoadWorld(ctx, cfg.World)
	if err != nil {
		return nil, err
	}

	if err := a.initBus(); err != nil {
		return nil, err
	}

	routeCache, err := a.initCache(ctx, data)
	if err != nil {
		return nil, err
	}

	locations, err := a.initLocations()
	if err != nil {
		return nil, err
	}

	a.Service, err = service.New(data, service.Options{
		Teleporter:          eventbus.NewBusTeleporter(a.Bus),
		Cache:               routeCache,
		Locations:           locations,
		Metrics:             service.NewMetrics(a.Registry),
		ConsiderCrossRegion: cfg.Routing.ConsiderCrossRegion,
		HomePreference:      world.PreferenceKey(cfg.Routing.DefaultPreference),
	})
	if err != nil {
		return nil, err
	}

	secret, err := auth.ParseSecret(cfg.Auth.JWTSecret)
	if err != nil {
		return nil, err
	}
	if cfg.Auth.JWTSecret == "" {
		logging.Warn("⚠️ auth.jwt_secret не задан: используется случайный секрет")
	}
	tokens, err := auth.NewTokenIssuer(secret, 0)
	if err != nil {
		return nil, err
	}

	a.REST, err = api.NewRestServer(api.Config{
		Addr:     fmt.Sprintf(":%d", cfg.Server.GetRESTPort()),
		Service:  a.Service,
		Tokens:   tokens,
		Registry: a.Registry,
	})
	if err != nil {
		return nil, err
	}

	a.metricsServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()),
		Handler:           promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return a, nil
}

func (a *App) initBus() error {
	ebCfg := a.cfg.EventBus
	if ebCfg.URL != "" {
		jb, err := eventbus.NewJetStreamBus(ebCfg.URL, ebCfg.Stream, time.Duration(ebCfg.Retention)*time.Hour)
		if err != nil {
			return err
		}
		a.Bus = jb
		logging.Info("📨 EventBus: JetStream %s (stream=%s)", ebCfg.URL, ebCfg.Stream)
	} else {
		a.Bus = eventbus.NewMemoryBus(1024)
		logging.Info("📨 EventBus: in-memory")
	}
	a.closers = append(a.closers, a.Bus.Close)
	eventbus.Init(a.Bus)

	a.Registry.MustRegister(eventbus.NewStatsCollector(a.Bus))
	sub, err := eventbus.StartLoggingListener(a.Bus, logging.GetComponentLogger("eventbus"))
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { sub.Unsubscribe(); return nil })
	return nil
}

func (a *App) initCache(ctx context.Context, data world.Data) (*cache.RouteCache, error) {
	cc := a.cfg.Cache

	var inv cache.CacheInvalidator
	if cc.NATSURL != "" {
		n, err := cache.NewNATSInvalidator(cache.InvalidatorConfig{NATSURL: cc.NATSURL}, uuid.NewString())
		if err != nil {
			return nil, err
		}
		inv = n
	}

	cacheCfg := cache.Config{
		RedisURL:      cc.RedisURL,
		RedisPassword: cc.RedisPassword,
		RedisDB:       cc.RedisDB,
		DefaultTTL:    cc.TTL,
	}

	var repo cache.CacheRepo
	if cc.Enabled {
		rc, err := cache.NewRedisCache(cacheCfg, inv)
		if err != nil {
			if inv != nil {
				_ = inv.Close()
			}
			return nil, err
		}
		repo = rc
	} else {
		mc := cache.NewMemoryCache(cacheCfg, inv)
		if inv != nil {
			if err := cache.ListenInvalidations(ctx, mc, inv); err != nil {
				_ = mc.Close()
				return nil, err
			}
		}
		repo = mc
	}
	a.closers = append(a.closers, repo.Close)

	version, err := service.WorldVersion(data)
	if err != nil {
		return nil, err
	}
	return cache.NewRouteCache(repo, cc.TTL, version), nil
}

func (a *App) initLocations() (storage.LocationRepo, error) {
	cc := a.cfg.Cache
	if !cc.Enabled {
		return storage.NewMemoryLocationRepo(), nil
	}
	repo, err := storage.NewRedisLocationRepo(&storage.RedisConfig{
		Addr:     cc.RedisURL,
		Password: cc.RedisPassword,
		DB:       cc.RedisDB,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, repo.Close)
	return repo, nil
}

// Start запускает HTTP серверы. Ошибка любого из них приходит в канал.
func (a *App) Start() <-chan error {
	errCh := make(chan error, 2)
	go func() { errCh <- a.REST.Start() }()
	go func() {
		logging.Info("📈 Prometheus /metrics на %s", a.metricsServer.Addr)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("metrics server: %w", err)
		}
	}()
	return errCh
}

// Reload перечитывает таблицу мира из настроенного источника
func (a *App) Reload(ctx context.Context) error {
	data, err := LoadWorld(ctx, a.cfg.World)
	if err != nil {
		return err
	}
	return a.Service.ReloadWorld(ctx, data)
}

// Stop останавливает серверы и закрывает ресурсы в обратном порядке
func (a *App) Stop(ctx context.Context) error {
	var errs []error
	if a.REST != nil {
		errs = append(errs, a.REST.Stop(ctx))
	}
	if a.metricsServer != nil {
		errs = append(errs, a.metricsServer.Shutdown(ctx))
	}
	errs = append(errs, a.closeAll())
	return errors.Join(errs...)
}

func (a *App) closeAll() error {
	a.cancel()
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	eventbus.Init(nil)
	return errors.Join(errs...)
}
