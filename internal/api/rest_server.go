package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/annel0/aetherlink/internal/auth"
	"github.com/annel0/aetherlink/internal/logging"
	"github.com/annel0/aetherlink/internal/middleware"
	"github.com/annel0/aetherlink/internal/service"
)

// Version версия сервиса, отдаётся в /api/server
var Version = "v0.1.0"

// RestServer представляет REST API сервер
type RestServer struct {
	router  *gin.Engine
	server  *http.Server
	svc     *service.RouteService
	tokens  *auth.TokenIssuer
	metrics *ServerMetrics
	logger  *logging.Logger
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Addr     string                // адрес для запуска сервера, ":8088"
	Service  *service.RouteService // сервис маршрутов
	Tokens   *auth.TokenIssuer     // проверка токенов путников
	Registry *prometheus.Registry  // регистр метрик для /metrics; nil означает новый
	Logger   *logging.Logger
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) (*RestServer, error) {
	if config.Service == nil || config.Tokens == nil {
		return nil, errors.New("api: service and tokens are required")
	}
	if config.Addr == "" {
		config.Addr = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Logger == nil {
		config.Logger = logging.GetAPILogger()
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	router.Use(otelgin.Middleware("aetherlink_api"))
	router.Use(middleware.NewRequestLogger(config.Logger).Handler())
	promMw := middleware.NewPrometheusMiddleware("rest_api", config.Registry)
	router.Use(promMw.Handler())
	middleware.RegisterMetricsEndpoint(router, config.Registry)

	rs := &RestServer{
		router:  router,
		svc:     config.Service,
		tokens:  config.Tokens,
		metrics: NewServerMetrics(),
		logger:  config.Logger,
	}
	rs.server = &http.Server{
		Addr:              config.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rs.setupRoutes()
	return rs, nil
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	api := rs.router.Group("/api")

	// Чтение графа и решение маршрутов без авторизации
	api.POST("/routes", rs.handleSolveRoute)
	api.POST("/routes/chat", rs.handleSolveChat)
	api.GET("/zones/:id/anchors", rs.handleZoneAnchors)
	api.GET("/world", rs.handleWorld)

	// Действия от имени путника требуют JWT
	protected := api.Group("/")
	protected.Use(rs.jwtMiddleware())
	{
		protected.POST("/legs/execute", rs.handleExecuteLeg)
		protected.POST("/home", rs.handleTeleportHome)
		protected.GET("/travelers/:id/location", rs.handleLocation)
		protected.GET("/server", rs.handleServerInfo)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// Handler возвращает http.Handler сервера (для тестов и встраивания)
func (rs *RestServer) Handler() http.Handler { return rs.router }

// Start запускает REST сервер и блокируется до остановки
func (rs *RestServer) Start() error {
	rs.logger.Info("🌐 REST API слушает %s", rs.server.Addr)
	if err := rs.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("rest server: %w", err)
	}
	return nil
}

// Stop останавливает сервер, дожидаясь активных запросов
func (rs *RestServer) Stop(ctx context.Context) error {
	return rs.server.Shutdown(ctx)
}
