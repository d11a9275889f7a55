package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации сервиса маршрутов.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Routing   RoutingConfig   `yaml:"routing"`
	Cache     CacheConfig     `yaml:"cache"`
	EventBus  EventBusConfig  `yaml:"eventbus"`
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Logging   LoggingConfig   `yaml:"logging"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// WorldConfig описывает источник статической таблицы мира.
// Source: "file" (YAML/JSON), "sqlite", "mysql" или "badger".
type WorldConfig struct {
	Source       string `yaml:"source"`
	DataPath     string `yaml:"data_path"`
	DSN          string `yaml:"dsn"`
	SnapshotPath string `yaml:"snapshot_path"`
}

// RoutingConfig настройки решателя маршрутов
type RoutingConfig struct {
	ConsiderCrossRegion bool   `yaml:"consider_cross_region"`
	DefaultPreference   string `yaml:"default_preference"`
}

type CacheConfig struct {
	Enabled       bool          `yaml:"enabled"`
	RedisURL      string        `yaml:"redis_url"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
	NATSURL       string        `yaml:"nats_url"`
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  bool   `yaml:"file"`
}

type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
	// Endpoint host:port OTLP коллектора; пусто означает OTEL_EXPORTER_OTLP_ENDPOINT или localhost:4318
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Default возвращает конфигурацию, пригодную для локального запуска без внешних сервисов
func Default() *Config {
	return &Config{
		World: WorldConfig{
			Source:   "file",
			DataPath: "assets/world.yaml",
		},
		Routing: RoutingConfig{
			ConsiderCrossRegion: true,
		},
		Cache: CacheConfig{
			TTL: 5 * time.Minute,
		},
		EventBus: EventBusConfig{
			Stream:    "TELEPORT",
			Retention: 24,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "aetherlink",
		},
	}
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "ALIC_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "ALIC_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.World.Source {
	case "file":
		if c.World.DataPath == "" {
			return fmt.Errorf("world.data_path обязателен для source=file")
		}
	case "sqlite", "mysql":
		if c.World.DSN == "" {
			return fmt.Errorf("world.dsn обязателен для source=%s", c.World.Source)
		}
	case "badger":
		if c.World.SnapshotPath == "" {
			return fmt.Errorf("world.snapshot_path обязателен для source=badger")
		}
	default:
		return fmt.Errorf("неизвестный world.source: %q", c.World.Source)
	}

	if c.Cache.Enabled && c.Cache.RedisURL == "" {
		return fmt.Errorf("cache.redis_url обязателен при включённом кеше")
	}
	return nil
}

// Load читает YAML файл конфигурации поверх Default().
// Если path == "", пытается прочитать из ENV ALIC_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("ALIC_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
