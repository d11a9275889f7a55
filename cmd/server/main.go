package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/aetherlink/internal/app"
	"github.com/annel0/aetherlink/internal/config"
	"github.com/annel0/aetherlink/internal/logging"
	"github.com/annel0/aetherlink/internal/observability"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию ALIC_CONFIG)")
	flag.Parse()

	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	logging.SetDefaultLevel(logging.ParseLevel(cfg.Logging.Level))

	logging.Info("🧭 Запуск сервиса маршрутов телепортов...")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		logging.Error("❌ Ошибка инициализации OpenTelemetry: %v", err)
		log.Fatalf("❌ Ошибка инициализации OpenTelemetry: %v", err)
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		logging.Error("❌ Ошибка сборки приложения: %v", err)
		log.Fatalf("❌ Ошибка сборки приложения: %v", err)
	}

	errCh := application.Start()

	restPort := cfg.Server.GetRESTPort()
	logging.Info("✅ Сервис запущен")
	logging.Info("   🌐 REST API: http://localhost:%d", restPort)
	logging.Info("   📈 Метрики: http://localhost:%d/metrics", cfg.Server.GetMetricsPort())
	logging.Info("   ❤️  Health check: http://localhost:%d/health", restPort)
	logging.Info("💡 Пример: curl -X POST http://localhost:%d/api/routes -d '{\"from\":{\"zone\":1,\"position\":{\"x\":20,\"y\":20}},\"to\":{\"zone\":2,\"position\":{\"x\":20,\"y\":20}}}'", restPort)

	// SIGHUP перечитывает таблицу мира, SIGINT/SIGTERM завершают работу
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

loop:
	for {
		select {
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				if err := application.Reload(ctx); err != nil {
					logging.Error("❌ Перезагрузка таблицы мира не удалась: %v", err)
				}
				continue
			}
			logging.Info("📡 Получен сигнал %v, завершение работы...", sig)
			break loop
		case err := <-errCh:
			if err != nil {
				logging.Error("❌ HTTP сервер остановился: %v", err)
			}
			break loop
		}
	}

	// === GRACEFUL SHUTDOWN ===
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	if err := application.Stop(stopCtx); err != nil {
		logging.Error("❌ Ошибка остановки: %v", err)
	}
	if err := shutdownTracing(stopCtx); err != nil {
		logging.Error("❌ Ошибка остановки OpenTelemetry: %v", err)
	}

	logging.Info("👋 Сервис успешно остановлен")
}
