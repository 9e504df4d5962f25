// Package main is the entry point of the pickup-game-manager resilience
// service. It initializes the Kratos application with the HTTP server and
// the service registry lifecycle hooks.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/SarradaHub/pickup-game-manager/internal/conf"
	"github.com/SarradaHub/pickup-game-manager/internal/data"
	zapLogger "github.com/SarradaHub/pickup-game-manager/pkg/log"

	"github.com/go-kratos/kratos/v2"
	"github.com/go-kratos/kratos/v2/log"
	"github.com/go-kratos/kratos/v2/middleware/tracing"
	"github.com/go-kratos/kratos/v2/transport/http"
	"github.com/robfig/cron/v3"

	_ "go.uber.org/automaxprocs"
)

// go build -ldflags "-X main.Version=x.y.z"
var (
	// Name is the name of the compiled software.
	Name = "pickup-game-manager"
	// Version is the version of the compiled software.
	Version string
	// flagconf is the config flag.
	flagconf string

	id, _ = os.Hostname()
)

func init() {
	flag.StringVar(&flagconf, "conf", "../../configs/config.yaml", "config path, eg: -conf config.yaml")
}

func newApp(logger log.Logger, hs *http.Server, registry *data.ConsulRegistry) *kratos.App {
	var heartbeat *cron.Cron
	return kratos.New(
		kratos.ID(id),
		kratos.Name(Name),
		kratos.Version(Version),
		kratos.Metadata(map[string]string{}),
		kratos.Logger(logger),
		kratos.Server(hs),
		kratos.AfterStart(func(ctx context.Context) error {
			// Registration failures are logged, never fatal: the service
			// keeps serving on its static address.
			_ = registry.Register(ctx)
			heartbeat = StartRegistryHeartbeatCron(registry, logger)
			return nil
		}),
		kratos.BeforeStop(func(ctx context.Context) error {
			if heartbeat != nil {
				heartbeat.Stop()
			}
			_ = registry.Deregister(ctx)
			return nil
		}),
	)
}

func main() {
	flag.Parse()

	// Load configuration using Viper with environment variable and CLI flag support
	bc, err := conf.NewBootstrap(flagconf)
	if err != nil {
		// Use fallback logger before Zap is initialized
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize Zap logger from configuration
	zapLog, err := zapLogger.NewZapLogger(bc.Log)
	if err != nil {
		log.Fatalf("failed to initialize zap logger: %v", err)
	}
	defer zapLog.Sync()

	// Create Kratos adapter for Zap logger
	logger := zapLogger.NewKratosAdapter(zapLog)

	logger = log.With(logger,
		"service.id", id,
		"service.name", Name,
		"service.version", Version,
		"trace.id", tracing.TraceID(),
		"span.id", tracing.SpanID(),
	)

	log.NewHelper(logger).Infow(
		"msg", "pickup-game-manager service starting",
		"log.level", bc.Log.Level,
		"log.format", bc.Log.Format,
		"registry.enabled", bc.Registry.Enabled,
	)

	app, cleanup, err := wireApp(bc.Server, bc.Data, bc.Registry, bc.Identity, bc.EventGateway, bc.Resilience, logger)
	if err != nil {
		panic(err)
	}
	defer cleanup()

	// start and wait for stop signal
	if err := app.Run(); err != nil {
		panic(err)
	}
}
