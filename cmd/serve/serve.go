// Package serve implements the serve command, which runs the HTTP API.
package serve

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tphakala/acousticvault/internal/api"
	"github.com/tphakala/acousticvault/internal/buildinfo"
	"github.com/tphakala/acousticvault/internal/classifier"
	"github.com/tphakala/acousticvault/internal/conf"
	"github.com/tphakala/acousticvault/internal/errors"
	"github.com/tphakala/acousticvault/internal/history"
	"github.com/tphakala/acousticvault/internal/logger"
	"github.com/tphakala/acousticvault/internal/mqtt"
	"github.com/tphakala/acousticvault/internal/observability"
	"github.com/tphakala/acousticvault/internal/telemetry"
)

// Command creates the serve command.
func Command(info buildinfo.BuildInfo, configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Serve the classification API until SIGINT or SIGTERM, then shut down gracefully.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := conf.Load(*configFile)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, settings, info)
		},
	}
}

// run starts every component described by settings and blocks until ctx is
// cancelled or a component fails. Deferred shutdown runs after the HTTP server
// has stopped: publisher drain and broker disconnect, history store, Sentry
// flush, log file.
func run(ctx context.Context, settings *conf.Settings, info buildinfo.BuildInfo) error {
	central, err := setupLogging(settings)
	if err != nil {
		return err
	}
	defer func() { _ = central.Close() }()

	log := logger.Global().Module("main")
	log.Info("starting AcousticVault",
		logger.String("version", info.Version()),
		logger.String("build_date", info.BuildDate()),
		logger.String("instance_id", info.InstanceID()))

	if err := telemetry.InitSentry(settings, info); err != nil {
		// error reporting is optional, the service runs without it
		log.Warn("sentry initialization failed", logger.Error(err))
	}
	defer telemetry.Flush(telemetry.DefaultFlushTimeout)

	m, err := observability.NewMetrics()
	if err != nil {
		return errors.New(err).
			Component("main").
			Category(errors.CategorySystem).
			Context("operation", "create-metrics").
			Build()
	}

	base, err := classifier.New(&settings.Classifier)
	if err != nil {
		return err
	}
	cls := classifier.Instrument(base, m.Classifier, telemetry.IsEnabled())

	store, err := history.Open(&settings.History, m.History)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Warn("failed to close history store", logger.Error(err))
		}
	}()

	opts := []api.ServerOption{
		api.WithClassifier(cls),
		api.WithStore(store),
		api.WithMetrics(m),
		api.WithBuildInfo(info),
	}

	var publisher *mqtt.Publisher
	if settings.MQTT.Enabled {
		publisher = startPublisher(ctx, settings, m)
	}
	if publisher != nil {
		opts = append(opts, api.WithPublisher(publisher))
		defer func() {
			// runs after the server stopped accepting predictions
			drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settings.WebServer.ShutdownTimeout)
			defer cancel()
			if err := publisher.Close(drainCtx); err != nil {
				log.Warn("prediction publisher did not drain in time", logger.Error(err))
			}
		}()
	}

	server, err := api.New(settings, opts...)
	if err != nil {
		return err
	}

	var endpoint *observability.Endpoint
	if settings.Telemetry.Enabled {
		if endpoint, err = observability.NewEndpoint(settings, m); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return server.Run(gctx) })
	if endpoint != nil {
		g.Go(func() error { return endpoint.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", logger.Error(err))
		return err
	}
	log.Info("shutdown complete")
	return nil
}

// setupLogging installs the global logger configured by the logging section.
func setupLogging(settings *conf.Settings) (*logger.CentralLogger, error) {
	level := settings.Logging.Level
	if settings.Debug {
		level = string(logger.LogLevelDebug)
	}

	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
	}
	if settings.Logging.File != "" {
		cfg.FileOutput = &logger.FileOutput{Enabled: true, Path: settings.Logging.File, Level: level}
	}

	central, err := logger.NewCentralLogger(cfg)
	if err != nil {
		return nil, errors.New(err).
			Component("main").
			Category(errors.CategoryConfiguration).
			Context("operation", "setup-logging").
			Build()
	}
	logger.SetGlobal(central)
	return central, nil
}

// startPublisher connects to the broker. A broker that cannot be reached at
// startup disables publishing instead of failing the service.
func startPublisher(ctx context.Context, settings *conf.Settings, m *observability.Metrics) *mqtt.Publisher {
	log := logger.Global().Module("main")
	cfg := mqtt.ConfigFromSettings(&settings.MQTT)

	client, err := mqtt.NewClient(cfg, m.MQTT)
	if err != nil {
		log.Error("invalid mqtt configuration, publishing disabled", logger.Error(err))
		return nil
	}
	if err := client.Connect(ctx); err != nil {
		log.Error("mqtt broker unreachable, publishing disabled",
			logger.String("broker", logger.RedactURL(cfg.Broker)),
			logger.Error(err))
		return nil
	}

	publisher := mqtt.NewPublisher(client, cfg, m.MQTT)
	log.Info("publishing predictions", logger.String("topic", publisher.Topic()))
	return publisher
}
