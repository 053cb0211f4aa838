// deckstate-core keeps a live model of a StageLinQ DJ rig.
//
// It receives adapter traffic over MQTT, reduces it into per-deck, mixer and
// device state, and serves that state over HTTP and WebSocket. Track loads are
// logged to SQLite and deck telemetry is optionally written to InfluxDB.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	_ "github.com/nerrad567/deckstate-core/migrations"

	"github.com/nerrad567/deckstate-core/internal/api"
	"github.com/nerrad567/deckstate-core/internal/auth"
	"github.com/nerrad567/deckstate-core/internal/bridges/stagelinq"
	"github.com/nerrad567/deckstate-core/internal/deckstate"
	"github.com/nerrad567/deckstate-core/internal/history"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/config"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/database"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/logging"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// historySubscriberBuffer lets the recorder fall a little behind bursts of
// state changes without losing the newest snapshot.
const historySubscriberBuffer = 64

// options are the command-line flags.
type options struct {
	configPath  string
	showVersion bool
}

// parseFlags parses command-line arguments (without the program name).
func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := pflag.NewFlagSet("deckstate", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "",
		"path to the YAML config file (default $DECKSTATE_CONFIG or "+config.DefaultPath+")")
	fs.BoolVarP(&opts.showVersion, "version", "v", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		os.Exit(2)
	}
	if opts.showVersion {
		fmt.Printf("deckstate %s (commit %s, built %s)\n", version, commit, date)
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, config.ResolvePath(opts.configPath)); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error { //nolint:gocognit,gocyclo // startup wiring
	log := logging.Default()
	log.Info("starting deckstate-core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	operators, err := buildOperators(cfg.Security.Operators)
	if err != nil {
		return fmt.Errorf("loading operators: %w", err)
	}
	if operators.Len() == 0 {
		log.Warn("no operators configured; ingest and reset endpoints are unusable")
	}

	// Database
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// State store. Workers stop when run returns early on a startup error.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	store := deckstate.NewStore()
	g.Go(func() error {
		return store.Run(gctx)
	})

	// MQTT and the StageLinQ bridge (optional)
	var (
		mqttClient *mqtt.Client
		bridge     *stagelinq.Bridge
	)
	if cfg.StageLinQ.Enabled {
		mqttClient, err = connectMQTT(cfg.MQTT, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()

		bridge, err = startBridge(gctx, cfg, store, mqttClient, influxClient, log)
		if err != nil {
			return err
		}
		defer func() {
			log.Info("stopping StageLinQ bridge")
			bridge.Stop()
		}()
		mqttClient.SetOnReconnect(func() {
			log.Info("MQTT reconnected",
				"reconnects", mqttClient.Reconnects(),
				"subscriptions", mqttClient.Filters(),
			)
			bridge.Reconnected()
		})
	} else {
		log.Info("StageLinQ bridge disabled; state arrives through the ingest API only")
	}

	// Track history and telemetry (optional)
	var (
		historyRepo *history.SQLiteRepository
		recorder    *history.Recorder
	)
	if cfg.History.Enabled {
		historyRepo = history.NewSQLiteRepository(db.DB)
		recOpts := history.RecorderOptions{
			Repository:        historyRepo,
			TelemetryInterval: cfg.GetTelemetryInterval(),
			Retention:         cfg.GetRetention(),
			PruneInterval:     cfg.GetPruneInterval(),
			Logger:            log.Component("history"),
		}
		if influxClient != nil {
			recOpts.Metrics = influxClient
		}
		recorder = history.NewRecorder(recOpts)

		snapshots, unsubscribe := store.Subscribe(historySubscriberBuffer)
		g.Go(func() error {
			defer unsubscribe()
			return recorder.Run(gctx, snapshots)
		})
		log.Info("history recorder started",
			"retention", cfg.GetRetention(),
			"telemetry", influxClient != nil,
		)
	}

	// HTTP API
	deps := api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Security:  cfg.Security,
		Logger:    log.Component("api"),
		Store:     store,
		Operators: operators,
		DB:        db,
		Version:   version,
	}
	if historyRepo != nil {
		deps.History = historyRepo
		deps.Recorder = recorder
	}
	if bridge != nil {
		deps.Bridge = bridge
	}
	if mqttClient != nil {
		deps.MQTT = mqttClient
	}
	if influxClient != nil {
		deps.InfluxDB = influxClient
	}
	apiServer, err := api.New(deps)
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(gctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")
	log.Info("initialisation complete, waiting for shutdown signal")

	<-gctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if err := g.Wait(); err != nil && !isShutdown(err) {
		return fmt.Errorf("background worker: %w", err)
	}

	log.Info("deckstate-core stopped")
	return nil
}

// isShutdown reports whether err only signals that the run context ended.
func isShutdown(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// buildOperators converts configured logins into an operator store.
func buildOperators(cfgs []config.OperatorConfig) (*auth.OperatorStore, error) {
	ops := make([]auth.Operator, 0, len(cfgs))
	for _, c := range cfgs {
		ops = append(ops, auth.Operator{
			Username:     c.Username,
			PasswordHash: c.PasswordHash,
			Role:         auth.Role(c.Role),
		})
	}
	return auth.NewOperatorStore(ops)
}

// connectMQTT opens the StageLinQ bridge's broker session.
func connectMQTT(cfg config.MQTTConfig, log *logging.Logger) (*mqtt.Client, error) {
	client, err := mqtt.Connect(cfg, stagelinq.Protocol)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log.Component("mqtt"))
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.Broker.Host, cfg.Broker.Port),
		"client_id", cfg.Broker.ClientID,
	)
	return client, nil
}

// startBridge creates and starts the StageLinQ bridge.
//
// Parameters:
//   - ctx: Context for the bridge lifetime
//   - cfg: Application configuration
//   - store: State store the bridge feeds
//   - mqttClient: Connected MQTT client
//   - influxClient: Receives bridge counters (may be nil)
//   - log: Logger instance
//
// Returns:
//   - *stagelinq.Bridge: Running bridge
//   - error: If the bridge fails to start
func startBridge(ctx context.Context, cfg *config.Config, store *deckstate.Store, mqttClient *mqtt.Client, influxClient *influxdb.Client, log *logging.Logger) (*stagelinq.Bridge, error) {
	opts := stagelinq.BridgeOptions{
		Config: stagelinq.Config{
			Devices:          cfg.StageLinQ.Devices,
			PublishSnapshots: cfg.StageLinQ.PublishSnapshots,
			HealthInterval:   cfg.GetHealthInterval(),
		},
		MQTTClient: &mqttBridgeAdapter{client: mqttClient},
		Store:      store,
		Logger:     log.Component("stagelinq"),
		Version:    version,
	}
	if influxClient != nil {
		opts.Counters = influxClient
	}

	bridge, err := stagelinq.NewBridge(opts)
	if err != nil {
		return nil, fmt.Errorf("creating StageLinQ bridge: %w", err)
	}
	if err := bridge.Start(ctx); err != nil {
		return nil, fmt.Errorf("starting StageLinQ bridge: %w", err)
	}
	log.Info("StageLinQ bridge started",
		"devices", len(cfg.StageLinQ.Devices),
		"publish_snapshots", cfg.StageLinQ.PublishSnapshots,
	)
	return bridge, nil
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check (may be nil if the bridge is disabled)
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The infrastructure handler returns an error; the
// bridge handles its own failures and returns nothing.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Publish implements stagelinq.MQTTClient.
func (a *mqttBridgeAdapter) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return a.client.Publish(topic, payload, qos, retained)
}

// Subscribe implements stagelinq.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error {
	return a.client.Subscribe(topic, qos, func(t string, p []byte) error {
		handler(t, p)
		return nil
	})
}

// IsConnected implements stagelinq.MQTTClient.
func (a *mqttBridgeAdapter) IsConnected() bool {
	return a.client.IsConnected()
}
