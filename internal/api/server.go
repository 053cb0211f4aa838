package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/deckstate-core/internal/auth"
	"github.com/nerrad567/deckstate-core/internal/bridges/stagelinq"
	"github.com/nerrad567/deckstate-core/internal/deckstate"
	"github.com/nerrad567/deckstate-core/internal/history"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/config"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/database"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// snapshotRelayBuffer is the store subscription buffer for the WebSocket relay.
const snapshotRelayBuffer = 16

// StateStore is the subset of *deckstate.Store used by the API.
type StateStore interface {
	ApplyStateChange(ctx context.Context, path string, value any) (bool, error)
	ApplyPlayerStatus(ctx context.Context, status deckstate.PlayerStatus) (bool, error)
	Reset(ctx context.Context) error
	Snapshot() *deckstate.Snapshot
	Stats() deckstate.Stats
	Subscribe(buffer int) (<-chan *deckstate.Snapshot, func())
	SubscriberCount() int
}

// ConnectionStatus reports whether an external connection is up.
// *mqtt.Client and *influxdb.Client satisfy this interface.
type ConnectionStatus interface {
	IsConnected() bool
}

// BridgeMetricsProvider exposes the StageLinQ bridge counters.
type BridgeMetricsProvider interface {
	GetMetrics() stagelinq.BridgeMetrics
}

// RecorderStatsProvider exposes the history recorder counters.
type RecorderStatsProvider interface {
	Stats() history.RecorderStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Security  config.SecurityConfig
	Logger    *logging.Logger
	Store     StateStore
	History   history.Repository    // optional; nil disables /history
	Recorder  RecorderStatsProvider // optional
	Bridge    BridgeMetricsProvider // optional
	Operators *auth.OperatorStore   // optional; nil rejects every login
	MQTT      ConnectionStatus      // optional
	InfluxDB  ConnectionStatus      // optional
	DB        *database.DB          // optional
	Version   string
}

// Server is the HTTP API server for deckstate.
//
// It manages the HTTP listener, routes, middleware, and WebSocket hub.
// The server is created with New() and started with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	store     StateStore
	history   history.Repository
	recorder  RecorderStatsProvider
	bridge    BridgeMetricsProvider
	operators *auth.OperatorStore
	mqtt      ConnectionStatus
	influx    ConnectionStatus
	db        *database.DB
	version   string
	startTime time.Time
	server    *http.Server
	hub       *Hub
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called, but the WebSocket hub
// exists immediately so the router can be served by tests.
//
// Parameters:
//   - deps: Required dependencies (logger, store); the rest are optional
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("state store is required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		store:     deps.Store,
		history:   deps.History,
		recorder:  deps.Recorder,
		bridge:    deps.Bridge,
		operators: deps.Operators,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
	}
	s.hub = NewHub(s.wsCfg, s.logger)
	s.hub.OnSubscribe(ChannelState, s.currentSnapshotEvent)

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It starts the WebSocket hub, relays store snapshots to it, and launches
// the HTTP listener in a background goroutine. The server can be stopped
// with Close().
//
// Parameters:
//   - ctx: Context for cancellation of background goroutines
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	s.startSnapshotRelay(srvCtx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// startSnapshotRelay subscribes to the store and broadcasts every snapshot
// on the state channel until ctx is cancelled.
func (s *Server) startSnapshotRelay(ctx context.Context) {
	snapshots, unsubscribe := s.store.Subscribe(snapshotRelayBuffer)
	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-snapshots:
				if !ok {
					return
				}
				s.hub.Broadcast(ChannelState, EventStateSnapshot, snap)
			}
		}
	}()
}

// currentSnapshotEvent is sent to a client when it subscribes to the state channel.
func (s *Server) currentSnapshotEvent() (string, any) {
	return EventStateSnapshot, s.store.Snapshot()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running and responsive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}

	return nil
}
