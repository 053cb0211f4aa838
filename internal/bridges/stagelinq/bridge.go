package stagelinq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/deckstate-core/internal/deckstate"
	"github.com/nerrad567/deckstate-core/internal/infrastructure/mqtt"
)

// Protocol is the adapter protocol segment of the topic tree.
const Protocol = "stagelinq"

// Message kinds, the final topic segment of adapter traffic.
const (
	kindState      = mqtt.KindState
	kindStatus     = mqtt.KindStatus
	kindConnection = mqtt.KindConnection
)

// applyTimeout bounds how long a single adapter message may wait for the store.
const applyTimeout = 5 * time.Second

// Bridge translates StageLinQ adapter traffic on MQTT into store commands
// and republishes the resulting snapshots.
//
// Thread Safety: All methods are safe for concurrent use.
type Bridge struct {
	cfg     Config
	mqtt    MQTTClient
	store   StateStore
	health  *HealthReporter
	topics  mqtt.Topics
	allowed map[string]bool
	stats   *counters

	// Shutdown coordination
	done      chan struct{}
	wg        sync.WaitGroup
	stopOnce  sync.Once
	ctx       context.Context
	ctxCancel context.CancelFunc

	logger   Logger
	loggerMu sync.RWMutex
}

// Config holds bridge settings.
type Config struct {
	// Devices restricts ingest to these adapter device IDs. Empty allows all.
	Devices []string

	// PublishSnapshots republishes every snapshot to deckstate/core/snapshot.
	PublishSnapshots bool

	// HealthInterval is how often health is published. Default: 30 seconds.
	HealthInterval time.Duration
}

// Logger is the structured logging interface used by the bridge.
// *logging.Logger satisfies it.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// MQTTClient is the interface for MQTT operations.
// This allows mocking in tests and flexibility in implementation.
type MQTTClient interface {
	// Publish sends a message to a topic.
	Publish(topic string, payload []byte, qos byte, retained bool) error

	// Subscribe registers a handler for a topic pattern.
	Subscribe(topic string, qos byte, handler func(topic string, payload []byte)) error

	// IsConnected returns true if connected to the broker.
	IsConnected() bool
}

// StateStore is the subset of *deckstate.Store the bridge drives.
type StateStore interface {
	ApplyStateChange(ctx context.Context, path string, value any) (bool, error)
	ApplyPlayerStatus(ctx context.Context, status deckstate.PlayerStatus) (bool, error)
	ApplyConnection(ctx context.Context, change deckstate.ConnectionChange) (bool, error)
	Snapshot() *deckstate.Snapshot
	Subscribe(buffer int) (<-chan *deckstate.Snapshot, func())
}

// BridgeOptions holds configuration for creating a bridge.
type BridgeOptions struct {
	// Config is the bridge configuration.
	Config Config

	// MQTTClient is the MQTT client implementation.
	MQTTClient MQTTClient

	// Store receives the decoded adapter messages.
	Store StateStore

	// Logger is optional structured logger.
	Logger Logger

	// Counters is optional; when set, bridge counters are written on every
	// health interval.
	Counters CounterWriter

	// Version is reported in health messages.
	Version string
}

// NewBridge creates a new bridge instance.
// Call Start() to begin operation.
func NewBridge(opts BridgeOptions) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("MQTT client is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("store is required")
	}

	ctx, ctxCancel := context.WithCancel(context.Background())

	b := &Bridge{
		cfg:       opts.Config,
		mqtt:      opts.MQTTClient,
		store:     opts.Store,
		stats:     newCounters(),
		done:      make(chan struct{}),
		ctx:       ctx,
		ctxCancel: ctxCancel,
		logger:    opts.Logger,
	}

	if len(opts.Config.Devices) > 0 {
		b.allowed = make(map[string]bool, len(opts.Config.Devices))
		for _, d := range opts.Config.Devices {
			b.allowed[d] = true
		}
	}

	b.health = NewHealthReporter(HealthReporterConfig{
		BridgeID:  Protocol,
		Version:   opts.Version,
		Topic:     b.topics.BridgeHealth(Protocol),
		Interval:  opts.Config.HealthInterval,
		Publisher: opts.MQTTClient,
		Counters:  opts.Counters,
		Stats: func() (Statistics, []string) {
			return b.stats.snapshot(), b.stats.deviceList()
		},
	})
	if opts.Logger != nil {
		b.health.SetLogger(opts.Logger)
	}

	return b, nil
}

// Start subscribes to adapter traffic, starts snapshot republishing and
// health reporting.
func (b *Bridge) Start(ctx context.Context) error {
	if err := b.health.PublishStarting(); err != nil {
		b.logError("failed to publish starting status", err)
	}

	if b.cfg.PublishSnapshots {
		snapshots, cancel := b.store.Subscribe(1)
		b.publishSnapshot(b.store.Snapshot())

		b.wg.Add(1)
		go b.snapshotLoop(snapshots, cancel)
	}

	topic := b.topics.AllAdapterMessages(Protocol)
	if err := b.mqtt.Subscribe(topic, 1, b.handleMQTTMessage); err != nil {
		return fmt.Errorf("subscribe to adapter messages: %w", err)
	}
	b.logInfo("subscribed to adapter messages", "topic", topic)

	b.health.Start(ctx)
	if err := b.health.PublishNow(); err != nil {
		b.logError("failed to publish healthy status", err)
	}

	b.logInfo("bridge started",
		"protocol", Protocol,
		"devices", b.cfg.Devices,
		"publish_snapshots", b.cfg.PublishSnapshots)

	return nil
}

// Stop gracefully shuts down the bridge.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		close(b.done)
		b.ctxCancel()

		b.health.Stop()
		b.wg.Wait()

		b.logInfo("bridge stopped")
	})
}

// Reconnected republishes the retained bridge topics after the broker
// connection comes back. The broker has just published the offline will on
// the health topic, so a fresh health report replaces it right away.
func (b *Bridge) Reconnected() {
	select {
	case <-b.done:
		return
	default:
	}

	if err := b.health.PublishNow(); err != nil {
		b.logError("failed to republish health after reconnect", err)
	}
	if b.cfg.PublishSnapshots {
		b.publishSnapshot(b.store.Snapshot())
	}
}

// handleMQTTMessage routes an adapter message by its topic kind.
func (b *Bridge) handleMQTTMessage(topic string, payload []byte) {
	select {
	case <-b.done:
		return
	default:
	}

	device, kind, ok := b.topics.ParseAdapterTopic(Protocol, topic)
	if !ok {
		b.drop(topic, fmt.Errorf("%w: %s", ErrInvalidPayload, "unrecognised topic"))
		return
	}
	if !b.AllowsDevice(device) {
		b.drop(topic, fmt.Errorf("%w: %s", ErrDeviceNotAllowed, device))
		return
	}

	ctx, cancel := context.WithTimeout(b.ctx, applyTimeout)
	defer cancel()

	var err error
	switch kind {
	case kindState:
		err = b.handleState(ctx, payload)
	case kindStatus:
		err = b.handleStatus(ctx, payload)
	case kindConnection:
		err = b.handleConnection(ctx, device, payload)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	switch {
	case err == nil:
		b.stats.received(kind)
		b.stats.seen(device)
	case errors.Is(err, ErrInvalidPayload), errors.Is(err, ErrUnknownKind):
		b.drop(topic, err)
	case errors.Is(err, deckstate.ErrStoreStopped), errors.Is(err, context.Canceled):
		b.logDebug("store unavailable, message discarded", "topic", topic)
	default:
		b.logError("failed to apply adapter message", err)
	}
}

func (b *Bridge) handleState(ctx context.Context, payload []byte) error {
	msg, err := DecodeStateMessage(payload)
	if err != nil {
		return err
	}
	_, err = b.store.ApplyStateChange(ctx, msg.Path, msg.Value)
	return err
}

func (b *Bridge) handleStatus(ctx context.Context, payload []byte) error {
	status, err := DecodeStatusMessage(payload)
	if err != nil {
		return err
	}
	_, err = b.store.ApplyPlayerStatus(ctx, status)
	return err
}

func (b *Bridge) handleConnection(ctx context.Context, device string, payload []byte) error {
	change, err := DecodeConnectionMessage(payload)
	if err != nil {
		return err
	}
	if change.Name == "" {
		change.Name = device
	}
	_, err = b.store.ApplyConnection(ctx, change)
	return err
}

// drop counts and logs a message that never reached the store.
func (b *Bridge) drop(topic string, err error) {
	b.stats.dropped.Add(1)
	b.logWarn("dropped adapter message", "topic", topic, "error", err)
}

// snapshotLoop republishes store snapshots until the bridge stops.
func (b *Bridge) snapshotLoop(snapshots <-chan *deckstate.Snapshot, cancel func()) {
	defer b.wg.Done()
	defer cancel()

	for {
		select {
		case <-b.done:
			return
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			b.publishSnapshot(snap)
		}
	}
}

func (b *Bridge) publishSnapshot(snap *deckstate.Snapshot) {
	if snap == nil {
		return
	}
	payload, err := json.Marshal(snap)
	if err != nil {
		b.logError("failed to marshal snapshot", err)
		return
	}
	if err := b.mqtt.Publish(b.topics.CoreSnapshot(), payload, 1, true); err != nil {
		b.logError("failed to publish snapshot", err)
		return
	}
	b.stats.snapshots.Add(1)
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()

	if b.health != nil {
		b.health.SetLogger(logger)
	}
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logInfo(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Info(msg, keysAndValues...)
	}
}

func (b *Bridge) logWarn(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Warn(msg, keysAndValues...)
	}
}

func (b *Bridge) logError(msg string, err error) {
	if logger := b.getLogger(); logger != nil {
		logger.Error(msg, "error", err)
	}
}

func (b *Bridge) logDebug(msg string, keysAndValues ...any) {
	if logger := b.getLogger(); logger != nil {
		logger.Debug(msg, keysAndValues...)
	}
}

// BridgeMetrics contains metrics data for the API metrics endpoint.
type BridgeMetrics struct {
	Connected  bool       `json:"connected"`
	Status     string     `json:"status"`
	Devices    []string   `json:"devices"`
	Statistics Statistics `json:"statistics"`
}

// GetMetrics returns current bridge metrics for the API metrics endpoint.
func (b *Bridge) GetMetrics() BridgeMetrics {
	connected := b.mqtt.IsConnected()
	status := string(HealthDegraded)
	if connected {
		status = string(HealthHealthy)
	}

	return BridgeMetrics{
		Connected:  connected,
		Status:     status,
		Devices:    b.stats.deviceList(),
		Statistics: b.stats.snapshot(),
	}
}

// AllowsDevice reports whether messages from device are accepted.
func (b *Bridge) AllowsDevice(device string) bool {
	return b.allowed == nil || b.allowed[device]
}
