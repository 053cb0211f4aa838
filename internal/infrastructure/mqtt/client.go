package mqtt

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/deckstate-core/internal/infrastructure/config"
)

// Client is the core's broker session on behalf of one protocol bridge.
//
// The bridge's retained health topic (deckstate/health/{protocol}) carries
// the session's last will, so the broker marks the bridge offline when the
// core vanishes. Adapter subscriptions are remembered and re-issued after
// every automatic reconnect, since sessions are clean.
//
// All methods are safe for concurrent use.
type Client struct {
	conn     pahomqtt.Client
	protocol string

	routesMu sync.Mutex
	routes   map[string]route

	connected  atomic.Bool
	sessions   atomic.Uint64
	reconnects atomic.Uint64

	hooksMu      sync.RWMutex
	onReconnect  func()
	onDisconnect func(err error)
	logger       Logger
}

// Logger is satisfied by *logging.Logger and *slog.Logger.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MessageHandler receives one broker message. A returned error is logged;
// the message is acknowledged regardless.
type MessageHandler func(topic string, payload []byte) error

// Connect opens a session for the given bridge protocol (e.g. "stagelinq")
// and waits for the broker to accept it.
//
// Returns ErrConnectionFailed wrapping the cause when the broker cannot be
// reached within the connect timeout.
func Connect(cfg config.MQTTConfig, protocol string) (*Client, error) {
	if protocol == "" {
		return nil, fmt.Errorf("%w: protocol is required", ErrConnectionFailed)
	}

	c := &Client{
		protocol: protocol,
		routes:   make(map[string]route),
	}

	c.conn = pahomqtt.NewClient(c.sessionOptions(cfg))
	if err := await(c.conn.Connect(), connectTimeout, ErrConnectionFailed); err != nil {
		return nil, err
	}
	// The connect handler runs asynchronously; IsConnected must hold now.
	c.connected.Store(true)
	return c, nil
}

// sessionOptions adds the bridge-scoped will and session hooks to the
// broker options.
func (c *Client) sessionOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	return buildClientOptions(cfg).
		SetWill(Topics{}.BridgeHealth(c.protocol), string(offlineWill(c.protocol)), byte(cfg.QoS), true).
		SetOnConnectHandler(func(pahomqtt.Client) { c.sessionUp() }).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.sessionLost(err) }).
		SetReconnectingHandler(func(pahomqtt.Client, *pahomqtt.ClientOptions) {
			c.log().Warn("MQTT reconnecting", "protocol", c.protocol)
		})
}

// sessionUp runs for the first connect and every reconnect after it.
func (c *Client) sessionUp() {
	c.connected.Store(true)
	if c.sessions.Add(1) == 1 {
		return
	}

	c.reconnects.Add(1)
	c.restoreRoutes()

	c.hooksMu.RLock()
	hook := c.onReconnect
	c.hooksMu.RUnlock()
	if hook != nil {
		hook()
	}
}

func (c *Client) sessionLost(err error) {
	c.connected.Store(false)

	c.hooksMu.RLock()
	hook := c.onDisconnect
	c.hooksMu.RUnlock()
	if hook != nil {
		hook(err)
	}
}

// Close disconnects cleanly, so the broker discards the last will and the
// bridge's own final health report stays retained.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	c.connected.Store(false)
	c.conn.Disconnect(disconnectQuiesceMillis)
	return nil
}

// HealthCheck reports ErrNotConnected while the session is down.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("mqtt health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// IsConnected reports whether the session is currently up.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.connected.Load() && c.conn.IsConnected()
}

// Reconnects returns how many times the session has been re-established
// since Connect.
func (c *Client) Reconnects() uint64 {
	return c.reconnects.Load()
}

// SetOnReconnect installs a callback run after each automatic reconnect,
// once subscriptions have been restored. It is not called for the initial
// connect.
func (c *Client) SetOnReconnect(fn func()) {
	c.hooksMu.Lock()
	c.onReconnect = fn
	c.hooksMu.Unlock()
}

// SetOnDisconnect installs a callback run when the session drops.
func (c *Client) SetOnDisconnect(fn func(err error)) {
	c.hooksMu.Lock()
	c.onDisconnect = fn
	c.hooksMu.Unlock()
}

// SetLogger sets the logger for reconnects and handler failures.
func (c *Client) SetLogger(logger Logger) {
	c.hooksMu.Lock()
	c.logger = logger
	c.hooksMu.Unlock()
}

func (c *Client) log() Logger {
	c.hooksMu.RLock()
	defer c.hooksMu.RUnlock()
	if c.logger == nil {
		return discard{}
	}
	return c.logger
}

type discard struct{}

func (discard) Info(string, ...any)  {}
func (discard) Warn(string, ...any)  {}
func (discard) Error(string, ...any) {}
