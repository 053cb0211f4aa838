package mqtt

import (
	"crypto/tls"
	"encoding/json"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/deckstate-core/internal/infrastructure/config"
)

const (
	connectTimeout   = 10 * time.Second
	operationTimeout = 5 * time.Second
	keepAlive        = 30 * time.Second

	// disconnectQuiesceMillis lets in-flight publishes (the bridge's final
	// health report) drain before the socket closes.
	disconnectQuiesceMillis = 500

	maxQoS = 2
)

// buildClientOptions maps the mqtt config section onto paho options:
// tcp:// or ssl:// broker URL, optional credentials, a clean session and
// automatic reconnect with the configured backoff bounds.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	scheme := "tcp"
	if cfg.Broker.TLS {
		scheme = "ssl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(fmt.Sprintf("%s://%s:%d", scheme, cfg.Broker.Host, cfg.Broker.Port)).
		SetClientID(cfg.Broker.ClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(time.Duration(cfg.Reconnect.InitialDelay) * time.Second).
		SetMaxReconnectInterval(time.Duration(cfg.Reconnect.MaxDelay) * time.Second).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username).SetPassword(cfg.Auth.Password)
	}
	if cfg.Broker.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return opts
}

// willMessage is the retained body the broker publishes on the bridge
// health topic if the core drops without a clean disconnect. Its fields
// are the subset of the bridge health report a dashboard keys on.
type willMessage struct {
	Bridge string `json:"bridge"`
	Status string `json:"status"`
	Reason string `json:"reason"`
}

func offlineWill(protocol string) []byte {
	data, _ := json.Marshal(willMessage{ //nolint:errcheck // strings always encode
		Bridge: protocol,
		Status: "offline",
		Reason: "core lost broker connection",
	})
	return data
}
