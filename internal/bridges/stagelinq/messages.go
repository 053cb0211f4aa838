package stagelinq

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nerrad567/deckstate-core/internal/deckstate"
)

// MQTT message types exchanged between the StageLinQ adapter and the bridge.

// StateMessage carries one raw state-map change.
// Topic: deckstate/stagelinq/{device}/state
type StateMessage struct {
	// Path is the protocol state path (e.g., "/Engine/Deck1/Play").
	Path string `json:"path"`

	// Value is the decoded scalar: string, float64, bool or nil.
	Value any `json:"value"`
}

// wrappedValueKeys are the member names the adapter uses when it forwards a
// state-map entry without flattening it, e.g. {"type": 0, "value": 128.0}.
var wrappedValueKeys = []string{"value", "state", "string", "color"}

// DecodeStateMessage parses a state payload.
// Object values are unwrapped through wrappedValueKeys; arrays and objects
// without a recognised member are rejected.
func DecodeStateMessage(payload []byte) (StateMessage, error) {
	var raw struct {
		Path  string          `json:"path"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(payload, &raw); err != nil {
		return StateMessage{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if raw.Path == "" {
		return StateMessage{}, fmt.Errorf("%w: path is required", ErrInvalidPayload)
	}

	value, err := scalarValue(raw.Value)
	if err != nil {
		return StateMessage{}, err
	}
	return StateMessage{Path: raw.Path, Value: value}, nil
}

func scalarValue(data json.RawMessage) (any, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	switch data[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		for _, key := range wrappedValueKeys {
			if inner, ok := obj[key]; ok {
				inner = bytes.TrimSpace(inner)
				if len(inner) > 0 && (inner[0] == '{' || inner[0] == '[') {
					break
				}
				return scalarValue(inner)
			}
		}
		return nil, fmt.Errorf("%w: value object has no scalar member", ErrInvalidPayload)
	case '[':
		return nil, fmt.Errorf("%w: value must be a scalar", ErrInvalidPayload)
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return v, nil
}

// DecodeStatusMessage parses a player status payload.
// Topic: deckstate/stagelinq/{device}/status
func DecodeStatusMessage(payload []byte) (deckstate.PlayerStatus, error) {
	var status deckstate.PlayerStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return deckstate.PlayerStatus{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return status, nil
}

// DecodeConnectionMessage parses a connection lifecycle payload.
// Topic: deckstate/stagelinq/{device}/connection
func DecodeConnectionMessage(payload []byte) (deckstate.ConnectionChange, error) {
	var change deckstate.ConnectionChange
	if err := json.Unmarshal(payload, &change); err != nil {
		return deckstate.ConnectionChange{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	if !change.Phase.Valid() {
		return deckstate.ConnectionChange{}, fmt.Errorf("%w: unknown phase %q", ErrInvalidPayload, change.Phase)
	}
	return change, nil
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is running but cannot reach the broker.
	HealthDegraded HealthStatus = "degraded"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"

	// HealthOffline is the broker-published last will, seen when the core
	// drops off the broker without a clean shutdown.
	HealthOffline HealthStatus = "offline"
)

// HealthMessage reports bridge status.
// Topic: deckstate/health/stagelinq
// QoS: 1, Retained: Yes
type HealthMessage struct {
	// Bridge is the bridge identifier ("stagelinq").
	Bridge string `json:"bridge"`

	// Timestamp is when the health status was generated (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the current operational status.
	Status HealthStatus `json:"status"`

	// Version is the core software version.
	Version string `json:"version"`

	// UptimeSeconds is how long the bridge has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Devices lists the adapter devices seen since start.
	Devices []string `json:"devices"`

	// Statistics contains message counters.
	Statistics *Statistics `json:"statistics,omitempty"`

	// Reason explains the status (especially for degraded).
	Reason string `json:"reason,omitempty"`
}

// NewHealthMessage creates a health status message.
func NewHealthMessage(bridgeID, version string, status HealthStatus, stats Statistics, devices []string, startTime time.Time) HealthMessage {
	if devices == nil {
		devices = []string{}
	}
	return HealthMessage{
		Bridge:        bridgeID,
		Timestamp:     time.Now().UTC(),
		Status:        status,
		Version:       version,
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Devices:       devices,
		Statistics:    &stats,
	}
}
