package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/deckstate-core/internal/bridges/stagelinq"
	"github.com/nerrad567/deckstate-core/internal/history"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string                   `json:"timestamp"`
	Version       string                   `json:"version"`
	UptimeSeconds int64                    `json:"uptime_seconds"`
	Runtime       RuntimeMetrics           `json:"runtime"`
	WebSocket     WSMetrics                `json:"websocket"`
	Store         StoreMetrics             `json:"store"`
	MQTT          ConnectionMetrics        `json:"mqtt"`
	InfluxDB      ConnectionMetrics        `json:"influxdb"`
	Bridge        *stagelinq.BridgeMetrics `json:"stagelinq_bridge,omitempty"`
	History       *history.RecorderStats   `json:"history,omitempty"`
	Database      *DatabaseMetrics         `json:"database,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// StoreMetrics contains state store counters.
type StoreMetrics struct {
	Applied     uint64 `json:"applied"`
	Dropped     uint64 `json:"dropped"`
	Subscribers int    `json:"subscribers"`
	Phase       string `json:"phase"`
}

// ConnectionMetrics reports an optional external connection.
type ConnectionMetrics struct {
	Enabled   bool `json:"enabled"`
	Connected bool `json:"connected"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	storeStats := s.store.Stats()
	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Store: StoreMetrics{
			Applied:     storeStats.Applied,
			Dropped:     storeStats.Dropped,
			Subscribers: s.store.SubscriberCount(),
			Phase:       string(s.store.Snapshot().Device.Phase),
		},
		MQTT:     connectionMetrics(s.mqtt),
		InfluxDB: connectionMetrics(s.influx),
	}

	if s.bridge != nil {
		bm := s.bridge.GetMetrics()
		metrics.Bridge = &bm
	}
	if s.recorder != nil {
		rs := s.recorder.Stats()
		metrics.History = &rs
	}
	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = &DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}

func connectionMetrics(c ConnectionStatus) ConnectionMetrics {
	if c == nil {
		return ConnectionMetrics{}
	}
	return ConnectionMetrics{Enabled: true, Connected: c.IsConnected()}
}
