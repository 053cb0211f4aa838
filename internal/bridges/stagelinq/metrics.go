package stagelinq

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Statistics is a point-in-time copy of the bridge counters.
type Statistics struct {
	StateReceived      uint64 `json:"state_received"`
	StatusReceived     uint64 `json:"status_received"`
	ConnectionReceived uint64 `json:"connection_received"`
	Dropped            uint64 `json:"dropped"`
	SnapshotsPublished uint64 `json:"snapshots_published"`
}

// Counters returns the statistics keyed by field name, the shape expected by
// time-series writers.
func (s Statistics) Counters() map[string]uint64 {
	return map[string]uint64{
		"state_received":      s.StateReceived,
		"status_received":     s.StatusReceived,
		"connection_received": s.ConnectionReceived,
		"dropped":             s.Dropped,
		"snapshots_published": s.SnapshotsPublished,
	}
}

// counters holds the live bridge counters.
type counters struct {
	state      atomic.Uint64
	status     atomic.Uint64
	connection atomic.Uint64
	dropped    atomic.Uint64
	snapshots  atomic.Uint64

	devices   map[string]struct{}
	devicesMu sync.Mutex
}

func newCounters() *counters {
	return &counters{devices: make(map[string]struct{})}
}

func (c *counters) received(kind string) {
	switch kind {
	case kindState:
		c.state.Add(1)
	case kindStatus:
		c.status.Add(1)
	case kindConnection:
		c.connection.Add(1)
	}
}

func (c *counters) seen(device string) {
	c.devicesMu.Lock()
	c.devices[device] = struct{}{}
	c.devicesMu.Unlock()
}

func (c *counters) snapshot() Statistics {
	return Statistics{
		StateReceived:      c.state.Load(),
		StatusReceived:     c.status.Load(),
		ConnectionReceived: c.connection.Load(),
		Dropped:            c.dropped.Load(),
		SnapshotsPublished: c.snapshots.Load(),
	}
}

// deviceList returns the seen devices in sorted order.
func (c *counters) deviceList() []string {
	c.devicesMu.Lock()
	defer c.devicesMu.Unlock()

	out := make([]string, 0, len(c.devices))
	for d := range c.devices {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
