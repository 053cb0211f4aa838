package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by deckstate.
const (
	MeasurementDeck   = "deck"
	MeasurementMixer  = "mixer"
	MeasurementBridge = "bridge"
)

// DeckSample is one telemetry observation of a deck.
type DeckSample struct {
	Device   string
	Deck     int
	Playing  bool
	Master   bool
	BPM      float64
	Speed    float64
	Position float64 // seconds
	Fader    float64
	Time     time.Time
}

// MixerSample is one telemetry observation of the mixer.
type MixerSample struct {
	Device     string
	Faders     [4]float64
	Crossfader float64
	Time       time.Time
}

// deckPoint builds the line-protocol point for a deck sample.
func deckPoint(s DeckSample) *write.Point {
	return write.NewPoint(
		MeasurementDeck,
		map[string]string{
			"device": s.Device,
			"deck":   strconv.Itoa(s.Deck),
		},
		map[string]interface{}{
			"playing":  s.Playing,
			"master":   s.Master,
			"bpm":      s.BPM,
			"speed":    s.Speed,
			"position": s.Position,
			"fader":    s.Fader,
		},
		timestampOrNow(s.Time),
	)
}

// mixerPoint builds the line-protocol point for a mixer sample.
func mixerPoint(s MixerSample) *write.Point {
	fields := map[string]interface{}{
		"crossfader": s.Crossfader,
	}
	for i, f := range s.Faders {
		fields["fader"+strconv.Itoa(i+1)] = f
	}
	return write.NewPoint(
		MeasurementMixer,
		map[string]string{"device": s.Device},
		fields,
		timestampOrNow(s.Time),
	)
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// counterPoint builds the line-protocol point for a bridge counter set.
func counterPoint(bridge string, counters map[string]uint64, ts time.Time) *write.Point {
	fields := make(map[string]interface{}, len(counters))
	for k, v := range counters {
		fields[k] = v
	}
	return write.NewPoint(MeasurementBridge, map[string]string{"bridge": bridge}, fields, ts)
}

// queue hands p to the batching writer unless the client is closed.
func (c *Client) queue(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writer.WritePoint(p)
}

// WriteDeckSample queues a deck observation. Failures surface through SetOnError.
//
// Example:
//
//	client.WriteDeckSample(influxdb.DeckSample{Device: "prime4", Deck: 1, BPM: 128, Playing: true})
func (c *Client) WriteDeckSample(s DeckSample) {
	c.queue(deckPoint(s))
}

// WriteMixerSample queues a mixer observation.
func (c *Client) WriteMixerSample(s MixerSample) {
	c.queue(mixerPoint(s))
}

// WriteBridgeCounters records a bridge's message counters, e.g.
// WriteBridgeCounters("stagelinq", map[string]uint64{"state_received": 1042}).
// An empty set writes nothing.
func (c *Client) WriteBridgeCounters(bridge string, counters map[string]uint64) {
	if len(counters) == 0 {
		return
	}
	c.queue(counterPoint(bridge, counters, time.Now()))
}
