// Package history records what was played on the connected unit.
//
// Two outputs are derived from the stream of deckstate snapshots:
//
//   - Track loads are persisted to the SQLite track_history table through a
//     Repository. A load is recorded when a deck reports songLoaded and its
//     (title, artist) pair differs from the last one recorded for that deck.
//   - Deck and mixer telemetry (tempo, speed, position, faders) is written to
//     InfluxDB through a MetricsWriter, throttled per deck.
//
// The Recorder consumes snapshots from deckstate.Store.Subscribe and never
// writes to the store. History is a view of what the core observed, not an
// input to it.
package history
