// Package api implements the HTTP REST API and WebSocket server for deckstate.
//
// This package provides:
//   - Read endpoints for the reduced deck, mixer and device state
//   - The track history log written by the history recorder
//   - Operator login issuing JWT access tokens
//   - Protected ingest endpoints that feed state changes and player status
//     straight into the store, plus a state reset
//   - A WebSocket hub that pushes every state snapshot to subscribers
//
// # Architecture
//
// The server reads from the deckstate store and never mutates state except
// through the store's own apply operations. A single goroutine relays store
// snapshots to the hub, which fans them out to clients subscribed to the
// "state" channel as "state.snapshot" events. A client that subscribes is
// sent the current snapshot straight away.
//
// # Security
//
// Reads and the WebSocket are open. Ingest and reset require a bearer token
// from POST /api/v1/auth/login whose role grants the matching permission.
//
// # Graceful Degradation
//
// MQTT, InfluxDB, the database and the history repository are all optional.
// Metrics report what is present; /history answers 503 when history is off.
package api
