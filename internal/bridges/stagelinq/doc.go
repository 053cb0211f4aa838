// Package stagelinq implements the MQTT ingest bridge for StageLinQ devices.
//
// The StageLinQ protocol adapter (discovery, TCP services, binary framing)
// runs as a separate process. It publishes every decoded event to MQTT and
// this package feeds those events into the deckstate store.
//
// # Architecture
//
//	┌─────────────────┐   MQTT   ┌─────────────────┐          ┌─────────────────┐
//	│    StageLinQ    │─────────►│ StageLinQ Bridge│─────────►│ deckstate.Store │
//	│     Adapter     │◄─────────│   (this pkg)    │◄─────────│                 │
//	└─────────────────┘ snapshot └─────────────────┘ snapshots└─────────────────┘
//
// # Topics
//
// Inbound, one device per adapter connection:
//
//	deckstate/stagelinq/{device}/state       {"path": "...", "value": ...}
//	deckstate/stagelinq/{device}/status      PlayerStatus JSON
//	deckstate/stagelinq/{device}/connection  {"phase": "connected", ...}
//
// Outbound:
//
//	deckstate/core/snapshot      retained, every applied change
//	deckstate/health/stagelinq   retained, on start, stop and every interval
//
// Payloads that fail to decode are logged at warn level and dropped. The
// store never sees them.
//
// # Usage
//
//	bridge, err := stagelinq.NewBridge(stagelinq.BridgeOptions{
//	    Config:     cfg.StageLinQ,
//	    MQTTClient: adapter,
//	    Store:      store,
//	    Logger:     log,
//	})
//	if err != nil {
//	    return err
//	}
//	if err := bridge.Start(ctx); err != nil {
//	    return err
//	}
//	defer bridge.Stop()
package stagelinq
