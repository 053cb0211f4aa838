// Package deckstate reduces StageLinQ-style device state notifications into
// a strongly typed snapshot of device, mixer and per-deck playback state.
//
// Two inbound channels feed the same state tree:
//
//   - Raw path/value pairs (e.g. "/Engine/Deck1/Track/SampleRate" = 44100),
//     routed by the path dispatcher to the deck, mixer or device reducers.
//   - Player status objects, a higher-level partial deck snapshot merged with
//     presence-based semantics.
//
// # Architecture
//
//	┌──────────────┐  state change   ┌────────────┐   *Snapshot   ┌─────────────┐
//	│   protocol   │────────────────►│   Store    │──────────────►│ subscribers │
//	│   adapter    │  player status  │ (1 writer) │               │ (api, mqtt) │
//	└──────────────┘────────────────►└────────────┘               └─────────────┘
//
// The Store owns a single State and applies every command on one goroutine,
// so "last write wins per field, per arrival order" holds across both channels.
// Consumers only ever receive deep copies.
//
// # Resilience
//
// Protocol input never produces an error. Unparseable values fall back to
// zero values, unknown paths, fields and decks are dropped, and sample-domain
// values that arrive before the sample rate are back-filled once it is known.
//
// Usage:
//
//	store := deckstate.NewStore()
//	go store.Run(ctx)
//
//	_, _ = store.ApplyStateChange(ctx, "/Engine/Deck1/Track/SampleRate", 44100.0)
//	snap := store.Snapshot()
//	fmt.Println(snap.Decks[1].SampleRate)
package deckstate
