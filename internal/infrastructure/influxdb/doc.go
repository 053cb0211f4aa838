// Package influxdb provides InfluxDB connectivity for deckstate-core.
//
// It wraps influxdb-client-go v2 and writes deck, mixer and bridge telemetry
// so a set can be replayed on a dashboard afterwards (tempo curves, fader
// moves, which deck was master when).
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WriteDeckSample(influxdb.DeckSample{Device: "prime4", Deck: 1, BPM: 128})
//
// Writes are non-blocking and batched according to batch_size and
// flush_interval; asynchronous write errors are delivered via SetOnError.
package influxdb
