// Package mqtt holds the core's broker session for a protocol bridge.
//
// The StageLinQ adapter runs next to the mixer and publishes decoded
// traffic to the broker; the core subscribes, reduces it into its state
// tree and republishes snapshots and bridge health.
//
//	StageLinQ adapter → MQTT broker → deckstate-core → MQTT / HTTP / WebSocket
//
// A Client serves one protocol. Its last will is a retained "offline"
// report on deckstate/health/{protocol}; after an automatic reconnect it
// re-issues the adapter subscription and runs the SetOnReconnect hook,
// which the bridge uses to replace the will with a live health report.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, "stagelinq")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllAdapterMessages("stagelinq"), 1,
//	    func(topic string, payload []byte) error {
//	        log.Printf("adapter: %s = %s", topic, payload)
//	        return nil
//	    })
package mqtt
