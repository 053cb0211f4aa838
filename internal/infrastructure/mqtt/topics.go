package mqtt

import "strings"

// TopicPrefix is the root of every deckstate topic.
//
// The tree has three branches:
//
//	deckstate/{protocol}/{device}/{kind}  adapter traffic into the core
//	deckstate/core/snapshot               retained full state, out of the core
//	deckstate/health/{protocol}           retained bridge health and last will
const TopicPrefix = "deckstate"

// Adapter message kinds, the last level of an adapter topic.
const (
	KindState      = "state"
	KindStatus     = "status"
	KindConnection = "connection"
)

// Topics builds and parses deckstate topics.
type Topics struct{}

// Adapter returns the topic an adapter publishes one kind of message on.
//
// Example: deckstate/stagelinq/prime4/state
func (Topics) Adapter(protocol, device, kind string) string {
	return strings.Join([]string{TopicPrefix, protocol, device, kind}, "/")
}

// AllAdapterMessages returns the filter for every adapter message of a
// protocol, the one subscription a bridge holds.
//
// Pattern: deckstate/stagelinq/+/+
func (Topics) AllAdapterMessages(protocol string) string {
	return TopicPrefix + "/" + protocol + "/+/+"
}

// ParseAdapterTopic splits an adapter topic into its device and kind.
// It reports false for topics outside deckstate/{protocol}/.
func (Topics) ParseAdapterTopic(protocol, topic string) (device, kind string, ok bool) {
	rest, found := strings.CutPrefix(topic, TopicPrefix+"/"+protocol+"/")
	if !found {
		return "", "", false
	}
	device, kind, found = strings.Cut(rest, "/")
	if !found || device == "" || kind == "" || strings.Contains(kind, "/") {
		return "", "", false
	}
	return device, kind, true
}

// CoreSnapshot returns the retained snapshot topic, deckstate/core/snapshot.
func (Topics) CoreSnapshot() string {
	return TopicPrefix + "/core/snapshot"
}

// BridgeHealth returns a bridge's retained health topic, which also
// carries the core's last will.
//
// Example: deckstate/health/stagelinq
func (Topics) BridgeHealth(protocol string) string {
	return TopicPrefix + "/health/" + protocol
}
