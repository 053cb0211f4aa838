package mqtt

import (
	"fmt"
	"sort"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// route is a remembered subscription, re-issued after reconnect.
type route struct {
	qos     byte
	handler MessageHandler
}

// Subscribe registers handler for a topic filter such as
// Topics{}.AllAdapterMessages("stagelinq"). Subscribing the same filter
// again replaces its handler. The subscription survives reconnects.
//
// Handlers run on paho's delivery goroutines and should return quickly.
func (c *Client) Subscribe(filter string, qos byte, handler MessageHandler) error {
	if err := validateFilter(filter); err != nil {
		return err
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if handler == nil {
		return fmt.Errorf("%w: nil handler for %s", ErrSubscribeFailed, filter)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	r := route{qos: qos, handler: handler}
	if err := await(c.conn.Subscribe(filter, qos, c.dispatch(r.handler)), operationTimeout, ErrSubscribeFailed); err != nil {
		return fmt.Errorf("%s: %w", filter, err)
	}

	c.routesMu.Lock()
	c.routes[filter] = r
	c.routesMu.Unlock()
	return nil
}

// Filters returns the remembered subscription filters, sorted.
func (c *Client) Filters() []string {
	c.routesMu.Lock()
	defer c.routesMu.Unlock()
	out := make([]string, 0, len(c.routes))
	for f := range c.routes {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// restoreRoutes re-issues every remembered subscription on a fresh session.
// A filter that fails stays remembered and is retried on the next reconnect.
func (c *Client) restoreRoutes() {
	c.routesMu.Lock()
	pending := make(map[string]route, len(c.routes))
	for f, r := range c.routes {
		pending[f] = r
	}
	c.routesMu.Unlock()

	restored := 0
	for filter, r := range pending {
		err := await(c.conn.Subscribe(filter, r.qos, c.dispatch(r.handler)), operationTimeout, ErrSubscribeFailed)
		if err != nil {
			c.log().Error("MQTT resubscribe failed", "topic", filter, "error", err)
			continue
		}
		restored++
	}
	c.log().Info("MQTT subscriptions restored",
		"protocol", c.protocol,
		"restored", restored,
		"total", len(pending),
		"reconnects", c.reconnects.Load(),
	)
}

// dispatch adapts a MessageHandler to paho, containing handler panics.
func (c *Client) dispatch(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				c.log().Error("MQTT handler panic recovered", "topic", msg.Topic(), "panic", r)
			}
		}()
		if err := handler(msg.Topic(), msg.Payload()); err != nil {
			c.log().Warn("MQTT handler returned error", "topic", msg.Topic(), "error", err)
		}
	}
}
