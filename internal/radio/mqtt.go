package radio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// MQTTOptions configures the broker bridge.
type MQTTOptions struct {
	Broker   string
	Port     int
	ClientID string
}

// MQTTRadio bridges the node's broadcast port onto an MQTT broker: one
// topic per protocol port, raw frame bytes as the message body, QoS 0.
// The broker stands in for the shared half-duplex channel, so delivery
// stays fire-and-forget and unacknowledged end to end.
type MQTTRadio struct {
	client    mqtt.Client
	opts      MQTTOptions
	logger    *slog.Logger
	mu        sync.RWMutex
	connected bool
	pending   map[uint8][]Receiver

	stopCh   chan struct{}
	stopOnce sync.Once
}

func topicForPort(port uint8) string {
	return fmt.Sprintf("atmosnet/%d", port)
}

func NewMQTTRadio(opts MQTTOptions, logger *slog.Logger) *MQTTRadio {
	r := &MQTTRadio{
		opts:    opts,
		logger:  logger,
		stopCh:  make(chan struct{}),
		pending: make(map[uint8][]Receiver),
	}

	co := mqtt.NewClientOptions()
	co.AddBroker(fmt.Sprintf("tcp://%s:%d", opts.Broker, opts.Port))
	co.SetClientID(opts.ClientID)

	co.SetCleanSession(true)

	co.SetAutoReconnect(true)
	co.SetConnectRetry(true)
	co.SetConnectRetryInterval(5 * time.Second)
	co.SetMaxReconnectInterval(60 * time.Second)

	co.SetKeepAlive(30 * time.Second)
	co.SetPingTimeout(10 * time.Second)

	co.SetOnConnectHandler(func(_ mqtt.Client) {
		r.setConnected(true)
		r.resubscribe()
		logger.Info("mqtt radio connected", "broker", opts.Broker, "port", opts.Port)
	})
	co.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		r.setConnected(false)
		logger.Warn("mqtt radio connection lost", "error", err)
	})

	r.client = mqtt.NewClient(co)
	return r
}

// Connect establishes the broker connection, respecting ctx and Close().
func (r *MQTTRadio) Connect(ctx context.Context) error {
	select {
	case <-r.stopCh:
		return fmt.Errorf("mqtt radio stopped")
	default:
	}
	if r.IsConnected() {
		return nil
	}

	token := r.client.Connect()

	const poll = 200 * time.Millisecond
	for {
		if token.WaitTimeout(poll) {
			if err := token.Error(); err != nil {
				return fmt.Errorf("mqtt connect: %w", err)
			}
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stopCh:
			return fmt.Errorf("mqtt radio stopped")
		default:
		}
	}
}

// RegisterReceiver subscribes fn to every frame broadcast on port. Paho
// invokes fn from its own router goroutine; the node's receiver hands the
// payload off to its scheduler instead of working in place.
func (r *MQTTRadio) RegisterReceiver(port uint8, fn Receiver) {
	r.mu.Lock()
	r.pending[port] = append(r.pending[port], fn)
	connected := r.connected
	r.mu.Unlock()
	if connected {
		r.subscribe(port, fn)
	}
}

// resubscribe re-installs every registered receiver after (re)connect.
func (r *MQTTRadio) resubscribe() {
	r.mu.RLock()
	pending := make(map[uint8][]Receiver, len(r.pending))
	for port, fns := range r.pending {
		pending[port] = append([]Receiver(nil), fns...)
	}
	r.mu.RUnlock()
	for port, fns := range pending {
		for _, fn := range fns {
			r.subscribe(port, fn)
		}
	}
}

func (r *MQTTRadio) subscribe(port uint8, fn Receiver) {
	topic := topicForPort(port)
	token := r.client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		fn(msg.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		r.logger.Warn("mqtt subscribe timeout", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		r.logger.Warn("mqtt subscribe failed", "topic", topic, "error", err)
		return
	}
	r.logger.Debug("mqtt radio listening", "topic", topic)
}

// Broadcast publishes one frame payload. QoS 0, not retained: a frame that
// nobody hears is gone, same as on the air.
func (r *MQTTRadio) Broadcast(port uint8, payload []byte) error {
	if !r.IsConnected() {
		return fmt.Errorf("mqtt radio not connected")
	}
	topic := topicForPort(port)
	token := r.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("publish timeout for topic %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	r.logger.Debug("mqtt radio broadcast", "topic", topic, "bytes", len(payload))
	return nil
}

// IsConnected reports whether the broker link is up.
func (r *MQTTRadio) IsConnected() bool {
	r.mu.RLock()
	connected := r.connected
	r.mu.RUnlock()
	return connected && r.client.IsConnected()
}

// Close stops the radio and drops the broker connection. Idempotent.
func (r *MQTTRadio) Close() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	if r.client != nil {
		r.client.Disconnect(250)
	}
	r.setConnected(false)
	r.logger.Info("mqtt radio disconnected")
}

func (r *MQTTRadio) setConnected(v bool) {
	r.mu.Lock()
	r.connected = v
	r.mu.Unlock()
}
