package transport

import (
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"
)

// BrokerOptions configures the MQTT link to the companion system.
type BrokerOptions struct {
	Host           string
	Port           int
	ClientID       string
	Username       string
	Password       string
	QoS            byte
	KeepAlive      time.Duration
	ConnectTimeout time.Duration // overall bound on a lazy connect
	PollInterval   time.Duration // how often the connect wait rechecks
}

// MQTTPublisher publishes device signals to a broker. The connection
// is established lazily on the first publish with a bounded wait, and
// a failed attempt is reported to the caller rather than retried; the
// dispatcher decides what to do with the failure (log and drop).
//
// Publish blocks for up to ConnectTimeout, so it must only run on the
// dispatcher worker, never on the event loop.
type MQTTPublisher struct {
	client       mqtt.Client
	qos          byte
	connectWait  time.Duration
	pollInterval time.Duration
	connecting   bool
}

// NewMQTTPublisher builds a publisher. It does not touch the network.
func NewMQTTPublisher(o BrokerOptions) *MQTTPublisher {
	if o.QoS > 2 {
		o.QoS = 0
	}
	if o.KeepAlive <= 0 {
		o.KeepAlive = 60 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 5 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 100 * time.Millisecond
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", o.Host, o.Port))
	opts.SetClientID(o.ClientID)
	if o.Username != "" {
		opts.SetUsername(o.Username)
		opts.SetPassword(o.Password)
	}
	opts.SetKeepAlive(o.KeepAlive)
	opts.SetConnectTimeout(o.ConnectTimeout)
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	opts.SetOnConnectHandler(func(mqtt.Client) {
		log.Info().Str("broker", fmt.Sprintf("%s:%d", o.Host, o.Port)).Msg("MQTT connected")
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Warn().Err(err).Msg("MQTT connection lost")
	})

	return &MQTTPublisher{
		client:       mqtt.NewClient(opts),
		qos:          o.QoS,
		connectWait:  o.ConnectTimeout,
		pollInterval: o.PollInterval,
	}
}

// Publish sends one message, not retained, at the configured QoS.
// When disconnected it makes a single connect attempt, polling until
// connected or the overall timeout elapses.
func (p *MQTTPublisher) Publish(topic, payload string) error {
	if !p.client.IsConnected() {
		if err := p.connect(); err != nil {
			return err
		}
	}

	token := p.client.Publish(topic, p.qos, false, []byte(payload))
	if !token.WaitTimeout(p.connectWait) {
		return fmt.Errorf("mqtt publish %s: timeout", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish %s: %w", topic, err)
	}
	return nil
}

func (p *MQTTPublisher) connect() error {
	if !p.connecting {
		p.connecting = true
		p.client.Connect()
	}

	// 轮询等待连接完成
	deadline := time.Now().Add(p.connectWait)
	for !p.client.IsConnected() {
		if time.Now().After(deadline) {
			p.connecting = false
			return fmt.Errorf("mqtt connect: timeout after %s", p.connectWait)
		}
		time.Sleep(p.pollInterval)
	}
	p.connecting = false
	return nil
}

// Close disconnects from the broker, allowing in-flight work a short
// grace period.
func (p *MQTTPublisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
