package dispatch

import (
	"github.com/rs/zerolog/log"
)

// Channel selects the transport an outbound signal travels on.
type Channel int

const (
	ChannelSerial Channel = iota
	ChannelBroker
)

// Signal is an ephemeral outbound notification to the companion
// system. It is constructed at the transition call site and consumed
// immediately; nothing is persisted.
type Signal struct {
	Channel Channel
	Payload string
	Topic   string // broker only
}

// SerialWriter is the point-to-point byte channel to the companion.
type SerialWriter interface {
	Write(payload string) error
}

// BrokerPublisher is the publish/subscribe channel. Publish may block
// while connecting, so the dispatcher never calls it from the event
// loop.
type BrokerPublisher interface {
	Publish(topic, payload string) error
}

// Dispatcher fans device signals out to the serial line and the
// broker, best-effort. Transport failures are logged and swallowed:
// the device stays interactive with no companion attached, so Send
// never reports an error to the state machine.
//
// Serial writes happen synchronously in Send (a single cheap write to
// a pre-opened handle). Broker publishes are handed to a worker
// goroutine because the connect path can stall for seconds.
type Dispatcher struct {
	serial SerialWriter
	broker BrokerPublisher

	queue chan Signal
	done  chan struct{}
}

// NewDispatcher wires the two channels. Either transport may be nil,
// in which case its signals become logged no-ops.
func NewDispatcher(serial SerialWriter, broker BrokerPublisher) *Dispatcher {
	d := &Dispatcher{
		serial: serial,
		broker: broker,
		queue:  make(chan Signal, 16),
		done:   make(chan struct{}),
	}
	go d.worker()
	return d
}

// Send dispatches one signal, best-effort. Safe to call from the
// event loop: it never blocks on the network and never returns an
// error to the caller.
func (d *Dispatcher) Send(sig Signal) {
	switch sig.Channel {
	case ChannelSerial:
		d.sendSerial(sig)
	case ChannelBroker:
		d.enqueueBroker(sig)
	default:
		log.Error().Int("channel", int(sig.Channel)).Msg("unknown signal channel")
	}
}

func (d *Dispatcher) sendSerial(sig Signal) {
	if d.serial == nil {
		log.Debug().Str("payload", sig.Payload).Msg("serial unplugged, signal dropped")
		return
	}
	if err := d.serial.Write(sig.Payload); err != nil {
		log.Error().Err(err).Str("payload", sig.Payload).Msg("serial dispatch failed")
		return
	}
	log.Info().Str("payload", sig.Payload).Msg("串口信号已发送 serial signal sent")
}

func (d *Dispatcher) enqueueBroker(sig Signal) {
	if d.broker == nil {
		log.Debug().Str("topic", sig.Topic).Msg("broker not configured, signal dropped")
		return
	}
	select {
	case d.queue <- sig:
	default:
		// Queue full means the broker is unreachable and backed up.
		log.Warn().Str("topic", sig.Topic).Msg("broker queue full, signal dropped")
	}
}

// worker drains broker publishes off the event loop.
func (d *Dispatcher) worker() {
	for {
		select {
		case <-d.done:
			return
		case sig := <-d.queue:
			if err := d.broker.Publish(sig.Topic, sig.Payload); err != nil {
				log.Error().Err(err).
					Str("topic", sig.Topic).
					Str("payload", sig.Payload).
					Msg("broker dispatch failed")
				continue
			}
			log.Info().
				Str("topic", sig.Topic).
				Str("payload", sig.Payload).
				Msg("broker signal published")
		}
	}
}

// Close stops the broker worker. Queued signals not yet published are
// dropped; the contract is best-effort.
func (d *Dispatcher) Close() {
	close(d.done)
}
