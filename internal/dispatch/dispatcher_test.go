package dispatch

import (
	"errors"
	"sync"
	"testing"
	"time"
)

type fakeSerial struct {
	mu     sync.Mutex
	writes []string
	err    error
}

func (f *fakeSerial) Write(payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, payload)
	return nil
}

func (f *fakeSerial) Writes() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes...)
}

type fakeBroker struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (f *fakeBroker) Publish(topic, payload string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, topic+"="+payload)
	return nil
}

func (f *fakeBroker) Published() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSerialDispatch(t *testing.T) {
	t.Parallel()
	serial := &fakeSerial{}
	d := NewDispatcher(serial, nil)
	defer d.Close()

	d.Send(Signal{Channel: ChannelSerial, Payload: "90\n"})
	d.Send(Signal{Channel: ChannelSerial, Payload: "reset\n"})

	got := serial.Writes()
	if len(got) != 2 || got[0] != "90\n" || got[1] != "reset\n" {
		t.Fatalf("serial writes = %v", got)
	}
}

func TestBrokerDispatchGoesThroughWorker(t *testing.T) {
	t.Parallel()
	broker := &fakeBroker{}
	d := NewDispatcher(nil, broker)
	defer d.Close()

	d.Send(Signal{Channel: ChannelBroker, Topic: "topic/start", Payload: "true"})

	waitFor(t, func() bool { return len(broker.Published()) == 1 })
	if got := broker.Published()[0]; got != "topic/start=true" {
		t.Fatalf("published %q", got)
	}
}

func TestFailingTransportsAreSwallowed(t *testing.T) {
	t.Parallel()
	serial := &fakeSerial{err: errors.New("unplugged")}
	broker := &fakeBroker{err: errors.New("unreachable")}
	d := NewDispatcher(serial, broker)
	defer d.Close()

	// Must not panic, block, or surface an error.
	d.Send(Signal{Channel: ChannelSerial, Payload: "move\n"})
	d.Send(Signal{Channel: ChannelBroker, Topic: "topic/start", Payload: "true"})
	time.Sleep(20 * time.Millisecond)

	if len(serial.Writes()) != 0 || len(broker.Published()) != 0 {
		t.Fatal("failing transports recorded writes")
	}
}

func TestNilTransportsAreSafeNoops(t *testing.T) {
	t.Parallel()
	d := NewDispatcher(nil, nil)
	defer d.Close()

	d.Send(Signal{Channel: ChannelSerial, Payload: "start\n"})
	d.Send(Signal{Channel: ChannelBroker, Topic: "t", Payload: "p"})
	d.Send(Signal{Channel: Channel(99), Payload: "?"})
}
