package node

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"atmosnode/internal/display"
	"atmosnode/internal/radio"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeSensor scripts one SensorHandle.
type fakeSensor struct {
	ready   bool
	reading Reading
	err     error
	reads   int
}

func (f *fakeSensor) Ready() bool { return f.ready }
func (f *fakeSensor) Read() (Reading, error) {
	f.reads++
	if f.err != nil {
		return nil, f.err
	}
	return f.reading, nil
}

var errBus = errors.New("bus error")

// fakeHardware scripts the bus probe.
type fakeHardware struct {
	present []uint16
	co2     SensorHandle
	pm      SensorHandle
	co2Err  error
	pmErr   error

	co2Interval time.Duration
}

func (f *fakeHardware) ScanBus() []uint16 { return f.present }

func (f *fakeHardware) CO2Sensor(addr uint16, interval time.Duration) (SensorHandle, error) {
	f.co2Interval = interval
	if f.co2Err != nil {
		return nil, f.co2Err
	}
	return f.co2, nil
}

func (f *fakeHardware) ParticulateSensor(addr uint16, interval time.Duration) (SensorHandle, error) {
	if f.pmErr != nil {
		return nil, f.pmErr
	}
	return f.pm, nil
}

// fakeNetwork records registrations and broadcasts.
type fakeNetwork struct {
	receivers  map[uint8][]radio.Receiver
	broadcasts [][]byte
	ports      []uint8
	sendErr    error
}

func newFakeNetwork() *fakeNetwork {
	return &fakeNetwork{receivers: make(map[uint8][]radio.Receiver)}
}

func (f *fakeNetwork) RegisterReceiver(port uint8, fn radio.Receiver) {
	f.receivers[port] = append(f.receivers[port], fn)
}

func (f *fakeNetwork) Broadcast(port uint8, payload []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.ports = append(f.ports, port)
	f.broadcasts = append(f.broadcasts, append([]byte(nil), payload...))
	return nil
}

// deliver pushes a payload through the registered receivers.
func (f *fakeNetwork) deliver(port uint8, payload []byte) {
	for _, fn := range f.receivers[port] {
		fn(payload)
	}
}

// syncDispatcher runs posted callbacks inline; tests are single-threaded.
type syncDispatcher struct{}

func (syncDispatcher) Post(fn func()) { fn() }

// fakeDisplay counts allocations and captures label text.
type fakeDisplay struct {
	openErr error
	cleared int
	page    *fakePage

	lastTitle  string
	lastStatus string
}

func (f *fakeDisplay) OpenPage(title, status string) (display.Page, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	f.lastTitle, f.lastStatus = title, status
	f.page = &fakePage{}
	return f.page, nil
}

func (f *fakeDisplay) Clear() { f.cleared++ }

type fakePage struct {
	labels []*fakeLabel
	closed bool
}

func (p *fakePage) CreateLabel() display.Label {
	l := &fakeLabel{}
	p.labels = append(p.labels, l)
	return l
}

func (p *fakePage) Close() { p.closed = true }

// texts returns the current label lines in creation order.
func (p *fakePage) texts() []string {
	out := make([]string, len(p.labels))
	for i, l := range p.labels {
		out[i] = l.text
	}
	return out
}

type fakeLabel struct {
	text    string
	x, y    int
	deleted bool
	sets    int
}

func (l *fakeLabel) SetText(s string)     { l.text = s; l.sets++ }
func (l *fakeLabel) SetPosition(x, y int) { l.x, l.y = x, y }
func (l *fakeLabel) Delete()              { l.deleted = true }

// stillInput scripts the keyboard.
type stillInput struct{ done bool }

func (s *stillInput) Done() bool {
	d := s.done
	s.done = false
	return d
}
