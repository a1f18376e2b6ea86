// Package node implements the atmosphere telemetry node: a cooperative
// state machine that either produces sensor readings and broadcasts them,
// or passively consumes broadcasts, and renders the latest known data
// while in the foreground.
package node

import (
	"fmt"
	"log/slog"
	"time"

	"atmosnode/internal/display"
	"atmosnode/internal/radio"
	"atmosnode/internal/telemetry"
)

// Display line geometry, two columns of seven rows.
const (
	linesPerColumn = 7
	columnLeftX    = 25
	columnRightX   = 214
	lineHeight     = 13
)

// Dispatcher serializes asynchronous callbacks onto the node's cooperative
// loop. Posted functions run between ticks, never during one.
type Dispatcher interface {
	Post(fn func())
}

// InputSource is the keyboard collaborator, polled once per foreground
// tick. Done reports whether the user dismissed the app this tick.
type InputSource interface {
	Done() bool
}

// State is the lifecycle state of the node.
type State uint8

const (
	// StateBackground: invisible, low cadence, no render surface held.
	StateBackground State = iota
	// StateForeground: interactive, page and labels allocated.
	StateForeground
)

// Config carries the node's collaborators. Everything is injected; the
// node never reaches for ambient state.
type Config struct {
	// Version is the frame layout this node encodes and accepts.
	Version uint8
	// Hardware probes the sensor bus. nil means no bus is attached and the
	// node starts as a Consumer.
	Hardware Hardware
	Network  radio.Network
	Display  display.Display
	// Input may be nil when no keyboard exists (e.g. headless consumer).
	Input      InputSource
	Dispatcher Dispatcher
	Logger     *slog.Logger
}

// Node composes the sensor adapter, codec, rate limiter, and freshness
// cache into the periodic callbacks the external scheduler invokes. All
// methods run on the scheduler's goroutine; nothing here blocks.
type Node struct {
	version  uint8
	role     Role
	cache    ReadingCache
	throttle *Throttle
	net      radio.Network
	disp     display.Display
	input    InputSource
	log      *slog.Logger

	state  State
	page   display.Page
	labels []display.Label
}

// New arbitrates the node's role from hardware presence and, for a
// Consumer, installs the frame receiver. The role never changes afterward.
func New(cfg Config) (*Node, error) {
	if telemetry.EncodedSize(cfg.Version) == 0 {
		return nil, fmt.Errorf("node: version %d has no frame layout", cfg.Version)
	}
	if cfg.Network == nil || cfg.Display == nil || cfg.Dispatcher == nil || cfg.Logger == nil {
		return nil, fmt.Errorf("node: network, display, dispatcher and logger are required")
	}

	n := &Node{
		version:  cfg.Version,
		throttle: NewThrottle(SensorRefreshInterval),
		net:      cfg.Network,
		disp:     cfg.Display,
		input:    cfg.Input,
		log:      cfg.Logger,
		state:    StateBackground,
	}

	n.role = Arbitrate(cfg.Hardware, cfg.Logger)
	n.log.Info("role arbitrated",
		"role", n.role.Kind.String(),
		"co2", n.role.CO2 != nil,
		"particulate", n.role.Particulate != nil,
	)

	if n.role.Kind == RoleConsumer {
		d := cfg.Dispatcher
		n.net.RegisterReceiver(telemetry.Port, func(payload []byte) {
			d.Post(func() { n.HandleFrame(payload) })
		})
	}
	return n, nil
}

// Role returns the node's immutable role.
func (n *Node) Role() Role { return n.role }

// State returns the current lifecycle state.
func (n *Node) State() State { return n.state }

// Cache exposes the reading cache; the render path and tests read it.
func (n *Node) Cache() *ReadingCache { return &n.cache }

// HandleFrame is the inbound-frame callback: decode, apply version policy,
// update the cache. It never fails outward; malformed or foreign-version
// frames are logged and dropped.
func (n *Node) HandleFrame(payload []byte) {
	f, err := telemetry.Decode(payload)
	if err != nil {
		n.log.Debug("dropping malformed frame", "bytes", len(payload), "error", err)
		return
	}
	if f.Version != n.version {
		// Structurally valid, wrong layout generation. Not an error, just
		// not ours to interpret.
		n.log.Debug("dropping frame of foreign version", "got", f.Version, "want", n.version)
		return
	}
	n.cache.UpdateFromFrame(f)
	n.log.Debug("frame received", "co2_ppm", f.CO2PPM, "temp_c", f.Temperature, "rh_pct", f.Humidity)
}

// TickForeground runs one interactive tick: poll, render if stale, poll
// input. It reports whether the user dismissed the app.
func (n *Node) TickForeground(now time.Time) (done bool) {
	n.pollSensors(now)
	if n.cache.ConsumeDirty() {
		n.render()
	}
	return n.input != nil && n.input.Done()
}

// TickBackground runs one invisible tick. Producers keep polling and
// broadcasting; nothing renders because no surface exists.
func (n *Node) TickBackground(now time.Time) {
	n.pollSensors(now)
}

// pollSensors runs one poll cycle over the owned sensors and, when anything
// updated this tick, offers the coalesced cache to the rate limiter.
func (n *Node) pollSensors(now time.Time) {
	if n.role.Kind != RoleProducer {
		return
	}

	updated := false
	for _, s := range []struct {
		name   string
		handle SensorHandle
	}{
		{"scd30", n.role.CO2},
		{"sps30", n.role.Particulate},
	} {
		if s.handle == nil {
			continue
		}
		reading, outcome := Poll(s.handle)
		switch outcome {
		case PollNoData:
		case PollNewReading:
			n.cache.UpdateFromSensor(reading)
			updated = true
		case PollFault:
			// Transient bus flakiness; next poll cycle retries. The node
			// keeps running no matter what the hardware does.
			n.log.Warn("sensor read fault", "sensor", s.name)
		}
	}

	if n.throttle.ShouldTransmit(now, updated) {
		payload := telemetry.Encode(n.cache.Frame(n.version))
		if err := n.net.Broadcast(telemetry.Port, payload); err != nil {
			n.log.Warn("broadcast failed", "error", err)
			return
		}
		n.throttle.RecordTransmission(now)
		n.log.Debug("frame transmitted", "bytes", len(payload))
	}
}

// EnterForeground allocates the render surface and forces one full render.
// Idempotent: a node already in the foreground stays put.
func (n *Node) EnterForeground() {
	if n.state == StateForeground {
		return
	}
	n.state = StateForeground

	status := "Awaiting packets"
	if n.role.Kind == RoleProducer {
		status = fmt.Sprintf("Polling sensors every ~%ds", int(SensorRefreshInterval.Seconds()))
	}
	page, err := n.disp.OpenPage("Atmospheric Data Display", status)
	if err != nil {
		n.log.Warn("display page allocation failed", "error", err)
		return
	}
	n.page = page
	n.labels = n.labels[:0]
	for _, x := range []int{columnLeftX, columnRightX} {
		for row := 0; row < linesPerColumn; row++ {
			l := page.CreateLabel()
			l.SetPosition(x, row*lineHeight)
			n.labels = append(n.labels, l)
		}
	}

	n.cache.MarkDirty()
	if n.cache.ConsumeDirty() {
		n.render()
	}
}

// ExitForeground releases every render resource. Nothing visual survives
// the transition; the next EnterForeground reallocates from scratch.
func (n *Node) ExitForeground() {
	if n.state == StateBackground {
		return
	}
	n.state = StateBackground

	for _, l := range n.labels {
		l.Delete()
	}
	n.labels = nil
	if n.page != nil {
		n.page.Close()
		n.page = nil
	}
	n.disp.Clear()
}

// render composes the display lines from the cache and writes them to the
// allocated labels. Lines beyond the label count are dropped; the screen
// is small and does not scroll.
func (n *Node) render() {
	if n.page == nil {
		return
	}
	lines := n.composeLines()
	for i, l := range n.labels {
		if i < len(lines) {
			l.SetText(lines[i])
		} else {
			l.SetText("")
		}
	}
	if len(lines) > len(n.labels) {
		n.log.Debug("render lines truncated", "lines", len(lines), "labels", len(n.labels))
	}
}

// composeLines builds the two-column line set: CO2 triple on the left,
// particle buckets on the right, absence notices for a producer missing a
// sensor.
func (n *Node) composeLines() []string {
	lines := make([]string, 0, 2*linesPerColumn)

	if n.role.Kind == RoleProducer && n.role.CO2 == nil {
		lines = append(lines, "SCD30 CO2 sensor not present", "", "")
	} else {
		co2 := n.cache.CO2()
		lines = append(lines,
			fmt.Sprintf("%.0f ppm CO2", co2.CO2PPM),
			fmt.Sprintf("%.2f deg C (%.0f deg F)", co2.Temperature, co2.Temperature*9/5+32),
			fmt.Sprintf("%.1f%% rh", co2.Humidity),
		)
	}
	lines = append(lines, "", "", "", "")

	if n.role.Kind == RoleProducer && n.role.Particulate == nil {
		lines = append(lines, "SPS30 particulate sensor not present", "", "")
	} else {
		pm := n.cache.Particles()
		for i, v := range pm.Buckets {
			lines = append(lines, fmt.Sprintf("%.1f %s particles/cm^3", v, telemetry.BucketLabels[i]))
		}
	}
	for len(lines) < 2*linesPerColumn {
		lines = append(lines, "")
	}
	return lines
}
