package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"atmosnode/internal/config"
	"atmosnode/internal/display"
	"atmosnode/internal/input"
	"atmosnode/internal/node"
	"atmosnode/internal/radio"
	"atmosnode/internal/sched"
	"atmosnode/internal/sensors"
)

// Run wires the node to its collaborators and drives it until ctx is
// canceled: radio per config, I2C hardware when a bus is reachable,
// console display, stdin keys, and the cooperative scheduler.
func Run(ctx context.Context, cfg config.Config) error {
	slog.Info("initializing node",
		"radio", cfg.Radio,
		"frame_version", cfg.FrameVersion,
	)

	var net radio.Network
	var bleRadio *radio.BLERadio
	switch cfg.Radio {
	case config.RadioMQTT:
		r := radio.NewMQTTRadio(radio.MQTTOptions{
			Broker:   cfg.MQTTBroker,
			Port:     cfg.MQTTPort,
			ClientID: cfg.MQTTClientID,
		}, slog.Default())
		go func() {
			if err := r.Connect(ctx); err != nil {
				slog.Error("mqtt connect failed", "error", err)
			}
		}()
		defer r.Close()
		net = r
	case config.RadioBLE:
		bleRadio = radio.NewBLERadio(radio.BLEOptions{Adapter: cfg.BLEAdapter}, slog.Default())
		net = bleRadio
	case config.RadioLoopback:
		net = radio.NewLoopback()
	default:
		return fmt.Errorf("unknown radio %q", cfg.Radio)
	}

	// A bus that fails to open is the same as a bus with no sensors: the
	// node starts as a Consumer and keeps running.
	var hw node.Hardware
	if bus, err := sensors.OpenBus(cfg.I2CBus); err != nil {
		slog.Warn("i2c bus unavailable; starting sensorless", "error", err)
	} else {
		defer bus.Close()
		hw = sensors.NewI2CHardware(bus, slog.Default())
	}

	console := display.NewConsole(os.Stdout)
	keys := input.NewKeys(os.Stdin)

	// The node registers its receive callback during construction, before
	// the scheduler exists; the dispatcher is bound right after. A frame
	// overheard in that window is dropped, which broadcast allows.
	disp := &lazyDispatcher{}
	n, err := node.New(node.Config{
		Version:    cfg.FrameVersion,
		Hardware:   hw,
		Network:    net,
		Display:    console,
		Input:      keys,
		Dispatcher: disp,
		Logger:     slog.Default(),
	})
	if err != nil {
		return err
	}

	scheduler := sched.New(n, sched.Options{StartForeground: true}, slog.Default())
	disp.Bind(scheduler)

	if bleRadio != nil {
		// Scans only when the node registered a receiver (consumer role).
		go func() {
			if err := bleRadio.Run(ctx); err != nil {
				slog.Warn("ble radio stopped; node continues without reception", "error", err)
			}
		}()
	}

	return scheduler.Run(ctx)
}

type lazyDispatcher struct {
	mu     sync.Mutex
	target *sched.Scheduler
}

func (d *lazyDispatcher) Bind(s *sched.Scheduler) {
	d.mu.Lock()
	d.target = s
	d.mu.Unlock()
}

func (d *lazyDispatcher) Post(fn func()) {
	d.mu.Lock()
	t := d.target
	d.mu.Unlock()
	if t != nil {
		t.Post(fn)
	}
}
