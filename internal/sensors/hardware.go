package sensors

import (
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"atmosnode/internal/node"
)

// OpenBus initializes the host and opens the named I2C bus ("" picks the
// platform default, usually /dev/i2c-1).
func OpenBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("i2c open %q: %w", name, err)
	}
	return bus, nil
}

// I2CHardware adapts a periph.io bus to the node's hardware probe.
type I2CHardware struct {
	bus    i2c.Bus
	logger *slog.Logger
}

func NewI2CHardware(bus i2c.Bus, logger *slog.Logger) *I2CHardware {
	return &I2CHardware{bus: bus, logger: logger}
}

// ScanBus probes the known sensor addresses.
func (h *I2CHardware) ScanBus() []uint16 {
	present := Scan(h.bus, []uint16{node.CO2SensorAddr, node.ParticulateSensorAddr})
	h.logger.Debug("i2c scan", "bus", h.bus.String(), "present", present)
	return present
}

// CO2Sensor builds an SCD30 handle sampling at interval.
func (h *I2CHardware) CO2Sensor(addr uint16, interval time.Duration) (node.SensorHandle, error) {
	return NewSCD30(h.bus, addr, interval)
}

// ParticulateSensor builds an SPS30 handle. The SPS30 ignores the interval;
// it measures at its own fixed rate.
func (h *I2CHardware) ParticulateSensor(addr uint16, _ time.Duration) (node.SensorHandle, error) {
	return NewSPS30(h.bus, addr)
}
