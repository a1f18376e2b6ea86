package node

import (
	"log/slog"
	"time"
)

// Compiled-in device constants: the sampling cadence doubles as the minimum
// broadcast holdoff, and each sensor model sits at a fixed bus address.
const (
	SensorRefreshInterval = 5 * time.Second

	CO2SensorAddr         uint16 = 0x61 // SCD30
	ParticulateSensorAddr uint16 = 0x69 // SPS30
)

// Hardware probes the sensor bus. Implementations own the I2C mechanics;
// the node only learns which devices answered and gets handles for them.
type Hardware interface {
	// ScanBus reports the addresses of devices present on the bus.
	ScanBus() []uint16
	// CO2Sensor builds a handle for the CO2 sensor at addr, configured to
	// sample at interval.
	CO2Sensor(addr uint16, interval time.Duration) (SensorHandle, error)
	// ParticulateSensor builds a handle for the particulate sensor at addr.
	ParticulateSensor(addr uint16, interval time.Duration) (SensorHandle, error)
}

// RoleKind tags the node's role variant.
type RoleKind uint8

const (
	// RoleConsumer listens for broadcasts; it never attempts sensor I/O.
	RoleConsumer RoleKind = iota
	// RoleProducer owns at least one sensor and originates broadcasts; it
	// never registers a receiver for its own protocol.
	RoleProducer
)

func (k RoleKind) String() string {
	if k == RoleProducer {
		return "producer"
	}
	return "consumer"
}

// Role is decided once at startup from hardware presence and is immutable
// for the node's lifetime. A Producer may hold either or both handles; a
// node with zero sensors is a Consumer, with no hot-plug re-evaluation.
type Role struct {
	Kind        RoleKind
	CO2         SensorHandle // nil when the sensor is absent
	Particulate SensorHandle
}

// Arbitrate scans the bus and builds handles for the sensors that answered.
// A handle that fails to construct counts as absent; flaky hardware must
// not keep the node from starting.
func Arbitrate(hw Hardware, logger *slog.Logger) Role {
	if hw == nil {
		return Role{Kind: RoleConsumer}
	}

	present := make(map[uint16]bool)
	for _, addr := range hw.ScanBus() {
		present[addr] = true
	}

	var role Role
	if present[CO2SensorAddr] {
		h, err := hw.CO2Sensor(CO2SensorAddr, SensorRefreshInterval)
		if err != nil {
			logger.Warn("co2 sensor present but failed to initialize", "addr", CO2SensorAddr, "error", err)
		} else {
			role.CO2 = h
		}
	}
	if present[ParticulateSensorAddr] {
		h, err := hw.ParticulateSensor(ParticulateSensorAddr, SensorRefreshInterval)
		if err != nil {
			logger.Warn("particulate sensor present but failed to initialize", "addr", ParticulateSensorAddr, "error", err)
		} else {
			role.Particulate = h
		}
	}

	if role.CO2 != nil || role.Particulate != nil {
		role.Kind = RoleProducer
	}
	return role
}
