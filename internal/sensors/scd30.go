package sensors

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"atmosnode/internal/node"
)

// SCD30 command set.
const (
	scd30CmdStartContinuous = 0x0010 // arg: ambient pressure in mBar, 0 disables compensation
	scd30CmdStopContinuous  = 0x0104
	scd30CmdSetInterval     = 0x4600 // arg: seconds
	scd30CmdGetDataReady    = 0x0202
	scd30CmdReadMeasurement = 0x0300 // 6 words: co2, temp, rh as split float32
)

// SCD30 is the CO2/temperature/humidity sensor. It samples continuously at
// the configured interval; Ready reflects the device's data-ready word.
type SCD30 struct {
	dev i2c.Dev
}

// NewSCD30 configures the device at addr for continuous measurement at
// interval and returns its handle.
func NewSCD30(bus i2c.Bus, addr uint16, interval time.Duration) (*SCD30, error) {
	s := &SCD30{dev: i2c.Dev{Bus: bus, Addr: addr}}
	secs := uint16(interval / time.Second)
	if secs < 2 {
		// Device minimum.
		secs = 2
	}
	if err := writeCommand(&s.dev, scd30CmdSetInterval, secs); err != nil {
		return nil, fmt.Errorf("scd30: set interval: %w", err)
	}
	if err := writeCommand(&s.dev, scd30CmdStartContinuous, 0); err != nil {
		return nil, fmt.Errorf("scd30: start measurement: %w", err)
	}
	return s, nil
}

// Ready reports whether a fresh measurement is waiting. Bus errors read as
// not ready; the next poll retries.
func (s *SCD30) Ready() bool {
	words, err := readWords(&s.dev, scd30CmdGetDataReady, 1)
	return err == nil && words[0] == 1
}

// Read fetches one measurement. Any transaction failure surfaces as an
// error for the poll layer to classify as a fault.
func (s *SCD30) Read() (node.Reading, error) {
	words, err := readWords(&s.dev, scd30CmdReadMeasurement, 6)
	if err != nil {
		return nil, err
	}
	return node.CO2Reading{
		CO2PPM:      floatFromWords(words[0], words[1]),
		Temperature: floatFromWords(words[2], words[3]),
		Humidity:    floatFromWords(words[4], words[5]),
	}, nil
}

// Stop halts continuous measurement.
func (s *SCD30) Stop() error {
	return writeCommand(&s.dev, scd30CmdStopContinuous)
}
