package sensors

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"

	"atmosnode/internal/node"
	"atmosnode/internal/telemetry"
)

// SPS30 command set.
const (
	sps30CmdStartMeasurement = 0x0010 // arg 0x0300: big-endian float output
	sps30CmdStopMeasurement  = 0x0104
	sps30CmdGetDataReady     = 0x0202
	sps30CmdReadMeasurement  = 0x0300

	sps30FloatFormat = 0x0300

	// The measurement block is ten floats: four mass concentrations, five
	// number concentrations, typical particle size.
	sps30MeasurementWords = 20
	sps30NumberConcFirst  = 4 // index of the first number-concentration float
)

// SPS30 is the particulate sensor. The node keeps only the five
// number-concentration buckets; mass concentrations and typical size are
// read and discarded.
type SPS30 struct {
	dev i2c.Dev
}

// NewSPS30 starts continuous measurement in float format and returns the
// device handle. The SPS30 samples on its own 1 Hz schedule; the polling
// cadence only decides how often we look.
func NewSPS30(bus i2c.Bus, addr uint16) (*SPS30, error) {
	s := &SPS30{dev: i2c.Dev{Bus: bus, Addr: addr}}
	if err := writeCommand(&s.dev, sps30CmdStartMeasurement, sps30FloatFormat); err != nil {
		return nil, fmt.Errorf("sps30: start measurement: %w", err)
	}
	return s, nil
}

// Ready reports whether a fresh measurement is waiting.
func (s *SPS30) Ready() bool {
	words, err := readWords(&s.dev, sps30CmdGetDataReady, 1)
	return err == nil && words[0]&0x01 == 1
}

// Read fetches one measurement and keeps the number-concentration buckets.
func (s *SPS30) Read() (node.Reading, error) {
	words, err := readWords(&s.dev, sps30CmdReadMeasurement, sps30MeasurementWords)
	if err != nil {
		return nil, err
	}
	var r node.ParticleReading
	for i := 0; i < telemetry.NumBuckets; i++ {
		w := (sps30NumberConcFirst + i) * 2
		r.Buckets[i] = floatFromWords(words[w], words[w+1])
	}
	return r, nil
}

// Stop halts continuous measurement.
func (s *SPS30) Stop() error {
	return writeCommand(&s.dev, sps30CmdStopMeasurement)
}
