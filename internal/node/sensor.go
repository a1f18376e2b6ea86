package node

import "atmosnode/internal/telemetry"

// Reading is one sensor measurement. It is a closed set: a CO2 triple or a
// particle bucket array, each overwriting its own slice of the cache.
type Reading interface {
	apply(c *ReadingCache)
}

// CO2Reading is an SCD30-style measurement.
type CO2Reading struct {
	CO2PPM      float32
	Temperature float32
	Humidity    float32
}

func (r CO2Reading) apply(c *ReadingCache) { c.co2 = r }

// ParticleReading is an SPS30-style number concentration measurement, one
// value per telemetry.BucketLabels entry, in particles/cm^3.
type ParticleReading struct {
	Buckets [telemetry.NumBuckets]float32
}

func (r ParticleReading) apply(c *ReadingCache) { c.particles = r }

// SensorHandle wraps one physical sensor's fallible operations. Ready must
// be non-blocking and side-effect free; a bus error during the readiness
// check reads as "not ready". Read performs one measurement transaction.
type SensorHandle interface {
	Ready() bool
	Read() (Reading, error)
}

// PollOutcome classifies one Poll call.
type PollOutcome uint8

const (
	// PollNoData: sensor not ready, nothing happened.
	PollNoData PollOutcome = iota
	// PollNewReading: a measurement was read successfully.
	PollNewReading
	// PollFault: the read transaction failed. No retry is attempted here;
	// the next poll cycle tries again.
	PollFault
)

// Poll runs one non-blocking poll cycle against a sensor: readiness check
// first, then at most one read attempt. A Fault carries no reading and
// must never propagate past the caller's tick.
func Poll(s SensorHandle) (Reading, PollOutcome) {
	if !s.Ready() {
		return nil, PollNoData
	}
	r, err := s.Read()
	if err != nil {
		return nil, PollFault
	}
	return r, PollNewReading
}
