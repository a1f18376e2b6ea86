package node

import "time"

// Throttle enforces a minimum holdoff between broadcast transmissions.
// Sensors often update faster than the wanted broadcast cadence; readings
// arriving inside the holdoff window stay coalesced in the cache and go out
// with the next eligible transmission. No queueing, no catch-up burst.
type Throttle struct {
	minInterval time.Duration
	last        time.Time
}

// NewThrottle returns a Throttle with the given minimum interval between
// transmissions. The first transmission is always eligible.
func NewThrottle(minInterval time.Duration) *Throttle {
	return &Throttle{minInterval: minInterval}
}

// ShouldTransmit reports whether a transmission may go out now. On true the
// caller must transmit immediately and then call RecordTransmission.
func (t *Throttle) ShouldTransmit(now time.Time, haveNewData bool) bool {
	if !haveNewData {
		return false
	}
	return t.last.IsZero() || now.Sub(t.last) > t.minInterval
}

// RecordTransmission marks a completed transmission at now.
func (t *Throttle) RecordTransmission(now time.Time) { t.last = now }
