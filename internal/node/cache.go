package node

import "atmosnode/internal/telemetry"

// ReadingCache is the node's single source of truth for what to display and
// what to transmit next. It decouples asynchronous data arrival (sensor
// polls, received frames) from the periodic render step. The cooperative
// scheduler serializes all access, so no locking is needed.
type ReadingCache struct {
	co2       CO2Reading
	particles ParticleReading
	dirty     bool
}

// UpdateFromSensor overwrites the relevant subset of the cache with a fresh
// sensor measurement and marks the screen stale.
func (c *ReadingCache) UpdateFromSensor(r Reading) {
	r.apply(c)
	c.dirty = true
}

// UpdateFromFrame overwrites the cache from a received frame. Consumers call
// this only for frames matching their own version; a version-0 frame leaves
// the particle buckets untouched.
func (c *ReadingCache) UpdateFromFrame(f telemetry.Frame) {
	c.co2 = CO2Reading{CO2PPM: f.CO2PPM, Temperature: f.Temperature, Humidity: f.Humidity}
	if f.Version >= telemetry.Version1 {
		c.particles = ParticleReading{Buckets: f.Buckets}
	}
	c.dirty = true
}

// MarkDirty forces the next ConsumeDirty to report stale. Used on every
// transition into the foreground to guarantee one full render.
func (c *ReadingCache) MarkDirty() { c.dirty = true }

// ConsumeDirty reads and clears the dirty flag. The render step calls this
// once per foreground tick and re-renders only on true.
func (c *ReadingCache) ConsumeDirty() bool {
	d := c.dirty
	c.dirty = false
	return d
}

// CO2 returns the last known CO2 triple.
func (c *ReadingCache) CO2() CO2Reading { return c.co2 }

// Particles returns the last known particle bucket array.
func (c *ReadingCache) Particles() ParticleReading { return c.particles }

// Frame composes the full current cache into a frame of the given version.
func (c *ReadingCache) Frame(version uint8) telemetry.Frame {
	return telemetry.Frame{
		Version:     version,
		CO2PPM:      c.co2.CO2PPM,
		Temperature: c.co2.Temperature,
		Humidity:    c.co2.Humidity,
		Buckets:     c.particles.Buckets,
	}
}
