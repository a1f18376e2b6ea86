// Package telemetry defines the versioned broadcast frame exchanged between
// atmosphere nodes and the codec for its fixed big-endian wire layout.
package telemetry

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Port is the network protocol port all atmosphere frames travel on.
const Port = 25

// Frame versions. Version 0 carries the CO2 triple only; version 1 adds
// five particle count buckets.
const (
	Version0 = 0
	Version1 = 1

	// CurrentVersion is the layout this build encodes and accepts.
	CurrentVersion = Version1
)

// NumBuckets is the particle bucket count for version >= 1 frames.
const NumBuckets = 5

// BucketLabels names the particle buckets by size class. Labels are derived
// from the frame version and never transmitted.
var BucketLabels = [NumBuckets]string{"0.5um", "1.0um", "2.5um", "4.0um", "10um"}

// Wire sizes per version: u8 version + f32 fields, big-endian, no padding.
const (
	sizeV0 = 1 + 3*4
	sizeV1 = sizeV0 + NumBuckets*4
)

var (
	ErrUnknownVersion = fmt.Errorf("telemetry: unknown frame version")
	ErrTruncated      = fmt.Errorf("telemetry: truncated frame")
)

// Frame is one decoded telemetry record. Buckets is meaningful only for
// Version >= 1; a version-0 frame leaves it zeroed.
type Frame struct {
	Version     uint8
	CO2PPM      float32
	Temperature float32
	Humidity    float32
	Buckets     [NumBuckets]float32
}

// EncodedSize returns the exact payload length for a frame version, or 0 if
// the version is not a supported layout.
func EncodedSize(version uint8) int {
	switch version {
	case Version0:
		return sizeV0
	case Version1:
		return sizeV1
	}
	return 0
}

// Encode produces the wire payload for f. The frame always carries the full
// field set; f.Version selects how much of it goes on the wire. Encoding an
// unsupported version is a programming error and panics.
func Encode(f Frame) []byte {
	size := EncodedSize(f.Version)
	if size == 0 {
		panic(fmt.Sprintf("telemetry: encode version %d has no layout", f.Version))
	}
	buf := make([]byte, size)
	buf[0] = f.Version
	putFloat(buf[1:5], f.CO2PPM)
	putFloat(buf[5:9], f.Temperature)
	putFloat(buf[9:13], f.Humidity)
	if f.Version >= Version1 {
		for i, b := range f.Buckets {
			putFloat(buf[13+i*4:17+i*4], b)
		}
	}
	return buf
}

// Decode parses a wire payload into a Frame. It validates internal
// consistency only: the leading version byte must name a supported layout
// and the payload length must match it exactly. Whether a structurally
// valid frame of a foreign version is accepted is the receiver's policy,
// not the codec's.
func Decode(payload []byte) (Frame, error) {
	if len(payload) < 1 {
		return Frame{}, fmt.Errorf("%w: empty payload", ErrTruncated)
	}
	version := payload[0]
	size := EncodedSize(version)
	if size == 0 {
		return Frame{}, fmt.Errorf("%w: %d", ErrUnknownVersion, version)
	}
	if len(payload) != size {
		return Frame{}, fmt.Errorf("%w: version %d wants %d bytes, got %d",
			ErrTruncated, version, size, len(payload))
	}

	f := Frame{
		Version:     version,
		CO2PPM:      getFloat(payload[1:5]),
		Temperature: getFloat(payload[5:9]),
		Humidity:    getFloat(payload[9:13]),
	}
	if version >= Version1 {
		for i := range f.Buckets {
			f.Buckets[i] = getFloat(payload[13+i*4 : 17+i*4])
		}
	}
	return f, nil
}

func putFloat(b []byte, v float32) {
	binary.BigEndian.PutUint32(b, math.Float32bits(v))
}

func getFloat(b []byte) float32 {
	return math.Float32frombits(binary.BigEndian.Uint32(b))
}
