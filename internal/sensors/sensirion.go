// Package sensors implements the SCD30 CO2 and SPS30 particulate drivers
// on a periph.io I2C bus, plus the naive bus scan the node uses to decide
// its role. Both devices speak the Sensirion word protocol: 16-bit
// commands, 16-bit big-endian data words, one CRC-8 byte per word.
package sensors

import (
	"fmt"
	"math"

	"periph.io/x/conn/v3/i2c"
)

// crc8 is the Sensirion checksum: polynomial 0x31, init 0xFF, no final
// XOR. Known vector: {0xBE, 0xEF} -> 0x92.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x31
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

// writeCommand sends a 16-bit command followed by CRC-protected argument
// words.
func writeCommand(dev *i2c.Dev, cmd uint16, args ...uint16) error {
	buf := make([]byte, 2, 2+3*len(args))
	buf[0] = byte(cmd >> 8)
	buf[1] = byte(cmd)
	for _, a := range args {
		word := []byte{byte(a >> 8), byte(a)}
		buf = append(buf, word[0], word[1], crc8(word))
	}
	if err := dev.Tx(buf, nil); err != nil {
		return fmt.Errorf("sensors: command %#04x: %w", cmd, err)
	}
	return nil
}

// readWords issues a command and reads back n data words, validating the
// CRC byte trailing each word.
func readWords(dev *i2c.Dev, cmd uint16, n int) ([]uint16, error) {
	if err := writeCommand(dev, cmd); err != nil {
		return nil, err
	}
	raw := make([]byte, 3*n)
	if err := dev.Tx(nil, raw); err != nil {
		return nil, fmt.Errorf("sensors: read after command %#04x: %w", cmd, err)
	}
	words := make([]uint16, n)
	for i := 0; i < n; i++ {
		chunk := raw[3*i : 3*i+3]
		if crc8(chunk[:2]) != chunk[2] {
			return nil, fmt.Errorf("sensors: crc mismatch in word %d of command %#04x", i, cmd)
		}
		words[i] = uint16(chunk[0])<<8 | uint16(chunk[1])
	}
	return words, nil
}

// floatFromWords reassembles a big-endian float32 from two data words.
func floatFromWords(hi, lo uint16) float32 {
	return math.Float32frombits(uint32(hi)<<16 | uint32(lo))
}

// Scan probes candidate addresses with a one-byte read and reports the
// devices that acknowledged. Deliberately naive; it ignores proper I2C
// discovery mechanics the same way the devices themselves do.
func Scan(bus i2c.Bus, addrs []uint16) []uint16 {
	var present []uint16
	probe := make([]byte, 1)
	for _, addr := range addrs {
		if err := bus.Tx(addr, nil, probe); err == nil {
			present = append(present, addr)
		}
	}
	return present
}
