package moisture

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// IIO reads a raw channel of a Linux industrial I/O ADC, such as
// /sys/bus/iio/devices/iio:device0/in_voltage0_raw.
type IIO struct {
	Path string
	// Bits is the converter resolution; readings are left justified to
	// 16 bits. Zero means 16.
	Bits int
}

func (a IIO) ReadU16() (uint16, error) {
	data, err := os.ReadFile(a.Path)
	if err != nil {
		return 0, fmt.Errorf("read ADC: %w", err)
	}
	v, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse ADC value: %w", err)
	}
	if a.Bits > 0 && a.Bits < 16 {
		v <<= 16 - a.Bits
	}
	return clampU16(v), nil
}

// AnalogReader is implemented by gobot analog drivers and adaptors, for
// example the ADS1x15 driver (gobot.io/x/gobot/drivers/i2c).
type AnalogReader interface {
	AnalogRead(pin string) (int, error)
}

// ADS1x15FullScale is the largest value returned by the gobot ADS1x15
// driver, corresponding to ADS1x15Volts at the default gain.
const (
	ADS1x15FullScale = 1023
	ADS1x15Volts     = 4.096
)

// AnalogPin reads one channel of an AnalogReader.
type AnalogPin struct {
	Reader AnalogReader
	Pin    string
	// FullScale is the largest value the reader returns. Readings are
	// scaled up to 16 bits from it. Zero means readings already are 16 bit.
	FullScale int
}

func (a AnalogPin) ReadU16() (uint16, error) {
	v, err := a.Reader.AnalogRead(a.Pin)
	if err != nil {
		return 0, fmt.Errorf("read analog pin %s: %w", a.Pin, err)
	}
	if a.FullScale > 0 {
		v = v * 0xffff / a.FullScale
	}
	return clampU16(v), nil
}

func clampU16(v int) uint16 {
	switch {
	case v < 0:
		return 0
	case v > 0xffff:
		return 0xffff
	default:
		return uint16(v)
	}
}
