package bme280

import (
	"github.com/calmh/plantpi/errcode"
)

// ErrHumidityUnsupported is returned when humidity is requested from a
// pressure only device.
var ErrHumidityUnsupported error = errcode.HumidityUnsupported

// Sample is one set of uncompensated readings taken from a single burst
// read of the data registers.
type Sample struct {
	Temperature uint32 // 20 bit
	Pressure    uint32 // 20 bit
	Humidity    uint32 // 16 bit, zero for pressure only devices
}

// decodeSample unpacks the burst starting at regPressData: three pressure
// bytes, three temperature bytes, optionally two humidity bytes.
func decodeSample(data []byte) Sample {
	s := Sample{
		Pressure:    uint32(data[0])<<12 | uint32(data[1])<<4 | uint32(data[2])>>4,
		Temperature: uint32(data[3])<<12 | uint32(data[4])<<4 | uint32(data[5])>>4,
	}
	if len(data) >= 8 {
		s.Humidity = uint32(data[6])<<8 | uint32(data[7])
	}
	return s
}

// FineTemperature is the intermediate produced by temperature compensation.
// Pressure and humidity compensation take it as an argument; it is only
// meaningful together with the Sample it was derived from.
type FineTemperature int32

// CompensateTemperature returns the temperature in °C and the fine
// temperature for the same sample.
func CompensateTemperature(raw uint32, c Calibration) (float64, FineTemperature) {
	adc := float64(raw)
	t1 := float64(c.T1)
	t2 := float64(c.T2)
	t3 := float64(c.T3)

	v1 := (adc/16384.0 - t1/1024.0) * t2
	v2 := (adc/131072.0 - t1/8192.0) * (adc/131072.0 - t1/8192.0) * t3

	return (v1 + v2) / 5120.0, FineTemperature(int32(v1 + v2))
}

// CompensatePressure returns the pressure in hPa. When the coefficients make
// the first order denominator zero it returns 0.
func CompensatePressure(raw uint32, t FineTemperature, c Calibration) float64 {
	p1 := float64(c.P1)
	p2 := float64(c.P2)
	p3 := float64(c.P3)
	p4 := float64(c.P4)
	p5 := float64(c.P5)
	p6 := float64(c.P6)
	p7 := float64(c.P7)
	p8 := float64(c.P8)
	p9 := float64(c.P9)

	v1 := float64(t)/2.0 - 64000.0
	v2 := v1 * v1 * p6 / 32768.0
	v2 += v1 * p5 * 2.0
	v2 = v2/4.0 + p4*65536.0
	v1 = (p3*v1*v1/524288.0 + p2*v1) / 524288.0
	v1 = (1.0 + v1/32768.0) * p1
	if v1 == 0 {
		return 0
	}

	p := 1048576.0 - float64(raw)
	p = (p - v2/4096.0) * 6250.0 / v1
	v1 = p9 * p * p / 2147483648.0
	v2 = p * p8 / 32768.0
	p += (v1 + v2 + p7) / 16.0

	return p / 100.0
}

// CompensateHumidity returns the relative humidity in percent, clamped to
// [0, 100].
func CompensateHumidity(raw uint32, t FineTemperature, c Calibration) (float64, error) {
	if !c.Identity.HasHumidity() {
		return 0, ErrHumidityUnsupported
	}

	h1 := float64(c.H1)
	h2 := float64(c.H2)
	h3 := float64(c.H3)
	h4 := float64(c.H4)
	h5 := float64(c.H5)
	h6 := float64(c.H6)

	h := float64(t) - 76800.0
	h = (float64(raw) - (h4*64.0 + h5/16384.0*h)) *
		(h2 / 65536.0 * (1.0 + h6/67108864.0*h*(1.0+h3/67108864.0*h)))
	h *= 1.0 - h1*h/524288.0

	return clampPercent(h), nil
}

// clampPercent limits v to [0, 100]. NaN maps to 0.
func clampPercent(v float64) float64 {
	switch {
	case v > 100:
		return 100
	case v > 0:
		return v
	default:
		return 0
	}
}
