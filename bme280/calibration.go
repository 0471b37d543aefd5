package bme280

import (
	"fmt"

	"github.com/calmh/plantpi/i2c"
)

// Calibration holds the factory trimming coefficients of one device. It is
// loaded once per Sensor initialisation and never modified in place.
type Calibration struct {
	Identity Identity

	T1 uint16
	T2 int16
	T3 int16

	P1 uint16
	P2 int16
	P3 int16
	P4 int16
	P5 int16
	P6 int16
	P7 int16
	P8 int16
	P9 int16

	H1 uint8
	H2 int16
	H3 uint8
	H4 int16
	H5 int16
	H6 int8
}

// LoadCalibration reads the coefficients for a device of the given
// identity. Humidity coefficients are only read for variants that measure
// humidity and are left zero otherwise.
func LoadCalibration(bus Bus, addr uint16, id Identity) (Calibration, error) {
	r := i2c.NewReader(bus, addr)
	c := Calibration{Identity: id}

	c.T1 = r.U16LE(regDigT1)
	c.T2 = r.S16LE(regDigT2)
	c.T3 = r.S16LE(regDigT3)

	c.P1 = r.U16LE(regDigP1)
	c.P2 = r.S16LE(regDigP2)
	c.P3 = r.S16LE(regDigP3)
	c.P4 = r.S16LE(regDigP4)
	c.P5 = r.S16LE(regDigP5)
	c.P6 = r.S16LE(regDigP6)
	c.P7 = r.S16LE(regDigP7)
	c.P8 = r.S16LE(regDigP8)
	c.P9 = r.S16LE(regDigP9)

	if id.HasHumidity() {
		c.H1 = r.U8(regDigH1)
		c.H2 = r.S16LE(regDigH2)
		c.H3 = r.U8(regDigH3)
		packed := r.Block(regDigH4, 3)
		c.H4, c.H5 = UnpackH4H5(packed[0], packed[1], packed[2])
		c.H6 = r.S8(regDigH6)
	}

	if err := r.Error(); err != nil {
		return Calibration{}, fmt.Errorf("read calibration data: %w", err)
	}
	return c, nil
}
