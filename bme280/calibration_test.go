package bme280

import (
	"errors"
	"testing"

	"github.com/calmh/plantpi/errcode"
	"github.com/calmh/plantpi/i2c"
)

func TestLoadCalibrationHumidity(t *testing.T) {
	bus := newFakeBus(0x60)
	cal, err := LoadCalibration(bus, DefaultAddress, EnvironmentalWithHumidity)
	if err != nil {
		t.Fatal(err)
	}
	if cal != goldenCalibration {
		t.Errorf("loaded %+v\nexpected %+v", cal, goldenCalibration)
	}
}

func TestLoadCalibrationPressureOnly(t *testing.T) {
	// The humidity registers hold data, but must not be used.
	bus := newFakeBus(0x58)
	cal, err := LoadCalibration(bus, DefaultAddress, PressureOnly)
	if err != nil {
		t.Fatal(err)
	}

	exp := goldenCalibration
	exp.Identity = PressureOnly
	exp.H1, exp.H2, exp.H3, exp.H4, exp.H5, exp.H6 = 0, 0, 0, 0, 0, 0
	if cal != exp {
		t.Errorf("loaded %+v\nexpected %+v", cal, exp)
	}
}

func TestLoadCalibrationShortRead(t *testing.T) {
	cases := []struct {
		reg uint8
		got int
		id  Identity
	}{
		{regDigT1, 1, PressureOnly},
		{regDigP9, 1, PressureOnly},
		{regDigH1, 0, EnvironmentalWithHumidity},
		{regDigH4, 1, EnvironmentalWithHumidity},
	}

	for _, tc := range cases {
		bus := newFakeBus(tc.id.chipID())
		bus.short[tc.reg] = tc.got
		_, err := LoadCalibration(bus, DefaultAddress, tc.id)
		if !errors.Is(err, errcode.BusIO) || !errors.Is(err, i2c.ErrShortRead) {
			t.Errorf("short read at %#x: unexpected error %v", tc.reg, err)
		}
	}
}

func TestLoadCalibrationBusError(t *testing.T) {
	bus := newFakeBus(0x60)
	bus.failRead = &errcode.E{C: errcode.BusIO, Op: "read", Err: errors.New("remote I/O error")}
	if _, err := LoadCalibration(bus, DefaultAddress, EnvironmentalWithHumidity); !errors.Is(err, errcode.BusIO) {
		t.Errorf("unexpected error %v", err)
	}
}
