package bme280

import (
	"errors"
	"math"
	"testing"

	"github.com/calmh/plantpi/errcode"
	"periph.io/x/conn/v3/physic"
)

func TestNewConfiguresDevice(t *testing.T) {
	bus := newFakeBus(0x60)
	s, err := New(bus, Config{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Identity() != EnvironmentalWithHumidity {
		t.Errorf("identity %v", s.Identity())
	}

	exp := []write{
		{DefaultAddress, regCtrlHum, ctrlHumInit},
		{DefaultAddress, regCtrlMeas, ctrlMeasInit},
		{DefaultAddress, regConfig, configInit},
	}
	if len(bus.writes) != len(exp) {
		t.Fatalf("writes %v", bus.writes)
	}
	for i := range exp {
		if bus.writes[i] != exp[i] {
			t.Errorf("write %d: %+v != expected %+v", i, bus.writes[i], exp[i])
		}
	}
}

func TestNewPressureOnlySkipsHumidityControl(t *testing.T) {
	bus := newFakeBus(0x58)
	if _, err := New(bus, Config{}); err != nil {
		t.Fatal(err)
	}
	for _, w := range bus.writes {
		if w.reg == regCtrlHum {
			t.Errorf("humidity control written on pressure only device")
		}
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(nil, Config{}); !errors.Is(err, errcode.Configuration) {
		t.Errorf("nil bus: unexpected error %v", err)
	}

	var ude *UnsupportedDeviceError
	if _, err := New(newFakeBus(0x61), Config{}); !errors.As(err, &ude) || ude.ID != 0x61 {
		t.Errorf("unknown chip: unexpected error %v", err)
	}

	if _, err := New(newFakeBus(0x60), Config{Address: 0x77}); err == nil {
		t.Error("expected error for absent device")
	}
}

func TestReadGolden(t *testing.T) {
	bus := newFakeBus(0x60)
	s, err := New(bus, Config{})
	if err != nil {
		t.Fatal(err)
	}

	r, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if r.Temperature != 25.08 || r.Pressure != 1006.53 || r.SensorType != "BME280" {
		t.Errorf("unexpected reading %+v", r)
	}
	if r.Humidity == nil || *r.Humidity != 55 {
		t.Errorf("unexpected humidity %v", r.Humidity)
	}
	if bus.bursts != 1 {
		t.Errorf("Read did %d bursts, expected 1", bus.bursts)
	}
}

func TestReadPressureOnly(t *testing.T) {
	bus := newFakeBus(0x58)
	s, err := New(bus, Config{})
	if err != nil {
		t.Fatal(err)
	}

	r, err := s.Read()
	if err != nil {
		t.Fatal(err)
	}
	if r.Humidity != nil {
		t.Errorf("pressure only device returned humidity %v", *r.Humidity)
	}
	if r.SensorType != "BMP280" || r.Temperature != 25.08 || r.Pressure != 1006.53 {
		t.Errorf("unexpected reading %+v", r)
	}

	bursts := bus.bursts
	if _, err := s.Humidity(); !errors.Is(err, ErrHumidityUnsupported) {
		t.Errorf("unexpected error %v", err)
	}
	if bus.bursts != bursts {
		t.Error("Humidity touched the bus on a pressure only device")
	}
}

func TestAccessorsReadFreshSamples(t *testing.T) {
	bus := newFakeBus(0x60)
	s, err := New(bus, Config{})
	if err != nil {
		t.Fatal(err)
	}

	temp, err := s.Temperature()
	if err != nil || temp != 25.08 {
		t.Errorf("temperature %v, %v", temp, err)
	}
	press, err := s.Pressure()
	if err != nil || press != 1006.53 {
		t.Errorf("pressure %v, %v", press, err)
	}
	hum, err := s.Humidity()
	if err != nil || hum != 55 {
		t.Errorf("humidity %v, %v", hum, err)
	}
	if bus.bursts != 3 {
		t.Errorf("accessors did %d bursts, expected 3", bus.bursts)
	}
}

func TestCorrections(t *testing.T) {
	cases := []struct {
		corr Corrections
		temp float64
		pres float64
		hum  float64
	}{
		{Corrections{}, 25.08, 1006.53, 55},
		{Corrections{Temperature: -1.5, Pressure: 2.25, Humidity: 10}, 23.58, 1008.78, 65},
		{Corrections{Humidity: 60}, 25.08, 1006.53, 100},
		{Corrections{Humidity: -70}, 25.08, 1006.53, 0},
	}

	for _, tc := range cases {
		s, err := New(newFakeBus(0x60), Config{Corrections: tc.corr})
		if err != nil {
			t.Fatal(err)
		}
		r, err := s.Read()
		if err != nil {
			t.Fatal(err)
		}
		if r.Temperature != tc.temp || r.Pressure != tc.pres || *r.Humidity != tc.hum {
			t.Errorf("corrections %+v: reading %+v humidity %v", tc.corr, r, *r.Humidity)
		}
		if h, _ := s.Humidity(); h != tc.hum {
			t.Errorf("corrections %+v: Humidity() %v", tc.corr, h)
		}
	}
}

func TestReadBusErrors(t *testing.T) {
	bus := newFakeBus(0x60)
	s, err := New(bus, Config{})
	if err != nil {
		t.Fatal(err)
	}

	bus.short[regPressData] = 7
	if _, err := s.Read(); !errors.Is(err, errcode.BusIO) {
		t.Errorf("short burst: unexpected error %v", err)
	}

	delete(bus.short, regPressData)
	bus.failRead = errors.New("remote I/O error")
	if _, err := s.Temperature(); !errors.Is(err, bus.failRead) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestReinitReplacesCalibration(t *testing.T) {
	bus := newFakeBus(0x60)
	s, err := New(bus, Config{})
	if err != nil {
		t.Fatal(err)
	}

	bus.regs[regChipID] = 0x58
	bus.writes = nil
	if err := s.Reinit(); err != nil {
		t.Fatal(err)
	}
	if bus.writes[0] != (write{DefaultAddress, regSoftReset, softResetWord}) {
		t.Errorf("first write %+v, expected soft reset", bus.writes[0])
	}
	cal := s.Calibration()
	if cal.Identity != PressureOnly || cal.H1 != 0 || cal.H2 != 0 || cal.H6 != 0 {
		t.Errorf("calibration not replaced: %+v", cal)
	}

	// A failing reinit keeps the previous calibration.
	bus.regs[regChipID] = 0x00
	if err := s.Reinit(); err == nil {
		t.Fatal("expected error")
	}
	if s.Identity() != PressureOnly {
		t.Errorf("identity changed to %v", s.Identity())
	}
}

func TestSense(t *testing.T) {
	s, err := New(newFakeBus(0x60), Config{})
	if err != nil {
		t.Fatal(err)
	}

	var env physic.Env
	if err := s.Sense(&env); err != nil {
		t.Fatal(err)
	}
	if c := float64(env.Temperature-physic.ZeroCelsius) / float64(physic.Celsius); math.Abs(c-25.08) > 1e-6 {
		t.Errorf("temperature %v", env.Temperature)
	}
	if pa := float64(env.Pressure) / float64(physic.Pascal); math.Abs(pa-100653) > 1e-3 {
		t.Errorf("pressure %v", env.Pressure)
	}
	if rh := float64(env.Humidity) / float64(physic.PercentRH); math.Abs(rh-55) > 1e-3 {
		t.Errorf("humidity %v", env.Humidity)
	}
}
