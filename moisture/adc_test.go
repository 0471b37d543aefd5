package moisture

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIIO(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in_voltage0_raw")

	cases := []struct {
		content string
		bits    int
		out     uint16
	}{
		{"2048\n", 12, 32768},
		{"4095\n", 12, 65520},
		{"1234", 0, 1234},
		{"70000\n", 16, 65535},
	}
	for _, tc := range cases {
		if err := os.WriteFile(path, []byte(tc.content), 0644); err != nil {
			t.Fatal(err)
		}
		v, err := IIO{Path: path, Bits: tc.bits}.ReadU16()
		if err != nil {
			t.Fatal(err)
		}
		if v != tc.out {
			t.Errorf("%q at %d bits: %d != expected %d", tc.content, tc.bits, v, tc.out)
		}
	}

	if err := os.WriteFile(path, []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := (IIO{Path: path}).ReadU16(); err == nil {
		t.Error("expected parse error")
	}
}

type fakeAnalog struct {
	vals map[string]int
	err  error
}

func (a fakeAnalog) AnalogRead(pin string) (int, error) {
	return a.vals[pin], a.err
}

func TestAnalogPin(t *testing.T) {
	r := fakeAnalog{vals: map[string]int{"0": 17000, "1": -12, "2": 100000}}
	exp := map[string]uint16{"0": 17000, "1": 0, "2": 65535}
	for pin, e := range exp {
		v, err := AnalogPin{Reader: r, Pin: pin}.ReadU16()
		if err != nil {
			t.Fatal(err)
		}
		if v != e {
			t.Errorf("pin %s: %d != expected %d", pin, v, e)
		}
	}

	cause := errors.New("i2c nack")
	if _, err := (AnalogPin{Reader: fakeAnalog{err: cause}, Pin: "0"}).ReadU16(); !errors.Is(err, cause) {
		t.Errorf("unexpected error %v", err)
	}
}

func TestAnalogPinFullScale(t *testing.T) {
	// 3.3 V on an ADS1115 at the default gain.
	r := fakeAnalog{vals: map[string]int{"0": 824, "1": ADS1x15FullScale, "2": 2000}}
	exp := map[string]uint16{"0": 52786, "1": 65535, "2": 65535}
	for pin, e := range exp {
		v, err := AnalogPin{Reader: r, Pin: pin, FullScale: ADS1x15FullScale}.ReadU16()
		if err != nil {
			t.Fatal(err)
		}
		if v != e {
			t.Errorf("pin %s: %d != expected %d", pin, v, e)
		}
	}

	adc := AnalogPin{Reader: r, Pin: "0", FullScale: ADS1x15FullScale}
	s, err := New(adc, Platform{VoltsPerCount: ADS1x15Volts / 0xffff}, DefaultCalibration(), nil)
	if err != nil {
		t.Fatal(err)
	}
	rd, err := s.ReadAveraged(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if rd.Voltage != 3.2992 || rd.HumidityPercent != 11.8 {
		t.Errorf("unexpected reading %+v", rd)
	}
}
