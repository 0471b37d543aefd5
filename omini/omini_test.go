package omini

import (
	"errors"
	"strings"
	"testing"

	"github.com/calmh/plantpi/errcode"
	"github.com/calmh/plantpi/i2c"
)

type imageBus map[uint8]byte

func (b imageBus) Read(addr uint16, reg uint8, n int) ([]byte, error) {
	if addr != Address {
		return nil, errors.New("no device at address")
	}
	res := make([]byte, 0, n)
	for i := 0; i < n; i++ {
		v, ok := b[reg+uint8(i)]
		if !ok {
			break
		}
		res = append(res, v)
	}
	return res, nil
}

func TestVoltage(t *testing.T) {
	bus := imageBus{
		1: 3, 2: 25,
		3: 12, 4: 0,
		5: 0xff, 6: 0xb0,
	}
	o := New(bus)

	cases := []struct {
		ch      Channel
		voltage float64
		counts  uint16
	}{
		{ChannelA, 3.25, 325},
		{ChannelB, 12, 1200},
		{ChannelC, -1.8, 0},
	}
	for _, tc := range cases {
		v, err := o.Voltage(tc.ch)
		if err != nil {
			t.Fatal(err)
		}
		if v != tc.voltage {
			t.Errorf("channel %v: %v != %v", tc.ch, v, tc.voltage)
		}
		c, err := o.Input(tc.ch).ReadU16()
		if err != nil {
			t.Fatal(err)
		}
		if c != tc.counts {
			t.Errorf("channel %v: %d counts != %d", tc.ch, c, tc.counts)
		}
	}
}

func TestShortRead(t *testing.T) {
	o := New(imageBus{1: 3})
	_, err := o.Voltage(ChannelA)
	if !errors.Is(err, i2c.ErrShortRead) || errcode.Of(err) != errcode.BusIO {
		t.Errorf("unexpected error %v", err)
	}
}

func TestParseChannel(t *testing.T) {
	for s, exp := range map[string]Channel{"a": ChannelA, "B": ChannelB, "c": ChannelC} {
		ch, err := ParseChannel(s)
		if err != nil || ch != exp {
			t.Errorf("%q: %v, %v", s, ch, err)
		}
		if ch.String() != strings.ToUpper(s) {
			t.Errorf("%v does not print as %q", ch, s)
		}
	}
	if _, err := ParseChannel("d"); err == nil {
		t.Error("unexpected nil error")
	}
}
