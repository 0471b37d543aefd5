// Package omini reads the Omini three channel voltage monitor. Each channel
// is reported as a signed byte of whole volts followed by a signed byte of
// hundredths.
package omini

import (
	"fmt"
	"math"
	"strings"

	"github.com/calmh/plantpi/i2c"
)

const Address = 0x29

// VoltsPerCount is the resolution of Input.ReadU16.
const VoltsPerCount = 0.01

type Channel uint8

const (
	ChannelA Channel = iota
	ChannelB
	ChannelC
)

func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(s) {
	case "a":
		return ChannelA, nil
	case "b":
		return ChannelB, nil
	case "c":
		return ChannelC, nil
	}
	return 0, fmt.Errorf("unknown omini channel %q", s)
}

func (c Channel) String() string {
	return string(rune('A' + c))
}

func (c Channel) register() uint8 {
	return 1 + 2*uint8(c)
}

type Omini struct {
	bus i2c.Registers
}

func New(bus i2c.Registers) *Omini {
	return &Omini{bus: bus}
}

func (o *Omini) Voltage(ch Channel) (float64, error) {
	r := i2c.NewReader(o.bus, Address)
	data := r.Block(ch.register(), 2)
	if err := r.Error(); err != nil {
		return 0, fmt.Errorf("read channel %v: %w", ch, err)
	}
	return float64(int8(data[0])) + float64(int8(data[1]))/100, nil
}

// Input is one channel read as a count of VoltsPerCount. Negative voltages
// read as zero.
type Input struct {
	dev *Omini
	ch  Channel
}

func (o *Omini) Input(ch Channel) Input {
	return Input{dev: o, ch: ch}
}

func (in Input) ReadU16() (uint16, error) {
	v, err := in.dev.Voltage(in.ch)
	if err != nil {
		return 0, err
	}
	counts := math.Round(v / VoltsPerCount)
	switch {
	case counts < 0:
		return 0, nil
	case counts > math.MaxUint16:
		return math.MaxUint16, nil
	}
	return uint16(counts), nil
}
