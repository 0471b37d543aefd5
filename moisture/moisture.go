// Package moisture converts soil probe signals to a moisture percentage,
// where 0 % is dry and 100 % is saturated.
package moisture

import (
	"time"

	"github.com/calmh/plantpi/errcode"
	"github.com/calmh/plantpi/round"
	"github.com/calmh/plantpi/stats"
)

// Source names used when recording statistics.
const (
	SourceADC  = "pico_adc"
	SourceGrow = "grow"
)

// ADC returns one conversion scaled to 16 bits.
type ADC interface {
	ReadU16() (uint16, error)
}

// Platform holds the board constants needed to turn ADC counts into volts.
type Platform struct {
	// VoltsPerCount converts a raw ADC code to volts. When zero it is
	// derived as SupplyVoltage / 65535.
	VoltsPerCount float64
	SupplyVoltage float64
}

const defaultSupplyVoltage = 3.3

func (p Platform) voltsPerCount() float64 {
	if p.VoltsPerCount > 0 {
		return p.VoltsPerCount
	}
	vref := p.SupplyVoltage
	if vref <= 0 {
		vref = defaultSupplyVoltage
	}
	return vref / 65535
}

// Calibration describes one probe. A dry probe reads a higher voltage than
// a wet one.
type Calibration struct {
	DryVoltage float64
	WetVoltage float64
	// Scale and Offset are applied to the raw voltage before mapping.
	Scale  float64
	Offset float64

	Samples     int
	SampleDelay time.Duration

	// Frequency thresholds for pulse output probes.
	MinFrequency float64 // Hz in dry air, maps to 0 %
	MaxFrequency float64 // Hz in water, maps to 100 %
}

// DefaultCalibration matches a capacitive probe on a 3.3 V ADC and a
// Pimoroni Grow sensor.
func DefaultCalibration() Calibration {
	return Calibration{
		DryVoltage:   3.5,
		WetVoltage:   1.8,
		Scale:        1.0,
		Offset:       0.0,
		Samples:      8,
		SampleDelay:  5 * time.Millisecond,
		MinFrequency: 2,
		MaxFrequency: 30,
	}
}

// normalized returns c with the reference voltages ordered dry >= wet.
func (c Calibration) normalized() Calibration {
	if c.WetVoltage > c.DryVoltage {
		c.DryVoltage, c.WetVoltage = c.WetVoltage, c.DryVoltage
	}
	return c
}

// Degenerate is true when the reference voltages are equal and every
// voltage maps to 0 %.
func (c Calibration) Degenerate() bool {
	return c.DryVoltage == c.WetVoltage
}

// FrequencyToPercent maps a pulse frequency linearly between the dry and
// wet thresholds, clamping outside them.
func (c Calibration) FrequencyToPercent(freq float64) float64 {
	switch {
	case freq <= c.MinFrequency:
		return 0
	case freq >= c.MaxFrequency:
		return 100
	default:
		return (freq - c.MinFrequency) / (c.MaxFrequency - c.MinFrequency) * 100
	}
}

// Reading is an averaged analog measurement.
type Reading struct {
	Voltage         float64 `json:"voltage"`
	HumidityPercent float64 `json:"humidity_percent"`
}

// Sensor is a soil probe on an ADC channel. It is not safe for concurrent
// use.
type Sensor struct {
	adc   ADC
	vpc   float64
	cal   Calibration
	stats *stats.Tracker
}

// New returns a Sensor reading adc. A nil tracker gets a private one.
func New(adc ADC, platform Platform, cal Calibration, tracker *stats.Tracker) (*Sensor, error) {
	if adc == nil {
		return nil, errcode.Config("new moisture sensor", "no ADC channel")
	}
	if tracker == nil {
		tracker = stats.NewTracker()
	}
	return &Sensor{
		adc:   adc,
		vpc:   platform.voltsPerCount(),
		cal:   cal.normalized(),
		stats: tracker,
	}, nil
}

// Calibration returns the calibration in use, with dry >= wet.
func (s *Sensor) Calibration() Calibration {
	return s.cal
}

// Stats returns a copy of the statistics for every source seen so far.
func (s *Sensor) Stats() map[string]stats.Stats {
	return s.stats.All()
}

// MapVoltageToPercent applies scale and offset to voltage and maps the
// result between the wet and dry references. It returns the percentage and
// the calibrated voltage. Equal references give 0 %.
func (s *Sensor) MapVoltageToPercent(voltage float64) (percent, calibrated float64) {
	calibrated = voltage*s.cal.Scale + s.cal.Offset
	dry, wet := s.cal.DryVoltage, s.cal.WetVoltage
	if dry == wet {
		return 0, calibrated
	}

	percent = (dry - calibrated) / (dry - wet) * 100
	switch {
	case percent < 0:
		percent = 0
	case percent > 100:
		percent = 100
	}
	return percent, calibrated
}

// Read is ReadAveraged with the calibrated sample count and delay.
func (s *Sensor) Read() (Reading, error) {
	return s.ReadAveraged(s.cal.Samples, s.cal.SampleDelay)
}

// ReadAveraged averages max(samples, 1) conversions taken delay apart and
// records the result under SourceADC. It blocks for samples*delay.
func (s *Sensor) ReadAveraged(samples int, delay time.Duration) (Reading, error) {
	if samples < 1 {
		samples = 1
	}

	var total uint64
	for i := 0; i < samples; i++ {
		v, err := s.adc.ReadU16()
		if err != nil {
			return Reading{}, err
		}
		total += uint64(v)
		if delay > 0 {
			time.Sleep(delay)
		}
	}
	avg := total / uint64(samples)

	percent, calibrated := s.MapVoltageToPercent(float64(avg) * s.vpc)
	s.stats.Update(SourceADC, &calibrated, percent)

	return Reading{
		Voltage:         round.To(calibrated, 4),
		HumidityPercent: round.To(percent, 1),
	}, nil
}
