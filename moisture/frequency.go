package moisture

import (
	"fmt"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/calmh/plantpi/errcode"
	"github.com/calmh/plantpi/gpio"
	"github.com/calmh/plantpi/round"
	"github.com/calmh/plantpi/stats"
)

// FrequencyReading is a measurement of a pulse frequency modulated probe.
type FrequencyReading struct {
	Source          string      `json:"source"`
	FrequencyHz     float64     `json:"frequency_hz"`
	HumidityPercent float64     `json:"humidity_percent"`
	PulseCount      uint64      `json:"pulse_count"`
	MeasurementTime float64     `json:"measurement_time"` // seconds
	Timestamp       time.Time   `json:"ts"`
	Stats           stats.Stats `json:"stats"`
}

// ReadFrequency counts rising edges on src for window by polling, and maps
// the frequency to a percentage. It blocks for the whole window, yielding
// the processor between polls.
func (s *Sensor) ReadFrequency(src gpio.LevelSource, window time.Duration) (FrequencyReading, error) {
	if window <= 0 {
		return FrequencyReading{}, errcode.Config("read frequency", fmt.Sprintf("invalid window %v", window))
	}

	start := time.Now()
	last, err := src.ReadLevel()
	if err != nil {
		return FrequencyReading{}, err
	}
	var pulses uint64
	for time.Since(start) < window {
		cur, err := src.ReadLevel()
		if err != nil {
			return FrequencyReading{}, err
		}
		if cur == 1 && last == 0 {
			pulses++
		}
		last = cur
		runtime.Gosched()
	}

	return s.RecordPulses(pulses, window)
}

// RecordPulses converts a pulse count over window into a reading and
// records it under SourceGrow. Zero pulses always give 0 %.
func (s *Sensor) RecordPulses(pulses uint64, window time.Duration) (FrequencyReading, error) {
	if window <= 0 {
		return FrequencyReading{}, errcode.Config("record pulses", fmt.Sprintf("invalid window %v", window))
	}

	freq := float64(pulses) / window.Seconds()
	percent := 0.0
	if pulses > 0 {
		percent = s.cal.FrequencyToPercent(freq)
	}
	s.stats.Update(SourceGrow, nil, percent)
	snap, _ := s.stats.Snapshot(SourceGrow)

	return FrequencyReading{
		Source:          SourceGrow,
		FrequencyHz:     round.To(freq, 2),
		HumidityPercent: round.To(percent, 1),
		PulseCount:      pulses,
		MeasurementTime: window.Seconds(),
		Timestamp:       time.Now(),
		Stats:           snap,
	}, nil
}

// EdgeCounter counts edges delivered by an interrupt driven source.
type EdgeCounter struct {
	n atomic.Uint64
}

// CountEdges registers a new counter with src.
func CountEdges(src gpio.EdgeSource) (*EdgeCounter, error) {
	c := new(EdgeCounter)
	if err := src.OnRisingEdge(c.Inc); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *EdgeCounter) Inc() {
	c.n.Add(1)
}

// Take returns the number of edges since the previous call.
func (c *EdgeCounter) Take() uint64 {
	return c.n.Swap(0)
}
