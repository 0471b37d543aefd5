// Package node runs the polling loop of a monitoring node: it reads every
// configured sensor once per cycle, logs failures and keeps the latest
// values for the metrics exporter.
package node

import (
	"context"
	"sync"
	"time"

	"github.com/calmh/plantpi/bme280"
	"github.com/calmh/plantpi/gpio"
	"github.com/calmh/plantpi/moisture"
	"github.com/calmh/plantpi/stats"
	"go.uber.org/zap"
)

// EnvSensor is satisfied by *bme280.Sensor.
type EnvSensor interface {
	Read() (bme280.Reading, error)
}

// Sensors selects what a Node polls. Nil members are skipped. The grow
// probe is either polled through GrowLevel for GrowWindow each cycle, or
// counted in the background through GrowEdges.
type Sensors struct {
	Env        EnvSensor
	Soil       *moisture.Sensor
	GrowLevel  gpio.LevelSource
	GrowEdges  *moisture.EdgeCounter
	GrowWindow time.Duration
}

// Snapshot is a copy of the latest values. Members are nil until the first
// successful read.
type Snapshot struct {
	Env     *bme280.Reading
	Soil    *moisture.Reading
	Grow    *moisture.FrequencyReading
	Stats   map[string]stats.Stats
	Cycles  uint64
	Updated time.Time
}

type Node struct {
	sensors Sensors
	log     *zap.SugaredLogger
	metrics *metrics

	lastTake time.Time

	mut  sync.Mutex
	last Snapshot
}

func New(sensors Sensors, log *zap.SugaredLogger) *Node {
	if sensors.Soil != nil {
		if cal := sensors.Soil.Calibration(); cal.Degenerate() {
			log.Warnw("soil dry and wet voltages are equal, moisture will read as 0%", "voltage", cal.DryVoltage)
		}
	}
	return &Node{
		sensors:  sensors,
		log:      log,
		metrics:  newMetrics(),
		lastTake: time.Now(),
	}
}

// Run polls every interval until ctx is cancelled. Read errors are logged
// and the loop carries on with the next cycle.
func (n *Node) Run(ctx context.Context, interval time.Duration) error {
	n.log.Infow("starting poll loop", "interval", interval)
	n.Poll()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.Poll()
		case <-ctx.Done():
			n.log.Info("poll loop stopped")
			return ctx.Err()
		}
	}
}

// Poll runs one cycle. It blocks for the averaging and measurement windows
// of the configured sensors.
func (n *Node) Poll() {
	var next Snapshot

	if n.sensors.Soil != nil {
		if r, err := n.sensors.Soil.Read(); err != nil {
			n.failed("soil", err)
		} else {
			n.log.Debugw("soil moisture", "voltage", r.Voltage, "percent", r.HumidityPercent)
			next.Soil = &r
		}
	}

	if grow, err := n.readGrow(); err != nil {
		n.failed("grow", err)
	} else if grow != nil {
		n.log.Debugw("grow moisture", "frequency", grow.FrequencyHz, "pulses", grow.PulseCount, "percent", grow.HumidityPercent)
		next.Grow = grow
	}

	if n.sensors.Env != nil {
		if r, err := n.sensors.Env.Read(); err != nil {
			n.failed("env", err)
		} else {
			n.log.Debugw("environment", "sensor", r.SensorType, "temperature", r.Temperature, "pressure", r.Pressure, "humidity", r.Humidity)
			next.Env = &r
		}
	}

	if n.sensors.Soil != nil {
		next.Stats = n.sensors.Soil.Stats()
	}
	n.metrics.cycles.Inc()

	n.mut.Lock()
	defer n.mut.Unlock()
	// Keep the previous value of anything that failed this cycle.
	if next.Env == nil {
		next.Env = n.last.Env
	}
	if next.Soil == nil {
		next.Soil = n.last.Soil
	}
	if next.Grow == nil {
		next.Grow = n.last.Grow
	}
	next.Cycles = n.last.Cycles + 1
	next.Updated = time.Now()
	n.last = next
}

func (n *Node) readGrow() (*moisture.FrequencyReading, error) {
	s := n.sensors
	if s.Soil == nil {
		return nil, nil
	}

	switch {
	case s.GrowEdges != nil:
		now := time.Now()
		window := now.Sub(n.lastTake)
		n.lastTake = now
		r, err := s.Soil.RecordPulses(s.GrowEdges.Take(), window)
		if err != nil {
			return nil, err
		}
		return &r, nil

	case s.GrowLevel != nil:
		r, err := s.Soil.ReadFrequency(s.GrowLevel, s.GrowWindow)
		if err != nil {
			return nil, err
		}
		return &r, nil
	}
	return nil, nil
}

func (n *Node) failed(component string, err error) {
	n.log.Errorw("sensor read failed", "component", component, "error", err)
	n.metrics.errors.WithLabelValues(component).Inc()
}

// Snapshot returns a copy of the latest values.
func (n *Node) Snapshot() Snapshot {
	n.mut.Lock()
	defer n.mut.Unlock()

	s := n.last
	if s.Env != nil {
		env := *s.Env
		if env.Humidity != nil {
			h := *env.Humidity
			env.Humidity = &h
		}
		s.Env = &env
	}
	if s.Soil != nil {
		soil := *s.Soil
		s.Soil = &soil
	}
	if s.Grow != nil {
		grow := *s.Grow
		grow.Stats = grow.Stats.Clone()
		s.Grow = &grow
	}
	if s.Stats != nil {
		cp := make(map[string]stats.Stats, len(s.Stats))
		for k, v := range s.Stats {
			cp[k] = v.Clone()
		}
		s.Stats = cp
	}
	return s
}
