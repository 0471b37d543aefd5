package node

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type metrics struct {
	cycles prometheus.Counter
	errors *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		cycles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "plantpi",
			Name:      "poll_cycles_total",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "plantpi",
			Name:      "read_errors_total",
		}, []string{"component"}),
	}
}

var (
	envTemperatureDesc = prometheus.NewDesc("sensors_bme280_temperature_celsius", "Compensated air temperature.", []string{"sensor_type"}, nil)
	envPressureDesc    = prometheus.NewDesc("sensors_bme280_pressure_hpa", "Compensated air pressure.", []string{"sensor_type"}, nil)
	envHumidityDesc    = prometheus.NewDesc("sensors_bme280_humidity_percent", "Compensated relative humidity.", []string{"sensor_type"}, nil)
	soilVoltageDesc    = prometheus.NewDesc("sensors_soil_voltage_volts", "Calibrated soil probe voltage.", nil, nil)
	soilPercentDesc    = prometheus.NewDesc("sensors_soil_humidity_percent", "Soil moisture from the analog probe.", nil, nil)
	growFrequencyDesc  = prometheus.NewDesc("sensors_grow_frequency_hz", "Pulse frequency of the grow probe.", nil, nil)
	growPercentDesc    = prometheus.NewDesc("sensors_grow_humidity_percent", "Soil moisture from the grow probe.", nil, nil)
	percentMinDesc     = prometheus.NewDesc("sensors_moisture_percent_min", "Lowest moisture seen per source.", []string{"source"}, nil)
	percentMaxDesc     = prometheus.NewDesc("sensors_moisture_percent_max", "Highest moisture seen per source.", []string{"source"}, nil)
	voltageMinDesc     = prometheus.NewDesc("sensors_moisture_voltage_min_volts", "Lowest probe voltage seen per source.", []string{"source"}, nil)
	voltageMaxDesc     = prometheus.NewDesc("sensors_moisture_voltage_max_volts", "Highest probe voltage seen per source.", []string{"source"}, nil)
)

// collector exports the latest snapshot. Values that have never been read
// are left out rather than reported as zero.
type collector struct {
	node *Node
}

func (c collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		envTemperatureDesc, envPressureDesc, envHumidityDesc,
		soilVoltageDesc, soilPercentDesc,
		growFrequencyDesc, growPercentDesc,
		percentMinDesc, percentMaxDesc, voltageMinDesc, voltageMaxDesc,
	} {
		ch <- d
	}
}

func (c collector) Collect(ch chan<- prometheus.Metric) {
	s := c.node.Snapshot()

	if env := s.Env; env != nil {
		ch <- prometheus.MustNewConstMetric(envTemperatureDesc, prometheus.GaugeValue, env.Temperature, env.SensorType)
		ch <- prometheus.MustNewConstMetric(envPressureDesc, prometheus.GaugeValue, env.Pressure, env.SensorType)
		if env.Humidity != nil {
			ch <- prometheus.MustNewConstMetric(envHumidityDesc, prometheus.GaugeValue, *env.Humidity, env.SensorType)
		}
	}
	if soil := s.Soil; soil != nil {
		ch <- prometheus.MustNewConstMetric(soilVoltageDesc, prometheus.GaugeValue, soil.Voltage)
		ch <- prometheus.MustNewConstMetric(soilPercentDesc, prometheus.GaugeValue, soil.HumidityPercent)
	}
	if grow := s.Grow; grow != nil {
		ch <- prometheus.MustNewConstMetric(growFrequencyDesc, prometheus.GaugeValue, grow.FrequencyHz)
		ch <- prometheus.MustNewConstMetric(growPercentDesc, prometheus.GaugeValue, grow.HumidityPercent)
	}
	for source, st := range s.Stats {
		ch <- prometheus.MustNewConstMetric(percentMinDesc, prometheus.GaugeValue, st.PercentMin, source)
		ch <- prometheus.MustNewConstMetric(percentMaxDesc, prometheus.GaugeValue, st.PercentMax, source)
		if st.VoltageMin != nil {
			ch <- prometheus.MustNewConstMetric(voltageMinDesc, prometheus.GaugeValue, *st.VoltageMin, source)
		}
		if st.VoltageMax != nil {
			ch <- prometheus.MustNewConstMetric(voltageMaxDesc, prometheus.GaugeValue, *st.VoltageMax, source)
		}
	}
}

// Register adds the node metrics to reg.
func (n *Node) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{n.metrics.cycles, n.metrics.errors, collector{n}} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	promauto.With(reg).NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "plantpi",
		Name:      "last_poll_timestamp_seconds",
	}, func() float64 {
		s := n.Snapshot()
		if s.Updated.IsZero() {
			return 0
		}
		return float64(s.Updated.UnixNano()) / float64(time.Second)
	})
	return nil
}
