// Package config loads the node configuration from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/calmh/plantpi/errcode"
	"gopkg.in/yaml.v2"
)

type Config struct {
	// I2CDevice is the bus the environmental sensor is attached to.
	I2CDevice string        `yaml:"i2c_device"`
	Interval  time.Duration `yaml:"interval"`
	Metrics   string        `yaml:"metrics"`
	Debug     bool          `yaml:"debug"`

	BME280   BME280   `yaml:"bme280"`
	Soil     Soil     `yaml:"soil"`
	Grow     Grow     `yaml:"grow"`
	Platform Platform `yaml:"platform"`
}

type BME280 struct {
	Enabled     bool          `yaml:"enabled"`
	Address     uint16        `yaml:"address"`
	Settle      time.Duration `yaml:"settle"`
	Corrections struct {
		Temperature float64 `yaml:"temperature"`
		Pressure    float64 `yaml:"pressure"`
		Humidity    float64 `yaml:"humidity"`
	} `yaml:"corrections"`
}

type Soil struct {
	Enabled bool `yaml:"enabled"`
	// ADC selects the converter: "iio:<path>" for a Linux IIO channel,
	// "ads1115:<channel>" for an ADS1115, or "omini:<a|b|c>" for an Omini
	// voltage monitor on i2c_device.
	ADC         string        `yaml:"adc"`
	ADCBits     int           `yaml:"adc_bits"`
	DryVoltage  float64       `yaml:"dry_voltage"`
	WetVoltage  float64       `yaml:"wet_voltage"`
	Scale       float64       `yaml:"calibration_scale"`
	Offset      float64       `yaml:"calibration_offset"`
	Samples     int           `yaml:"samples"`
	SampleDelay time.Duration `yaml:"sample_delay"`
}

type Grow struct {
	Enabled bool `yaml:"enabled"`
	// Pin is a sysfs GPIO number when polling, or a periph pin name such as
	// "GPIO17" when Interrupt is set.
	Pin          string        `yaml:"pin"`
	Interrupt    bool          `yaml:"interrupt"`
	Window       time.Duration `yaml:"window"`
	MinFrequency float64       `yaml:"min_frequency"`
	MaxFrequency float64       `yaml:"max_frequency"`
}

type Platform struct {
	SupplyVoltage float64 `yaml:"supply_voltage"`
	VoltsPerCount float64 `yaml:"volts_per_count"`
}

// Default returns the configuration used for anything a file leaves out.
func Default() Config {
	var c Config
	c.I2CDevice = "/dev/i2c-1"
	c.Interval = 2 * time.Second
	c.Metrics = ":9120"

	c.BME280.Enabled = true
	c.BME280.Address = 0x76
	c.BME280.Settle = 100 * time.Millisecond

	c.Soil.Enabled = true
	c.Soil.ADC = "iio:/sys/bus/iio/devices/iio:device0/in_voltage0_raw"
	c.Soil.ADCBits = 12
	c.Soil.DryVoltage = 3.5
	c.Soil.WetVoltage = 1.8
	c.Soil.Scale = 1.0
	c.Soil.Samples = 8
	c.Soil.SampleDelay = 5 * time.Millisecond

	c.Grow.Window = time.Second
	c.Grow.MinFrequency = 2
	c.Grow.MaxFrequency = 30

	c.Platform.SupplyVoltage = 3.3
	return c
}

// Load reads path over the defaults and validates the result. An empty
// path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, c.Validate()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c Config) Validate() error {
	if c.Interval <= 0 {
		return invalid("interval must be positive")
	}
	if c.BME280.Enabled && c.I2CDevice == "" {
		return invalid("bme280 enabled without i2c_device")
	}
	if c.Soil.Enabled {
		if c.Soil.ADC == "" {
			return invalid("soil enabled without adc")
		}
		if c.Soil.Samples < 0 {
			return invalid("soil samples must not be negative")
		}
	}
	if c.Grow.Enabled {
		if !c.Soil.Enabled {
			return invalid("grow needs soil to be enabled")
		}
		if c.Grow.Pin == "" {
			return invalid("grow enabled without pin")
		}
		if c.Grow.Window <= 0 {
			return invalid("grow window must be positive")
		}
	}
	if c.Platform.SupplyVoltage <= 0 && c.Platform.VoltsPerCount <= 0 {
		return invalid("platform needs supply_voltage or volts_per_count")
	}
	return nil
}

func invalid(msg string) error {
	return errcode.Config("validate config", msg)
}
