// Package bme280 drives the Bosch BME280 humidity, pressure and temperature
// sensor and its pressure only sibling, the BMP280.
package bme280

import (
	"errors"
	"fmt"
	"time"

	"github.com/calmh/plantpi/errcode"
	"github.com/calmh/plantpi/round"
)

// Bus is raw register access to devices on an I2C bus. Errors are returned
// to the caller unchanged and never retried.
type Bus interface {
	Read(addr uint16, reg uint8, n int) ([]byte, error)
	Write(addr uint16, reg, val uint8) error
}

const DefaultAddress = 0x76

const (
	regDigT1 = 0x88
	regDigT2 = 0x8a
	regDigT3 = 0x8c
	regDigP1 = 0x8e
	regDigP2 = 0x90
	regDigP3 = 0x92
	regDigP4 = 0x94
	regDigP5 = 0x96
	regDigP6 = 0x98
	regDigP7 = 0x9a
	regDigP8 = 0x9c
	regDigP9 = 0x9e
	regDigH1 = 0xa1
	regDigH2 = 0xe1
	regDigH3 = 0xe3
	regDigH4 = 0xe4 // through 0xe6, see UnpackH4H5
	regDigH6 = 0xe7

	regChipID     = 0xd0
	regSoftReset  = 0xe0
	regCtrlHum    = 0xf2
	regCtrlMeas   = 0xf4
	regConfig     = 0xf5
	regPressData  = 0xf7
	ctrlHumInit   = 0x01 // humidity oversampling x1
	ctrlMeasInit  = 0xb7 // temperature x2, pressure x16, normal mode
	configInit    = 0x00 // filter off, standby 0.5 ms
	softResetWord = 0xb6
	resetDelay    = 2 * time.Millisecond
)

var errShortChipID = errors.New("empty chip id read")

// Corrections are fixed offsets added to each value after compensation.
type Corrections struct {
	Temperature float64 // °C
	Pressure    float64 // hPa
	Humidity    float64 // %RH
}

type Config struct {
	// Address defaults to DefaultAddress.
	Address     uint16
	Corrections Corrections
	// Settle is how long to wait after configuring the measurement mode
	// before the first sample is valid.
	Settle time.Duration
}

// Reading is one consistent set of compensated values. Humidity is nil for
// devices that do not measure it.
type Reading struct {
	Temperature float64  `json:"temperature"`
	Pressure    float64  `json:"pressure"`
	Humidity    *float64 `json:"humidity"`
	SensorType  string   `json:"sensor_type"`
}

// Sensor is a single BME280 or BMP280. It is not safe for concurrent use,
// and a Bus shared with other sensors must be serialised by the caller.
type Sensor struct {
	bus  Bus
	addr uint16
	corr Corrections
	wait time.Duration
	cal  Calibration
}

// New resolves the chip identity, loads calibration and puts the device in
// normal mode.
func New(bus Bus, cfg Config) (*Sensor, error) {
	if bus == nil {
		return nil, errcode.Config("new bme280", "no I2C bus")
	}
	s := &Sensor{
		bus:  bus,
		addr: cfg.Address,
		corr: cfg.Corrections,
		wait: cfg.Settle,
	}
	if s.addr == 0 {
		s.addr = DefaultAddress
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sensor) init() error {
	id, err := ResolveIdentity(s.bus, s.addr)
	if err != nil {
		return err
	}
	cal, err := LoadCalibration(s.bus, s.addr, id)
	if err != nil {
		return err
	}

	if id.HasHumidity() {
		if err := s.bus.Write(s.addr, regCtrlHum, ctrlHumInit); err != nil {
			return fmt.Errorf("write humidity control register: %w", err)
		}
	}
	if err := s.bus.Write(s.addr, regCtrlMeas, ctrlMeasInit); err != nil {
		return fmt.Errorf("write measurement control register: %w", err)
	}
	if err := s.bus.Write(s.addr, regConfig, configInit); err != nil {
		return fmt.Errorf("write config register: %w", err)
	}

	s.cal = cal
	if s.wait > 0 {
		time.Sleep(s.wait)
	}
	return nil
}

// Reinit soft resets the device and replaces the identity and calibration
// with freshly loaded values. On error the previous calibration is kept.
func (s *Sensor) Reinit() error {
	if err := s.bus.Write(s.addr, regSoftReset, softResetWord); err != nil {
		return fmt.Errorf("soft reset: %w", err)
	}
	time.Sleep(resetDelay)
	return s.init()
}

func (s *Sensor) Identity() Identity {
	return s.cal.Identity
}

// Calibration returns a copy of the loaded coefficients.
func (s *Sensor) Calibration() Calibration {
	return s.cal
}

// ReadSample performs one burst read of the data registers.
func (s *Sensor) ReadSample() (Sample, error) {
	n := s.cal.Identity.burstLength()
	data, err := s.bus.Read(s.addr, regPressData, n)
	if err != nil {
		return Sample{}, fmt.Errorf("read data: %w", err)
	}
	if len(data) < n {
		return Sample{}, &errcode.E{C: errcode.BusIO, Op: "read data", Err: fmt.Errorf("got %d of %d bytes", len(data), n)}
	}
	return decodeSample(data), nil
}

// Read returns temperature, pressure and, where supported, humidity all
// derived from a single sample.
func (s *Sensor) Read() (Reading, error) {
	sample, err := s.ReadSample()
	if err != nil {
		return Reading{}, err
	}
	return s.compensate(sample), nil
}

func (s *Sensor) compensate(sample Sample) Reading {
	temp, fine := CompensateTemperature(sample.Temperature, s.cal)
	press := CompensatePressure(sample.Pressure, fine, s.cal)

	r := Reading{
		Temperature: round.To(temp+s.corr.Temperature, 2),
		Pressure:    round.To(press+s.corr.Pressure, 2),
		SensorType:  s.cal.Identity.String(),
	}
	if hum, err := CompensateHumidity(sample.Humidity, fine, s.cal); err == nil {
		hum = round.To(s.correctHumidity(hum), 2)
		r.Humidity = &hum
	}
	return r
}

func (s *Sensor) correctHumidity(h float64) float64 {
	return clampPercent(h + s.corr.Humidity)
}

// Temperature reads a fresh sample and returns the temperature in °C.
func (s *Sensor) Temperature() (float64, error) {
	sample, err := s.ReadSample()
	if err != nil {
		return 0, err
	}
	temp, _ := CompensateTemperature(sample.Temperature, s.cal)
	return round.To(temp+s.corr.Temperature, 2), nil
}

// Pressure reads a fresh sample and returns the pressure in hPa.
func (s *Sensor) Pressure() (float64, error) {
	sample, err := s.ReadSample()
	if err != nil {
		return 0, err
	}
	_, fine := CompensateTemperature(sample.Temperature, s.cal)
	press := CompensatePressure(sample.Pressure, fine, s.cal)
	return round.To(press+s.corr.Pressure, 2), nil
}

// Humidity reads a fresh sample and returns the relative humidity in
// percent. Pressure only devices return ErrHumidityUnsupported without
// touching the bus.
func (s *Sensor) Humidity() (float64, error) {
	if !s.cal.Identity.HasHumidity() {
		return 0, ErrHumidityUnsupported
	}
	sample, err := s.ReadSample()
	if err != nil {
		return 0, err
	}
	_, fine := CompensateTemperature(sample.Temperature, s.cal)
	hum, err := CompensateHumidity(sample.Humidity, fine, s.cal)
	if err != nil {
		return 0, err
	}
	return round.To(s.correctHumidity(hum), 2), nil
}
