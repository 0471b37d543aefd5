package bme280

import (
	"periph.io/x/conn/v3/physic"
)

// Sense fills env from a single Read. Humidity is left untouched on
// pressure only devices.
func (s *Sensor) Sense(env *physic.Env) error {
	r, err := s.Read()
	if err != nil {
		return err
	}
	env.Temperature = physic.ZeroCelsius + physic.Temperature(r.Temperature*float64(physic.Celsius))
	env.Pressure = physic.Pressure(r.Pressure * 100 * float64(physic.Pascal))
	if r.Humidity != nil {
		env.Humidity = physic.RelativeHumidity(*r.Humidity * float64(physic.PercentRH))
	}
	return nil
}
