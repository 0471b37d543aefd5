package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/calmh/plantpi/bme280"
	"github.com/calmh/plantpi/i2c"
	"github.com/calmh/plantpi/moisture"
)

func main() {
	device := flag.String("device", "/dev/i2c-1", "I2C device")
	address := flag.Uint("address", bme280.DefaultAddress, "BME280 I2C address")
	adc := flag.String("adc", "", "IIO raw channel of the soil probe ADC (empty to skip)")
	adcBits := flag.Int("adc-bits", 12, "ADC resolution")
	interval := flag.Duration("interval", time.Second, "Interval between measurements")
	count := flag.Int("count", 0, "Number of measurements (0 to run forever)")
	buffer := flag.Bool("buffer", false, "Use output buffering")
	flag.Parse()

	bus, err := i2c.Open(*device)
	if err != nil {
		log.Fatalln("open I2C device:", err)
	}
	defer bus.Close()

	env, err := bme280.New(bus, bme280.Config{Address: uint16(*address)})
	if err != nil {
		log.Fatalln("init BME280:", err)
	}

	var soil *moisture.Sensor
	if *adc != "" {
		soil, err = moisture.New(moisture.IIO{Path: *adc, Bits: *adcBits}, moisture.Platform{}, moisture.DefaultCalibration(), nil)
		if err != nil {
			log.Fatalln("init soil probe:", err)
		}
	}

	out := io.Writer(os.Stdout)
	if *buffer {
		bw := bufio.NewWriter(out)
		defer bw.Flush()
		out = bw
	}
	enc := json.NewEncoder(out)

	fields := make(map[string]interface{})
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for i := 0; *count == 0 || i < *count; i++ {
		if i > 0 {
			fields["when"] = <-ticker.C
		} else {
			fields["when"] = time.Now()
		}

		r, err := env.Read()
		if err != nil {
			log.Fatalln("bme280:", err)
		}
		fields["sensor_type"] = r.SensorType
		fields["temperature_c"] = r.Temperature
		fields["pressure_hpa"] = r.Pressure
		if r.Humidity != nil {
			fields["humidity_rh"] = *r.Humidity
		}

		if soil != nil {
			s, err := soil.Read()
			if err != nil {
				log.Fatalln("soil:", err)
			}
			fields["soil_voltage"] = s.Voltage
			fields["soil_humidity_percent"] = s.HumidityPercent
		}

		if err := enc.Encode(fields); err != nil {
			log.Fatalln("write:", err)
		}
	}
}
