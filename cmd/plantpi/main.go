package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/calmh/plantpi/bme280"
	"github.com/calmh/plantpi/config"
	"github.com/calmh/plantpi/gpio"
	"github.com/calmh/plantpi/i2c"
	"github.com/calmh/plantpi/moisture"
	"github.com/calmh/plantpi/node"
	"github.com/calmh/plantpi/omini"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	gobotI2C "gobot.io/x/gobot/drivers/i2c"
	"gobot.io/x/gobot/platforms/raspi"
)

func main() {
	cfgFile := flag.String("config", "", "Configuration file")
	device := flag.String("device", "", "I2C device (overrides configuration)")
	promaddr := flag.String("prometheus", "", "Prometheus exporter address (overrides configuration)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	cfg := config.Default()
	if *cfgFile != "" {
		var err error
		cfg, err = config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load configuration:", err)
			os.Exit(1)
		}
	}
	if *device != "" {
		cfg.I2CDevice = *device
	}
	if *promaddr != "" {
		cfg.Metrics = *promaddr
	}
	cfg.Debug = cfg.Debug || *debug

	var zapLogger *zap.Logger
	var err error
	if cfg.Debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "create logger:", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	if err := cfg.Validate(); err != nil {
		log.Fatalw("invalid configuration", "error", err)
	}

	sensors, closers, err := openSensors(cfg, log)
	if err != nil {
		log.Fatalw("open sensors", "error", err)
	}
	defer func() {
		for _, c := range closers {
			c()
		}
	}()

	n := node.New(sensors, log)
	if err := n.Register(prometheus.DefaultRegisterer); err != nil {
		log.Fatalw("register metrics", "error", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Infow("shutting down", "signal", sig)
		cancel()
	}()

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		log.Infow("serving metrics", "address", cfg.Metrics)
		if err := http.ListenAndServe(cfg.Metrics, nil); err != nil {
			log.Errorw("metrics server", "error", err)
			cancel()
		}
	}()

	if err := n.Run(ctx, cfg.Interval); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorw("poll loop", "error", err)
	}
}

func openSensors(cfg config.Config, log *zap.SugaredLogger) (node.Sensors, []func(), error) {
	var sensors node.Sensors
	var closers []func()

	var bus *i2c.Bus
	openBus := func() (*i2c.Bus, error) {
		if bus != nil {
			return bus, nil
		}
		b, err := i2c.Open(cfg.I2CDevice)
		if err != nil {
			return nil, err
		}
		closers = append(closers, func() { b.Close() })
		bus = b
		return bus, nil
	}

	if cfg.BME280.Enabled {
		bus, err := openBus()
		if err != nil {
			return sensors, closers, err
		}

		env, err := bme280.New(bus, bme280.Config{
			Address: cfg.BME280.Address,
			Settle:  cfg.BME280.Settle,
			Corrections: bme280.Corrections{
				Temperature: cfg.BME280.Corrections.Temperature,
				Pressure:    cfg.BME280.Corrections.Pressure,
				Humidity:    cfg.BME280.Corrections.Humidity,
			},
		})
		if err != nil {
			return sensors, closers, fmt.Errorf("init BME280: %w", err)
		}
		log.Infow("environmental sensor ready", "type", env.Identity(), "address", fmt.Sprintf("0x%02x", cfg.BME280.Address))
		sensors.Env = env
	}

	if !cfg.Soil.Enabled {
		return sensors, closers, nil
	}

	platform := moisture.Platform{
		SupplyVoltage: cfg.Platform.SupplyVoltage,
		VoltsPerCount: cfg.Platform.VoltsPerCount,
	}
	var adc moisture.ADC
	kind, arg, _ := strings.Cut(cfg.Soil.ADC, ":")
	switch kind {
	case "iio":
		adc = moisture.IIO{Path: arg, Bits: cfg.Soil.ADCBits}
	case "ads1115":
		ads := gobotI2C.NewADS1115Driver(raspi.NewAdaptor())
		if err := ads.Start(); err != nil {
			return sensors, closers, fmt.Errorf("start ADS1115: %w", err)
		}
		adc = moisture.AnalogPin{Reader: ads, Pin: arg, FullScale: moisture.ADS1x15FullScale}
		if platform.VoltsPerCount == 0 {
			platform.VoltsPerCount = moisture.ADS1x15Volts / 0xffff
		}
	case "omini":
		ch, err := omini.ParseChannel(arg)
		if err != nil {
			return sensors, closers, err
		}
		bus, err := openBus()
		if err != nil {
			return sensors, closers, err
		}
		adc = omini.New(bus).Input(ch)
		if platform.VoltsPerCount == 0 {
			platform.VoltsPerCount = omini.VoltsPerCount
		}
	default:
		return sensors, closers, fmt.Errorf("unknown ADC %q", cfg.Soil.ADC)
	}
	cal := moisture.Calibration{
		DryVoltage:   cfg.Soil.DryVoltage,
		WetVoltage:   cfg.Soil.WetVoltage,
		Scale:        cfg.Soil.Scale,
		Offset:       cfg.Soil.Offset,
		Samples:      cfg.Soil.Samples,
		SampleDelay:  cfg.Soil.SampleDelay,
		MinFrequency: cfg.Grow.MinFrequency,
		MaxFrequency: cfg.Grow.MaxFrequency,
	}
	soil, err := moisture.New(adc, platform, cal, nil)
	if err != nil {
		return sensors, closers, err
	}
	sensors.Soil = soil

	if !cfg.Grow.Enabled {
		return sensors, closers, nil
	}

	if cfg.Grow.Interrupt {
		pin, err := gpio.OpenInterrupt(cfg.Grow.Pin)
		if err != nil {
			return sensors, closers, err
		}
		closers = append(closers, func() { pin.Close() })
		edges, err := moisture.CountEdges(pin)
		if err != nil {
			return sensors, closers, err
		}
		sensors.GrowEdges = edges
		log.Infow("grow probe counting interrupts", "pin", cfg.Grow.Pin)
		return sensors, closers, nil
	}

	num, err := strconv.Atoi(cfg.Grow.Pin)
	if err != nil {
		return sensors, closers, fmt.Errorf("grow pin %q: %w", cfg.Grow.Pin, err)
	}
	pin, err := gpio.OpenPoller(num)
	if err != nil {
		return sensors, closers, err
	}
	closers = append(closers, func() { pin.Close() })
	sensors.GrowLevel = pin
	sensors.GrowWindow = cfg.Grow.Window
	log.Infow("grow probe polling", "pin", num, "window", cfg.Grow.Window)
	return sensors, closers, nil
}
