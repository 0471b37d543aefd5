package bme280

import (
	"fmt"

	"github.com/calmh/plantpi/errcode"
)

// Identity is the sensor variant found at an address. It decides which
// compensation paths are valid for a Sensor.
type Identity uint8

const (
	// EnvironmentalWithHumidity is the BME280: temperature, pressure and
	// humidity.
	EnvironmentalWithHumidity Identity = iota + 1
	// PressureOnly is the BMP280: temperature and pressure.
	PressureOnly
)

const (
	chipIDBME280 = 0x60
	chipIDBMP280 = 0x58
)

func (id Identity) HasHumidity() bool {
	return id == EnvironmentalWithHumidity
}

func (id Identity) String() string {
	switch id {
	case EnvironmentalWithHumidity:
		return "BME280"
	case PressureOnly:
		return "BMP280"
	default:
		return fmt.Sprintf("Identity(%d)", uint8(id))
	}
}

func (id Identity) chipID() uint8 {
	switch id {
	case EnvironmentalWithHumidity:
		return chipIDBME280
	case PressureOnly:
		return chipIDBMP280
	default:
		return 0
	}
}

// burstLength is the number of data registers from regPressData that hold
// samples for this variant.
func (id Identity) burstLength() int {
	if id.HasHumidity() {
		return 8
	}
	return 6
}

// UnsupportedDeviceError is returned when the chip id register holds a
// value other than the two known variants.
type UnsupportedDeviceError struct {
	ID uint8
}

func (e *UnsupportedDeviceError) Error() string {
	return fmt.Sprintf("unsupported chip id %#02x, expected %#02x (BME280) or %#02x (BMP280)", e.ID, chipIDBME280, chipIDBMP280)
}

func (e *UnsupportedDeviceError) Code() errcode.Code {
	return errcode.UnsupportedDevice
}

func (e *UnsupportedDeviceError) Is(target error) bool {
	return target == errcode.UnsupportedDevice
}

// IdentityFromChipID maps a raw chip id to an Identity.
func IdentityFromChipID(id uint8) (Identity, error) {
	switch id {
	case chipIDBME280:
		return EnvironmentalWithHumidity, nil
	case chipIDBMP280:
		return PressureOnly, nil
	default:
		return 0, &UnsupportedDeviceError{ID: id}
	}
}

// ResolveIdentity reads the chip id register of the device at addr.
func ResolveIdentity(bus Bus, addr uint16) (Identity, error) {
	data, err := bus.Read(addr, regChipID, 1)
	if err != nil {
		return 0, fmt.Errorf("read chip id: %w", err)
	}
	if len(data) < 1 {
		return 0, &errcode.E{C: errcode.BusIO, Op: "read chip id", Err: errShortChipID}
	}
	return IdentityFromChipID(data[0])
}
