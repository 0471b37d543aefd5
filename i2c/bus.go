package i2c

import (
	"fmt"
	"io"

	"github.com/calmh/plantpi/errcode"
	"gobot.io/x/gobot/sysfs"
)

// A Device is typically a sysfs.I2cDevice (gobot.io/x/gobot/sysfs).
type Device interface {
	io.ReadWriteCloser
	SetAddress(address int) error
	WriteByteData(reg, val uint8) error
}

// Bus addresses one or more peripherals on a shared Device. It does no
// locking; callers sharing a Bus between goroutines serialise access.
type Bus struct {
	dev  Device
	addr int
}

func NewBus(dev Device) *Bus {
	return &Bus{dev: dev, addr: -1}
}

// Open opens the I2C character device at path, e.g. /dev/i2c-1.
func Open(path string) (*Bus, error) {
	dev, err := sysfs.NewI2cDevice(path)
	if err != nil {
		return nil, fmt.Errorf("open I2C device: %w", err)
	}
	return NewBus(dev), nil
}

// Read reads n consecutive registers starting at reg in one transfer, relying
// on the peripheral to auto increment the register pointer. Fewer than n
// bytes are returned if the transfer comes up short.
func (b *Bus) Read(addr uint16, reg uint8, n int) ([]byte, error) {
	if err := b.setAddress(addr); err != nil {
		return nil, err
	}
	if _, err := b.dev.Write([]byte{reg}); err != nil {
		return nil, busError(fmt.Sprintf("select register %#02x", reg), err)
	}
	buf := make([]byte, n)
	m, err := b.dev.Read(buf)
	if err != nil {
		return nil, busError(fmt.Sprintf("read register %#02x", reg), err)
	}
	return buf[:m], nil
}

// Write writes a single register.
func (b *Bus) Write(addr uint16, reg, val uint8) error {
	if err := b.setAddress(addr); err != nil {
		return err
	}
	if err := b.dev.WriteByteData(reg, val); err != nil {
		return busError(fmt.Sprintf("write register %#02x", reg), err)
	}
	return nil
}

func (b *Bus) Close() error {
	return b.dev.Close()
}

func (b *Bus) setAddress(addr uint16) error {
	if int(addr) == b.addr {
		return nil
	}
	if err := b.dev.SetAddress(int(addr)); err != nil {
		b.addr = -1
		return busError("set device address", err)
	}
	b.addr = int(addr)
	return nil
}

func busError(op string, err error) error {
	return &errcode.E{C: errcode.BusIO, Op: op, Err: err}
}
