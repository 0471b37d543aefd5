package gpio

import (
	"fmt"

	"gobot.io/x/gobot/sysfs"
)

// A DigitalPin is typically a sysfs.DigitalPinner (gobot.io/x/gobot/sysfs).
type DigitalPin interface {
	Read() (int, error)
	Unexport() error
}

// Poller reads the level of a sysfs GPIO pin on every call.
type Poller struct {
	pin DigitalPin
}

func NewPoller(pin DigitalPin) *Poller {
	return &Poller{pin: pin}
}

// OpenPoller exports pin number n as an input.
func OpenPoller(n int) (*Poller, error) {
	pin := sysfs.NewDigitalPin(n)
	if err := pin.Export(); err != nil {
		return nil, fmt.Errorf("export gpio %d: %w", n, err)
	}
	if err := pin.Direction(sysfs.IN); err != nil {
		pin.Unexport()
		return nil, fmt.Errorf("set gpio %d direction: %w", n, err)
	}
	return NewPoller(pin), nil
}

func (p *Poller) ReadLevel() (int, error) {
	v, err := p.pin.Read()
	if err != nil {
		return 0, fmt.Errorf("read gpio: %w", err)
	}
	if v != 0 {
		return 1, nil
	}
	return 0, nil
}

func (p *Poller) Close() error {
	return p.pin.Unexport()
}
