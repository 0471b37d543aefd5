package gpio

import (
	"errors"
	"fmt"
	"sync"

	"github.com/calmh/plantpi/errcode"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var errHandlerSet = errors.New("edge handler already registered")

// Interrupt delivers rising edges from a periph.io pin configured for edge
// detection.
type Interrupt struct {
	pin gpio.PinIn

	mut     sync.Mutex
	started bool
	closed  chan struct{}
	done    chan struct{}
}

// OpenInterrupt initialises the periph host drivers and configures the named
// pin (e.g. "GPIO17") as a pulled down input with rising edge detection.
func OpenInterrupt(name string) (*Interrupt, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errcode.Config("open interrupt pin", fmt.Sprintf("no such pin %q", name))
	}
	if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	return NewInterrupt(pin), nil
}

// NewInterrupt wraps a pin already configured for rising edges.
func NewInterrupt(pin gpio.PinIn) *Interrupt {
	return &Interrupt{
		pin:    pin,
		closed: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// OnRisingEdge starts delivering edges to handler on a separate goroutine.
// Only one handler can be registered.
func (i *Interrupt) OnRisingEdge(handler func()) error {
	i.mut.Lock()
	defer i.mut.Unlock()
	if i.started {
		return errHandlerSet
	}
	i.started = true
	go i.serve(handler)
	return nil
}

func (i *Interrupt) serve(handler func()) {
	defer close(i.done)
	for {
		if i.pin.WaitForEdge(-1) {
			handler()
			continue
		}
		select {
		case <-i.closed:
			return
		default:
		}
	}
}

// ReadLevel samples the pin without waiting for an edge.
func (i *Interrupt) ReadLevel() (int, error) {
	if i.pin.Read() == gpio.High {
		return 1, nil
	}
	return 0, nil
}

// Close stops edge delivery and waits for the handler goroutine to exit.
func (i *Interrupt) Close() error {
	i.mut.Lock()
	select {
	case <-i.closed:
		i.mut.Unlock()
		return nil
	default:
	}
	close(i.closed)
	started := i.started
	i.mut.Unlock()

	err := i.pin.Halt()
	if started {
		<-i.done
	}
	return err
}
