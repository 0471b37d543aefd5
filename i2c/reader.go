package i2c

import (
	"errors"
	"fmt"
)

// ErrShortRead is the cause when a register read returns fewer bytes than
// requested.
var ErrShortRead = errors.New("short read")

// Registers is the read side of a register bus.
type Registers interface {
	Read(addr uint16, reg uint8, n int) ([]byte, error)
}

// Reader reads typed register values from one peripheral. The first error
// sticks and later reads return zero.
type Reader struct {
	bus   Registers
	addr  uint16
	error error
}

func NewReader(bus Registers, addr uint16) *Reader {
	return &Reader{bus: bus, addr: addr}
}

func (r *Reader) Error() error {
	return r.error
}

// Block reads n consecutive registers starting at reg.
func (r *Reader) Block(reg uint8, n int) []byte {
	if r.error != nil {
		return make([]byte, n)
	}
	data, err := r.bus.Read(r.addr, reg, n)
	if err != nil {
		r.error = err
		return make([]byte, n)
	}
	if len(data) < n {
		r.error = busError(fmt.Sprintf("read register %#02x", reg), fmt.Errorf("%w: got %d of %d bytes", ErrShortRead, len(data), n))
		return make([]byte, n)
	}
	return data
}

func (r *Reader) U8(reg uint8) uint8 {
	return r.Block(reg, 1)[0]
}

func (r *Reader) S8(reg uint8) int8 {
	return int8(r.U8(reg))
}

// U16LE reads a little endian unsigned word starting at reg.
func (r *Reader) U16LE(reg uint8) uint16 {
	return le16(r.Block(reg, 2))
}

// S16LE reads a little endian signed word starting at reg.
func (r *Reader) S16LE(reg uint8) int16 {
	return int16(le16(r.Block(reg, 2)))
}

func le16(data []byte) uint16 {
	return uint16(data[0]) | uint16(data[1])<<8
}
