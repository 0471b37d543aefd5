// Package errcode holds the small set of error identifiers shared by the
// sensor packages.
package errcode

// Code is a stable error identifier. It is comparable and implements error,
// so callers can test with errors.Is(err, errcode.BusIO).
type Code string

func (c Code) Error() string { return string(c) }

const (
	BusIO               Code = "bus_io"
	UnsupportedDevice   Code = "unsupported_device"
	Configuration       Code = "configuration"
	HumidityUnsupported Code = "humidity_unsupported"
)

// E wraps a cause with a Code and the operation that failed.
type E struct {
	C   Code
	Op  string
	Err error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is reports a match against a bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Of extracts a Code from an error, or "" if it carries none.
func Of(err error) Code {
	for err != nil {
		switch x := err.(type) {
		case Code:
			return x
		case interface{ Code() Code }:
			return x.Code()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}

// Config returns a Configuration error naming what is missing.
func Config(op, msg string) error {
	return &E{C: Configuration, Op: op, Err: configMsg(msg)}
}

type configMsg string

func (m configMsg) Error() string { return string(m) }
