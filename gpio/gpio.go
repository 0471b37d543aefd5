// Package gpio provides digital inputs for pulse based sensors, either
// polled through sysfs or interrupt driven through periph.io.
package gpio

// LevelSource reports the current logic level of a digital input, 0 or 1.
type LevelSource interface {
	ReadLevel() (int, error)
}

// EdgeSource calls a handler once per rising edge. Handlers for one pin
// run in arrival order. There is no debouncing.
type EdgeSource interface {
	OnRisingEdge(handler func()) error
}
