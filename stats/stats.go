// Package stats keeps running minimum and maximum values per measurement
// source.
package stats

// Stats is the observed range of one source. The voltage bounds stay nil
// for sources that never report a voltage.
type Stats struct {
	VoltageMin *float64 `json:"voltage_min"`
	VoltageMax *float64 `json:"voltage_max"`
	PercentMin float64  `json:"percent_min"`
	PercentMax float64  `json:"percent_max"`
}

// Clone returns a copy of s that shares no pointers with it.
func (s Stats) Clone() Stats {
	s.VoltageMin = copyPtr(s.VoltageMin)
	s.VoltageMax = copyPtr(s.VoltageMax)
	return s
}

// Tracker is not safe for concurrent use.
type Tracker struct {
	sources map[string]*Stats
}

func NewTracker() *Tracker {
	return &Tracker{sources: make(map[string]*Stats)}
}

// Update widens the range of source with one observation. A nil voltage
// leaves the voltage bounds untouched.
func (t *Tracker) Update(source string, voltage *float64, percent float64) {
	s, ok := t.sources[source]
	if !ok {
		s = &Stats{PercentMin: percent, PercentMax: percent}
		t.sources[source] = s
	}

	if voltage != nil {
		if s.VoltageMin == nil || *voltage < *s.VoltageMin {
			s.VoltageMin = copyPtr(voltage)
		}
		if s.VoltageMax == nil || *voltage > *s.VoltageMax {
			s.VoltageMax = copyPtr(voltage)
		}
	}
	if percent < s.PercentMin {
		s.PercentMin = percent
	}
	if percent > s.PercentMax {
		s.PercentMax = percent
	}
}

// Snapshot returns a copy of the range for source.
func (t *Tracker) Snapshot(source string) (Stats, bool) {
	s, ok := t.sources[source]
	if !ok {
		return Stats{}, false
	}
	return s.Clone(), true
}

// All returns a copy of every tracked source.
func (t *Tracker) All() map[string]Stats {
	res := make(map[string]Stats, len(t.sources))
	for name, s := range t.sources {
		res[name] = s.Clone()
	}
	return res
}

func copyPtr(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
