package eventlog

import "slices"

// Mode is a network transport mode.
type Mode string

const (
	Car     Mode = "car"
	Truck   Mode = "truck"
	Freight Mode = "freight"
	Ride    Mode = "ride"
	Bike    Mode = "bike"
	PT      Mode = "pt"
	Walk    Mode = "walk"
)

// DefaultMode is assumed for vehicles whose departure event carried no mode.
const DefaultMode = Car

// ModeSet assigns stable indices to the modes seen during one reduction.
// Known modes come first in declaration order, then others alphabetically.
type ModeSet struct {
	modes []Mode
	index map[Mode]int
}

var knownModes = []Mode{Car, Truck, Freight, Ride, Bike, PT, Walk}

func newModeSet() *ModeSet {
	return &ModeSet{index: make(map[Mode]int)}
}

// intern returns the index of m, adding it when unseen.
func (s *ModeSet) intern(m Mode) int {
	if i, ok := s.index[m]; ok {
		return i
	}
	s.index[m] = len(s.modes)
	s.modes = append(s.modes, m)
	return len(s.modes) - 1
}

// Index returns the index of m.
func (s *ModeSet) Index(m Mode) (int, bool) {
	i, ok := s.index[m]
	return i, ok
}

// Len returns the number of modes.
func (s *ModeSet) Len() int {
	return len(s.modes)
}

// Sorted returns the modes in presentation order.
func (s *ModeSet) Sorted() []Mode {
	out := slices.Clone(s.modes)
	slices.SortFunc(out, func(a, b Mode) int {
		ia, ib := slices.Index(knownModes, a), slices.Index(knownModes, b)
		switch {
		case ia >= 0 && ib >= 0:
			return ia - ib
		case ia >= 0:
			return -1
		case ib >= 0:
			return 1
		}
		if a < b {
			return -1
		}
		if a > b {
			return 1
		}
		return 0
	})
	return out
}
