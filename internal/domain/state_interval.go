package domain

import "fmt"

// StateInterval is the value of one attribute over the closed range
// [start, end]. Intervals are immutable once built.
type StateInterval struct {
	start int64
	end   int64
	quark int
	value StateValue
}

func NewStateInterval(start, end int64, quark int, value StateValue) StateInterval {
	return StateInterval{
		start: start,
		end:   end,
		quark: quark,
		value: value,
	}
}

func (i StateInterval) Start() int64 {
	return i.start
}

func (i StateInterval) End() int64 {
	return i.end
}

func (i StateInterval) Quark() int {
	return i.quark
}

func (i StateInterval) Value() StateValue {
	return i.value
}

func (i StateInterval) Intersects(t int64) bool {
	return i.start <= t && t <= i.end
}

func (i StateInterval) String() string {
	return fmt.Sprintf("[%d, %d], quark: %d, value: %s", i.start, i.end, i.quark, i.value)
}

// QuarkSet is the set of attributes targeted by a partial query.
type QuarkSet map[int]struct{}

func NewQuarkSet(quarks ...int) QuarkSet {
	s := make(QuarkSet, len(quarks))
	for _, q := range quarks {
		s[q] = struct{}{}
	}
	return s
}

func (s QuarkSet) Contains(quark int) bool {
	_, ok := s[quark]
	return ok
}
