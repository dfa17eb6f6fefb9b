package interval_set

import (
	"HistoryDB/internal/domain"
	"math/rand"
	"time"
)

// SkipList is an ordered set of intervals keyed by (end, quark). The quark
// breaks ties between attributes whose intervals end at the same time.
type SkipList struct {
	maxLevel int
	p        float64
	level    int
	rand     *rand.Rand
	size     int
	head     *Element
}

type Element struct {
	domain.StateInterval
	next []*Element
}

// Next returns the following element in (end, quark) order, or nil.
func (e *Element) Next() *Element {
	return e.next[0]
}

func NewSkipList(maxLevel int, p float64) *SkipList {
	return &SkipList{
		maxLevel: maxLevel,
		p:        p,
		level:    1,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())),
		size:     0,
		head: &Element{
			next: make([]*Element, maxLevel),
		},
	}
}

// Size is the number of intervals in the set.
func (s *SkipList) Size() int {
	return s.size
}

func compareKey(i domain.StateInterval, end int64, quark int) int {
	switch {
	case i.End() < end:
		return -1
	case i.End() > end:
		return 1
	case i.Quark() < quark:
		return -1
	case i.Quark() > quark:
		return 1
	default:
		return 0
	}
}

// Set adds the interval. It returns false, leaving the set untouched, if an
// interval with the same (end, quark) key is already present.
func (s *SkipList) Set(interval domain.StateInterval) bool {
	curr := s.head
	update := make([]*Element, s.maxLevel)

	for i := s.maxLevel - 1; i >= 0; i-- {
		for curr.next[i] != nil && compareKey(curr.next[i].StateInterval, interval.End(), interval.Quark()) < 0 {
			curr = curr.next[i]
		}
		update[i] = curr
	}
	if curr.next[0] != nil && compareKey(curr.next[0].StateInterval, interval.End(), interval.Quark()) == 0 {
		return false
	}

	level := s.randomLevel()
	if level > s.level {
		for i := s.level; i < level; i++ {
			update[i] = s.head
		}
		s.level = level
	}

	e := &Element{
		interval,
		make([]*Element, level),
	}
	for i := range level {
		e.next[i] = update[i].next[i]
		update[i].next[i] = e
	}
	s.size++
	return true
}

// Lower returns the greatest element strictly less than (end, quark), or nil
// if there is none.
func (s *SkipList) Lower(end int64, quark int) *Element {
	curr := s.head
	for i := s.maxLevel - 1; i >= 0; i-- {
		for curr.next[i] != nil && compareKey(curr.next[i].StateInterval, end, quark) < 0 {
			curr = curr.next[i]
		}
	}
	if curr == s.head {
		return nil
	}
	return curr
}

// First returns the smallest element, or nil on an empty list.
func (s *SkipList) First() *Element {
	return s.head.next[0]
}

func (s *SkipList) All() []domain.StateInterval {
	var all []domain.StateInterval

	for curr := s.head.next[0]; curr != nil; curr = curr.next[0] {
		all = append(all, curr.StateInterval)
	}

	return all
}

func (s *SkipList) randomLevel() int {
	level := 1
	for s.rand.Float64() < s.p && level < s.maxLevel {
		level++
	}
	return level
}
