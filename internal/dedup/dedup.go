// Package dedup suppresses repeated reports of the same opportunity.
package dedup

import "github.com/GriffinCanCode/screenwatch/internal/arbitrage"

// Key identifies an opportunity. A changed price forms a new key.
type Key struct {
	Item string
	Buy  int
	Sell int
}

// KeyOf returns the dedup key of o.
func KeyOf(o arbitrage.Opportunity) Key {
	return Key{Item: o.Item, Buy: o.Buy, Sell: o.Sell}
}

// Set remembers every key emitted during a session. Keys never expire, so
// memory grows with the number of distinct prices seen; sessions are
// expected to be bounded. Set is owned by one session flow and is not safe
// for concurrent use.
type Set struct {
	seen map[Key]struct{}
}

// New creates an empty set.
func New() *Set {
	return &Set{seen: make(map[Key]struct{})}
}

// ShouldEmit reports whether o is new and, if so, records its key.
func (s *Set) ShouldEmit(o arbitrage.Opportunity) bool {
	k := KeyOf(o)
	if _, ok := s.seen[k]; ok {
		return false
	}
	s.seen[k] = struct{}{}
	return true
}

// Filter returns the opportunities in ops that have not been emitted before.
func (s *Set) Filter(ops []arbitrage.Opportunity) []arbitrage.Opportunity {
	var out []arbitrage.Opportunity
	for _, o := range ops {
		if s.ShouldEmit(o) {
			out = append(out, o)
		}
	}
	return out
}

// Len returns the number of remembered keys.
func (s *Set) Len() int { return len(s.seen) }
