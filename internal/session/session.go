package session

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hemline/stylist/internal/attr"
	"github.com/hemline/stylist/internal/catalog"
)

// State is where a conversation stands in the collect-then-filter cycle.
type State string

const (
	StateIdle       State = "idle"
	StateCollecting State = "collecting"
	StateReady      State = "ready"
	StateFiltering  State = "filtering"
)

// Exchange is one (user text, system reply) pair of the dialogue history.
type Exchange struct {
	User   string    `json:"user"`
	System string    `json:"system"`
	At     time.Time `json:"at"`
}

// Session owns the accumulated attribute set and dialogue history for one
// conversation. Each session is exclusively owned: its mutex serializes
// turns, so one turn is fully processed before the next is accepted, and
// no session ever touches another's state.
type Session struct {
	ID string

	mu         sync.Mutex
	state      State
	attributes attr.Set
	history    []Exchange
	pending    []attr.Name
	lastMatch  *catalog.MatchResult

	// Written on every turn but read by the eviction janitor without the
	// turn lock, so it cannot live under mu.
	lastActive atomic.Int64
}

func New(id string) *Session {
	s := &Session{
		ID:         id,
		state:      StateIdle,
		attributes: attr.Set{},
	}
	s.Touch()
	return s
}

// Lock serializes one turn. Callers hold it across the whole
// extract-resolve-infer-filter sequence for this session.
func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// The accessors below assume the turn lock is held.

func (s *Session) State() State { return s.state }

// Attributes returns a copy; session state is mutated only through Merge
// and Reset.
func (s *Session) Attributes() attr.Set { return s.attributes.Clone() }

func (s *Session) History() []Exchange {
	return append([]Exchange(nil), s.history...)
}

func (s *Session) Pending() []attr.Name {
	return append([]attr.Name(nil), s.pending...)
}

func (s *Session) LastMatch() *catalog.MatchResult { return s.lastMatch }

// Touch and IdleSince are safe without the turn lock.

func (s *Session) Touch() { s.lastActive.Store(time.Now().UnixNano()) }

func (s *Session) IdleSince() time.Time { return time.Unix(0, s.lastActive.Load()) }

// Merge folds a turn's delta into the session set under the global
// precedence rule and recomputes the pending required attributes for the
// current best-guess category. The required set is category-dependent, so
// it is recomputed after every merge, not just once.
func (s *Session) Merge(delta attr.Set, priority []attr.Name) {
	s.attributes.Merge(delta)
	s.recomputePending(priority)
	if len(s.pending) > 0 {
		s.state = StateCollecting
	} else {
		s.state = StateReady
	}
}

func (s *Session) recomputePending(priority []attr.Name) {
	required := attr.RequiredFor(s.attributes.CategoryName())
	var missing []attr.Name
	for _, name := range required {
		if !s.attributes.Has(name) {
			missing = append(missing, name)
		}
	}
	s.pending = orderByPriority(missing, priority)
}

// NextQuestion names the single most informative missing attribute. The
// conversation asks about exactly one attribute per turn.
func (s *Session) NextQuestion() (attr.Name, bool) {
	if len(s.pending) == 0 {
		return "", false
	}
	return s.pending[0], true
}

// BeginFiltering marks the catalog query in flight.
func (s *Session) BeginFiltering() {
	s.state = StateFiltering
}

// FinishFiltering records the result. Zero matches sends the session back
// to collecting so the user can adjust; otherwise it is ready.
func (s *Session) FinishFiltering(m catalog.MatchResult) {
	s.lastMatch = &m
	if m.Empty() {
		s.state = StateCollecting
	} else {
		s.state = StateReady
	}
}

// Record appends one exchange to the dialogue history.
func (s *Session) Record(user, system string) {
	s.history = append(s.history, Exchange{User: user, System: system, At: time.Now()})
	s.Touch()
}

// Reset clears the attribute set and pending list but keeps the dialogue
// history: reset is a transition to idle, not session destruction.
func (s *Session) Reset() {
	s.attributes = attr.Set{}
	s.pending = nil
	s.lastMatch = nil
	s.state = StateIdle
}

// orderByPriority sorts names by position in priority; names missing from
// the priority list keep their relative order after the listed ones.
func orderByPriority(names []attr.Name, priority []attr.Name) []attr.Name {
	pos := make(map[attr.Name]int, len(priority))
	for i, n := range priority {
		pos[n] = i
	}
	ordered := append([]attr.Name(nil), names...)
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0; j-- {
			a, aok := pos[ordered[j-1]]
			b, bok := pos[ordered[j]]
			if !aok {
				a = len(priority)
			}
			if !bok {
				b = len(priority)
			}
			if b < a {
				ordered[j-1], ordered[j] = ordered[j], ordered[j-1]
			} else {
				break
			}
		}
	}
	return ordered
}
