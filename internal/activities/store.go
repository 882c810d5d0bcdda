// Package activities holds the in-memory activity registry.
//
// A Store is seeded once and never gains or loses activities; only rosters
// change. Each activity has its own mutex held across the membership check
// and the mutation, so concurrent requests cannot lose updates or admit a
// duplicate.
package activities

import (
	"fmt"
	"sync"

	apperrors "school-activities/internal/common/errors"
)

type Option func(*Store)

// WithCapacityEnforcement rejects signups once a roster reaches max_participants.
func WithCapacityEnforcement(enabled bool) Option {
	return func(s *Store) {
		s.enforceCapacity = enabled
	}
}

// WithRosterObserver registers fn to run after every roster change with the
// new roster size. fn runs under the activity's lock, so calls for one
// activity arrive in mutation order; it must not call back into the Store.
func WithRosterObserver(fn func(activity string, participants int)) Option {
	return func(s *Store) {
		s.observe = fn
	}
}

type entry struct {
	mu       sync.Mutex
	activity Activity
}

type Store struct {
	// byName and order are fixed after NewStore.
	byName          map[string]*entry
	order           []string
	enforceCapacity bool
	observe         func(activity string, participants int)
}

// NewStore seeds a store. Names must be unique and seed rosters free of duplicates.
func NewStore(seed []Activity, opts ...Option) (*Store, error) {
	s := &Store{
		byName: make(map[string]*entry, len(seed)),
		order:  make([]string, 0, len(seed)),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, a := range seed {
		if a.Name == "" {
			return nil, fmt.Errorf("activity with empty name in seed")
		}
		if _, dup := s.byName[a.Name]; dup {
			return nil, fmt.Errorf("duplicate activity %q in seed", a.Name)
		}
		if a.MaxParticipants < 0 {
			return nil, fmt.Errorf("activity %q has negative max_participants", a.Name)
		}
		seen := make(map[string]bool, len(a.Participants))
		for _, email := range a.Participants {
			if seen[email] {
				return nil, fmt.Errorf("activity %q lists %s twice", a.Name, email)
			}
			seen[email] = true
		}

		s.byName[a.Name] = &entry{activity: a.clone()}
		s.order = append(s.order, a.Name)
	}
	return s, nil
}

// CapacityEnforced reports whether signups are capped at max_participants.
func (s *Store) CapacityEnforced() bool {
	return s.enforceCapacity
}

// Names returns activity names in seed order.
func (s *Store) Names() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// List returns every activity in seed order. Rosters are copies.
func (s *Store) List() []Activity {
	out := make([]Activity, 0, len(s.order))
	for _, name := range s.order {
		e := s.byName[name]
		e.mu.Lock()
		out = append(out, e.activity.clone())
		e.mu.Unlock()
	}
	return out
}

// Get returns a snapshot of one activity.
func (s *Store) Get(name string) (Activity, error) {
	e, ok := s.byName[name]
	if !ok {
		return Activity{}, apperrors.NewActivityNotFoundError(name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activity.clone(), nil
}

// Signup appends email to the activity's roster and returns the activity as
// it stood right after the change.
func (s *Store) Signup(name, email string) (Activity, error) {
	e, ok := s.byName[name]
	if !ok {
		return Activity{}, apperrors.NewActivityNotFoundError(name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if indexOf(e.activity.Participants, email) >= 0 {
		return Activity{}, apperrors.NewAlreadyRegisteredError(name, email)
	}
	if s.enforceCapacity && len(e.activity.Participants) >= e.activity.MaxParticipants {
		return Activity{}, apperrors.NewActivityFullError(name, e.activity.MaxParticipants)
	}

	e.activity.Participants = append(e.activity.Participants, email)
	return s.changed(e), nil
}

// Unregister removes email from the activity's roster, keeping the order of
// the rest, and returns the activity as it stood right after the change.
func (s *Store) Unregister(name, email string) (Activity, error) {
	e, ok := s.byName[name]
	if !ok {
		return Activity{}, apperrors.NewActivityNotFoundError(name)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	i := indexOf(e.activity.Participants, email)
	if i < 0 {
		return Activity{}, apperrors.NewNotRegisteredError(name, email)
	}

	p := e.activity.Participants
	e.activity.Participants = append(p[:i:i], p[i+1:]...)
	return s.changed(e), nil
}

// changed must be called with e.mu held.
func (s *Store) changed(e *entry) Activity {
	if s.observe != nil {
		s.observe(e.activity.Name, len(e.activity.Participants))
	}
	return e.activity.clone()
}

func indexOf(list []string, v string) int {
	for i, s := range list {
		if s == v {
			return i
		}
	}
	return -1
}
