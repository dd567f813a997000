// Package store holds the current field values of a calculator session and
// provides the only way to change them.
//
// Every edit goes through SetField, which normalizes the raw value, then runs
// a single recomputation pass over the registry in declaration order and
// commits the result as a new snapshot. The pass is not a fixed point: a
// derived field only sees updates of fields declared before it, so a field
// depending on a later one lags by one edit.
//
// A Store has no internal locking. Hosts that receive edits concurrently
// must serialize their calls.
package store

import (
	"fmt"
	"math"

	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/value"
)

// Subscriber is notified after every successful commit.
type Subscriber func(prev, next snapshot.Snapshot)

// Option configures a Store at construction.
type Option func(*options)

type options struct {
	settle      bool
	subscribers []Subscriber
}

// WithSettle runs one recomputation pass over the initial values before the
// store is handed out, so derived fields start consistent with their inputs.
func WithSettle() Option {
	return func(o *options) { o.settle = true }
}

// WithSubscriber registers a subscriber at construction.
func WithSubscriber(fn Subscriber) Option {
	return func(o *options) { o.subscribers = append(o.subscribers, fn) }
}

// Store owns the current snapshot of one session.
type Store struct {
	reg         *registry.Registry
	entries     []registry.Entry
	current     snapshot.Snapshot
	subscribers []Subscriber
}

// New returns a Store seeded with the registry's initial values.
func New(reg *registry.Registry, opts ...Option) (*Store, error) {
	if reg == nil {
		return nil, fmt.Errorf("store: registry must not be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		reg:         reg,
		entries:     reg.Entries(),
		current:     reg.InitialSnapshot(),
		subscribers: o.subscribers,
	}

	if o.settle {
		next, err := s.recompute(s.current.Draft())
		if err != nil {
			return nil, err
		}
		s.current = next
	}
	return s, nil
}

// Registry returns the catalog the store was built from.
func (s *Store) Registry() *registry.Registry {
	return s.reg
}

// Snapshot returns the current snapshot.
func (s *Store) Snapshot() snapshot.Snapshot {
	return s.current
}

// Subscribe adds a subscriber. Subscribers run synchronously, in the order
// they were added, after each successful SetField.
func (s *Store) Subscribe(fn Subscriber) {
	s.subscribers = append(s.subscribers, fn)
}

// SetField sets id to raw, recomputes every derived field once in
// declaration order and commits the result. Bounded fields clamp raw into
// range first, reading unparseable text as their minimum. On any error the
// current snapshot is left as it was.
func (s *Store) SetField(id string, raw value.Value) (snapshot.Snapshot, error) {
	def, err := s.reg.Get(id)
	if err != nil {
		return s.current, err
	}
	if !raw.IsValid() {
		return s.current, fmt.Errorf("field %q: value must be a number or a string", id)
	}

	draft := s.current.Draft()
	draft.Set(id, def.Normalize(raw))

	next, err := s.recompute(draft)
	if err != nil {
		return s.current, err
	}

	prev := s.current
	s.current = next
	for _, fn := range s.subscribers {
		fn(prev, next)
	}
	return next, nil
}

// recompute runs the single derivation pass over draft and freezes it.
func (s *Store) recompute(draft *snapshot.Draft) (snapshot.Snapshot, error) {
	for _, e := range s.entries {
		if e.Definition.Derive == nil {
			continue
		}
		v, err := derive(e.Definition, draft)
		if err != nil {
			return snapshot.Snapshot{}, &DerivationError{
				Field:    e.ID,
				Previous: s.current,
				Working:  draft.Freeze(),
				Err:      err,
			}
		}
		draft.Set(e.ID, v)
	}
	return draft.Freeze(), nil
}

// derive calls the field's derivation, turning panics, invalid results and
// NaN into errors.
func derive(def registry.Definition, draft *snapshot.Draft) (v value.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("derivation panicked: %v", r)
		}
	}()

	v, err = def.Derive(draft.Value(def.ID), draft)
	if err != nil {
		return value.Value{}, err
	}
	if !v.IsValid() {
		return value.Value{}, fmt.Errorf("derivation returned no value")
	}
	if v.IsNumber() && math.IsNaN(v.Float()) {
		return value.Value{}, fmt.Errorf("derivation returned NaN")
	}
	return v, nil
}
