// Package snapshot holds the complete set of field values at one point in
// time. A Snapshot is never modified after it is built; changes happen on a
// Draft, which is frozen into a new Snapshot once it is consistent.
package snapshot

import (
	"bytes"
	"encoding/json"

	"github.com/vk/trackertools/internal/value"
)

// View is the read-only access derivations get to the values of a pass.
type View interface {
	// Get returns the value of a field and whether the field exists.
	Get(id string) (value.Value, bool)
	// Value returns the value of a field, or the invalid Value if absent.
	Value(id string) value.Value
	// Float returns the numeric reading of a field (NaN if absent).
	Float(id string) float64
	// Int returns the numeric reading of a field truncated toward zero.
	Int(id string) float64
	// IDs returns the field ids in declaration order.
	IDs() []string
}

// Snapshot is an immutable mapping from field id to value, iterated in the
// order the fields were declared.
type Snapshot struct {
	order  []string
	values map[string]value.Value
}

// New builds a Snapshot from an ordered id list and a value map. Ids missing
// from values are stored as the invalid Value. Both inputs are copied.
func New(order []string, values map[string]value.Value) Snapshot {
	ids := make([]string, len(order))
	copy(ids, order)
	m := make(map[string]value.Value, len(order))
	for _, id := range ids {
		m[id] = values[id]
	}
	return Snapshot{order: ids, values: m}
}

// Get implements View.
func (s Snapshot) Get(id string) (value.Value, bool) {
	v, ok := s.values[id]
	return v, ok
}

// Value implements View.
func (s Snapshot) Value(id string) value.Value {
	return s.values[id]
}

// Float implements View.
func (s Snapshot) Float(id string) float64 {
	return s.values[id].Float()
}

// Int implements View.
func (s Snapshot) Int(id string) float64 {
	return s.values[id].Int()
}

// IDs implements View. The returned slice is a copy.
func (s Snapshot) IDs() []string {
	ids := make([]string, len(s.order))
	copy(ids, s.order)
	return ids
}

// Len returns the number of fields in the snapshot.
func (s Snapshot) Len() int { return len(s.order) }

// Map returns a copy of the values keyed by field id.
func (s Snapshot) Map() map[string]value.Value {
	m := make(map[string]value.Value, len(s.values))
	for k, v := range s.values {
		m[k] = v
	}
	return m
}

// Range calls fn for every field in declaration order until fn returns false.
func (s Snapshot) Range(fn func(id string, v value.Value) bool) {
	for _, id := range s.order {
		if !fn(id, s.values[id]) {
			return
		}
	}
}

// Equal reports whether both snapshots hold the same fields, in the same
// order, with equal values.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.order) != len(o.order) {
		return false
	}
	for i, id := range s.order {
		if o.order[i] != id {
			return false
		}
		if !s.values[id].Equal(o.values[id]) {
			return false
		}
	}
	return true
}

// Diff returns, in declaration order, the ids whose values differ between s
// and next. Fields present in only one of the snapshots are included.
func (s Snapshot) Diff(next Snapshot) []string {
	var changed []string
	seen := make(map[string]struct{}, len(next.order))
	for _, id := range next.order {
		seen[id] = struct{}{}
		prev, ok := s.values[id]
		if !ok || !prev.Equal(next.values[id]) {
			changed = append(changed, id)
		}
	}
	for _, id := range s.order {
		if _, ok := seen[id]; !ok {
			changed = append(changed, id)
		}
	}
	return changed
}

// Draft returns a mutable working copy of the snapshot.
func (s Snapshot) Draft() *Draft {
	return &Draft{order: s.order, values: s.Map()}
}

// MarshalJSON encodes the snapshot as a JSON object whose keys keep the
// declaration order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range s.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		val, err := s.values[id].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Draft is the working copy used during a recomputation pass. Writes are
// visible to subsequent reads immediately.
type Draft struct {
	order  []string
	values map[string]value.Value
}

// Set stores v for id. Ids outside the snapshot are ignored and reported
// with false.
func (d *Draft) Set(id string, v value.Value) bool {
	if _, ok := d.values[id]; !ok {
		return false
	}
	d.values[id] = v
	return true
}

// Get implements View.
func (d *Draft) Get(id string) (value.Value, bool) {
	v, ok := d.values[id]
	return v, ok
}

// Value implements View.
func (d *Draft) Value(id string) value.Value {
	return d.values[id]
}

// Float implements View.
func (d *Draft) Float(id string) float64 {
	return d.values[id].Float()
}

// Int implements View.
func (d *Draft) Int(id string) float64 {
	return d.values[id].Int()
}

// IDs implements View.
func (d *Draft) IDs() []string {
	ids := make([]string, len(d.order))
	copy(ids, d.order)
	return ids
}

// Freeze returns an immutable Snapshot of the draft's current values. The
// draft stays usable; later writes do not affect the returned Snapshot.
func (d *Draft) Freeze() Snapshot {
	return New(d.order, d.values)
}
