package registry

import (
	"math"

	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/value"
)

// DefaultStep is the increment used when a definition leaves Step unset.
const DefaultStep = 1.0

// DeriveFunc recomputes a field from its current value and the values of
// the pass so far. It must be pure.
type DeriveFunc func(current value.Value, fields snapshot.View) (value.Value, error)

// FormatFunc renders a stored value for display. It never feeds back into
// stored state.
type FormatFunc func(v value.Value) (string, error)

// Bounds is an inclusive numeric range.
type Bounds struct {
	Min float64
	Max float64
}

// Effective reports whether the range actually constrains values. A range
// whose ends are equal is treated as no bound at all.
func (b *Bounds) Effective() bool {
	return b != nil && b.Min != b.Max
}

// Clamp restricts f to the range. It returns f unchanged when the range is
// not effective. NaN clamps to Min.
func (b *Bounds) Clamp(f float64) float64 {
	if !b.Effective() {
		return f
	}
	if math.IsNaN(f) {
		return b.Min
	}
	return math.Max(b.Min, math.Min(b.Max, f))
}

// Definition describes one field of the catalog.
type Definition struct {
	ID      string
	Section int
	Label   string
	Units   string

	Initial value.Value
	Bounds  *Bounds

	// Step and LargeStep are UI increments. Zero means unset.
	Step      float64
	LargeStep float64

	// ReadOnly fields are only ever written by their derivation.
	ReadOnly bool

	Derive DeriveFunc
	Format FormatFunc
}

// EffectiveStep returns Step, or DefaultStep when unset.
func (d Definition) EffectiveStep() float64 {
	if d.Step == 0 {
		return DefaultStep
	}
	return d.Step
}

// EffectiveLargeStep returns LargeStep, or ten times the effective step
// when unset.
func (d Definition) EffectiveLargeStep() float64 {
	if d.LargeStep == 0 {
		return 10 * d.EffectiveStep()
	}
	return d.LargeStep
}

// Normalize applies the field's bounds to a raw edit. Fields without
// effective bounds store the raw value untouched. Bounded fields read the
// raw value with value.ToNumber, so empty text is 0, and clamp it. The
// result always lies within the bounds.
func (d Definition) Normalize(raw value.Value) value.Value {
	if !d.Bounds.Effective() {
		return raw
	}
	return value.Number(d.Bounds.Clamp(raw.ToNumber()))
}

// Nudge returns the value of an edit that moves current by steps increments
// of the field's step, or of its large step when large is set. The result
// still goes through Normalize when applied.
func (d Definition) Nudge(current value.Value, steps int, large bool) value.Value {
	inc := d.EffectiveStep()
	if large {
		inc = d.EffectiveLargeStep()
	}
	return value.Number(current.ToNumber() + float64(steps)*inc)
}

// FormatValue renders v with the field's formatter, falling back to the
// value's plain text when no formatter is declared.
func (d Definition) FormatValue(v value.Value) (string, error) {
	if d.Format == nil {
		return v.Text(), nil
	}
	return d.Format(v)
}

func (d Definition) clone() Definition {
	if d.Bounds != nil {
		b := *d.Bounds
		d.Bounds = &b
	}
	return d
}
