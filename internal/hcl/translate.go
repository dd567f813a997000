package hcl

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/trackertools/internal/config"
	"github.com/vk/trackertools/internal/schema"
	"github.com/vk/trackertools/internal/value"
)

// translateField converts a decoded `field` block into the agnostic model.
func (l *Loader) translateField(f *schema.Field) (*config.FieldSpec, error) {
	fail := func(format string, args ...any) error {
		return fmt.Errorf("%s: field %q: %s", f.DeclRange, f.ID, fmt.Sprintf(format, args...))
	}

	initial, err := value.FromCty(f.Initial)
	if err != nil {
		return nil, fail("initial: %v", err)
	}
	if f.Section < 0 {
		return nil, fail("section %d must not be negative", f.Section)
	}
	if (f.Min == nil) != (f.Max == nil) {
		return nil, fail("min and max must be set together")
	}

	spec := &config.FieldSpec{
		ID:        f.ID,
		Section:   f.Section,
		Label:     f.Label,
		Units:     f.Units,
		Initial:   initial,
		Min:       f.Min,
		Max:       f.Max,
		Step:      f.Step,
		LargeStep: f.LargeStep,
		ReadOnly:  f.ReadOnly,
		Formatter: f.Formatter,
		DeclRange: f.DeclRange,
	}
	if isSet(f.Derive) {
		spec.Derive = f.Derive
	}
	if isSet(f.Format) {
		spec.Format = f.Format
	}
	if spec.Format != nil && spec.Formatter != "" {
		return nil, fail("formatter and format are mutually exclusive")
	}
	return spec, nil
}

// isSet reports whether an optional expression attribute was written.
// gohcl fills absent ones with a static null.
func isSet(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	if len(expr.Variables()) > 0 {
		return true
	}
	v, diags := expr.Value(nil)
	return diags.HasErrors() || !v.IsNull()
}
