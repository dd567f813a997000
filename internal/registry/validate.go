package registry

import (
	"fmt"
	"math"
	"strings"
)

func (b *Builder) problemf(format string, args ...any) {
	b.problems = append(b.problems, fmt.Sprintf(format, args...))
}

// validate checks every collected definition and returns a single error
// listing all problems found.
func (b *Builder) validate() error {
	errs := append([]string{}, b.problems...)
	seen := make(map[string]struct{}, len(b.defs))

	for i, d := range b.defs {
		name := d.ID
		if name == "" {
			errs = append(errs, fmt.Sprintf("field #%d: id must not be empty", i))
			name = fmt.Sprintf("#%d", i)
		} else if _, dup := seen[d.ID]; dup {
			errs = append(errs, fmt.Sprintf("field '%s': declared more than once", d.ID))
		}
		seen[d.ID] = struct{}{}

		if !d.Initial.IsValid() {
			errs = append(errs, fmt.Sprintf("field '%s': initial value must be a number or a string", name))
		}

		if d.Section < 0 {
			errs = append(errs, fmt.Sprintf("field '%s': section %d must not be negative", name, d.Section))
		} else if len(b.sections) > 0 && d.Section >= len(b.sections) {
			errs = append(errs, fmt.Sprintf("field '%s': section %d is not declared (%d sections)", name, d.Section, len(b.sections)))
		}

		if d.Bounds != nil {
			switch {
			case math.IsNaN(d.Bounds.Min) || math.IsNaN(d.Bounds.Max):
				errs = append(errs, fmt.Sprintf("field '%s': bounds must not be NaN", name))
			case d.Bounds.Min > d.Bounds.Max:
				errs = append(errs, fmt.Sprintf("field '%s': min %v is greater than max %v", name, d.Bounds.Min, d.Bounds.Max))
			}
		}

		if d.Step < 0 || d.LargeStep < 0 {
			errs = append(errs, fmt.Sprintf("field '%s': steps must not be negative", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
