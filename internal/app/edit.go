package app

import (
	"fmt"
	"strings"

	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/value"
)

// Edit is one command-line edit: an `id=value` assignment, or a nudge
// written `id+`, `id++`, `id-` or `id--`.
type Edit struct {
	ID    string
	Value value.Value

	// Steps is non-zero for a nudge: the number of increments to add.
	Steps int
	// Large nudges by the field's large step.
	Large bool
}

var nudgeSuffixes = []struct {
	suffix string
	steps  int
	large  bool
}{
	{"++", 1, true},
	{"--", -1, true},
	{"+", 1, false},
	{"-", -1, false},
}

// ParseEdit reads an edit argument. An assigned value becomes a number when
// it reads as one and stays a string otherwise.
func ParseEdit(arg string) (Edit, error) {
	id, raw, ok := strings.Cut(arg, "=")
	id = strings.TrimSpace(id)
	if ok && id != "" {
		return Edit{ID: id, Value: value.Parse(raw)}, nil
	}
	if !ok {
		for _, n := range nudgeSuffixes {
			if base, found := strings.CutSuffix(id, n.suffix); found && base != "" && !strings.ContainsAny(base, "+-") {
				return Edit{ID: base, Steps: n.steps, Large: n.large}, nil
			}
		}
	}
	return Edit{}, fmt.Errorf("edit %q must look like id=value, id+, id++, id- or id--", arg)
}

// IsNudge reports whether the edit moves the field by steps.
func (e Edit) IsNudge() bool { return e.Steps != 0 }

// Raw returns the value to store for the edit, given the field and its
// current value.
func (e Edit) Raw(def registry.Definition, current value.Value) value.Value {
	if e.IsNudge() {
		return def.Nudge(current, e.Steps, e.Large)
	}
	return e.Value
}

func (e Edit) String() string {
	if e.IsNudge() {
		sign := "+"
		if e.Steps < 0 {
			sign = "-"
		}
		if e.Large {
			sign += sign
		}
		return e.ID + sign
	}
	return e.ID + "=" + e.Value.String()
}
