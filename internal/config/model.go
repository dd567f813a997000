package config

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/trackertools/internal/value"
)

// Model is the format-agnostic representation of a field catalog, merged
// from every file that was loaded.
type Model struct {
	Sections []string
	// Fields in declaration order.
	Fields []*FieldSpec
}

// FieldSpec is one declared field.
type FieldSpec struct {
	ID      string
	Section int
	Label   string
	Units   string
	Initial value.Value

	// Min and Max are both set or both nil.
	Min *float64
	Max *float64

	Step      float64
	LargeStep float64
	ReadOnly  bool

	// Derive is nil for plain input fields.
	Derive hcl.Expression
	// Formatter names a built-in formatter. At most one of Formatter and
	// Format is set.
	Formatter string
	Format    hcl.Expression

	// DeclRange points at the declaring block, for diagnostics.
	DeclRange hcl.Range
}

// Field returns the spec with the given id, or nil.
func (m *Model) Field(id string) *FieldSpec {
	for _, f := range m.Fields {
		if f.ID == id {
			return f
		}
	}
	return nil
}
