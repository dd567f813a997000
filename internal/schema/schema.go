// Package schema holds the gohcl decode targets for field catalog files.
package schema

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Field represents a `field` block. Expressions are kept unevaluated; they
// are compiled once the whole catalog is known.
type Field struct {
	ID        string         `hcl:"id,label"`
	Section   int            `hcl:"section,optional"`
	Label     string         `hcl:"label,optional"`
	Units     string         `hcl:"units,optional"`
	Initial   cty.Value      `hcl:"initial"`
	Min       *float64       `hcl:"min,optional"`
	Max       *float64       `hcl:"max,optional"`
	Step      float64        `hcl:"step,optional"`
	LargeStep float64        `hcl:"large_step,optional"`
	ReadOnly  bool           `hcl:"read_only,optional"`
	Derive    hcl.Expression `hcl:"derive,optional"`
	Formatter string         `hcl:"formatter,optional"`
	Format    hcl.Expression `hcl:"format,optional"`
	DeclRange hcl.Range      `hcl:",def_range"`
}

// File represents the top-level structure of one catalog file. Sections is
// kept as an attribute so the loader can tell which file declared it.
type File struct {
	Sections *hcl.Attribute `hcl:"sections,optional"`
	Fields   []*Field       `hcl:"field,block"`
}
