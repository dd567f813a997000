package hcl

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/trackertools/internal/config"
	"github.com/vk/trackertools/internal/ctxlog"
	"github.com/vk/trackertools/internal/format"
	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
)

// Expression variables.
const (
	VarValue  = "value"
	VarFields = "fields"
)

// Converter is the HCL-specific implementation of the config.Converter interface.
type Converter struct {
	functions map[string]function.Function
}

// NewConverter creates a new HCL converter.
func NewConverter() *Converter {
	return &Converter{functions: Functions()}
}

// Module compiles the model into registry definitions. Expressions are
// checked for references to unknown fields before anything is evaluated.
// A derivation reading a later-declared field only sees that field's value
// from the previous edit, which is logged as a warning.
func (c *Converter) Module(ctx context.Context, m *config.Model) (registry.Module, error) {
	logger := ctxlog.FromContext(ctx)

	order := make(map[string]int, len(m.Fields))
	for i, f := range m.Fields {
		order[f.ID] = i
	}

	defs := make([]registry.Definition, 0, len(m.Fields))
	for i, f := range m.Fields {
		def, refs, err := c.definition(f, order)
		if err != nil {
			return nil, fmt.Errorf("%s: field %q: %w", f.DeclRange, f.ID, err)
		}
		if later := forwardReferences(refs, order, i); len(later) > 0 {
			logger.Warn("Field derives from later-declared fields and lags one edit behind them.", "field", f.ID, "reads", later)
		}
		logger.Debug("Compiled field.", "field", f.ID, "derived", def.Derive != nil, "reads", refs)
		defs = append(defs, def)
	}

	sections := append([]string{}, m.Sections...)
	return registry.ModuleFunc(func(b *registry.Builder) {
		if len(sections) > 0 {
			b.Sections(sections...)
		}
		b.Add(defs...)
	}), nil
}

// definition also returns the fields the derivation reads.
func (c *Converter) definition(f *config.FieldSpec, ids map[string]int) (registry.Definition, []string, error) {
	def := registry.Definition{
		ID:        f.ID,
		Section:   f.Section,
		Label:     f.Label,
		Units:     f.Units,
		Initial:   f.Initial,
		Step:      f.Step,
		LargeStep: f.LargeStep,
		ReadOnly:  f.ReadOnly,
	}
	if f.Min != nil && f.Max != nil {
		def.Bounds = &registry.Bounds{Min: *f.Min, Max: *f.Max}
	}

	var refs []string
	if f.Derive != nil {
		var err error
		if refs, err = checkReferences(f.Derive, ids, true); err != nil {
			return def, nil, fmt.Errorf("derive: %w", err)
		}
		def.Derive = c.derive(f.Derive)
	}

	switch {
	case f.Formatter != "":
		fn, err := format.Lookup(f.Formatter)
		if err != nil {
			return def, nil, err
		}
		def.Format = fn
	case f.Format != nil:
		if _, err := checkReferences(f.Format, ids, false); err != nil {
			return def, nil, fmt.Errorf("format: %w", err)
		}
		def.Format = c.format(f.Format)
	}
	return def, refs, nil
}

// forwardReferences returns the refs declared after position pos, sorted.
func forwardReferences(refs []string, order map[string]int, pos int) []string {
	var later []string
	for _, id := range refs {
		if order[id] > pos {
			later = append(later, id)
		}
	}
	return later
}

// derive evaluates expr with `value` bound to the field's current value
// and `fields` to every value of the pass.
func (c *Converter) derive(expr hcl.Expression) registry.DeriveFunc {
	return func(current value.Value, fields snapshot.View) (value.Value, error) {
		out, diags := expr.Value(c.evalContext(current, fields))
		if diags.HasErrors() {
			return value.Value{}, diags
		}
		v, err := value.FromCty(out)
		if err != nil {
			return value.Value{}, fmt.Errorf("derive result: %w", err)
		}
		return v, nil
	}
}

func (c *Converter) format(expr hcl.Expression) registry.FormatFunc {
	return func(v value.Value) (string, error) {
		out, diags := expr.Value(c.evalContext(v, nil))
		if diags.HasErrors() {
			return "", diags
		}
		out, err := convert.Convert(out, cty.String)
		if err != nil {
			return "", fmt.Errorf("format result: %w", err)
		}
		if out.IsNull() || !out.IsKnown() {
			return "", fmt.Errorf("format result is null")
		}
		return out.AsString(), nil
	}
}

func (c *Converter) evalContext(current value.Value, fields snapshot.View) *hcl.EvalContext {
	attrs := make(map[string]cty.Value)
	if fields != nil {
		for _, id := range fields.IDs() {
			attrs[id] = ctyOf(fields.Value(id))
		}
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			VarValue:  ctyOf(current),
			VarFields: cty.ObjectVal(attrs),
		},
		Functions: c.functions,
	}
}

// ctyOf converts v, mapping values cty cannot hold (NaN, invalid) to null.
func ctyOf(v value.Value) cty.Value {
	out, err := value.ToCty(v)
	if err != nil {
		if v.IsNumber() {
			return cty.NullVal(cty.Number)
		}
		return cty.NullVal(cty.DynamicPseudoType)
	}
	return out
}

// checkReferences rejects variables other than `value` and `fields`, and
// `fields.<id>` references to ids the catalog does not declare. It returns
// the distinct field ids read, sorted.
func checkReferences(expr hcl.Expression, ids map[string]int, allowFields bool) ([]string, error) {
	seen := make(map[string]struct{})
	for _, tr := range expr.Variables() {
		switch root := tr.RootName(); root {
		case VarValue:
		case VarFields:
			if !allowFields {
				return nil, fmt.Errorf("%s: %s is not available here", tr.SourceRange(), VarFields)
			}
			name, ok := fieldName(tr)
			if !ok {
				continue
			}
			if _, known := ids[name]; !known {
				return nil, fmt.Errorf("%s: unknown field %q", tr.SourceRange(), name)
			}
			seen[name] = struct{}{}
		default:
			return nil, fmt.Errorf("%s: unknown variable %q, expressions may use %s and %s", tr.SourceRange(), root, VarValue, VarFields)
		}
	}

	refs := make([]string, 0, len(seen))
	for name := range seen {
		refs = append(refs, name)
	}
	sort.Strings(refs)
	return refs, nil
}

// fieldName extracts the id from fields.<id> or fields["<id>"].
func fieldName(tr hcl.Traversal) (string, bool) {
	if len(tr) < 2 {
		return "", false
	}
	switch step := tr[1].(type) {
	case hcl.TraverseAttr:
		return step.Name, true
	case hcl.TraverseIndex:
		if step.Key.IsKnown() && !step.Key.IsNull() && step.Key.Type() == cty.String {
			return step.Key.AsString(), true
		}
	}
	return "", false
}
