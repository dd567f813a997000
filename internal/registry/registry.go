package registry

import (
	"sort"

	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/value"
)

// Module is implemented by anything that contributes fields to a registry.
type Module interface {
	Register(b *Builder)
}

// ModuleFunc adapts a plain function to the Module interface.
type ModuleFunc func(b *Builder)

// Register implements Module.
func (f ModuleFunc) Register(b *Builder) { f(b) }

// Builder collects field definitions in declaration order. Problems are
// recorded rather than raised so that Build can report all of them at once.
type Builder struct {
	sections []string
	defs     []Definition
	problems []string
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Sections declares the section names, indexed by Definition.Section.
// Declaring sections twice is a registration problem.
func (b *Builder) Sections(names ...string) *Builder {
	if b.sections != nil {
		b.problemf("sections declared more than once")
		return b
	}
	b.sections = append([]string{}, names...)
	return b
}

// Add appends definitions in the order given.
func (b *Builder) Add(defs ...Definition) *Builder {
	for _, d := range defs {
		b.defs = append(b.defs, d.clone())
	}
	return b
}

// Register lets each module add its fields, in order.
func (b *Builder) Register(modules ...Module) *Builder {
	for _, m := range modules {
		m.Register(b)
	}
	return b
}

// Build validates the collected definitions and returns the immutable
// Registry.
func (b *Builder) Build() (*Registry, error) {
	if err := b.validate(); err != nil {
		return nil, err
	}

	r := &Registry{
		sections: append([]string{}, b.sections...),
		defs:     make([]Definition, len(b.defs)),
		index:    make(map[string]int, len(b.defs)),
	}
	for i, d := range b.defs {
		r.defs[i] = d.clone()
		r.index[d.ID] = i
	}
	return r, nil
}

// Entry pairs a field id with its definition.
type Entry struct {
	ID         string
	Definition Definition
}

// Group is one presentation section and the entries that belong to it, in
// declaration order.
type Group struct {
	Index   int
	Name    string
	Entries []Entry
}

// Registry is the validated, immutable field catalog.
type Registry struct {
	sections []string
	defs     []Definition
	index    map[string]int
}

// Get returns the definition registered under id.
func (r *Registry) Get(id string) (Definition, error) {
	i, ok := r.index[id]
	if !ok {
		return Definition{}, &UnknownFieldError{ID: id}
	}
	return r.defs[i].clone(), nil
}

// Has reports whether id is registered.
func (r *Registry) Has(id string) bool {
	_, ok := r.index[id]
	return ok
}

// Editable returns nil when hosts may let users edit id, an
// *UnknownFieldError for unknown ids and a *ReadOnlyError for read-only
// fields.
func (r *Registry) Editable(id string) error {
	d, err := r.Get(id)
	if err != nil {
		return err
	}
	if d.ReadOnly {
		return &ReadOnlyError{ID: id}
	}
	return nil
}

// Len returns the number of registered fields.
func (r *Registry) Len() int { return len(r.defs) }

// IDs returns the field ids in declaration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.defs))
	for i, d := range r.defs {
		ids[i] = d.ID
	}
	return ids
}

// Entries returns every field in declaration order.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, len(r.defs))
	for i, d := range r.defs {
		entries[i] = Entry{ID: d.ID, Definition: d.clone()}
	}
	return entries
}

// Sections returns the declared section names.
func (r *Registry) Sections() []string {
	return append([]string{}, r.sections...)
}

// Grouped returns the entries grouped by section. Named sections come first
// in index order, even when empty; fields tagged with an undeclared section
// index follow in ascending index order with an empty name.
func (r *Registry) Grouped() []Group {
	byIndex := make(map[int][]Entry)
	for _, e := range r.Entries() {
		byIndex[e.Definition.Section] = append(byIndex[e.Definition.Section], e)
	}

	groups := make([]Group, 0, len(r.sections))
	for i, name := range r.sections {
		groups = append(groups, Group{Index: i, Name: name, Entries: byIndex[i]})
		delete(byIndex, i)
	}

	var extra []int
	for i := range byIndex {
		extra = append(extra, i)
	}
	sort.Ints(extra)
	for _, i := range extra {
		groups = append(groups, Group{Index: i, Entries: byIndex[i]})
	}
	return groups
}

// InitialSnapshot returns a snapshot seeded with every field's initial value.
func (r *Registry) InitialSnapshot() snapshot.Snapshot {
	order := make([]string, len(r.defs))
	values := make(map[string]value.Value, len(r.defs))
	for i, d := range r.defs {
		order[i] = d.ID
		values[d.ID] = d.Initial
	}
	return snapshot.New(order, values)
}
