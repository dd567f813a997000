package registry

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/trackertools/internal/snapshot"
	"github.com/vk/trackertools/internal/value"
)

func secondsPerBeat(_ value.Value, fields snapshot.View) (value.Value, error) {
	return value.Number(60 / fields.Float("tempo")), nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewBuilder().
		Sections("Project", "Timing").
		Add(
			Definition{ID: "tempo", Section: 0, Initial: value.Number(120), Bounds: &Bounds{Min: 1, Max: 999}},
			Definition{ID: "secondsPerBeat", Section: 1, Initial: value.Number(0), ReadOnly: true, Derive: secondsPerBeat},
			Definition{ID: "patternSize", Section: 0, Initial: value.Number(16), Step: 2},
		).
		Build()
	require.NoError(t, err)
	return reg
}

func TestGet(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry(t)

	def, err := reg.Get("tempo")
	require.NoError(t, err)
	assert.Equal(t, "tempo", def.ID)
	require.NotNil(t, def.Bounds)
	assert.Equal(t, 999.0, def.Bounds.Max)

	_, err = reg.Get("doesNotExist")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownField))
	var unknown *UnknownFieldError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "doesNotExist", unknown.ID)
}

func TestGet_ReturnsIsolatedCopy(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry(t)

	def, err := reg.Get("tempo")
	require.NoError(t, err)
	def.Bounds.Max = 5
	def.Label = "changed"

	again, err := reg.Get("tempo")
	require.NoError(t, err)
	assert.Equal(t, 999.0, again.Bounds.Max)
	assert.Empty(t, again.Label)
}

func TestEntries_DeclarationOrder(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry(t)

	var ids []string
	for _, e := range reg.Entries() {
		assert.Equal(t, e.ID, e.Definition.ID)
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"tempo", "secondsPerBeat", "patternSize"}, ids)
	assert.Equal(t, ids, reg.IDs())
	assert.Equal(t, 3, reg.Len())
	assert.True(t, reg.Has("patternSize"))
	assert.False(t, reg.Has("nope"))
}

func TestGrouped(t *testing.T) {
	t.Parallel()

	reg, err := NewBuilder().
		Sections("A", "B", "C").
		Add(
			Definition{ID: "x", Section: 1, Initial: value.Number(1)},
			Definition{ID: "y", Section: 0, Initial: value.Number(2)},
			Definition{ID: "z", Section: 1, Initial: value.Number(3)},
		).
		Build()
	require.NoError(t, err)

	groups := reg.Grouped()
	require.Len(t, groups, 3)
	assert.Equal(t, "A", groups[0].Name)
	require.Len(t, groups[0].Entries, 1)
	assert.Equal(t, "y", groups[0].Entries[0].ID)
	assert.Equal(t, "B", groups[1].Name)
	require.Len(t, groups[1].Entries, 2)
	assert.Equal(t, "x", groups[1].Entries[0].ID)
	assert.Equal(t, "z", groups[1].Entries[1].ID)
	assert.Empty(t, groups[2].Entries)
}

func TestGrouped_UndeclaredSections(t *testing.T) {
	t.Parallel()

	reg, err := NewBuilder().
		Add(
			Definition{ID: "b", Section: 3, Initial: value.Number(1)},
			Definition{ID: "a", Section: 1, Initial: value.Number(1)},
		).
		Build()
	require.NoError(t, err)

	groups := reg.Grouped()
	require.Len(t, groups, 2)
	assert.Equal(t, 1, groups[0].Index)
	assert.Equal(t, 3, groups[1].Index)
}

func TestInitialSnapshot(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry(t)

	s := reg.InitialSnapshot()
	assert.Equal(t, reg.IDs(), s.IDs())
	assert.Equal(t, 120.0, s.Float("tempo"))
	assert.Equal(t, 0.0, s.Float("secondsPerBeat"), "initial snapshot is not recomputed")
}

func TestBuild_ValidationErrors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		builder *Builder
		want    string
	}{
		{
			name: "duplicate id",
			builder: NewBuilder().Add(
				Definition{ID: "a", Initial: value.Number(1)},
				Definition{ID: "a", Initial: value.Number(2)},
			),
			want: "field 'a': declared more than once",
		},
		{
			name:    "empty id",
			builder: NewBuilder().Add(Definition{Initial: value.Number(1)}),
			want:    "id must not be empty",
		},
		{
			name:    "missing initial value",
			builder: NewBuilder().Add(Definition{ID: "a"}),
			want:    "initial value must be a number or a string",
		},
		{
			name:    "inverted bounds",
			builder: NewBuilder().Add(Definition{ID: "a", Initial: value.Number(1), Bounds: &Bounds{Min: 5, Max: 1}}),
			want:    "min 5 is greater than max 1",
		},
		{
			name:    "undeclared section",
			builder: NewBuilder().Sections("only").Add(Definition{ID: "a", Section: 1, Initial: value.Number(1)}),
			want:    "section 1 is not declared",
		},
		{
			name:    "sections twice",
			builder: NewBuilder().Sections("a").Sections("b"),
			want:    "sections declared more than once",
		},
		{
			name:    "negative step",
			builder: NewBuilder().Add(Definition{ID: "a", Initial: value.Number(1), Step: -1}),
			want:    "steps must not be negative",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.builder.Build()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "registry validation failed")
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestBuild_ReportsAllProblems(t *testing.T) {
	t.Parallel()

	_, err := NewBuilder().Add(
		Definition{ID: "a"},
		Definition{ID: "b", Initial: value.Number(1), Section: -1},
	).Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "field 'a'")
	assert.Contains(t, err.Error(), "field 'b'")
}

func TestRegister_Modules(t *testing.T) {
	t.Parallel()

	first := ModuleFunc(func(b *Builder) {
		b.Add(Definition{ID: "one", Initial: value.Number(1)})
	})
	second := ModuleFunc(func(b *Builder) {
		b.Add(Definition{ID: "two", Initial: value.String("x")})
	})

	reg, err := NewBuilder().Register(first, second).Build()
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, reg.IDs())
}

func TestSteps(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1.0, Definition{}.EffectiveStep())
	assert.Equal(t, 10.0, Definition{}.EffectiveLargeStep())
	assert.Equal(t, 1.25, Definition{Step: 0.125}.EffectiveLargeStep())
	assert.Equal(t, 4.0, Definition{LargeStep: 4}.EffectiveLargeStep())
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	bounded := Definition{Bounds: &Bounds{Min: 1, Max: 128}}
	assert.Equal(t, 128.0, bounded.Normalize(value.Number(500)).Float())
	assert.Equal(t, 1.0, bounded.Normalize(value.Number(-3)).Float())
	assert.Equal(t, 64.0, bounded.Normalize(value.Number(64)).Float())
	assert.Equal(t, 100.0, bounded.Normalize(value.String("100")).Float())
	assert.Equal(t, 1.0, bounded.Normalize(value.String("")).Float())
	assert.Equal(t, 1.0, bounded.Normalize(value.String("12abc")).Float())
	assert.Equal(t, 1.0, bounded.Normalize(value.Number(math.NaN())).Float())
	assert.True(t, bounded.Normalize(value.String("64")).IsNumber())

	signed := Definition{Bounds: &Bounds{Min: -24, Max: 24}}
	assert.Equal(t, 0.0, signed.Normalize(value.String(" ")).Float())
	assert.Equal(t, -24.0, signed.Normalize(value.String("abc")).Float())

	degenerate := Definition{Bounds: &Bounds{Min: 4, Max: 4}}
	assert.Equal(t, 500.0, degenerate.Normalize(value.Number(500)).Float())

	unbounded := Definition{}
	assert.True(t, unbounded.Normalize(value.String("G5")).Equal(value.String("G5")))
}

func TestBounds_Clamp(t *testing.T) {
	t.Parallel()

	b := &Bounds{Min: 0, Max: 60}
	assert.Equal(t, 0.0, b.Clamp(math.NaN()))
	assert.Equal(t, 60.0, b.Clamp(math.Inf(1)))
	assert.Equal(t, 2.5, b.Clamp(2.5))

	var none *Bounds
	assert.True(t, math.IsNaN(none.Clamp(math.NaN())))
}

func TestNudge(t *testing.T) {
	t.Parallel()

	beats := Definition{Step: 0.125, LargeStep: 1, Bounds: &Bounds{Min: 0, Max: 128}}
	assert.Equal(t, value.Number(1.125), beats.Nudge(value.Number(1), 1, false))
	assert.Equal(t, value.Number(-1), beats.Nudge(value.Number(1), -2, true))
	assert.Equal(t, 0.0, beats.Normalize(beats.Nudge(value.Number(1), -2, true)).Float())

	tempo := Definition{}
	assert.Equal(t, value.Number(130), tempo.Nudge(value.String("120"), 1, true))
	assert.Equal(t, value.Number(119), tempo.Nudge(value.Number(120), -1, false))
}

func TestFormatValue(t *testing.T) {
	t.Parallel()

	plain := Definition{}
	s, err := plain.FormatValue(value.Number(0.5))
	require.NoError(t, err)
	assert.Equal(t, "0.5", s)

	custom := Definition{Format: func(v value.Value) (string, error) { return "<" + v.Text() + ">", nil }}
	s, err = custom.FormatValue(value.String("x"))
	require.NoError(t, err)
	assert.Equal(t, "<x>", s)
}

func TestEditable(t *testing.T) {
	t.Parallel()
	reg := newTestRegistry(t)

	require.NoError(t, reg.Editable("tempo"))

	err := reg.Editable("secondsPerBeat")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReadOnly)
	var roErr *ReadOnlyError
	require.ErrorAs(t, err, &roErr)
	assert.Equal(t, "secondsPerBeat", roErr.ID)

	err = reg.Editable("doesNotExist")
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.NotErrorIs(t, err, ErrReadOnly)
}
