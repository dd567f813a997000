package snapshot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/trackertools/internal/value"
)

func newTestSnapshot() Snapshot {
	return New([]string{"tempo", "secondsPerBeat", "note"}, map[string]value.Value{
		"tempo":          value.Number(120),
		"secondsPerBeat": value.Number(0.5),
		"note":           value.String("G5"),
	})
}

func TestNew_CopiesInputs(t *testing.T) {
	t.Parallel()

	order := []string{"a"}
	values := map[string]value.Value{"a": value.Number(1)}
	s := New(order, values)

	order[0] = "mutated"
	values["a"] = value.Number(2)

	assert.Equal(t, []string{"a"}, s.IDs())
	assert.Equal(t, 1.0, s.Float("a"))
}

func TestAccessors(t *testing.T) {
	t.Parallel()
	s := newTestSnapshot()

	v, ok := s.Get("tempo")
	require.True(t, ok)
	assert.True(t, v.Equal(value.Number(120)))

	_, ok = s.Get("missing")
	assert.False(t, ok)
	assert.False(t, s.Value("missing").IsValid())
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, []string{"tempo", "secondsPerBeat", "note"}, s.IDs())

	var visited []string
	s.Range(func(id string, _ value.Value) bool {
		visited = append(visited, id)
		return id != "secondsPerBeat"
	})
	assert.Equal(t, []string{"tempo", "secondsPerBeat"}, visited)
}

func TestDraft_DoesNotTouchOrigin(t *testing.T) {
	t.Parallel()
	s := newTestSnapshot()

	d := s.Draft()
	require.True(t, d.Set("tempo", value.Number(60)))
	assert.False(t, d.Set("unknown", value.Number(1)))
	assert.Equal(t, 60.0, d.Float("tempo"))

	frozen := d.Freeze()
	require.True(t, d.Set("tempo", value.Number(90)))

	assert.Equal(t, 120.0, s.Float("tempo"), "original snapshot must stay untouched")
	assert.Equal(t, 60.0, frozen.Float("tempo"), "frozen snapshot must not see later draft writes")
}

func TestEqualAndDiff(t *testing.T) {
	t.Parallel()
	s := newTestSnapshot()

	assert.True(t, s.Equal(newTestSnapshot()))
	assert.Empty(t, s.Diff(newTestSnapshot()))

	d := s.Draft()
	d.Set("secondsPerBeat", value.Number(1))
	d.Set("note", value.String("A4"))
	next := d.Freeze()

	assert.False(t, s.Equal(next))
	assert.Equal(t, []string{"secondsPerBeat", "note"}, s.Diff(next))

	other := New([]string{"tempo"}, map[string]value.Value{"tempo": value.Number(120)})
	assert.Equal(t, []string{"secondsPerBeat", "note"}, s.Diff(other))
}

func TestMarshalJSON_KeepsOrder(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(newTestSnapshot())
	require.NoError(t, err)
	assert.Equal(t, `{"tempo":120,"secondsPerBeat":0.5,"note":"G5"}`, string(data))
}
