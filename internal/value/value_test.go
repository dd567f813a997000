package value

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
)

func TestParse(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		raw  string
		want Value
	}{
		{raw: "120", want: Number(120)},
		{raw: " -12.5 ", want: Number(-12.5)},
		{raw: "1e3", want: Number(1000)},
		{raw: "G5 / M -2", want: String("G5 / M -2")},
		{raw: "", want: String("")},
	}

	for _, tc := range testCases {
		t.Run(tc.raw, func(t *testing.T) {
			assert.True(t, tc.want.Equal(Parse(tc.raw)), "Parse(%q) = %v", tc.raw, Parse(tc.raw))
		})
	}
}

func TestFloatAndInt(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 4.0, Number(4).Float())
	assert.Equal(t, 12.7, String("12.7abc").Float())
	assert.Equal(t, 12.0, String("12.7abc").Int())
	assert.Equal(t, -3.0, Number(-3.9).Int())
	assert.Equal(t, 0.5, String(" .5").Float())
	assert.True(t, math.IsNaN(String("abc").Float()))
	assert.True(t, math.IsNaN(Value{}.Float()))
	assert.True(t, math.IsInf(String("Infinity").Float(), 1))
}

func TestToNumber(t *testing.T) {
	t.Parallel()

	testCases := map[string]float64{
		"":          0,
		" \t\n":     0,
		"42":        42,
		" 42 ":      42,
		"-3.5":      -3.5,
		"+.5":       0.5,
		"5.":        5,
		"1e3":       1000,
		"1e999":     math.Inf(1),
		"Infinity":  math.Inf(1),
		"-Infinity": math.Inf(-1),
		"0x1F":      31,
		"0o17":      15,
		"0b101":     5,
	}
	for in, want := range testCases {
		assert.Equal(t, want, String(in).ToNumber(), "%q", in)
	}

	for _, in := range []string{"abc", "12abc", "1 2", ".", "1e", "--1", "inf", "NaN", "nan", "0x", "0xG", "-0x10", "1_000", "0x1p-2", "infinity"} {
		assert.True(t, math.IsNaN(String(in).ToNumber()), "%q", in)
	}

	assert.Equal(t, 7.0, Number(7).ToNumber())
	assert.True(t, math.IsNaN(Value{}.ToNumber()))
}

func TestEqual(t *testing.T) {
	t.Parallel()

	assert.True(t, Number(1).Equal(Number(1)))
	assert.False(t, Number(1).Equal(String("1")))
	assert.True(t, Number(math.NaN()).Equal(Number(math.NaN())))
	assert.False(t, String("a").Equal(String("b")))
}

func TestText(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0.5", Number(0.5).Text())
	assert.Equal(t, "Infinity", Number(math.Inf(1)).Text())
	assert.Equal(t, "-Infinity", Number(math.Inf(-1)).Text())
	assert.Equal(t, "NaN", Number(math.NaN()).Text())
	assert.Equal(t, "abc", String("abc").Text())
}

func TestJSON(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal([]Value{Number(1.5), String("x"), Number(math.Inf(1))})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, "x", "Infinity"]`, string(data))

	var decoded []Value
	require.NoError(t, json.Unmarshal([]byte(`[60, "G5"]`), &decoded))
	require.Len(t, decoded, 2)
	assert.True(t, decoded[0].Equal(Number(60)))
	assert.True(t, decoded[1].Equal(String("G5")))

	var bad Value
	assert.Error(t, json.Unmarshal([]byte(`null`), &bad))
	assert.Error(t, json.Unmarshal([]byte(`{"a":1}`), &bad))
}

func TestFromAny(t *testing.T) {
	t.Parallel()

	v, err := FromAny(float64(3))
	require.NoError(t, err)
	assert.True(t, v.Equal(Number(3)))

	v, err = FromAny(json.Number("2.5"))
	require.NoError(t, err)
	assert.True(t, v.Equal(Number(2.5)))

	_, err = FromAny(true)
	assert.Error(t, err)
	_, err = FromAny(nil)
	assert.Error(t, err)
}

func TestCtyRoundTrip(t *testing.T) {
	t.Parallel()

	cv, err := ToCty(Number(120))
	require.NoError(t, err)
	assert.True(t, cv.RawEquals(cty.NumberIntVal(120)))

	back, err := FromCty(cv)
	require.NoError(t, err)
	assert.True(t, back.Equal(Number(120)))

	sv, err := ToCty(String("G5"))
	require.NoError(t, err)
	back, err = FromCty(sv)
	require.NoError(t, err)
	assert.True(t, back.Equal(String("G5")))

	_, err = ToCty(Number(math.NaN()))
	assert.Error(t, err)

	_, err = FromCty(cty.NullVal(cty.Number))
	assert.Error(t, err)

	_, err = FromCty(cty.ListValEmpty(cty.String))
	assert.Error(t, err)
}
