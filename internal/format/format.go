// Package format renders field values for display.
//
// Numbers are rounded half away from zero to a fixed number of decimals,
// which is how the calculator has always displayed them, and non-finite
// numbers are spelled "Infinity", "-Infinity" and "NaN". String values are
// read as numbers first.
package format

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vk/trackertools/internal/registry"
	"github.com/vk/trackertools/internal/value"
)

// Names of the built-in formatters.
const (
	NameInteger    = "integer"
	NameDecimal    = "decimal"
	NameOneDecimal = "one_decimal"
)

var (
	// Integer rounds to the nearest whole number.
	// String values are truncated first.
	Integer registry.FormatFunc = func(v value.Value) (string, error) {
		f := v.Float()
		if v.IsString() {
			f = v.Int()
		}
		return fixed(roundHalfUp(f), 0), nil
	}
	// Decimal shows three decimals.
	Decimal = Fixed(3)
	// OneDecimal shows a single decimal.
	OneDecimal = Fixed(1)
)

var byName = map[string]registry.FormatFunc{
	NameInteger:    Integer,
	NameDecimal:    Decimal,
	NameOneDecimal: OneDecimal,
}

// Fixed returns a formatter showing exactly digits decimals.
func Fixed(digits int) registry.FormatFunc {
	if digits < 0 || digits > 100 {
		panic(fmt.Sprintf("format: digits %d out of range", digits))
	}
	return func(v value.Value) (string, error) {
		return fixed(v.Float(), digits), nil
	}
}

// Lookup returns the built-in formatter with the given name.
func Lookup(name string) (registry.FormatFunc, error) {
	fn, ok := byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown formatter %q (known: %v)", name, Names())
	}
	return fn, nil
}

// Names lists the built-in formatter names, sorted.
func Names() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func fixed(f float64, digits int) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return value.FormatNumber(f)
	}
	negative := f < 0
	scale := math.Pow(10, float64(digits))
	if scaled := f * scale; math.Abs(scaled) < 1e15 {
		f = math.Round(scaled) / scale
	}
	s := strconv.FormatFloat(f, 'f', digits, 64)
	// Negative zero prints without a sign, small negatives keep theirs.
	if !negative {
		s = strings.TrimPrefix(s, "-")
	}
	return s
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(f float64) float64 {
	return math.Floor(f + 0.5)
}
