package value

import (
	"fmt"
	"math"

	"github.com/zclconf/go-cty/cty"
)

// ToCty converts a Value into its cty equivalent. NaN has no cty
// representation and is reported as an error.
func ToCty(v Value) (cty.Value, error) {
	switch v.kind {
	case KindNumber:
		if math.IsNaN(v.num) {
			return cty.NilVal, fmt.Errorf("NaN cannot be represented as a cty number")
		}
		return cty.NumberFloatVal(v.num), nil
	case KindString:
		return cty.StringVal(v.str), nil
	default:
		return cty.NilVal, fmt.Errorf("cannot convert an invalid value")
	}
}

// FromCty converts a known, non-null cty number or string into a Value.
// Booleans are accepted and become the strings "true" and "false", which
// is how HCL itself converts them.
func FromCty(v cty.Value) (Value, error) {
	if v.IsNull() {
		return Value{}, fmt.Errorf("value is null")
	}
	if !v.IsKnown() {
		return Value{}, fmt.Errorf("value is unknown")
	}
	v, _ = v.Unmark()

	switch v.Type() {
	case cty.Number:
		f, _ := v.AsBigFloat().Float64()
		return Number(f), nil
	case cty.String:
		return String(v.AsString()), nil
	case cty.Bool:
		if v.True() {
			return String("true"), nil
		}
		return String("false"), nil
	default:
		return Value{}, fmt.Errorf("unsupported type %s, want number or string", v.Type().FriendlyName())
	}
}
