package hcl

import (
	"fmt"
	"math"

	"github.com/vk/trackertools/internal/value"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// Functions returns the function table available to catalog expressions.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"abs":    stdlib.AbsoluteFunc,
		"ceil":   stdlib.CeilFunc,
		"floor":  stdlib.FloorFunc,
		"min":    stdlib.MinFunc,
		"max":    stdlib.MaxFunc,
		"signum": stdlib.SignumFunc,
		"trunc":  unaryNumberFunc("Truncates toward zero.", math.Trunc),
		"round": unaryNumberFunc("Rounds to the nearest whole number, halves up.", func(f float64) float64 {
			return math.Floor(f + 0.5)
		}),
		"log2": unaryNumberFunc("Returns the base 2 logarithm.", math.Log2),
		"log": binaryNumberFunc("Returns the logarithm of num in base.", "num", "base", func(n, b float64) float64 {
			return math.Log(n) / math.Log(b)
		}),
		"pow":        binaryNumberFunc("Raises num to power.", "num", "power", math.Pow),
		"parsefloat": parseFunc("Reads the leading decimal number of a string.", value.Value.Float),
		"parseint":   parseFunc("Reads the leading decimal number of a string, truncated toward zero.", value.Value.Int),
		"format":     stdlib.FormatFunc,
		"tostring":   stdlib.MakeToFunc(cty.String),
		"tonumber":   stdlib.MakeToFunc(cty.Number),
		"upper":      stdlib.UpperFunc,
		"lower":      stdlib.LowerFunc,
	}
}

// numberVal converts a float result, rejecting NaN which cty cannot hold.
func numberVal(f float64) (cty.Value, error) {
	if math.IsNaN(f) {
		return cty.NilVal, fmt.Errorf("result is not a number")
	}
	return cty.NumberFloatVal(f), nil
}

func floatOf(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}

func unaryNumberFunc(desc string, fn func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Description: desc,
		Params:      []function.Parameter{{Name: "num", Type: cty.Number}},
		Type:        function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return numberVal(fn(floatOf(args[0])))
		},
	})
}

func binaryNumberFunc(desc, a, b string, fn func(float64, float64) float64) function.Function {
	return function.New(&function.Spec{
		Description: desc,
		Params: []function.Parameter{
			{Name: a, Type: cty.Number},
			{Name: b, Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			return numberVal(fn(floatOf(args[0]), floatOf(args[1])))
		},
	})
}

func parseFunc(desc string, read func(value.Value) float64) function.Function {
	return function.New(&function.Spec{
		Description: desc,
		Params:      []function.Parameter{{Name: "str", Type: cty.String}},
		Type:        function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			f := read(value.String(args[0].AsString()))
			if math.IsNaN(f) {
				return cty.NilVal, fmt.Errorf("%q does not start with a number", args[0].AsString())
			}
			return cty.NumberFloatVal(f), nil
		},
	})
}
