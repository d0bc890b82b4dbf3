// Package hooks provides an optional library of common pre/post hooks for
// nodes registered in a pipeline.Pipeline — type checks, finiteness checks,
// non-negativity checks, and (in schema.go) JSON-Schema shape validation.
// None of these are required by the engine; callers compose whatever subset
// fits by passing them to pipeline.WithPreHooks/WithPostHooks.
package hooks

import (
	"fmt"
	"math"
	"reflect"

	"github.com/thaiyyal/pipeline/pipeline"
)

// RequireType returns a PreHook that fails unless every named input has the
// given Go type.
func RequireType(want map[string]reflect.Type) pipeline.PreHook {
	return func(inputs map[string]interface{}) error {
		for name, t := range want {
			v, ok := inputs[name]
			if !ok {
				return fmt.Errorf("hooks: missing input %q", name)
			}
			if got := reflect.TypeOf(v); got != t {
				return fmt.Errorf("hooks: input %q has type %s, want %s", name, got, t)
			}
		}
		return nil
	}
}

// RequireFinite returns a PostHook that fails if the node's output is a
// float64 that is NaN or infinite.
func RequireFinite() pipeline.PostHook {
	return func(output interface{}) error {
		f, ok := output.(float64)
		if !ok {
			return nil
		}
		if math.IsNaN(f) {
			return fmt.Errorf("hooks: output is NaN")
		}
		if math.IsInf(f, 0) {
			return fmt.Errorf("hooks: output is infinite")
		}
		return nil
	}
}

// RequireNonNegative returns a PostHook that fails if the node's numeric
// output is negative. Supports int, int64, and float64 — the types Funcs in
// this engine realistically return for numeric results.
func RequireNonNegative() pipeline.PostHook {
	return func(output interface{}) error {
		switch v := output.(type) {
		case int:
			if v < 0 {
				return fmt.Errorf("hooks: output %d must not be negative", v)
			}
		case int64:
			if v < 0 {
				return fmt.Errorf("hooks: output %d must not be negative", v)
			}
		case float64:
			if v < 0 {
				return fmt.Errorf("hooks: output %v must not be negative", v)
			}
		}
		return nil
	}
}
