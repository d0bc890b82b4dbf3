package pipeline

import "fmt"

// makeExtractFunc builds the Func for a derived node produced by outputs=
// expansion. The derived node depends solely on the source node; at
// evaluation time its one input is whatever the source node returned, which
// must be a map[string]interface{}.
func makeExtractFunc(spec OutputSpec) Func {
	return func(inputs map[string]interface{}) (interface{}, error) {
		// A derived node has exactly one dependency: its source. The
		// gathered inputs map is keyed by dependency name, so there is
		// exactly one entry here regardless of the source's own name.
		var raw interface{}
		for _, v := range inputs {
			raw = v
			break
		}

		source, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("pipeline: output %q expects its source node to return map[string]interface{}, got %T", spec.Name, raw)
		}

		if spec.Extract != nil {
			return spec.Extract(source)
		}

		val, ok := source[spec.Key]
		if !ok {
			return nil, fmt.Errorf("pipeline: output %q: key %q not present in source result", spec.Name, spec.Key)
		}
		return val, nil
	}
}
