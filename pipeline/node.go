package pipeline

// Func is the opaque computation a Node performs. It receives its gathered
// dependency values keyed by dependency name and returns a value (or an
// error, which aborts the run).
//
// A Func that wants to declare multi-output expansion (see WithOutputs)
// should return a map[string]any; the engine does not otherwise inspect the
// returned value.
type Func func(inputs map[string]interface{}) (interface{}, error)

// PreHook runs before a node's Func, receiving the same gathered inputs
// mapping. Returning a non-nil error aborts the run.
type PreHook func(inputs map[string]interface{}) error

// PostHook runs after a node's Func, receiving its output value. Returning a
// non-nil error aborts the run.
type PostHook func(output interface{}) error

// OutputSpec declares one derived node produced from a multi-output node's
// returned map. Construct these with OutputKey or OutputFunc; the zero
// value is invalid.
type OutputSpec struct {
	// Name is the derived node's name.
	Name string

	// Key, when non-empty, extracts this key from the source node's
	// returned map[string]interface{}.
	Key string

	// Extract, when non-nil, is applied to the source node's returned
	// map[string]interface{} instead of a plain key lookup.
	Extract func(map[string]interface{}) (interface{}, error)
}

// OutputKey declares a derived node named name that extracts key from the
// source node's returned mapping.
func OutputKey(name, key string) OutputSpec {
	return OutputSpec{Name: name, Key: key}
}

// OutputNames declares one derived node per name, each extracting the
// like-named key.
func OutputNames(names ...string) []OutputSpec {
	specs := make([]OutputSpec, len(names))
	for i, n := range names {
		specs[i] = OutputKey(n, n)
	}
	return specs
}

// OutputFunc declares a derived node named name whose value is fn applied to
// the source node's returned mapping.
func OutputFunc(name string, fn func(map[string]interface{}) (interface{}, error)) OutputSpec {
	return OutputSpec{Name: name, Extract: fn}
}

// Node is a single registered computation step. Values are immutable once
// constructed by AddNode; mutate a pipeline's nodes only through pipeline
// operations (re-add, remove).
type Node struct {
	name            string
	fn              Func
	dependencies    []string
	preHooks        []PreHook
	postHooks       []PostHook
	validateEnabled bool
	metadata        map[string]interface{}
	description     string

	// derivedFrom is set on nodes synthesized by outputs= expansion; it
	// names the source node they were derived from, purely for
	// introspection/visualization (e.g. drawing them adjacent in listings).
	derivedFrom string
}

// Name returns the node's unique name.
func (n *Node) Name() string { return n.name }

// Dependencies returns the node's declared dependency names, in the order
// they were supplied.
func (n *Node) Dependencies() []string {
	out := make([]string, len(n.dependencies))
	copy(out, n.dependencies)
	return out
}

// Description returns the node's human-readable description, if any.
func (n *Node) Description() string { return n.description }

// Metadata returns a copy of the node's free-form metadata tags.
func (n *Node) Metadata() map[string]interface{} {
	out := make(map[string]interface{}, len(n.metadata))
	for k, v := range n.metadata {
		out[k] = v
	}
	return out
}

// ValidateEnabled reports whether this node's hooks run at all, independent
// of the pipeline's global validation flag.
func (n *Node) ValidateEnabled() bool { return n.validateEnabled }

// PreHookCount and PostHookCount support introspection (print_summary).
func (n *Node) PreHookCount() int  { return len(n.preHooks) }
func (n *Node) PostHookCount() int { return len(n.postHooks) }

// NodeOption configures a Node at AddNode time.
type NodeOption func(*nodeConfig)

type nodeConfig struct {
	dependencies    []string
	outputs         []OutputSpec
	preHooks        []PreHook
	postHooks       []PostHook
	validateEnabled bool
	metadata        map[string]interface{}
	description     string
}

func newNodeConfig() *nodeConfig {
	return &nodeConfig{validateEnabled: true}
}

// WithDependencies sets the node's ordered dependency list. Duplicate names
// are rejected by AddNode (ErrDuplicateDependency), not by this option.
func WithDependencies(names ...string) NodeOption {
	return func(c *nodeConfig) {
		c.dependencies = append([]string(nil), names...)
	}
}

// WithOutputs declares multi-output expansion: one derived node per spec,
// each depending solely on the source node.
func WithOutputs(specs ...OutputSpec) NodeOption {
	return func(c *nodeConfig) {
		c.outputs = append(c.outputs, specs...)
	}
}

// WithPreHooks appends pre-execution hooks, run in order before Func.
func WithPreHooks(hooks ...PreHook) NodeOption {
	return func(c *nodeConfig) {
		c.preHooks = append(c.preHooks, hooks...)
	}
}

// WithPostHooks appends post-execution hooks, run in order after Func.
func WithPostHooks(hooks ...PostHook) NodeOption {
	return func(c *nodeConfig) {
		c.postHooks = append(c.postHooks, hooks...)
	}
}

// WithValidateEnabled sets the node's per-node validation toggle. Default is
// true; set false to skip both hook lists regardless of pipeline policy.
func WithValidateEnabled(enabled bool) NodeOption {
	return func(c *nodeConfig) {
		c.validateEnabled = enabled
	}
}

// WithMetadata attaches free-form metadata tags to the node.
func WithMetadata(metadata map[string]interface{}) NodeOption {
	return func(c *nodeConfig) {
		if c.metadata == nil {
			c.metadata = make(map[string]interface{}, len(metadata))
		}
		for k, v := range metadata {
			c.metadata[k] = v
		}
	}
}

// WithDescription attaches a human-readable description to the node.
func WithDescription(description string) NodeOption {
	return func(c *nodeConfig) {
		c.description = description
	}
}
