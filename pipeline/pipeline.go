package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/thaiyyal/pipeline/logging"
)

// Pipeline is a container that owns a set of named Nodes, maintains the
// induced DAG, tracks virtual inputs, and provides execution, introspection,
// subgraph, and visualization operations.
//
// Mutation methods (AddNode, RemoveNode) are not safe for concurrent use.
// Concurrent read-only operations, including running Execute on independent
// Pipelines (or on clones produced by ExtractSubgraph), are safe.
type Pipeline struct {
	mu sync.Mutex

	name  string
	nodes map[string]*Node
	g     *dag

	virtualInputs map[string]struct{}

	insertionIndex map[string]int
	nextIndex      int

	validateGlobally bool

	// cache is valid only during an active Execute call.
	cache map[string]interface{}

	logger      *logging.Logger
	observerMgr *observerManager
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithName labels the pipeline for logging and telemetry.
func WithName(name string) Option {
	return func(p *Pipeline) { p.name = name }
}

// WithValidateGlobally sets the pipeline-wide hook gate (default true).
func WithValidateGlobally(enabled bool) Option {
	return func(p *Pipeline) { p.validateGlobally = enabled }
}

// WithLogger attaches a structured logger; a no-op logger is used if none is
// supplied.
func WithLogger(l *logging.Logger) Option {
	return func(p *Pipeline) {
		if l != nil {
			p.logger = l
		}
	}
}

// New constructs an empty Pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		nodes:            make(map[string]*Node),
		g:                newDAG(),
		virtualInputs:    make(map[string]struct{}),
		insertionIndex:   make(map[string]int),
		validateGlobally: true,
		logger:           logging.NoOp(),
		observerMgr:      newObserverManager(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name returns the pipeline's label, if any.
func (p *Pipeline) Name() string { return p.name }

// RegisterObserver adds an observer notified of run/node events. Returns the
// pipeline for chaining.
func (p *Pipeline) RegisterObserver(obs Observer) *Pipeline {
	p.observerMgr.register(obs)
	return p
}

func (p *Pipeline) ensureIndexed(name string) {
	if _, ok := p.insertionIndex[name]; !ok {
		p.insertionIndex[name] = p.nextIndex
		p.nextIndex++
	}
}

// AddNode registers a node. Re-adding an existing name replaces that node
// only when nothing depends on it (ErrConflict otherwise). Adding a name that
// is currently a virtual input promotes it to a node. An edit that would
// introduce a cycle fails with ErrCycle and leaves the pipeline unchanged.
func (p *Pipeline) AddNode(name string, fn Func, opts ...NodeOption) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.addNodeLocked(name, fn, opts...)
}

// MustAddNode is AddNode but panics on error and returns the pipeline, for
// chained construction.
func (p *Pipeline) MustAddNode(name string, fn Func, opts ...NodeOption) *Pipeline {
	if err := p.AddNode(name, fn, opts...); err != nil {
		panic(err)
	}
	return p
}

func (p *Pipeline) addNodeLocked(name string, fn Func, opts ...NodeOption) error {
	if strings.TrimSpace(name) == "" {
		return newPipelineError(KindInvalidArgument, name, "", ErrEmptyName)
	}

	cfg := newNodeConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	seenDep := make(map[string]bool, len(cfg.dependencies))
	for _, dep := range cfg.dependencies {
		if seenDep[dep] {
			return newPipelineError(KindInvalidArgument, name, "", fmt.Errorf("%w: %q", ErrDuplicateDependency, dep))
		}
		seenDep[dep] = true
	}

	existing, hasExisting := p.nodes[name]
	if hasExisting && len(p.g.dependents(name)) > 0 {
		return newPipelineError(KindConflict, name, "", ErrConflict)
	}

	outNames := make(map[string]bool, len(cfg.outputs))
	for _, spec := range cfg.outputs {
		if strings.TrimSpace(spec.Name) == "" {
			return newPipelineError(KindInvalidArgument, name, "", fmt.Errorf("%w: empty output name", ErrOutputCollision))
		}
		if spec.Name == name || outNames[spec.Name] {
			return newPipelineError(KindInvalidArgument, name, "", fmt.Errorf("%w: %q", ErrOutputCollision, spec.Name))
		}
		if _, exists := p.nodes[spec.Name]; exists {
			return newPipelineError(KindInvalidArgument, name, "", fmt.Errorf("%w: %q", ErrOutputCollision, spec.Name))
		}
		outNames[spec.Name] = true
	}

	// Stage every edge edit on a clone; only commit once acyclicity is
	// proven, so a failed add leaves the pipeline untouched.
	staged := p.g.clone()

	if hasExisting {
		for _, dep := range existing.dependencies {
			staged.removeEdge(dep, name)
		}
	}
	staged.addVertex(name)

	for _, dep := range cfg.dependencies {
		staged.addVertex(dep)
		if staged.wouldCycle(dep, name) {
			return newPipelineError(KindCycle, name, "", ErrCycle)
		}
		staged.addEdge(dep, name)
	}

	for _, spec := range cfg.outputs {
		staged.addVertex(spec.Name)
		if staged.wouldCycle(name, spec.Name) {
			return newPipelineError(KindCycle, name, "", ErrCycle)
		}
		staged.addEdge(name, spec.Name)
	}

	// Commit.
	p.g = staged
	p.ensureIndexed(name)
	delete(p.virtualInputs, name)

	node := &Node{
		name:            name,
		fn:              fn,
		dependencies:    append([]string(nil), cfg.dependencies...),
		preHooks:        append([]PreHook(nil), cfg.preHooks...),
		postHooks:       append([]PostHook(nil), cfg.postHooks...),
		validateEnabled: cfg.validateEnabled,
		metadata:        cfg.metadata,
		description:     cfg.description,
	}
	p.nodes[name] = node

	for _, dep := range cfg.dependencies {
		p.ensureIndexed(dep)
		if _, isNode := p.nodes[dep]; !isNode {
			p.virtualInputs[dep] = struct{}{}
		}
	}

	for _, spec := range cfg.outputs {
		p.ensureIndexed(spec.Name)
		p.nodes[spec.Name] = &Node{
			name:            spec.Name,
			fn:              makeExtractFunc(spec),
			dependencies:    []string{name},
			validateEnabled: true,
			derivedFrom:     name,
		}
	}

	p.logger.WithField("node", name).Debug("node added")
	return nil
}

// RemoveNode removes a node. Fails with ErrConflict when other nodes still
// depend on it. Virtual-input dependencies left with no remaining dependents
// are dropped from the graph and from the virtual input set; dependencies
// that are registered nodes stay in the pipeline.
func (p *Pipeline) RemoveNode(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	node, ok := p.nodes[name]
	if !ok {
		return newPipelineError(KindInvalidArgument, name, "", ErrNodeNotFound)
	}
	if len(p.g.dependents(name)) > 0 {
		return newPipelineError(KindConflict, name, "", ErrConflict)
	}

	deps := node.dependencies
	for _, dep := range deps {
		p.g.removeEdge(dep, name)
	}
	p.g.removeVertex(name)
	delete(p.nodes, name)
	delete(p.insertionIndex, name)

	for _, dep := range deps {
		if _, isVirtual := p.virtualInputs[dep]; isVirtual && len(p.g.dependents(dep)) == 0 {
			p.g.removeVertex(dep)
			delete(p.virtualInputs, dep)
			delete(p.insertionIndex, dep)
		}
	}

	p.logger.WithField("node", name).Debug("node removed")
	return nil
}

// GetNode returns the node registered under name, or (nil, false).
func (p *Pipeline) GetNode(name string) (*Node, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.nodes[name]
	return n, ok
}

// ListNodes returns node names in a topological order, ties broken by
// insertion order.
func (p *Pipeline) ListNodes() ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.listNodesLocked()
}

func (p *Pipeline) listNodesLocked() ([]string, error) {
	order, err := p.g.topoSort(p.insertionIndex)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(p.nodes))
	for _, v := range order {
		if _, isNode := p.nodes[v]; isNode {
			out = append(out, v)
		}
	}
	return out, nil
}

// IsVirtualInput reports whether name is a referenced-but-unregistered
// dependency.
func (p *Pipeline) IsVirtualInput(name string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.virtualInputs[name]
	return ok
}

// GetVirtualInputs returns all virtual input names, insertion-ordered.
func (p *Pipeline) GetVirtualInputs() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sortedByInsertion(keysOfSet(p.virtualInputs))
}

// Roots returns registered nodes with no declared dependencies, insertion-
// ordered — nodes that are always satisfiable with nothing supplied from
// upstream, since they have no non-bypass dependencies to resolve.
func (p *Pipeline) Roots() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var out []string
	for _, v := range p.g.roots() {
		if _, isNode := p.nodes[v]; isNode {
			out = append(out, v)
		}
	}
	return p.sortedByInsertion(out)
}

// GetRequiredInputs returns the virtual inputs that are ancestors of outputs.
// With no outputs given, defaults to the ancestors of all leaf nodes.
func (p *Pipeline) GetRequiredInputs(outputs ...string) ([]string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	targets := outputs
	if len(targets) == 0 {
		targets = p.g.leaves(p.isNodeLocked)
	} else {
		for _, o := range targets {
			if _, ok := p.nodes[o]; !ok {
				return nil, newPipelineError(KindInvalidArgument, o, "", ErrUnknownOutput)
			}
		}
	}

	anc := p.g.ancestors(targets, nil)
	var required []string
	for v := range anc {
		if _, ok := p.virtualInputs[v]; ok {
			required = append(required, v)
		}
	}
	return p.sortedByInsertion(required), nil
}

func (p *Pipeline) isNodeLocked(name string) bool {
	_, ok := p.nodes[name]
	return ok
}

func (p *Pipeline) sortedByInsertion(names []string) []string {
	sort.Slice(names, func(i, j int) bool {
		return p.insertionIndex[names[i]] < p.insertionIndex[names[j]]
	})
	return names
}

func keysOfSet(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
