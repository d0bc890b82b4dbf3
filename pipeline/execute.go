package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/thaiyyal/pipeline/logging"
)

// Execute runs the pipeline to produce outputs, supplying inputs as either
// bypass values (inputs keyed by a registered node's name, which skips that
// node and everything only needed to feed it) or virtual-input values
// (inputs keyed by a referenced-but-unregistered dependency name).
//
// With no outputs given, every leaf node (a node nothing depends on) is
// computed and returned.
//
// ctx is forwarded to registered Observers; log lines are correlated by the
// run ID attached to the logger, not by ctx. The engine itself never honors
// cancellation or a deadline on ctx — a node
// Func wanting to bound its own work must do so itself (for instance by
// closing over a context it constructed).
func (p *Pipeline) Execute(ctx context.Context, outputs []string, inputs map[string]interface{}) (map[string]interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	runID := uuid.New().String()
	log := p.logger.WithPipelineName(p.name).WithRunID(runID)

	targets := outputs
	if len(targets) == 0 {
		targets = p.g.leaves(p.isNodeLocked)
		sort.Strings(targets) // leaves() is unordered; give a stable default set
	}
	for _, o := range targets {
		if _, ok := p.nodes[o]; !ok {
			return nil, newPipelineError(KindInvalidArgument, o, "", ErrUnknownOutput)
		}
	}

	bypass := make(map[string]bool, len(inputs))
	virtualValues := make(map[string]interface{}, len(inputs))
	for key, val := range inputs {
		if p.isNodeLocked(key) {
			bypass[key] = true
			continue
		}
		if _, isVirtual := p.virtualInputs[key]; isVirtual {
			virtualValues[key] = val
			continue
		}
		return nil, newPipelineError(KindInvalidArgument, key, "", fmt.Errorf("%w: %q", ErrUnknownInput, key))
	}

	stopAt := make(map[string]bool, len(bypass))
	for name := range bypass {
		stopAt[name] = true
	}
	required := p.g.ancestors(targets, stopAt)

	requiredVirtual := make([]string, 0)
	for v := range required {
		if _, ok := p.virtualInputs[v]; ok {
			requiredVirtual = append(requiredVirtual, v)
		}
	}
	var missing []string
	for _, v := range requiredVirtual {
		if _, ok := virtualValues[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, newPipelineError(KindMissingInput, "", "", fmt.Errorf("%w: %v", ErrMissingInput, missing))
	}

	reachMemo := make(map[string]bool, len(p.nodes)+len(p.virtualInputs))
	for _, o := range targets {
		if !p.satisfiable(o, bypass, virtualValues, reachMemo) {
			return nil, newPipelineError(KindUnreachableOutput, o, "", ErrUnreachableOutput)
		}
	}

	order, err := p.g.topoSort(p.insertionIndex)
	if err != nil {
		return nil, err
	}

	// cache is scoped to this call only; reset it on entry and clear it on
	// the way out regardless of outcome.
	p.cache = make(map[string]interface{}, len(required))
	defer func() { p.cache = nil }()

	for name := range bypass {
		p.cache[name] = inputs[name]
	}
	for name, val := range virtualValues {
		p.cache[name] = val
	}

	log.WithField("outputs", targets).WithField("required_inputs", requiredVirtual).Debug("execute starting")
	start := time.Now()
	p.observerMgr.notify(ctx, Event{
		Type: EventRunStart, Status: StatusStarted, Timestamp: start,
		PipelineName: p.name, RunID: runID,
	})

	var runErr error
	for _, name := range order {
		if !required[name] || bypass[name] {
			continue
		}
		if _, isNode := p.nodes[name]; !isNode {
			continue
		}
		if _, err := p.resolveValue(ctx, name, bypass, log, runID); err != nil {
			runErr = err
			break
		}
	}

	elapsed := time.Since(start)
	status := StatusSuccess
	if runErr != nil {
		status = StatusFailure
		log.WithError(runErr).Error("execute failed")
	} else {
		log.WithField("elapsed", elapsed).Debug("execute finished")
	}
	p.observerMgr.notify(ctx, Event{
		Type: EventRunEnd, Status: status, Timestamp: time.Now(),
		PipelineName: p.name, RunID: runID,
		StartTime: start, ElapsedTime: elapsed, Err: runErr,
	})
	if runErr != nil {
		return nil, runErr
	}

	result := make(map[string]interface{}, len(targets))
	for _, o := range targets {
		result[o] = p.cache[o]
	}
	return result, nil
}

// satisfiable reports whether name can be produced given bypass values,
// virtual-input values, and the node graph, without actually running
// anything. A node is satisfiable if every one of its dependencies is either
// bypassed, a supplied virtual input, or itself satisfiable; a node with no
// dependencies is always satisfiable. This is a defensive check: a
// well-formed pipeline that already passed the missing-input check above
// will always satisfy it, since every dependency name is either a node or a
// virtual input.
func (p *Pipeline) satisfiable(name string, bypass map[string]bool, virtualValues map[string]interface{}, memo map[string]bool) bool {
	if v, ok := memo[name]; ok {
		return v
	}
	if bypass[name] {
		memo[name] = true
		return true
	}
	if _, isVirtual := p.virtualInputs[name]; isVirtual {
		_, ok := virtualValues[name]
		memo[name] = ok
		return ok
	}
	node, isNode := p.nodes[name]
	if !isNode {
		memo[name] = false
		return false
	}
	memo[name] = true // break any accidental cycle defensively; the dag is acyclic by construction
	for _, dep := range node.dependencies {
		if !p.satisfiable(dep, bypass, virtualValues, memo) {
			memo[name] = false
			return false
		}
	}
	return true
}

// resolveValue returns name's value from the cache, computing it (and
// recursively, anything it depends on that isn't already cached) if needed.
// This recursive fallback is what makes the primary topological sweep in
// Execute safe to restrict to the precomputed required set: if a dependency
// somehow isn't in cache when a node needs it, it is resolved on demand here
// instead of the run failing.
func (p *Pipeline) resolveValue(ctx context.Context, name string, bypass map[string]bool, log *logging.Logger, runID string) (interface{}, error) {
	if v, ok := p.cache[name]; ok {
		return v, nil
	}
	node, isNode := p.nodes[name]
	if !isNode {
		return nil, newPipelineError(KindMissingInput, name, "", fmt.Errorf("%w: %q", ErrMissingInput, name))
	}
	return p.evaluateNode(ctx, node, bypass, log, runID)
}

func (p *Pipeline) evaluateNode(ctx context.Context, node *Node, bypass map[string]bool, log *logging.Logger, runID string) (interface{}, error) {
	gathered := make(map[string]interface{}, len(node.dependencies))
	for _, dep := range node.dependencies {
		val, err := p.resolveValue(ctx, dep, bypass, log, runID)
		if err != nil {
			return nil, err
		}
		gathered[dep] = val
	}

	nodeLog := log.WithNodeName(node.name)
	nodeStart := time.Now()
	p.observerMgr.notify(ctx, Event{
		Type: EventNodeStart, Status: StatusStarted, Timestamp: nodeStart,
		PipelineName: p.name, RunID: runID, Node: node.name, StartTime: nodeStart,
	})

	enabled := p.hooksEnabled(node)
	if enabled {
		if err := runPreHooks(node, gathered); err != nil {
			p.notifyNodeFailure(ctx, node.name, runID, nodeStart, err)
			return nil, err
		}
	}

	value, err := node.fn(gathered)
	if err != nil {
		wrapped := newPipelineError(KindUserRaised, node.name, PhaseFunc, err)
		nodeLog.WithError(wrapped).Error("node failed")
		p.notifyNodeFailure(ctx, node.name, runID, nodeStart, wrapped)
		return nil, wrapped
	}

	if enabled {
		if err := runPostHooks(node, value); err != nil {
			p.notifyNodeFailure(ctx, node.name, runID, nodeStart, err)
			return nil, err
		}
	}

	p.cache[node.name] = value
	elapsed := time.Since(nodeStart)
	nodeLog.WithField("elapsed", elapsed).Debug("node evaluated")
	p.observerMgr.notify(ctx, Event{
		Type: EventNodeSuccess, Status: StatusSuccess, Timestamp: time.Now(),
		PipelineName: p.name, RunID: runID, Node: node.name,
		StartTime: nodeStart, ElapsedTime: elapsed, Result: value,
	})
	return value, nil
}

func (p *Pipeline) notifyNodeFailure(ctx context.Context, name, runID string, start time.Time, err error) {
	p.observerMgr.notify(ctx, Event{
		Type: EventNodeFailure, Status: StatusFailure, Timestamp: time.Now(),
		PipelineName: p.name, RunID: runID, Node: name,
		StartTime: start, ElapsedTime: time.Since(start), Err: err,
	})
}
