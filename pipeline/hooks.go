package pipeline

// hooksEnabled reports whether hooks run for node, per the pipeline-global
// and per-node gates.
func (p *Pipeline) hooksEnabled(node *Node) bool {
	return p.validateGlobally && node.validateEnabled
}

// runPreHooks invokes node's pre-hooks in declared order against the
// gathered inputs mapping. A hook may mutate the mapping in place; doing so
// is permitted but discouraged.
func runPreHooks(node *Node, inputs map[string]interface{}) error {
	for _, hook := range node.preHooks {
		if err := hook(inputs); err != nil {
			return newPipelineError(KindUserRaised, node.name, PhasePre, err)
		}
	}
	return nil
}

// runPostHooks invokes node's post-hooks in declared order against the
// returned value. A hook may mutate the value it receives, but mutation only
// propagates for reference-like values (maps, slices, pointers) — the same
// value instance is what gets cached.
func runPostHooks(node *Node, value interface{}) error {
	for _, hook := range node.postHooks {
		if err := hook(value); err != nil {
			return newPipelineError(KindUserRaised, node.name, PhasePost, err)
		}
	}
	return nil
}
