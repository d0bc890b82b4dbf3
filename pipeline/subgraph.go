package pipeline

// ExtractSubgraph returns a new, independent Pipeline containing only
// outputs and their ancestor nodes. Node callables are shared by reference
// with the source pipeline — the new Pipeline owns its own graph,
// node records, and virtual-input set, but does not copy or wrap the
// underlying Func/hook closures.
//
// With no outputs given, the full node set (everything reachable from every
// leaf) is extracted — a structural copy of the pipeline whose callables and
// metadata maps are still shared with the source.
func (p *Pipeline) ExtractSubgraph(outputs ...string) (*Pipeline, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	targets := outputs
	if len(targets) == 0 {
		targets = p.g.leaves(p.isNodeLocked)
	}
	for _, o := range targets {
		if _, ok := p.nodes[o]; !ok {
			return nil, newPipelineError(KindInvalidArgument, o, "", ErrUnknownOutput)
		}
	}

	anc := p.g.ancestors(targets, nil)

	sub := New(WithValidateGlobally(p.validateGlobally), WithLogger(p.logger))
	sub.name = p.name

	// Register in the source pipeline's insertion order so the subgraph's
	// own topological tie-breaking matches what the source would have
	// produced, restricted to the extracted set.
	names := p.sortedByInsertion(keysOfSet(toSet(anc)))
	for _, name := range names {
		if orig, isNode := p.nodes[name]; isNode {
			sub.g.addVertex(name)
			for _, dep := range orig.dependencies {
				sub.g.addVertex(dep)
				sub.g.addEdge(dep, name)
			}
			sub.ensureIndexed(name)
			for _, dep := range orig.dependencies {
				sub.ensureIndexed(dep)
			}
			cp := *orig
			cp.dependencies = append([]string(nil), orig.dependencies...)
			cp.preHooks = append([]PreHook(nil), orig.preHooks...)
			cp.postHooks = append([]PostHook(nil), orig.postHooks...)
			sub.nodes[name] = &cp
		} else if _, isVirtual := p.virtualInputs[name]; isVirtual {
			sub.g.addVertex(name)
			sub.ensureIndexed(name)
			sub.virtualInputs[name] = struct{}{}
		}
	}

	return sub, nil
}

func toSet(m map[string]bool) map[string]struct{} {
	out := make(map[string]struct{}, len(m))
	for k := range m {
		out[k] = struct{}{}
	}
	return out
}
