package pipeline

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/text/width"
)

// PrintSummary writes a human-readable topological listing of the pipeline
// to w: one line per node, with its dependencies, hook counts, and metadata.
// Virtual inputs are listed separately at the end.
//
// Columns are aligned by display width rather than byte or rune count, since
// node names are free-form strings that may contain East-Asian wide
// characters; a name column aligned by len() alone would visibly misalign
// next to such names.
func (p *Pipeline) PrintSummary(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	order, err := p.listNodesLocked()
	if err != nil {
		return err
	}

	nameWidth := 0
	for _, name := range order {
		if dw := displayWidth(name); dw > nameWidth {
			nameWidth = dw
		}
	}

	title := p.name
	if title == "" {
		title = "(unnamed)"
	}
	if _, err := fmt.Fprintf(w, "pipeline %s (%d nodes, %d observers)\n", title, len(order), p.observerMgr.count()); err != nil {
		return err
	}

	for _, name := range order {
		node := p.nodes[name]
		pad := strings.Repeat(" ", nameWidth-displayWidth(name))
		line := fmt.Sprintf("  %s%s", name, pad)

		if len(node.dependencies) > 0 {
			line += fmt.Sprintf("  <- %s", strings.Join(node.dependencies, ", "))
		}
		if node.derivedFrom != "" {
			line += fmt.Sprintf("  (output of %s)", node.derivedFrom)
		}
		if node.PreHookCount() > 0 || node.PostHookCount() > 0 {
			line += fmt.Sprintf("  [hooks: %d pre, %d post]", node.PreHookCount(), node.PostHookCount())
		}
		if !node.validateEnabled {
			line += "  [validation disabled]"
		}
		if node.description != "" {
			line += fmt.Sprintf("  // %s", node.description)
		}
		if len(node.metadata) > 0 {
			keys := make([]string, 0, len(node.metadata))
			for k := range node.metadata {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			pairs := make([]string, len(keys))
			for i, k := range keys {
				pairs[i] = fmt.Sprintf("%s=%v", k, node.metadata[k])
			}
			line += fmt.Sprintf("  {%s}", strings.Join(pairs, ", "))
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	virtual := p.sortedByInsertion(keysOfSet(p.virtualInputs))
	if len(virtual) > 0 {
		if _, err := fmt.Fprintf(w, "virtual inputs: %s\n", strings.Join(virtual, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// displayWidth measures a string's terminal column width, treating
// East-Asian wide and fullwidth runes as occupying two columns.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}
