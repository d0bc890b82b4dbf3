// Package export renders a pipeline.Pipeline's graph as DOT source, and
// optionally to PNG/SVG via the graphviz "dot" binary. Grounded on the
// pack's one working DOT producer/renderer pair (a hand-rolled AST plus
// deterministic serializer, fed into "dot" via os/exec) rather than a Go
// Graphviz binding, since nothing in the retrieval pack directly imports one.
package export

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/thaiyyal/pipeline/pipeline"
)

// Graph is a minimal DOT AST: a digraph name, nodes keyed by ID, directed
// edges, and an optional set of labeled clusters (used for the legend).
// Attributes are plain string maps, serialized with sorted keys for
// deterministic output.
type Graph struct {
	Name      string
	Nodes     map[string]*Node
	Edges     []*Edge
	Subgraphs []*Subgraph
}

// Node is a DOT node with free-form attributes (label, shape, ...).
type Node struct {
	ID    string
	Attrs map[string]string
}

// Edge is a directed DOT edge with free-form attributes.
type Edge struct {
	From, To string
	Attrs    map[string]string
}

// Subgraph is a named DOT subgraph (rendered as "subgraph <ID> { ... }"),
// carrying its own attributes and a list of node IDs already present in the
// parent Graph's Nodes map.
type Subgraph struct {
	ID      string
	Attrs   map[string]string
	NodeIDs []string
}

// Node colors are a stable, documented vocabulary: computation nodes render
// as rounded blue boxes, virtual inputs as gold ellipses, and either role
// switches to coral fill when highlighted. Tests and tooling may rely on
// these exact values.
const (
	colorComputation = "blue"
	colorVirtual     = "gold"
	colorHighlight   = "coral"
)

// Option configures FromPipeline's rendering. The zero value renders with no
// highlighted nodes and no legend.
type Option func(*renderConfig)

type renderConfig struct {
	highlight map[string]bool
	legend    bool
}

// WithHighlight marks names for coral alternate fill, in either role
// (computation node or virtual input), leaving their shape unchanged.
func WithHighlight(names ...string) Option {
	return func(c *renderConfig) {
		for _, name := range names {
			c.highlight[name] = true
		}
	}
}

// WithLegend controls whether FromPipeline emits a "cluster_legend"
// subgraph documenting the color/shape vocabulary with one worked example
// node per role.
func WithLegend(enabled bool) Option {
	return func(c *renderConfig) { c.legend = enabled }
}

// FromPipeline builds a Graph from p: one DOT node per pipeline node
// (labeled with its description and metadata, if any) and one DOT node per
// virtual input, styled distinctly (gold, ellipse) so it reads apart from
// computed nodes (blue, rounded box) at a glance. Names passed to
// WithHighlight render coral instead, in whichever role they hold.
func FromPipeline(p *pipeline.Pipeline, opts ...Option) (*Graph, error) {
	cfg := &renderConfig{highlight: make(map[string]bool)}
	for _, opt := range opts {
		opt(cfg)
	}

	order, err := p.ListNodes()
	if err != nil {
		return nil, err
	}

	g := &Graph{Name: sanitizeGraphName(p.Name()), Nodes: make(map[string]*Node)}

	for _, name := range order {
		node, _ := p.GetNode(name)
		g.Nodes[name] = computationNode(name, node, cfg.highlight[name])
		for _, dep := range node.Dependencies() {
			if _, ok := g.Nodes[dep]; !ok {
				g.Nodes[dep] = virtualInputNode(dep, cfg.highlight[dep])
			}
			g.Edges = append(g.Edges, &Edge{From: dep, To: name})
		}
	}

	for _, name := range p.GetVirtualInputs() {
		if _, ok := g.Nodes[name]; !ok {
			g.Nodes[name] = virtualInputNode(name, cfg.highlight[name])
		}
	}

	if cfg.legend {
		g.Subgraphs = append(g.Subgraphs, legendSubgraph(g))
	}

	return g, nil
}

func computationNode(name string, node *pipeline.Node, highlighted bool) *Node {
	attrs := map[string]string{
		"shape":     "box",
		"style":     "rounded,filled",
		"fillcolor": fillColor(colorComputation, highlighted),
		"label":     buildLabel(name, node.Description(), node.Metadata()),
	}
	return &Node{ID: name, Attrs: attrs}
}

func virtualInputNode(name string, highlighted bool) *Node {
	attrs := map[string]string{
		"shape":     "ellipse",
		"style":     "filled",
		"fillcolor": fillColor(colorVirtual, highlighted),
	}
	return &Node{ID: name, Attrs: attrs}
}

func fillColor(base string, highlighted bool) string {
	if highlighted {
		return colorHighlight
	}
	return base
}

// legendSubgraph builds a small cluster documenting the color/shape
// vocabulary, using reserved node IDs unlikely to collide with real
// pipeline node names. Its example nodes are added to g.Nodes so Serialize
// renders them like any other node, just scoped inside the cluster.
func legendSubgraph(g *Graph) *Subgraph {
	examples := []*Node{
		{ID: "legend_computation", Attrs: map[string]string{
			"shape": "box", "style": "rounded,filled", "fillcolor": colorComputation,
			"label": "computation node",
		}},
		{ID: "legend_virtual_input", Attrs: map[string]string{
			"shape": "ellipse", "style": "filled", "fillcolor": colorVirtual,
			"label": "virtual input",
		}},
		{ID: "legend_highlighted", Attrs: map[string]string{
			"shape": "box", "style": "rounded,filled", "fillcolor": colorHighlight,
			"label": "highlighted node",
		}},
	}

	ids := make([]string, 0, len(examples))
	for _, n := range examples {
		g.Nodes[n.ID] = n
		ids = append(ids, n.ID)
	}

	return &Subgraph{
		ID:      "cluster_legend",
		Attrs:   map[string]string{"label": "legend", "style": "dashed"},
		NodeIDs: ids,
	}
}

// buildLabel composes a node's DOT label: its name, its description (if
// any), and its metadata rendered sorted-by-key as italic supplementary
// lines. A node with no metadata gets a plain quoted label; one with
// metadata gets an HTML-like label, since DOT has no other way to render
// italics.
func buildLabel(name, description string, metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		if description == "" {
			return name
		}
		return fmt.Sprintf("%s\\n%s", name, description)
	}

	var b strings.Builder
	b.WriteString(htmlEscape(name))
	if description != "" {
		b.WriteString("<BR/>")
		b.WriteString(htmlEscape(description))
	}

	keys := make([]string, 0, len(metadata))
	for k := range metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString("<BR/><I>")
		b.WriteString(htmlEscape(fmt.Sprintf("%s=%v", k, metadata[k])))
		b.WriteString("</I>")
	}

	return htmlLabelMarker + b.String()
}

// htmlLabelMarker prefixes a label value that must be serialized as an
// HTML-like DOT label ("label=<...>") instead of a quoted string. It uses a
// control byte that never occurs in a legitimate label, so the serializer
// can detect it with a plain prefix check.
const htmlLabelMarker = "\x00html:"

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

func sanitizeGraphName(name string) string {
	if name == "" {
		return "pipeline"
	}
	return name
}

// Serialize renders g as DOT digraph source, nodes sorted by ID and
// attributes sorted by key within each element, for reproducible output
// across runs. Subgraphs (the legend, if requested) render after the plain
// nodes and before edges; nodes that belong to a subgraph are emitted only
// inside it, not at the top level.
func Serialize(g *Graph) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", quoteIfNeeded(g.Name))

	subgraphNodes := make(map[string]bool)
	for _, sg := range g.Subgraphs {
		for _, id := range sg.NodeIDs {
			subgraphNodes[id] = true
		}
	}

	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		if !subgraphNodes[id] {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	for _, id := range ids {
		writeNode(&b, "  ", g.Nodes[id])
	}

	if len(ids) > 0 && len(g.Subgraphs) > 0 {
		b.WriteString("\n")
	}

	for _, sg := range g.Subgraphs {
		fmt.Fprintf(&b, "  subgraph %s {\n", quoteIfNeeded(sg.ID))
		if len(sg.Attrs) > 0 {
			keys := make([]string, 0, len(sg.Attrs))
			for k := range sg.Attrs {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(&b, "    %s=%s\n", k, quoteAttrValue(sg.Attrs[k]))
			}
		}
		nodeIDs := append([]string(nil), sg.NodeIDs...)
		sort.Strings(nodeIDs)
		for _, id := range nodeIDs {
			writeNode(&b, "    ", g.Nodes[id])
		}
		b.WriteString("  }\n")
	}

	if (len(ids) > 0 || len(g.Subgraphs) > 0) && len(g.Edges) > 0 {
		b.WriteString("\n")
	}

	edges := append([]*Edge(nil), g.Edges...)
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})
	for _, e := range edges {
		from, to := quoteIfNeeded(e.From), quoteIfNeeded(e.To)
		if len(e.Attrs) > 0 {
			fmt.Fprintf(&b, "  %s -> %s [%s]\n", from, to, formatAttrs(e.Attrs))
		} else {
			fmt.Fprintf(&b, "  %s -> %s\n", from, to)
		}
	}

	b.WriteString("}\n")
	return b.String()
}

func writeNode(b *strings.Builder, indent string, node *Node) {
	id := quoteIfNeeded(node.ID)
	if len(node.Attrs) > 0 {
		fmt.Fprintf(b, "%s%s [%s]\n", indent, id, formatAttrs(node.Attrs))
	} else {
		fmt.Fprintf(b, "%s%s\n", indent, id)
	}
}

func formatAttrs(attrs map[string]string) string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%s", k, quoteAttrValue(attrs[k]))
	}
	return strings.Join(parts, ", ")
}

// quoteAttrValue renders an attribute value, recognizing the HTML-label
// marker so those values serialize as DOT's unquoted "<...>" HTML-like
// label syntax instead of an escaped quoted string.
func quoteAttrValue(val string) string {
	if rest, ok := strings.CutPrefix(val, htmlLabelMarker); ok {
		return "<" + rest + ">"
	}
	return quoteValue(val)
}

func quoteIfNeeded(val string) string {
	if isBareIdentifier(val) {
		return val
	}
	return quoteValue(val)
}

func quoteValue(val string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, ch := range val {
		switch ch {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func isBareIdentifier(val string) bool {
	if val == "" {
		return false
	}
	for _, ch := range val {
		if ch != '_' && !unicode.IsLetter(ch) && !unicode.IsDigit(ch) {
			return false
		}
	}
	return !unicode.IsDigit(rune(val[0]))
}
