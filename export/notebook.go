package export

import (
	"context"

	"github.com/thaiyyal/pipeline/pipeline"
)

// InlineDisplay wraps a Pipeline so it satisfies fmt.Stringer and an HTML()
// method, for embedders that want to drop a pipeline straight into a
// notebook-style rich display without wiring up DOT/PNG themselves. This is
// a convenience, not a contract — nothing in this package or pipeline
// requires implementing it.
type InlineDisplay struct {
	p    *pipeline.Pipeline
	opts []Option
}

// Display wraps p for rich inline display. opts is forwarded to
// FromPipeline on every render, so a highlight set or legend flag applies
// to both String() and HTML().
func Display(p *pipeline.Pipeline, opts ...Option) InlineDisplay {
	return InlineDisplay{p: p, opts: opts}
}

// String renders the pipeline's DOT source, satisfying fmt.Stringer.
func (d InlineDisplay) String() string {
	g, err := FromPipeline(d.p, d.opts...)
	if err != nil {
		return "(invalid pipeline: " + err.Error() + ")"
	}
	return Serialize(g)
}

// HTML renders the pipeline as an inline SVG wrapped in a <div>, the shape
// Jupyter-like frontends look for on an object's _repr_html_-equivalent.
// Returns an HTML comment describing the failure instead of an error if
// graphviz isn't available, since display methods have no error return to
// report through.
func (d InlineDisplay) HTML() string {
	g, err := FromPipeline(d.p, d.opts...)
	if err != nil {
		return "<!-- invalid pipeline: " + err.Error() + " -->"
	}
	svg, err := RenderSVG(context.Background(), Serialize(g))
	if err != nil {
		return "<!-- " + err.Error() + " -->"
	}
	return "<div class=\"pipeline-graph\">" + string(svg) + "</div>"
}
