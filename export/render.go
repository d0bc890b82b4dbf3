package export

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/thaiyyal/pipeline/pipeline"
)

// GraphvizAvailable reports whether the "dot" binary is installed and on
// PATH.
func GraphvizAvailable() bool {
	_, err := exec.LookPath("dot")
	return err == nil
}

// RenderPNG renders dotSource to PNG bytes by shelling out to "dot -Tpng".
func RenderPNG(ctx context.Context, dotSource string) ([]byte, error) {
	return renderWithGraphviz(ctx, dotSource, "png")
}

// RenderSVG renders dotSource to SVG bytes by shelling out to "dot -Tsvg".
func RenderSVG(ctx context.Context, dotSource string) ([]byte, error) {
	return renderWithGraphviz(ctx, dotSource, "svg")
}

// RenderPipelinePNG builds p's graph with opts (highlight set, legend) and
// renders it straight to PNG bytes, so callers don't have to thread
// FromPipeline and Serialize through by hand to reach the highlight/legend
// surface.
func RenderPipelinePNG(ctx context.Context, p *pipeline.Pipeline, opts ...Option) ([]byte, error) {
	return renderPipeline(ctx, p, "png", opts)
}

// RenderPipelineSVG is RenderPipelinePNG's SVG counterpart.
func RenderPipelineSVG(ctx context.Context, p *pipeline.Pipeline, opts ...Option) ([]byte, error) {
	return renderPipeline(ctx, p, "svg", opts)
}

func renderPipeline(ctx context.Context, p *pipeline.Pipeline, format string, opts []Option) ([]byte, error) {
	g, err := FromPipeline(p, opts...)
	if err != nil {
		return nil, err
	}
	return renderWithGraphviz(ctx, Serialize(g), format)
}

func renderWithGraphviz(ctx context.Context, dotSource, format string) ([]byte, error) {
	if dotSource == "" {
		return nil, fmt.Errorf("export: cannot render empty DOT source")
	}
	if !GraphvizAvailable() {
		return nil, fmt.Errorf("export: graphviz \"dot\" binary not found: install graphviz to render %s output", format)
	}

	cmd := exec.CommandContext(ctx, "dot", "-T"+format)
	cmd.Stdin = strings.NewReader(dotSource)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("export: dot command failed: %w: %s", err, stderr.String())
	}
	return stdout.Bytes(), nil
}
