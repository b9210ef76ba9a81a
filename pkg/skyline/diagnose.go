package skyline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
)

// DOT renders the current segment chain as a small left-to-right
// Graphviz graph, one node per segment labelled with its geometry. It
// is the graph RenderDiagnosticSVG lays out; collision errors carry the
// segments themselves (packing.CollisionSnapshot), not this text.
func (s *Skyline) DOT() string {
	var buf bytes.Buffer
	buf.WriteString("digraph skyline {\n  rankdir=LR;\n  node [shape=box];\n")
	for i, seg := range s.segments {
		buf.WriteString(fmt.Sprintf("  seg%d [label=\"x=%.2f w=%.2f y=%.2f\"];\n", i, seg.XStart, seg.Width, seg.YTop))
		if i > 0 {
			buf.WriteString(fmt.Sprintf("  seg%d -> seg%d;\n", i-1, i))
		}
	}
	buf.WriteString("}\n")
	return buf.String()
}

// RenderDiagnosticSVG renders the skyline's DOT representation to SVG
// via an in-process Graphviz layout, for attachment to a collision
// diagnostic record.
func (s *Skyline) RenderDiagnosticSVG(ctx context.Context) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(s.DOT()))
	if err != nil {
		return nil, fmt.Errorf("parse skyline dot: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render skyline svg: %w", err)
	}
	return buf.Bytes(), nil
}
