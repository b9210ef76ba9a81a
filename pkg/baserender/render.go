package baserender

import (
	"fmt"

	"github.com/GianGoulart/printer-queue-generation/pkg/packing"
)

// Artifact is one rendered base: its path-ready extension and bytes.
type Artifact struct {
	BaseIndex int
	Extension string
	Data      []byte
}

// Options configures per-job rendering behavior.
type Options struct {
	// Reproducible, when true, suppresses non-deterministic metadata
	// (timestamps) so two renders of identical inputs are byte-identical,
	// per the core's determinism requirement.
	Reproducible bool
}

// RenderBase renders one finalized base to a PDF artifact.
func RenderBase(base *packing.Base, artwork ArtworkSource, opts Options) (Artifact, error) {
	svg, err := BuildSVG(base, artwork, opts)
	if err != nil {
		return Artifact{}, err
	}

	pdf, err := ToPDF(svg)
	if err != nil {
		return Artifact{}, err
	}

	return Artifact{BaseIndex: base.Index, Extension: "pdf", Data: pdf}, nil
}

// RenderBases renders every base in bases, in order, stopping at the
// first failure: no partial artifact set is ever returned — either all
// bases render or none do.
func RenderBases(bases []*packing.Base, artwork ArtworkSource, opts Options) ([]Artifact, error) {
	artifacts := make([]Artifact, 0, len(bases))
	for _, b := range bases {
		a, err := RenderBase(b, artwork, opts)
		if err != nil {
			return nil, fmt.Errorf("rendering base %d: %w", b.Index, err)
		}
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// ArtifactPath builds the storage path for a rendered base, per the
// core's fixed convention: tenant/{tenant}/outputs/{job}/base_{i}.{ext}.
func ArtifactPath(tenantID, jobID string, a Artifact) string {
	return fmt.Sprintf("tenant/%s/outputs/%s/base_%d.%s", tenantID, jobID, a.BaseIndex, a.Extension)
}
