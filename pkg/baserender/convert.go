package baserender

import (
	"bytes"
	"fmt"
	"os/exec"

	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
)

// DefaultCreator is the creator string BuildSVG writes into each base
// SVG's <metadata> block, carried over from the original printer queue
// service's identity.
const DefaultCreator = "Printer Queue Service v1.0"

// ToPDF converts an SVG base document to a PDF artifact via the
// rsvg-convert CLI.
func ToPDF(svg []byte) ([]byte, error) {
	return rsvgConvert(svg, "pdf")
}

// ToPNG converts an SVG base document to a PNG preview at the given
// scale. No command in this repository calls it.
func ToPNG(svg []byte, scale float64) ([]byte, error) {
	return rsvgConvert(svg, "png", "-z", fmt.Sprintf("%.2f", scale))
}

func rsvgConvert(svg []byte, format string, extraArgs ...string) ([]byte, error) {
	if _, err := exec.LookPath("rsvg-convert"); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRenderFail, err, "%s export requires librsvg (install librsvg2-bin / librsvg)", format)
	}

	args := append([]string{"-f", format}, extraArgs...)
	cmd := exec.Command("rsvg-convert", args...)
	cmd.Stdin = bytes.NewReader(svg)

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeRenderFail, err, "rsvg-convert: %s", errBuf.String())
	}
	return out.Bytes(), nil
}
