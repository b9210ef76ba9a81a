// Package baserender emits one print artifact per finalized base: an
// SVG document sized to the base's exact millimeter dimensions, with
// one <image> element per placement at its exact (x, y) coordinates and
// (width, height) dimensions, converted to the final output format by
// shelling out to the real rsvg-convert CLI tool.
//
// SVG's <image> element preserves the source raster's alpha channel
// natively, satisfying the core's requirement that transparency in
// source artwork is preserved: unlike a flattening PDF library, nothing
// here composites onto an opaque background.
package baserender

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/GianGoulart/printer-queue-generation/pkg/packing"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
)

// epoch is the fixed timestamp substituted for the real render time
// when Options.Reproducible is set, so two renders of identical inputs
// are byte-identical.
var epoch = time.Unix(0, 0).UTC()

// ArtworkSource resolves an item's opaque artwork handle to raw bytes
// and its MIME type, for embedding as a base64 data URI. The storage
// collaborator that actually reads artwork bytes lives outside the
// core; this interface is the narrow contract the renderer depends on.
type ArtworkSource interface {
	Fetch(handle string) (data []byte, mimeType string, err error)
}

// BuildSVG renders base as an SVG document: width/height attributes in
// millimeters (honored natively by rsvg-convert and most SVG
// renderers), one <image> per placement, no other visual elements. A
// non-visual <metadata> block carries the document Creator identity and
// a render timestamp, pinned to a fixed epoch when opts.Reproducible is
// set.
func BuildSVG(base *packing.Base, artwork ArtworkSource, opts ...Options) ([]byte, error) {
	var opt Options
	if len(opts) > 0 {
		opt = opts[0]
	}

	length := base.ContentLengthMM + sizing.SideMarginMM

	renderedAt := time.Now().UTC()
	if opt.Reproducible {
		renderedAt = epoch
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" width="%.4fmm" height="%.4fmm" viewBox="0 0 %.4f %.4f">`+"\n",
		base.WidthMM, length, base.WidthMM, length)
	fmt.Fprintf(&buf, `  <metadata>creator=%s; base_index=%d; rendered_at=%s</metadata>`+"\n",
		DefaultCreator, base.Index, renderedAt.Format(time.RFC3339))

	for _, p := range base.Placements {
		data, mimeType, err := artwork.Fetch(p.Item.ArtworkHandle)
		if err != nil {
			return nil, err
		}
		encoded := base64.StdEncoding.EncodeToString(data)
		fmt.Fprintf(&buf, `  <image x="%.4f" y="%.4f" width="%.4f" height="%.4f" href="data:%s;base64,%s" preserveAspectRatio="none"/>`+"\n",
			p.X, p.Y, p.Width, p.Height, mimeType, encoded)
	}

	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}
