package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/GianGoulart/printer-queue-generation/pkg/artwork"
	"github.com/GianGoulart/printer-queue-generation/pkg/packing"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
	"github.com/GianGoulart/printer-queue-generation/pkg/skyline"
)

// thumbnailMaxSidePx bounds the longest side of a diagnostic artwork
// preview, kept small since it's only for eyeballing orientation and
// aspect ratio alongside the skyline SVGs.
const thumbnailMaxSidePx = 160

// diagnoseCommand creates the "diagnose" command: runs only the
// sizing and packing stages against a fixture and renders every
// resulting base's skyline to an SVG, independent of whether the
// anti-collision failsafe fired. Unlike "pack", it never renders
// print artifacts or writes a manifest, so it is cheap enough to run
// on every base even for jobs that pack cleanly.
func (c *CLI) diagnoseCommand() *cobra.Command {
	var outputDir string
	var thumbnails bool

	cmd := &cobra.Command{
		Use:   "diagnose <fixture.json>",
		Short: "Render skyline diagnostics for a job fixture's packing result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := withLogger(cmd.Context(), c.Logger)
			return runDiagnose(ctx, args[0], outputDir, thumbnails)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "./output/diagnostics", "directory for skyline SVGs")
	cmd.Flags().BoolVar(&thumbnails, "thumbnails", false, "also write a small PNG preview of each item's source artwork")

	return cmd
}

func runDiagnose(ctx context.Context, fixturePath, outputDir string, thumbnails bool) error {
	logger := loggerFromContext(ctx)

	fixture, err := loadFixture(fixturePath)
	if err != nil {
		return err
	}

	if thumbnails {
		if err := os.MkdirAll(filepath.Join(outputDir, "thumbnails"), 0755); err != nil {
			return err
		}
	}

	items := make([]sizing.ResolvedItem, 0, len(fixture.Items))
	for _, fi := range fixture.Items {
		item, _, err := resolveFixtureItem(fixture, fi, nil)
		if err != nil {
			return fmt.Errorf("item %s: %w", fi.SKU, err)
		}
		items = append(items, item)

		if thumbnails {
			if err := writeArtworkThumbnail(fixture, fi, outputDir); err != nil {
				printWarning("thumbnail for %s: %v", fi.SKU, err)
				logger.Warn("thumbnail generation failed", "sku", fi.SKU, "error", err)
			}
		}
	}

	sizedItems, sizingErrs := sizing.SizeAll(items, fixture.machine(), fixture.profiles())
	for _, e := range sizingErrs {
		printWarning("sizing: %v", e)
		logger.Warn("item dropped during sizing", "error", e)
	}
	if len(sizedItems) == 0 {
		return fmt.Errorf("no items survived sizing")
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	result, err := packing.Pack(sizedItems, fixture.machine(), packing.Mode(fixture.Mode))
	if err != nil {
		var collision *packing.CollisionError
		if ok := asCollisionError(err, &collision); ok {
			printError("collision failsafe fired on base %d", collision.Snapshot.BaseIndex)
			return renderSkylineSVG(ctx, outputDir, collision.Snapshot.BaseIndex, collision.Snapshot.Segments)
		}
		return err
	}

	for _, base := range result.Bases {
		if err := renderSkylineSVG(ctx, outputDir, base.Index, base.Skyline.Segments()); err != nil {
			return err
		}
		printKeyValue(fmt.Sprintf("Base %d", base.Index), fmt.Sprintf("%d items, %.1f%% utilization", len(base.Placements), base.Utilization()*100))
	}

	return nil
}

// writeArtworkThumbnail writes a small PNG preview of one fixture
// item's source artwork, so a human reviewing skyline diagnostics can
// see orientation and aspect ratio without opening the original file.
func writeArtworkThumbnail(fixture jobFixture, fi fixtureItem, outputDir string) error {
	path := fixture.artworkPath(fi)
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	thumb, err := artwork.Thumbnail(data, thumbnailMaxSidePx)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outputDir, "thumbnails", fi.SKU+".png"), thumb, 0644)
}

func renderSkylineSVG(ctx context.Context, outputDir string, baseIndex int, segments []skyline.Segment) error {
	sl := skyline.FromSegments(segments)
	svg, err := sl.RenderDiagnosticSVG(ctx)
	if err != nil {
		return fmt.Errorf("rendering base %d skyline: %w", baseIndex, err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("base_%d_skyline.svg", baseIndex))
	if err := os.WriteFile(path, svg, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	printFile(path)
	return nil
}
