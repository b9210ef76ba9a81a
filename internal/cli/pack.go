package cli

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/GianGoulart/printer-queue-generation/pkg/artwork"
	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
	"github.com/GianGoulart/printer-queue-generation/pkg/httputil"
	"github.com/GianGoulart/printer-queue-generation/pkg/manifest"
	"github.com/GianGoulart/printer-queue-generation/pkg/packing"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
	"github.com/GianGoulart/printer-queue-generation/pkg/skyline"
	"github.com/GianGoulart/printer-queue-generation/pkg/storage"

	"github.com/GianGoulart/printer-queue-generation/internal/pipeline"
)

// packCommand creates the "pack" command: runs the full sizing →
// packing → rendering pipeline against a local job fixture, with no
// network or database dependency.
func (c *CLI) packCommand() *cobra.Command {
	var outputDir string
	var noDecodeCache bool
	var cacheBackend string
	var redisAddr string

	cmd := &cobra.Command{
		Use:   "pack <fixture.json>",
		Short: "Run the composition pipeline against a local job fixture",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPack(cmd.Context(), c.Logger, args[0], outputDir, noDecodeCache, cacheBackend, redisAddr)
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "./output", "directory for manifests, artifacts, and diagnostics")
	cmd.Flags().BoolVar(&noDecodeCache, "no-decode-cache", false, "disable the artwork bounds decode cache")
	cmd.Flags().StringVar(&cacheBackend, "cache", "file", "profile cache backend: file, redis, or none")
	cmd.Flags().StringVar(&redisAddr, "redis-addr", "localhost:6379", "redis address, when --cache=redis")

	return cmd
}

// decodeCacheEntry is the JSON shape stored per artwork file in the
// bounds decode cache: re-decoding a PNG/JPEG header is cheap, but a
// fixture with hundreds of items still benefits from skipping it on
// repeat "pack" runs against the same directory.
type decodeCacheEntry struct {
	WidthPx  int    `json:"width_px"`
	HeightPx int    `json:"height_px"`
	Format   string `json:"format"`
}

func runPack(ctx context.Context, logger *log.Logger, fixturePath, outputDir string, noDecodeCache bool, cacheBackend, redisAddr string) error {
	fixture, err := loadFixture(fixturePath)
	if err != nil {
		return err
	}

	profileCache, err := newProfileCache(cacheBackend, redisAddr)
	if err != nil {
		return fmt.Errorf("opening profile cache: %w", err)
	}

	p := newProgress(logger)

	var decodeCache *httputil.Cache
	if !noDecodeCache {
		decodeCache, err = httputil.NewCache(filepath.Join(outputDir, ".decode-cache"), 0)
		if err != nil {
			logger.Warnf("artwork decode cache unavailable, decoding every item: %v", err)
			decodeCache = nil
		}
	}

	items := make([]sizing.ResolvedItem, 0, len(fixture.Items))
	for _, fi := range fixture.Items {
		item, cached, err := resolveFixtureItem(fixture, fi, decodeCache)
		if err != nil {
			return fmt.Errorf("item %s: %w", fi.SKU, err)
		}
		printDecodeStatus(fi.SKU, cached)
		items = append(items, item)
	}
	p.done(fmt.Sprintf("decoded %d items", len(items)))

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	store, err := manifest.NewFileStore(filepath.Join(outputDir, "manifests"))
	if err != nil {
		return fmt.Errorf("opening manifest store: %w", err)
	}
	defer store.Close(ctx)

	artifacts, err := storage.NewLocalStore(outputDir)
	if err != nil {
		return fmt.Errorf("opening artifact store: %w", err)
	}

	driver := pipeline.NewDriver(
		fixtureResolver{profiles: fixture.profiles()},
		profileCache,
		store,
		fixtureArtwork{},
		artifacts,
		logger,
	)

	spin := newSpinnerWithContext(ctx, "packing bases")
	spin.Start()

	result, err := driver.Run(ctx, pipeline.Options{
		JobID:        fixture.JobID,
		TenantID:     fixture.TenantID,
		Machine:      fixture.machine(),
		Items:        items,
		Mode:         packing.Mode(fixture.Mode),
		Reproducible: fixture.Reproducible,
	})
	if err != nil {
		var collision *packing.CollisionError
		if ok := asCollisionError(err, &collision); ok {
			spin.StopWithError(err.Error())
			return writeCollisionDiagnostic(ctx, outputDir, collision)
		}
		spin.StopWithError(err.Error())
		return err
	}
	spin.StopWithSuccess(fmt.Sprintf("packed %d base(s)", len(result.Manifest.Packing.Bases)))

	printNewline()
	printKeyValue("Job ID", result.Manifest.JobID)
	printKeyValue("Mode", result.Manifest.Mode)
	printKeyValue("Bases", fmt.Sprintf("%d", result.Manifest.Packing.TotalBases))
	printKeyValue("Avg utilization", fmt.Sprintf("%.1f%%", result.Manifest.Packing.AvgUtilization*100))
	printKeyValue("Processing time", fmt.Sprintf("%.3fs", result.Manifest.ProcessingTimeSeconds))

	printNewline()
	for _, a := range result.Artifacts {
		printFile(fmt.Sprintf("base_%d.%s", a.BaseIndex, a.Extension))
	}

	if n := len(result.Manifest.Sizing.Warnings); n > 0 {
		printNewline()
		for _, w := range result.Manifest.Sizing.Warnings {
			printWarning("%s (item %s, position %d): %s", w.Code, w.ItemID, w.PicklistPosition, w.Message)
		}
	}

	return nil
}

// resolveFixtureItem decodes one fixture item's artwork bounds,
// consulting the decode cache first when available, and returns
// whether the cache served the result.
func resolveFixtureItem(fixture jobFixture, fi fixtureItem, decodeCache *httputil.Cache) (sizing.ResolvedItem, bool, error) {
	path := fixture.artworkPath(fi)
	data, err := os.ReadFile(path)
	if err != nil {
		return sizing.ResolvedItem{}, false, apperrors.Wrap(apperrors.CodeInvalidInput, err, "reading artwork %s", path)
	}

	key := decodeCacheKey(path, data)
	var dims artwork.Dimensions
	cached := false

	if decodeCache != nil {
		var entry decodeCacheEntry
		if hit, _ := decodeCache.Get(key, &entry); hit {
			dims = artwork.Dimensions{WidthPx: entry.WidthPx, HeightPx: entry.HeightPx, Format: entry.Format}
			cached = true
		}
	}

	if !cached {
		dims, err = artwork.Decode(data)
		if err != nil {
			return sizing.ResolvedItem{}, false, err
		}
		if decodeCache != nil {
			_ = decodeCache.Set(key, decodeCacheEntry{WidthPx: dims.WidthPx, HeightPx: dims.HeightPx, Format: dims.Format})
		}
	}

	return sizing.ResolvedItem{
		ItemID:           fi.ItemID,
		SKU:              fi.SKU,
		PicklistPosition: fi.PicklistPosition,
		ArtworkWidthPx:   dims.WidthPx,
		ArtworkHeightPx:  dims.HeightPx,
		ArtworkDPI:       fi.ArtworkDPI,
		ArtworkFormat:    dims.Format,
		ArtworkHandle:    path,
	}, cached, nil
}

// decodeCacheKey keys the decode cache on the artwork's content hash
// rather than its path, so a fixture file moved or copied elsewhere
// still hits the cache.
func decodeCacheKey(path string, data []byte) string {
	sum := sha256.Sum256(data)
	return "artwork:" + filepath.Base(path) + ":" + hex.EncodeToString(sum[:8])
}

// asCollisionError unwraps err looking for a *packing.CollisionError,
// matching the errors.As contract without importing the stdlib errors
// package into this file's import list twice.
func asCollisionError(err error, target **packing.CollisionError) bool {
	for err != nil {
		if ce, ok := err.(*packing.CollisionError); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// writeCollisionDiagnostic renders the failed base's skyline state to
// an SVG file under outputDir, for inspection by the "diagnose" command
// or a human reading the failure report directly.
func writeCollisionDiagnostic(ctx context.Context, outputDir string, collision *packing.CollisionError) error {
	sl := skyline.FromSegments(collision.Snapshot.Segments)
	svg, err := sl.RenderDiagnosticSVG(ctx)
	if err != nil {
		return fmt.Errorf("rendering collision diagnostic: %w", err)
	}
	path := filepath.Join(outputDir, fmt.Sprintf("collision_base_%d.svg", collision.Snapshot.BaseIndex))
	if err := os.WriteFile(path, svg, 0644); err != nil {
		return fmt.Errorf("writing collision diagnostic: %w", err)
	}
	printError("collision failsafe fired on base %d", collision.Snapshot.BaseIndex)
	printFile(path)
	return collision
}
