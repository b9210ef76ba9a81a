package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"github.com/GianGoulart/printer-queue-generation/pkg/baserender"
	"github.com/GianGoulart/printer-queue-generation/pkg/cache"
	apperrors "github.com/GianGoulart/printer-queue-generation/pkg/errors"
	"github.com/GianGoulart/printer-queue-generation/pkg/manifest"
	"github.com/GianGoulart/printer-queue-generation/pkg/observability"
	"github.com/GianGoulart/printer-queue-generation/pkg/packing"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
	"github.com/GianGoulart/printer-queue-generation/pkg/storage"
)

// Driver executes the sizing → packing → rendering stage sequence for
// jobs. It is stateless except for its collaborators, and safe for
// concurrent use by distinct jobs — each Run call is independent,
// matching the one-job-at-a-time-per-worker scheduling model.
type Driver struct {
	Resolver  ProfileResolver
	Cache     cache.Cache
	Store     manifest.Store
	Artwork   baserender.ArtworkSource
	Artifacts storage.ArtifactWriter
	Logger    *log.Logger
}

// NewDriver creates a driver with the given collaborators. A nil cache
// disables profile-set caching; a nil logger discards output.
func NewDriver(resolver ProfileResolver, c cache.Cache, store manifest.Store, artwork baserender.ArtworkSource, artifacts storage.ArtifactWriter, logger *log.Logger) *Driver {
	if c == nil {
		c = cache.NewNullCache()
	}
	return &Driver{
		Resolver:  resolver,
		Cache:     c,
		Store:     store,
		Artwork:   artwork,
		Artifacts: artifacts,
		Logger:    logOrDefault(logger),
	}
}

// Run executes one job end to end. On any stage failure it returns a
// structured *apperrors.Error describing the failure, writes no
// artifacts, and saves no manifest — partial success is never emitted.
func (d *Driver) Run(ctx context.Context, opts Options) (*Result, error) {
	opts.applyDefaults()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, opts.SoftDeadline)
	defer cancel()

	logger := d.Logger.With("job_id", opts.JobID, "tenant_id", opts.TenantID)

	profiles, err := d.profileSet(ctx, opts.TenantID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeNoProfile, err, "resolving tenant profile set")
	}

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	// Stage 1: sizing.
	sizeStart := time.Now()
	observability.Pipeline().OnSizeStart(ctx, opts.JobID, len(opts.Items))
	sizedItems, sizingErrs := sizing.SizeAll(opts.Items, opts.Machine, profiles)
	observability.Pipeline().OnSizeComplete(ctx, opts.JobID, len(sizedItems), time.Since(sizeStart), firstErr(sizingErrs))
	if len(sizingErrs) > 0 {
		logger.Error("sizing failed", "invalid_items", len(sizingErrs), "duration", fmtDuration(time.Since(sizeStart)))
		return nil, sizingErrs[0]
	}
	logger.Info("sized items", "count", len(sizedItems), "duration", fmtDuration(time.Since(sizeStart)))

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	// Stage 2: packing.
	packStart := time.Now()
	observability.Pipeline().OnPackStart(ctx, opts.JobID, string(opts.Mode), len(sizedItems))
	packResult, err := packing.Pack(sizedItems, opts.Machine, opts.Mode)
	observability.Pipeline().OnPackComplete(ctx, opts.JobID, len(packResult.Bases), time.Since(packStart), err)
	if err != nil {
		logger.Error("packing failed", "error", err, "duration", fmtDuration(time.Since(packStart)))
		return nil, err
	}
	logger.Info("packed bases", "bases", len(packResult.Bases), "mode", opts.Mode, "duration", fmtDuration(time.Since(packStart)))

	if err := checkDeadline(ctx); err != nil {
		return nil, err
	}

	// Stage 3: rendering.
	renderStart := time.Now()
	observability.Pipeline().OnRenderStart(ctx, opts.JobID, len(packResult.Bases))
	renderOpts := baserender.Options{Reproducible: opts.Reproducible}
	artifacts, err := baserender.RenderBases(packResult.Bases, d.Artwork, renderOpts)
	observability.Pipeline().OnRenderComplete(ctx, opts.JobID, len(artifacts), time.Since(renderStart), err)
	if err != nil {
		logger.Error("rendering failed", "error", err, "duration", fmtDuration(time.Since(renderStart)))
		return nil, err
	}
	logger.Info("rendered bases", "artifacts", len(artifacts), "duration", fmtDuration(time.Since(renderStart)))

	artifactURIs := make([]string, len(artifacts))
	for i, a := range artifacts {
		path := baserender.ArtifactPath(opts.TenantID, opts.JobID, a)
		if d.Artifacts != nil {
			if err := storage.WriteWithRetry(ctx, d.Artifacts, path, a.Data); err != nil {
				logger.Error("writing artifact failed", "path", path, "error", err)
				return nil, err
			}
		}
		artifactURIs[i] = path
	}

	m := manifest.Build(opts.JobID, opts.TenantID, len(opts.Items), nil, sizedItems, packResult, artifactURIs, time.Since(start).Seconds())

	if d.Store != nil {
		if err := d.Store.Save(ctx, m); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeStorageWriteFail, err, "saving manifest")
		}
	}

	logger.Info("job completed", "bases", len(packResult.Bases), "duration", fmtDuration(time.Since(start)))

	return &Result{Manifest: m, Artifacts: artifacts}, nil
}

// profileSet returns the tenant's SizingProfile snapshot, serving it
// from the cache when available and falling back to the resolver. The
// profile set is snapshotted at job start so mid-job catalog mutations
// can't affect sizing.
func (d *Driver) profileSet(ctx context.Context, tenantID string) ([]sizing.SizingProfile, error) {
	key := cache.ProfileSetKey(tenantID)
	if data, hit, err := d.Cache.Get(ctx, key); err == nil && hit {
		if profiles, err := unmarshalProfiles(data); err == nil {
			observability.Cache().OnCacheHit(ctx, "profile_set")
			return profiles, nil
		}
	}
	observability.Cache().OnCacheMiss(ctx, "profile_set")

	profiles, err := d.Resolver.ProfileSet(tenantID)
	if err != nil {
		return nil, err
	}

	if data, err := marshalProfiles(profiles); err == nil {
		_ = d.Cache.Set(ctx, key, data, DefaultProfileCacheTTL)
		observability.Cache().OnCacheSet(ctx, "profile_set", len(data))
	}

	return profiles, nil
}

// firstErr returns the first error in errs, or nil if errs is empty,
// for handing a single representative error to an observability hook.
func firstErr(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}

// checkDeadline observes cancellation between stages only, never
// mid-stage, so a stage never sees a half-cancelled context.
func checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return apperrors.Wrap(apperrors.CodeTimeout, ctx.Err(), "soft deadline exceeded")
	default:
		return nil
	}
}
