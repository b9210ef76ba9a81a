// Package pkg provides the libraries that make up the DTF base
// composition core: projecting resolved picklist items into print
// dimensions, packing them onto fixed-width bases, and rendering one
// print artifact per base.
//
// # Overview
//
// A job flows through three stages, each its own package:
//
//	ResolvedItem (picklist + artwork metadata)
//	         ↓
//	    [sizing]   — target width lookup, aspect-preserving scale,
//	                 width-fit fallback, DPI/format validation
//	         ↓
//	    [packing]  — skyline-based placement onto one or more bases
//	         ↓
//	    [baserender] — one print artifact per finalized base
//	         ↓
//	    [manifest] — the audit trail persisted for the job
//
// [internal/pipeline] orchestrates the three stages for one job,
// snapshotting the tenant's sizing-profile set via [pkg/cache] and
// persisting the result via [pkg/manifest]'s Store interface.
//
// # Supporting packages
//
// [pkg/geometry] - millimeter-space rectangles and the overlap/fit
// tolerance shared by sizing, skyline, and packing.
//
// [pkg/skyline] - the packing engine's central data structure: the
// upper envelope of everything placed on a base so far, plus Graphviz
// diagnostics for the rare INTERNAL_COLLISION failsafe.
//
// [pkg/artwork] - PNG/JPEG bounds decoding and thumbnailing for
// artwork handles that resolve to bytes directly (the offline CLI
// fixture path).
//
// [pkg/errors] - the structured error taxonomy shared by every stage.
//
// [pkg/cache] - a small TTL-aware byte cache (File/Null/Redis
// implementations) used to snapshot tenant sizing-profile sets.
//
// [pkg/storage] - the artifact-write collaborator, retried with
// bounded exponential backoff per the core's resource model.
//
// [pkg/observability] - optional instrumentation hooks for the three
// pipeline stages and the profile cache, emitted by the pipeline driver
// and no-ops unless a program registers its own.
package pkg
