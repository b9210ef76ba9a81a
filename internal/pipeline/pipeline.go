// Package pipeline orchestrates the sizing → packing → rendering stage
// sequence for one job, composing the manifest and persisting artifacts.
// The driver is stateless and holds only collaborators (cache, store,
// logger), safe for concurrent use by distinct jobs.
package pipeline

import (
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/GianGoulart/printer-queue-generation/pkg/baserender"
	"github.com/GianGoulart/printer-queue-generation/pkg/manifest"
	"github.com/GianGoulart/printer-queue-generation/pkg/packing"
	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
)

// DefaultSoftDeadline is the default per-job wall-clock budget.
const DefaultSoftDeadline = 5 * time.Minute

// DefaultProfileCacheTTL is how long a resolved tenant profile set is
// cached before the driver re-reads it from its source of truth.
const DefaultProfileCacheTTL = 5 * time.Minute

// Options configures a single job run.
type Options struct {
	JobID        string
	TenantID     string
	Machine      sizing.Machine
	Items        []sizing.ResolvedItem
	Mode         packing.Mode
	Reproducible bool

	// SoftDeadline overrides DefaultSoftDeadline when non-zero.
	SoftDeadline time.Duration
}

func (o *Options) applyDefaults() {
	if o.SoftDeadline <= 0 {
		o.SoftDeadline = DefaultSoftDeadline
	}
	if o.Mode == "" {
		o.Mode = packing.ModeSequence
	}
	if o.JobID == "" {
		o.JobID = uuid.New().String()
	}
	for i := range o.Items {
		if o.Items[i].ItemID == "" {
			o.Items[i].ItemID = uuid.New().String()
		}
	}
}

// Result is the outcome of a successful job run.
type Result struct {
	Manifest  manifest.Manifest
	Artifacts []baserender.Artifact
}

// ProfileResolver returns the current SizingProfile set for a tenant.
// It is the core's narrow contract onto the tenant catalog, which lives
// out of this module; the driver only reads it at job start and caches
// the snapshot for the duration of the job.
type ProfileResolver interface {
	ProfileSet(tenantID string) ([]sizing.SizingProfile, error)
}

// marshalProfiles and unmarshalProfiles are the cache wire format for
// a tenant's profile snapshot.
func marshalProfiles(profiles []sizing.SizingProfile) ([]byte, error) {
	return json.Marshal(profiles)
}

func unmarshalProfiles(data []byte) ([]sizing.SizingProfile, error) {
	var profiles []sizing.SizingProfile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func logOrDefault(l *log.Logger) *log.Logger {
	if l != nil {
		return l
	}
	return log.Default()
}

func fmtDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
