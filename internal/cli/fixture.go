package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/GianGoulart/printer-queue-generation/pkg/sizing"
)

// fixtureItem is one picklist item in an offline job fixture: enough to
// build a sizing.ResolvedItem once its artwork file is decoded.
type fixtureItem struct {
	ItemID           string `json:"item_id"`
	SKU              string `json:"sku"`
	PicklistPosition int    `json:"picklist_position"`
	ArtworkPath      string `json:"artwork_path"`
	ArtworkDPI       int    `json:"artwork_dpi"`
}

// fixtureProfile is one tenant sizing profile in an offline job fixture.
type fixtureProfile struct {
	SKUPrefix     string  `json:"sku_prefix"`
	TargetWidthMM float64 `json:"target_width_mm"`
	IsDefault     bool    `json:"is_default"`
}

// fixtureMachine is the print machine's physical limits in an offline
// job fixture.
type fixtureMachine struct {
	UsableWidthMM float64 `json:"usable_width_mm"`
	MaxLengthMM   float64 `json:"max_length_mm"`
	MinDPI        int     `json:"min_dpi"`
}

// jobFixture is the "pack" command's input format: a complete job
// specification that needs no resolver or catalog service, so the
// pipeline driver can be exercised entirely offline against artwork
// files on disk.
type jobFixture struct {
	JobID        string           `json:"job_id"`
	TenantID     string           `json:"tenant_id"`
	Mode         string           `json:"mode"`
	Reproducible bool             `json:"reproducible"`
	Machine      fixtureMachine   `json:"machine"`
	Profiles     []fixtureProfile `json:"profiles"`
	Items        []fixtureItem    `json:"items"`

	// dir is the directory the fixture file lives in; artwork_path
	// entries resolve relative to it.
	dir string
}

// loadFixture reads and parses a job fixture from path.
func loadFixture(path string) (jobFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return jobFixture{}, fmt.Errorf("reading fixture %s: %w", path, err)
	}
	var f jobFixture
	if err := json.Unmarshal(data, &f); err != nil {
		return jobFixture{}, fmt.Errorf("parsing fixture %s: %w", path, err)
	}
	if len(f.Items) == 0 {
		return jobFixture{}, fmt.Errorf("fixture %s: no items", path)
	}
	f.dir = filepath.Dir(path)
	return f, nil
}

func (f jobFixture) machine() sizing.Machine {
	return sizing.Machine{
		UsableWidthMM: f.Machine.UsableWidthMM,
		MaxLengthMM:   f.Machine.MaxLengthMM,
		MinDPI:        f.Machine.MinDPI,
	}
}

func (f jobFixture) profiles() []sizing.SizingProfile {
	out := make([]sizing.SizingProfile, 0, len(f.Profiles))
	for _, p := range f.Profiles {
		out = append(out, sizing.SizingProfile{
			SKUPrefix:     p.SKUPrefix,
			TargetWidthMM: p.TargetWidthMM,
			IsDefault:     p.IsDefault,
		})
	}
	return out
}

// artworkPath resolves one item's artwork_path relative to the
// fixture's own directory.
func (f jobFixture) artworkPath(item fixtureItem) string {
	if filepath.IsAbs(item.ArtworkPath) {
		return item.ArtworkPath
	}
	return filepath.Join(f.dir, item.ArtworkPath)
}

// fixtureResolver adapts a jobFixture's static profile list to the
// pipeline's ProfileResolver contract.
type fixtureResolver struct {
	profiles []sizing.SizingProfile
}

func (r fixtureResolver) ProfileSet(tenantID string) ([]sizing.SizingProfile, error) {
	return r.profiles, nil
}

// fixtureArtwork reads artwork bytes straight off disk, implementing
// baserender.ArtworkSource for the offline "pack" command. Handles are
// the file paths produced by artworkPath, relative to the working
// directory when the fixture path itself is relative.
type fixtureArtwork struct{}

func (fixtureArtwork) Fetch(handle string) ([]byte, string, error) {
	data, err := os.ReadFile(handle)
	if err != nil {
		return nil, "", fmt.Errorf("reading artwork %s: %w", handle, err)
	}
	return data, mimeForExt(filepath.Ext(handle)), nil
}

func mimeForExt(ext string) string {
	switch ext {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "image/png"
	}
}
