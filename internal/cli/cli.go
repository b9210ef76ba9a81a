// Package cli implements the base worker's command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/GianGoulart/printer-queue-generation/pkg/buildinfo"
	"github.com/GianGoulart/printer-queue-generation/pkg/cache"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "printqueue"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "base",
		Short:        "base composes picklist items into printable DTF base artifacts",
		Long:         `base sizes picklist items against a tenant's sizing profiles, packs them onto fixed-width print bases with the skyline algorithm, and renders one print artifact per base.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	root.AddCommand(c.packCommand())
	root.AddCommand(c.watchCommand())
	root.AddCommand(c.diagnoseCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Profile Cache Factory
// =============================================================================

// newProfileCache builds the cache.Cache backend the pipeline driver
// uses for tenant sizing profile sets, selected by the "pack" command's
// --cache flag. "redis" shares one cache across concurrent worker
// processes; "file" is the single-process default; "none" disables
// caching entirely.
func newProfileCache(backend, redisAddr string) (cache.Cache, error) {
	switch backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(redisAddr)
	case "file", "":
		dir, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		return cache.NewFileCache(dir)
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want file, redis, or none)", backend)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the profile cache directory using the XDG standard
// (~/.cache/printqueue/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
