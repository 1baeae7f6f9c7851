package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// AssetPrefix is the fixed web-relative prefix under which stored image
// paths are expressed, e.g. "assets/uploads/<slug>/<file>". Embedded asset
// references in recipe files always start with this prefix.
const AssetPrefix = "assets/uploads"

// Config holds application configuration. It is built once at process start
// and passed by reference into the store, asset, and server layers; there is
// no package-level configuration state.
type Config struct {
	// DataDir is the directory holding one YAML file per recipe.
	DataDir string

	// UploadsDir is the root of the per-slug asset directories.
	UploadsDir string

	// MaxImageMB is the maximum accepted upload size in megabytes.
	MaxImageMB float64

	// ThumbMaxPx is the longest-side pixel bound; larger uploads are
	// downscaled to fit before being stored.
	ThumbMaxPx int
}

// Default returns the default configuration rooted at baseDir.
func Default(baseDir string) *Config {
	return &Config{
		DataDir:    filepath.Join(baseDir, "data", "recipes"),
		UploadsDir: filepath.Join(baseDir, "assets", "uploads"),
		MaxImageMB: 8,
		ThumbMaxPx: 800,
	}
}

// FromEnv builds a Config from defaults overridden by YENU_* environment
// variables: YENU_BASE_DIR, YENU_DATA_DIR, YENU_UPLOADS_DIR,
// YENU_MAX_IMAGE_MB, YENU_THUMB_MAX_PX.
func FromEnv() (*Config, error) {
	baseDir := os.Getenv("YENU_BASE_DIR")
	if baseDir == "" {
		baseDir = "."
	}
	cfg := Default(baseDir)

	if v := os.Getenv("YENU_DATA_DIR"); v != "" {
		cfg.DataDir = v
	}
	if v := os.Getenv("YENU_UPLOADS_DIR"); v != "" {
		cfg.UploadsDir = v
	}
	if v := os.Getenv("YENU_MAX_IMAGE_MB"); v != "" {
		mb, err := strconv.ParseFloat(v, 64)
		if err != nil || mb <= 0 {
			return nil, fmt.Errorf("invalid YENU_MAX_IMAGE_MB %q", v)
		}
		cfg.MaxImageMB = mb
	}
	if v := os.Getenv("YENU_THUMB_MAX_PX"); v != "" {
		px, err := strconv.Atoi(v)
		if err != nil || px <= 0 {
			return nil, fmt.Errorf("invalid YENU_THUMB_MAX_PX %q", v)
		}
		cfg.ThumbMaxPx = px
	}

	return cfg, nil
}

// EnsureDirs creates the data and uploads directories if missing.
// Safe to call repeatedly.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.DataDir, c.UploadsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}
