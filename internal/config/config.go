package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"media-organizer/internal/media"
)

// DefaultTargetDir is the target used when none is given. Relative targets
// are resolved against the working directory.
const DefaultTargetDir = "___organized_media"

// DefaultSkipDirs are folders created by cameras, sync tools and operating
// systems that never hold user media.
var DefaultSkipDirs = []string{
	".stfolder",
	".fseventsd",
	".Trashes",
	".Spotlight-V100",
	"PRIVATE",
	"AVF_INFO",
	"THMBNL",
}

// Config represents a media-organizer run.
type Config struct {
	SourceDir        string   `toml:"source_dir"`
	TargetDir        string   `toml:"target_dir"`
	DryRun           bool     `toml:"dry_run"`
	Manifest         bool     `toml:"manifest"`
	CleanupEmptyDirs bool     `toml:"cleanup_empty_dirs"`
	UTC              bool     `toml:"utc"` // date folders in UTC instead of local time
	PhotoExtensions  []string `toml:"photo_extensions"`
	VideoExtensions  []string `toml:"video_extensions"`
	SkipDirs         []string `toml:"skip_dirs"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		SourceDir:       ".",
		TargetDir:       DefaultTargetDir,
		PhotoExtensions: append([]string(nil), media.DefaultPhotoExts...),
		VideoExtensions: append([]string(nil), media.DefaultVideoExts...),
		SkipDirs:        append([]string(nil), DefaultSkipDirs...),
	}
}

// Validate checks the config for values the organizer cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.SourceDir) == "" {
		errs = append(errs, errors.New("source_dir is empty"))
	}
	if strings.TrimSpace(c.TargetDir) == "" {
		errs = append(errs, errors.New("target_dir is empty"))
	}
	if len(c.PhotoExtensions)+len(c.VideoExtensions) == 0 {
		errs = append(errs, errors.New("no photo or video extensions configured"))
	}

	seen := make(map[string]string)
	check := func(kind string, exts []string) {
		for _, ext := range exts {
			norm := strings.ToLower(strings.TrimSpace(ext))
			if norm == "" || norm == "." {
				errs = append(errs, fmt.Errorf("%s_extensions: empty extension", kind))
				continue
			}
			if !strings.HasPrefix(norm, ".") {
				norm = "." + norm
			}
			if other, ok := seen[norm]; ok && other != kind {
				errs = append(errs, fmt.Errorf("extension %s is listed as both %s and %s", norm, other, kind))
			}
			seen[norm] = kind
		}
	}
	check("photo", c.PhotoExtensions)
	check("video", c.VideoExtensions)

	if c.SourceDir != "" && c.TargetDir != "" {
		src, err1 := filepath.Abs(c.SourceDir)
		dst, err2 := filepath.Abs(c.TargetDir)
		switch {
		case err1 != nil || err2 != nil:
		case strings.EqualFold(src, dst):
			errs = append(errs, fmt.Errorf("target_dir %s is the source directory", c.TargetDir))
		case within(src, dst):
			errs = append(errs, fmt.Errorf("source_dir %s is inside target_dir %s", c.SourceDir, c.TargetDir))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// within reports whether path sits below dir. Both must be absolute and
// clean; case is ignored.
func within(path, dir string) bool {
	prefix := strings.TrimSuffix(dir, string(filepath.Separator)) + string(filepath.Separator)
	return strings.HasPrefix(strings.ToLower(path), strings.ToLower(prefix))
}

// Types builds the extension sets from the config.
func (c *Config) Types() media.Types {
	return media.NewTypes(c.PhotoExtensions, c.VideoExtensions)
}

// Location returns the time zone date folders are computed in.
func (c *Config) Location() *time.Location {
	if c.UTC {
		return time.UTC
	}
	return time.Local
}

// SkipDir reports whether a directory named name is in the skip list.
func (c *Config) SkipDir(name string) bool {
	for _, s := range c.SkipDirs {
		if s == name {
			return true
		}
	}
	return false
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from r on top of Default, so omitted keys keep
// their default values.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := Default()
	if _, err := toml.NewDecoder(r).Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Write encodes cfg to w.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to path. It refuses to overwrite an existing file.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}
