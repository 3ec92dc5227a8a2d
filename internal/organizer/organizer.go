// Package organizer walks a source tree and moves every photo and video into
// <target>/YYYY/YYYY-MM-DD/, taking sidecar JSON files along with their media.
//
// A run makes two passes over the source. The first handles sidecars: each
// one is parsed, paired with its media file, and both are moved using the
// sidecar-aware timestamp chain. The second moves every media file the first
// pass did not claim, using embedded metadata and filesystem times only.
// The target tree is never descended into, so running twice is safe.
package organizer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"media-organizer/internal/config"
	"media-organizer/internal/fsx"
	"media-organizer/internal/logging"
	"media-organizer/internal/manifest"
	"media-organizer/internal/matcher"
	"media-organizer/internal/media"
	"media-organizer/internal/metadata"
	"media-organizer/internal/planner"
	"media-organizer/internal/resolve"
	"media-organizer/internal/sidecar"
)

// Stats counts what a run did.
type Stats struct {
	Processed            int
	ProcessedWithJSON    int
	ProcessedWithoutJSON int
	Photos               int
	Videos               int
	Errors               int
	SkippedDirectories   int
	Renamed              int // destinations that needed a numeric suffix
	RemovedDirectories   int
	ManifestRows         int
}

// Organizer moves media from Config.SourceDir into Config.TargetDir.
type Organizer struct {
	Config   *config.Config
	Types    media.Types
	Matcher  *matcher.Matcher
	Resolver *resolve.Resolver
	Planner  planner.Planner
	Mover    fsx.Mover
	Manifest *manifest.Manifest // nil disables the manifest
	Logger   *slog.Logger

	// Set by Run.
	source  string
	target  string
	claimed map[string]bool
	planned map[string]bool
	stats   *Stats
}

// New wires an Organizer from cfg with the real extractors and filesystem.
func New(cfg *config.Config, logger *slog.Logger) (*Organizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger = logging.OrDiscard(logger)
	types := cfg.Types()
	loc := cfg.Location()

	o := &Organizer{
		Config:  cfg,
		Types:   types,
		Matcher: matcher.New(types, logger),
		Resolver: resolve.New(types,
			metadata.NewPhotoExtractor(loc, logger),
			metadata.NewVideoExtractor(logger),
			resolve.OSFileTimes{},
			logger),
		Planner: planner.New(loc),
		Mover:   fsx.OSMover{},
		Logger:  logger,
	}
	o.Resolver.Location = loc
	if cfg.Manifest {
		target, err := filepath.Abs(cfg.TargetDir)
		if err != nil {
			return nil, fmt.Errorf("resolve target dir: %w", err)
		}
		o.Manifest = manifest.New(target)
	}
	return o, nil
}

// Run organizes the source tree. Per-file failures are logged and counted in
// Stats.Errors; Run only returns an error when the source cannot be read or
// ctx is cancelled, in which case the stats so far are still returned.
func (o *Organizer) Run(ctx context.Context) (*Stats, error) {
	o.Logger = logging.OrDiscard(o.Logger)
	if o.Mover == nil {
		o.Mover = fsx.OSMover{}
	}

	var err error
	if o.source, err = filepath.Abs(o.Config.SourceDir); err != nil {
		return nil, fmt.Errorf("resolve source dir: %w", err)
	}
	if o.target, err = filepath.Abs(o.Config.TargetDir); err != nil {
		return nil, fmt.Errorf("resolve target dir: %w", err)
	}
	info, err := os.Stat(o.source)
	if err != nil {
		return nil, fmt.Errorf("read source dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("read source dir: %s is not a directory", o.source)
	}

	o.claimed = make(map[string]bool)
	o.planned = make(map[string]bool)
	o.stats = &Stats{}

	o.Logger.Info("organizing",
		"source", o.source,
		"target", o.target,
		"dry_run", o.Config.DryRun)

	sidecars, err := o.collect(func(path string) bool { return sidecar.IsSidecar(path) }, true)
	if err != nil {
		return nil, err
	}
	o.Logger.Debug("pass 1: sidecars", "count", len(sidecars))
	for _, path := range sidecars {
		if err := ctx.Err(); err != nil {
			return o.stats, err
		}
		o.organizeSidecar(path)
	}

	mediaFiles, err := o.collect(o.Types.IsMedia, false)
	if err != nil {
		return o.stats, err
	}
	o.Logger.Debug("pass 2: media without sidecar", "count", len(mediaFiles))
	for _, path := range mediaFiles {
		if err := ctx.Err(); err != nil {
			return o.stats, err
		}
		if o.claimed[claimKey(path)] {
			continue
		}
		o.organizeMedia(path)
	}

	if o.Config.DryRun {
		return o.stats, nil
	}
	if o.Config.CleanupEmptyDirs {
		o.cleanup()
	}
	if o.Manifest != nil {
		o.saveManifest()
	}
	return o.stats, nil
}

// collect walks the source in lexical order and returns the files keep
// accepts. Hidden entries, skip-listed folders and the target tree are not
// visited. countSkipped adds every directory of the target tree to the stats.
func (o *Organizer) collect(keep func(path string) bool, countSkipped bool) ([]string, error) {
	var files []string
	err := filepath.WalkDir(o.source, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == o.source {
				return fmt.Errorf("read source dir: %w", err)
			}
			o.Logger.Warn("cannot read, skipping", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path == o.source {
				return nil
			}
			if o.isTarget(path) {
				if countSkipped {
					n := countDirs(path)
					o.stats.SkippedDirectories += n
					o.Logger.Debug("skipping target directory", "path", path, "directories", n)
				}
				return filepath.SkipDir
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || o.Config.SkipDir(name) {
				return filepath.SkipDir
			}
			return nil
		}

		if strings.HasPrefix(d.Name(), ".") || !d.Type().IsRegular() {
			return nil
		}
		if keep(path) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// isTarget reports whether dir is the target or inside it. Paths compare
// case-insensitively, component by component.
func (o *Organizer) isTarget(dir string) bool {
	d := strings.ToLower(filepath.Clean(dir))
	t := strings.ToLower(o.target)
	return d == t || strings.HasPrefix(d, t+string(filepath.Separator))
}

func (o *Organizer) organizeSidecar(sidecarPath string) {
	log := o.Logger.With("sidecar", sidecarPath)

	meta, err := sidecar.ReadFile(sidecarPath)
	if err != nil {
		o.stats.Errors++
		log.Error("cannot use sidecar", "error", err)
		return
	}

	match, err := o.Matcher.Find(sidecarPath, meta.Title)
	if err != nil {
		o.stats.Errors++
		log.Error("no media file for sidecar", "title", meta.Title, "error", err)
		return
	}
	key := claimKey(match.Path)
	if o.claimed[key] {
		o.stats.Errors++
		log.Error("media file already paired with another sidecar", "media", match.Path)
		return
	}
	o.claimed[key] = true
	log.Debug("matched media", "media", match.Path, "tier", match.Tier)

	asset := media.Asset{Path: match.Path, Kind: o.Types.Classify(match.Path), SidecarPath: sidecarPath}
	ts := o.Resolver.ResolveWithSidecar(asset.Path, meta)
	dst, ok := o.place(asset, ts)
	if !ok {
		return
	}

	sidecarDst := o.reserve(filepath.Join(filepath.Dir(dst), filepath.Base(asset.SidecarPath)))
	if o.Config.DryRun {
		log.Info("would move sidecar", "to", sidecarDst)
	} else if err := o.Mover.Move(asset.SidecarPath, sidecarDst); err != nil {
		o.stats.Errors++
		log.Error("cannot move sidecar", "error", err)
		sidecarDst = ""
	} else {
		log.Debug("moved sidecar", "to", sidecarDst)
	}

	o.stats.ProcessedWithJSON++
	o.record(asset, dst, sidecarDst, ts)
}

func (o *Organizer) organizeMedia(path string) {
	asset := media.Asset{Path: path, Kind: o.Types.Classify(path)}
	ts := o.Resolver.ResolveWithoutSidecar(asset.Path)
	dst, ok := o.place(asset, ts)
	if !ok {
		return
	}
	o.stats.ProcessedWithoutJSON++
	o.record(asset, dst, "", ts)
}

// place plans and moves one media file. It returns the final destination.
func (o *Organizer) place(asset media.Asset, ts metadata.Timestamp) (string, bool) {
	src := asset.Path
	dst := o.reserve(filepath.Join(o.target, o.Planner.Plan(ts.Epoch, src)))

	if o.Config.DryRun {
		o.Logger.Info("would move", "from", src, "to", dst, "source", ts.Source)
		return dst, true
	}
	if err := o.Mover.Move(src, dst); err != nil {
		o.stats.Errors++
		o.Logger.Error("cannot move", "from", src, "to", dst, "error", err)
		return "", false
	}
	o.Logger.Info("moved", "from", src, "to", dst, "source", ts.Source)
	return dst, true
}

// reserve returns a free destination for want, appending a numeric suffix on
// collision. Destinations handed out earlier in the run count as taken so
// dry runs report the same names a real run would use.
func (o *Organizer) reserve(want string) string {
	dst := fsx.FreePath(want, func(p string) bool {
		return o.planned[claimKey(p)] || fsx.Exists(p)
	})
	if dst != want {
		o.stats.Renamed++
		o.Logger.Warn("destination exists, renaming", "wanted", want, "using", dst)
	}
	o.planned[claimKey(dst)] = true
	return dst
}

func (o *Organizer) record(asset media.Asset, dst, sidecarDst string, ts metadata.Timestamp) {
	o.stats.Processed++
	switch asset.Kind {
	case media.KindPhoto:
		o.stats.Photos++
	case media.KindVideo:
		o.stats.Videos++
	}

	if o.Manifest == nil || o.Config.DryRun {
		return
	}
	entry := manifest.Entry{
		Dest:        dst,
		Source:      asset.Path,
		Sidecar:     sidecarDst,
		TakenAt:     ts.Time(o.Planner.Location),
		TimeSource:  string(ts.Source),
		Hash:        manifest.FileHash(dst),
		OrganizedAt: time.Now(),
	}
	if info, err := os.Stat(dst); err == nil {
		entry.Size = info.Size()
	}
	o.Manifest.Add(entry)
}

func (o *Organizer) cleanup() {
	skip := func(path string) bool {
		name := filepath.Base(path)
		return o.isTarget(path) || strings.HasPrefix(name, ".") || o.Config.SkipDir(name)
	}
	removed, err := fsx.RemoveEmptyDirs(o.source, skip)
	if err != nil {
		o.Logger.Warn("cleanup failed", "error", err)
		return
	}
	for _, dir := range removed {
		o.Logger.Debug("removed empty directory", "path", dir)
	}
	o.stats.RemovedDirectories = len(removed)
	if len(removed) > 0 {
		o.Logger.Info("cleaned up empty folders", "count", len(removed))
	}
}

func (o *Organizer) saveManifest() {
	added, err := o.Manifest.Save()
	if err != nil {
		o.stats.Errors++
		o.Logger.Error("cannot update manifest", "error", err)
		return
	}
	o.stats.ManifestRows = added
	if added > 0 {
		o.Logger.Info("updated manifest", "path", o.Manifest.File(), "added", added)
	}
}

// countDirs returns the number of directories in the tree rooted at root,
// root included.
func countDirs(root string) int {
	n := 0
	_ = filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && d.IsDir() {
			n++
		}
		return nil
	})
	return n
}

func claimKey(path string) string {
	return strings.ToLower(filepath.Clean(path))
}
