// Package pipeline runs one build of the swimming hall pages: fetch (or
// reuse the day's cached snapshot), transform, and write the outputs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"salofyi/internal/baserow"
	"salofyi/internal/cache"
	"salofyi/internal/calendar"
	"salofyi/internal/capture"
	"salofyi/internal/config"
	appLog "salofyi/internal/log"
	"salofyi/internal/model"
	"salofyi/internal/render"
	"salofyi/internal/schedule"
	"salofyi/internal/timmi"
)

// Namespace is the cache namespace and output subdirectory of this runner.
const Namespace = "swimmi"

const previewFile = "preview.png"

// ErrNoSnapshot is returned by offline runs when nothing is cached for today.
var ErrNoSnapshot = errors.New("no cached snapshot for today")

// RunOptions tweaks a single run.
type RunOptions struct {
	// IgnoreCache refetches even if today's snapshot exists.
	IgnoreCache bool
	// Offline renders from today's snapshot only and never fetches.
	Offline bool
	// DumpMocks also writes the transformed days as JSON.
	DumpMocks bool
}

// Result summarises a finished run.
type Result struct {
	Days      int
	Paths     []string
	FromCache bool
	Took      time.Duration
}

// Runner serialises builds. It is safe for concurrent use; overlapping
// Run calls wait for each other.
type Runner struct {
	runMu sync.Mutex

	mu    sync.RWMutex
	cfg   *config.Config
	last  []schedule.RenderData
	store cache.Store

	now      func() time.Time
	fetchRaw func(ctx context.Context, cfg *config.Config) (model.RawData, error)
	preview  func(ctx context.Context, opts capture.Options) error
}

// New creates a runner for cfg using store for the daily snapshots.
func New(cfg *config.Config, store cache.Store) *Runner {
	return &Runner{
		cfg:      cfg,
		store:    store,
		now:      time.Now,
		fetchRaw: fetchUpstream,
		preview:  capture.PreviewPNG,
	}
}

// Config returns the configuration the next run will use.
func (r *Runner) Config() *config.Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cfg
}

// SetConfig replaces the configuration for subsequent runs.
func (r *Runner) SetConfig(cfg *config.Config) {
	r.mu.Lock()
	r.cfg = cfg
	r.mu.Unlock()
}

// Days returns the days of the last successful run.
func (r *Runner) Days() []schedule.RenderData {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last
}

// OutputDir is where the pages of cfg are written.
func OutputDir(cfg *config.Config) string {
	return filepath.Join(cfg.OutputDir, Namespace)
}

// Location resolves the configured timezone, falling back to local time.
func Location(name string) *time.Location {
	if name == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		appLog.Error("failed to load timezone; falling back to local", err, "name", name)
		return time.Local
	}
	return loc
}

// ScheduleOptions maps the configuration onto transform options.
func ScheduleOptions(cfg *config.Config) schedule.Options {
	s := cfg.Swimmi

	var week [7]schedule.HourRange
	for i := 0; i < len(week) && i < len(s.OpenHours); i++ {
		week[i] = schedule.HourRange{From: s.OpenHours[i].From, To: s.OpenHours[i].To}
	}

	lanes := make([]schedule.LaneWeight, 0, len(s.LaneWeights))
	for _, lw := range s.LaneWeights {
		lanes = append(lanes, schedule.LaneWeight{Pool: lw.Pool, Lanes: lw.Lanes, Multiplier: lw.Multiplier})
	}

	return schedule.Options{
		Location:         Location(cfg.Timezone),
		PageHeader:       s.PageHeader,
		BasePath:         s.BasePath,
		DisplayHours:     schedule.HourRange{From: s.RenderHours.From, To: s.RenderHours.To},
		WeeklyOpenHours:  week,
		WholePoolMarkers: schedule.Markers(s.WholePoolMarkers),
		HalfPoolMarkers:  schedule.Markers(s.HalfPoolMarkers),
		SingleLanePools:  schedule.Markers(s.SingleLanePools),
		IgnorePhrases:    s.IgnorePhrases,
		NameFixes:        s.NameFixes,
		OverrideNote:     s.OverrideNote,
		PoolWeights:      s.PoolWeights,
		LaneWeights:      lanes,
	}
}

// fetchUpstream pulls every configured day from Timmi plus the override rows.
func fetchUpstream(ctx context.Context, cfg *config.Config) (model.RawData, error) {
	client, err := timmi.NewClient(cfg.Swimmi)
	if err != nil {
		return model.RawData{}, err
	}
	pages, err := client.FetchDays(ctx, cfg.Swimmi.PastDays, cfg.Swimmi.FutureDays)
	if err != nil {
		return model.RawData{}, err
	}
	return model.RawData{
		Pages:          pages,
		ExtraOpenHours: baserow.ExtraOpenHours(ctx, cfg.Swimmi.Baserow),
	}, nil
}

// Run performs one build.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Result, error) {
	r.runMu.Lock()
	defer r.runMu.Unlock()

	cfg := r.Config()
	start := time.Now()
	sopts := ScheduleOptions(cfg)
	now := r.now().In(sopts.Location)
	key := cache.Key(now, Namespace+"_raw")

	appLog.Info("pipeline run start", "key", key, "ignore_cache", opts.IgnoreCache, "offline", opts.Offline)

	var (
		raw model.RawData
		hit bool
		err error
	)
	if opts.Offline {
		raw, err = cache.Read[model.RawData](ctx, r.store, key)
		if errors.Is(err, cache.ErrMiss) {
			return Result{}, fmt.Errorf("%w (%s)", ErrNoSnapshot, key)
		}
		hit = true
	} else {
		raw, hit, err = cache.Load(ctx, r.store, key, opts.IgnoreCache, func(ctx context.Context) (model.RawData, error) {
			return r.fetchRaw(ctx, cfg)
		})
	}
	if err != nil {
		return Result{}, fmt.Errorf("load raw data: %w", err)
	}

	days := schedule.TransformMulti(raw.Pages, raw.ExtraOpenHours, sopts, now)

	outDir := OutputDir(cfg)
	paths, err := render.WriteDays(outDir, days)
	if err != nil {
		return Result{}, fmt.Errorf("render: %w", err)
	}

	if opts.DumpMocks {
		if err := render.WriteMocks(filepath.Join(cfg.OutputDir, "_mocks", Namespace), days); err != nil {
			return Result{}, fmt.Errorf("write mocks: %w", err)
		}
	}

	if cfg.Calendar {
		feed := calendar.Feed{
			Title:    cfg.Swimmi.PageHeader,
			Location: sopts.Location,
			Week:     sopts.WeeklyOpenHours,
			Now:      now,
		}
		if err := feed.WriteFeeds(outDir, days); err != nil {
			return Result{}, err
		}
		paths = append(paths, filepath.Join(outDir, calendar.BookingsFile), filepath.Join(outDir, calendar.OpenHoursFile))
	}

	if cfg.Preview.Enabled {
		paths = append(paths, r.capturePreview(ctx, cfg, outDir)...)
	}

	r.mu.Lock()
	r.last = days
	r.mu.Unlock()

	res := Result{Days: len(days), Paths: paths, FromCache: hit, Took: time.Since(start)}
	appLog.Info("pipeline run done", "days", res.Days, "files", len(res.Paths), "from_cache", res.FromCache, "took", res.Took.String())
	return res, nil
}

// capturePreview screenshots the today page. A failed capture does not fail
// the run.
func (r *Runner) capturePreview(ctx context.Context, cfg *config.Config, outDir string) []string {
	u, err := capture.FileURL(filepath.Join(outDir, "index.html"))
	if err != nil {
		appLog.Error("preview url failed", err)
		return nil
	}
	out := filepath.Join(outDir, previewFile)
	err = r.preview(ctx, capture.Options{
		URL:        u,
		OutputPath: out,
		Width:      cfg.Preview.Width,
		Height:     cfg.Preview.Height,
		Timeout:    time.Duration(cfg.Preview.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		appLog.Error("preview capture failed", err)
		return nil
	}
	return []string{out}
}
