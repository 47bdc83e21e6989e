// Package web is the dev server: it serves the built pages from the output
// directory and exposes a small JSON API around the pipeline.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"salofyi/internal/calendar"
	"salofyi/internal/config"
	appLog "salofyi/internal/log"
	"salofyi/internal/pipeline"
	"salofyi/internal/schedule"
)

const openHoursCacheTTL = 30 * time.Second

// Builder runs the pipeline. *pipeline.Runner implements it.
type Builder interface {
	Run(ctx context.Context, opts pipeline.RunOptions) (pipeline.Result, error)
	Days() []schedule.RenderData
	Config() *config.Config
}

// Server serves the output directory of a Builder.
type Server struct {
	b   Builder
	mux *http.ServeMux

	// Expanded aukiolo.ics, dropped on every rebuild.
	openMu    sync.RWMutex
	openCache *openHoursCache
}

type openHoursCache struct {
	key       string
	resp      openHoursResponse
	updatedAt time.Time
}

// NewServer constructs a new Server.
func NewServer(b Builder) *Server {
	s := &Server{
		b:   b,
		mux: http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/days", s.handleDays)
	s.mux.HandleFunc("/api/rebuild", s.handleRebuild)
	s.mux.HandleFunc("/api/open-hours", s.handleOpenHours)
	s.mux.HandleFunc("/preview.png", s.handlePreview)

	// Everything else is a built page.
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) outputDir() string {
	return pipeline.OutputDir(s.b.Config())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleDays returns the RenderData of the last build.
func (s *Server) handleDays(w http.ResponseWriter, _ *http.Request) {
	days := s.b.Days()
	if days == nil {
		days = []schedule.RenderData{}
	}
	writeJSON(w, http.StatusOK, days)
}

type rebuildResponse struct {
	Days      int      `json:"days"`
	Files     []string `json:"files"`
	FromCache bool     `json:"from_cache"`
	TookMs    int64    `json:"took_ms"`
}

// handleRebuild runs the pipeline.
//
// POST /api/rebuild?ignore_cache=1
func (s *Server) handleRebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeError(w, http.StatusMethodNotAllowed, "use POST")
		return
	}

	opts := pipeline.RunOptions{IgnoreCache: parseBool(r.URL.Query().Get("ignore_cache"))}
	appLog.Info("api rebuild request", "ignore_cache", opts.IgnoreCache)

	res, err := s.b.Run(r.Context(), opts)
	if err != nil {
		appLog.Error("api rebuild failed", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.openMu.Lock()
	s.openCache = nil
	s.openMu.Unlock()

	writeJSON(w, http.StatusOK, rebuildResponse{
		Days:      res.Days,
		Files:     res.Paths,
		FromCache: res.FromCache,
		TookMs:    res.Took.Milliseconds(),
	})
}

type openHoursResponse struct {
	Occurrences     []calendar.Occurrence `json:"occurrences"`
	RangeStart      time.Time             `json:"range_start"`
	RangeEnd        time.Time             `json:"range_end"`
	DisplayTimeZone string                `json:"display_timezone"`
}

// handleOpenHours expands the published aukiolo.ics feed.
//
// GET /api/open-hours?days=7&backfill=0
//   - days:     how many days ahead (default 7)
//   - backfill: how many past days to include (default 0)
func (s *Server) handleOpenHours(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	days := parseIntDefault(q.Get("days"), 7)
	if days <= 0 {
		days = 7
	}
	backfill := parseIntDefault(q.Get("backfill"), 0)
	if backfill < 0 {
		backfill = 0
	}

	cfg := s.b.Config()
	loc := pipeline.Location(cfg.Timezone)
	key := strconv.Itoa(days) + "/" + strconv.Itoa(backfill)

	s.openMu.RLock()
	oc := s.openCache
	s.openMu.RUnlock()
	if oc != nil && oc.key == key && time.Since(oc.updatedAt) < openHoursCacheTTL {
		writeJSON(w, http.StatusOK, oc.resp)
		return
	}

	body, err := os.ReadFile(filepath.Join(s.outputDir(), calendar.OpenHoursFile))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			writeError(w, http.StatusNotFound, "calendar feeds are not built")
			return
		}
		appLog.Error("api open-hours: read failed", err)
		writeError(w, http.StatusInternalServerError, "failed to read feed")
		return
	}

	events, err := calendar.Parse(body)
	if err != nil {
		appLog.Error("api open-hours: parse failed", err)
		writeError(w, http.StatusInternalServerError, "failed to parse feed")
		return
	}

	now := time.Now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	rangeStart := today.AddDate(0, 0, -backfill)
	rangeEnd := today.AddDate(0, 0, days)

	occ, err := calendar.Expand(events, rangeStart, rangeEnd, loc)
	if err != nil {
		appLog.Error("api open-hours: expand failed", err)
		writeError(w, http.StatusInternalServerError, "failed to expand feed")
		return
	}
	if occ == nil {
		occ = []calendar.Occurrence{}
	}

	resp := openHoursResponse{
		Occurrences:     occ,
		RangeStart:      rangeStart,
		RangeEnd:        rangeEnd,
		DisplayTimeZone: loc.String(),
	}

	s.openMu.Lock()
	s.openCache = &openHoursCache{key: key, resp: resp, updatedAt: time.Now()}
	s.openMu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// handlePreview serves the last captured PNG; 404 until one exists.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, filepath.Join(s.outputDir(), "preview.png"))
}

// handleStatic serves built pages. "/" is index.html and extensionless
// paths resolve to the matching .html file, so the navigation links of the
// pages work unchanged.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	p := r.URL.Path

	// Never answer /api/* with a page.
	if p == "/api" || strings.HasPrefix(p, "/api/") {
		http.NotFound(w, r)
		return
	}

	if base := strings.TrimSuffix(s.b.Config().Swimmi.BasePath, "/"); base != "" {
		if p == base {
			p = "/"
		} else if rest, ok := strings.CutPrefix(p, base+"/"); ok {
			p = "/" + rest
		}
	}

	name, ok := resolvePage(s.outputDir(), p)
	if !ok {
		http.NotFound(w, r)
		return
	}
	http.ServeFile(w, r, name)
}

// resolvePage maps a URL path to a file under dir.
func resolvePage(dir, urlPath string) (string, bool) {
	clean := path.Clean("/" + urlPath)
	if clean == "/" {
		clean = "/index.html"
	}
	candidates := []string{clean}
	if path.Ext(clean) == "" {
		candidates = append(candidates, clean+".html", path.Join(clean, "index.html"))
	}
	for _, c := range candidates {
		name := filepath.Join(dir, filepath.FromSlash(c))
		if st, err := os.Stat(name); err == nil && !st.IsDir() {
			return name, true
		}
	}
	return "", false
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseBool(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		appLog.Error("failed to write JSON response", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	type errResp struct {
		Error string `json:"error"`
	}
	writeJSON(w, status, errResp{Error: msg})
}
