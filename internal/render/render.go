// Package render turns transformed days into static HTML pages.
package render

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"path/filepath"
	"strconv"

	"salofyi/internal/fsutil"
	appLog "salofyi/internal/log"
	"salofyi/internal/schedule"
)

//go:embed templates/*.html
var templateFS embed.FS

var funcMap = template.FuncMap{
	"rgb": func(c schedule.RGB) template.CSS {
		return template.CSS(c.CSS())
	},
	"eventStyle": eventStyle,
	"laneEvents": laneEvents,
	"isOpen": func(hour int, open []int) bool {
		for _, h := range open {
			if h == hour {
				return true
			}
		}
		return false
	},
	"hourLabel": func(h int) string {
		return fmt.Sprintf("%02d", h)
	},
	"heat": func(w float64) string {
		return strconv.FormatFloat(w, 'f', 2, 64)
	},
}

var pageTmpl = template.Must(template.New("swimmi.html").Funcs(funcMap).ParseFS(templateFS, "templates/swimmi.html"))

// laneEvents returns the events placed on one lane of pool.
func laneEvents(pool schedule.Pool, lane string) []schedule.PlacedEvent {
	var out []schedule.PlacedEvent
	for _, e := range pool.Events {
		if e.Lane == lane {
			out = append(out, e)
		}
	}
	return out
}

// eventStyle positions an event box on a lane row spanning hours.
func eventStyle(e schedule.PlacedEvent, hours []int) template.CSS {
	if len(hours) == 0 {
		return ""
	}
	first := float64(hours[0])
	span := float64(len(hours))

	start := float64(e.StartHour) + float64(e.StartMin)/60
	end := float64(e.EndHour) + float64(e.EndMin)/60
	left := max(0, (start-first)/span*100)
	right := min(100, (end-first)/span*100)
	width := max(0, right-left)

	return template.CSS(fmt.Sprintf("left:%.3f%%;width:%.3f%%;background:%s;border-color:%s",
		left, width, e.Color.CSS(), e.BorderColor.CSS()))
}

// Page renders one day.
func Page(w io.Writer, day schedule.RenderData) error {
	return pageTmpl.Execute(w, day)
}

// WriteDays renders every day into dir, the today page as index.html and
// other days as YYYY-MM-DD.html. It returns the written paths.
func WriteDays(dir string, days []schedule.RenderData) ([]string, error) {
	paths := make([]string, 0, len(days))
	for _, day := range days {
		var buf bytes.Buffer
		if err := Page(&buf, day); err != nil {
			return paths, fmt.Errorf("render %s: %w", day.Date, err)
		}
		path := filepath.Join(dir, day.FileName()+".html")
		if err := fsutil.WriteFileAtomic(path, buf.Bytes(), 0o644); err != nil {
			return paths, err
		}
		appLog.Info("page written", "path", path)
		paths = append(paths, path)
	}
	return paths, nil
}

// WriteMocks dumps the render data of every day as <dir>/<index>.json,
// for working on the template without fetching.
func WriteMocks(dir string, days []schedule.RenderData) error {
	for i, day := range days {
		data, err := json.MarshalIndent(day, "", "  ")
		if err != nil {
			return err
		}
		path := filepath.Join(dir, strconv.Itoa(i)+".json")
		if err := fsutil.WriteFileAtomic(path, data, 0o644); err != nil {
			return err
		}
	}
	appLog.Info("mocks written", "dir", dir, "count", len(days))
	return nil
}

// ReadMock loads a day written by WriteMocks.
func ReadMock(r io.Reader) (schedule.RenderData, error) {
	var day schedule.RenderData
	err := json.NewDecoder(r).Decode(&day)
	return day, err
}
