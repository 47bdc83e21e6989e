package log

import (
	"errors"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(AtomicLevel())
	restore := Use(zap.New(core))
	t.Cleanup(func() {
		restore()
		SetLevel(LevelInfo)
	})
	return logs
}

func TestInfoCarriesKeyValues(t *testing.T) {
	logs := observe(t)

	Info("swimmi render", "days", 3, "out", "_out/swimmi")

	entries := logs.FilterMessage("swimmi render").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["days"] != int64(3) {
		t.Errorf("days = %v", ctx["days"])
	}
	if ctx["out"] != "_out/swimmi" {
		t.Errorf("out = %v", ctx["out"])
	}
}

func TestErrorPrependsErr(t *testing.T) {
	logs := observe(t)

	Error("fetch failed", errors.New("boom"), "day", "2026-10-19")

	entries := logs.FilterMessage("fetch failed").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Level != zapcore.ErrorLevel {
		t.Errorf("level = %v", entries[0].Level)
	}
	ctx := entries[0].ContextMap()
	if ctx["err"] != "boom" {
		t.Errorf("err = %v", ctx["err"])
	}
	if ctx["day"] != "2026-10-19" {
		t.Errorf("day = %v", ctx["day"])
	}
}

func TestSetLevelFiltersDebug(t *testing.T) {
	logs := observe(t)

	SetLevel(LevelInfo)
	Debug("hidden")
	SetLevel(LevelDebug)
	Debug("shown")

	if logs.FilterMessage("hidden").Len() != 0 {
		t.Error("debug entry logged at info level")
	}
	if logs.FilterMessage("shown").Len() != 1 {
		t.Error("debug entry missing at debug level")
	}
}
