package capture

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileURL(t *testing.T) {
	dir := t.TempDir()
	got, err := FileURL(filepath.Join(dir, "swimmi", "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(got, "file:///") || !strings.HasSuffix(got, "/swimmi/index.html") {
		t.Errorf("FileURL = %q", got)
	}
}

func TestPreviewPNGValidates(t *testing.T) {
	ctx := context.Background()
	if err := PreviewPNG(ctx, Options{OutputPath: "x.png"}); err == nil {
		t.Error("missing URL should fail")
	}
	if err := PreviewPNG(ctx, Options{URL: "file:///tmp/x.html"}); err == nil {
		t.Error("missing output path should fail")
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{URL: "u", OutputPath: "p"}
	if err := o.normalize(); err != nil {
		t.Fatal(err)
	}
	if o.Width != DefaultWidth || o.Height != DefaultHeight || o.Timeout <= 0 {
		t.Errorf("defaults not applied: %+v", o)
	}
}

func TestPreviewPNG(t *testing.T) {
	if os.Getenv("SALOFYI_TEST_CHROME") == "" {
		t.Skip("SALOFYI_TEST_CHROME not set")
	}
	if _, err := exec.LookPath("chromium"); err != nil {
		if _, err := exec.LookPath("google-chrome"); err != nil {
			t.Skip("no chromium binary")
		}
	}

	dir := t.TempDir()
	page := filepath.Join(dir, "index.html")
	html := `<!DOCTYPE html><html><body data-ready="true"><h1>Uimahalli</h1></body></html>`
	if err := os.WriteFile(page, []byte(html), 0o644); err != nil {
		t.Fatal(err)
	}
	u, err := FileURL(page)
	if err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "preview.png")
	if err := PreviewPNG(context.Background(), Options{URL: u, OutputPath: out, Width: 320, Height: 200}); err != nil {
		t.Fatalf("PreviewPNG: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}
