package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchmindtree/laser-frame/internal/config"
	"github.com/mitchmindtree/laser-frame/internal/framestore"
	"github.com/mitchmindtree/laser-frame/internal/laser"
	"github.com/mitchmindtree/laser-frame/internal/streammux"
)

// setStringFlag overrides one of the package flag variables for the
// duration of a test. The tests below mutate global flag state, so
// none of them run in parallel.
func setStringFlag(t *testing.T, p *string, v string) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

// TestFlagDefaults verifies the daemon flags exist and default to an
// unconfigured state, so a bare `laserd` run is driven entirely by the
// config defaults.
func TestFlagDefaults(t *testing.T) {
	if devMode == nil || *devMode {
		t.Errorf("expected -dev to default to false")
	}
	if demoMode == nil || *demoMode {
		t.Errorf("expected -demo to default to false")
	}
	if listenAddr == nil || *listenAddr != "" {
		t.Errorf("expected -listen to default to empty")
	}
	if dbPath == nil || *dbPath != "" {
		t.Errorf("expected -db to default to empty")
	}
	if configPath == nil || *configPath != "" {
		t.Errorf("expected -config to default to empty")
	}
}

// TestLoadConfigDefaults verifies that with no flags set the resolved
// config falls back to the built-in defaults.
func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if got := cfg.GetListenAddr(); got != ":8080" {
		t.Errorf("expected default listen addr :8080, got %q", got)
	}
	if got := cfg.GetDBPath(); got != "laserd.db" {
		t.Errorf("expected default db path laserd.db, got %q", got)
	}
	if got := cfg.GetBatchSize(); got != 256 {
		t.Errorf("expected default batch size 256, got %d", got)
	}
}

// TestLoadConfigFile verifies that a config file is honoured and that
// explicit flags win over file values.
func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "laserd.json")
	data := `{"listen_addr": ":7070", "db_path": "frames.db", "batch_size": 128}`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	setStringFlag(t, configPath, path)

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if got := cfg.GetListenAddr(); got != ":7070" {
		t.Errorf("expected listen addr :7070 from file, got %q", got)
	}
	if got := cfg.GetDBPath(); got != "frames.db" {
		t.Errorf("expected db path frames.db from file, got %q", got)
	}
	if got := cfg.GetBatchSize(); got != 128 {
		t.Errorf("expected batch size 128 from file, got %d", got)
	}

	// Flags override the file.
	setStringFlag(t, listenAddr, ":9999")
	setStringFlag(t, dbPath, "override.db")

	cfg, err = loadConfig()
	if err != nil {
		t.Fatalf("loadConfig with overrides: %v", err)
	}
	if got := cfg.GetListenAddr(); got != ":9999" {
		t.Errorf("expected -listen to win over file, got %q", got)
	}
	if got := cfg.GetDBPath(); got != "override.db" {
		t.Errorf("expected -db to win over file, got %q", got)
	}
	if got := cfg.GetBatchSize(); got != 128 {
		t.Errorf("expected file batch size to survive flag overrides, got %d", got)
	}
}

// TestLoadConfigMissingFile verifies that a bad -config path fails
// loudly instead of silently running on defaults.
func TestLoadConfigMissingFile(t *testing.T) {
	setStringFlag(t, configPath, filepath.Join(t.TempDir(), "nope.json"))

	if _, err := loadConfig(); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestSubmitDemoPattern verifies the -demo startup path: the pattern
// from the config reaches the stream and an audit row is recorded.
func TestSubmitDemoPattern(t *testing.T) {
	db, err := framestore.Open(filepath.Join(t.TempDir(), "laserd_test.db"))
	if err != nil {
		t.Fatalf("failed to open frame database: %v", err)
	}
	defer db.Close()
	frames := framestore.NewFrameStore(db.DB)

	stream := streammux.NewStreamMux[laser.Point](4, nil)
	defer stream.Close()

	// An empty config falls back to the default circle.
	if err := submitDemoPattern(stream, frames, config.EmptyServerConfig()); err != nil {
		t.Fatalf("submitDemoPattern: %v", err)
	}

	frame := stream.CurrentFrame()
	if len(frame) != 500 {
		t.Errorf("expected 500 demo points, got %d", len(frame))
	}
	if err := laser.ValidateFrame(frame); err != nil {
		t.Errorf("demo frame failed validation: %v", err)
	}

	subs, err := frames.ListSubmissions(10)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected 1 submission record, got %d", len(subs))
	}
	if subs[0].Source != "demo" {
		t.Errorf("expected submission source demo, got %q", subs[0].Source)
	}
	if subs[0].PointCount != 500 {
		t.Errorf("expected submission point count 500, got %d", subs[0].PointCount)
	}
}

// TestSubmitDemoPatternConfigured verifies the configured pattern and
// point count are used when set.
func TestSubmitDemoPatternConfigured(t *testing.T) {
	db, err := framestore.Open(filepath.Join(t.TempDir(), "laserd_test.db"))
	if err != nil {
		t.Fatalf("failed to open frame database: %v", err)
	}
	defer db.Close()
	frames := framestore.NewFrameStore(db.DB)

	stream := streammux.NewStreamMux[laser.Point](4, nil)
	defer stream.Close()

	pattern := laser.PatternSquare
	points := 64
	cfg := &config.ServerConfig{DefaultPattern: &pattern, PatternPoints: &points}

	if err := submitDemoPattern(stream, frames, cfg); err != nil {
		t.Fatalf("submitDemoPattern: %v", err)
	}
	if got := len(stream.CurrentFrame()); got != 64 {
		t.Errorf("expected 64 demo points, got %d", got)
	}
}

// TestSubmitDemoPatternUnknown verifies an unknown configured pattern
// surfaces as an error so the daemon refuses to start.
func TestSubmitDemoPatternUnknown(t *testing.T) {
	db, err := framestore.Open(filepath.Join(t.TempDir(), "laserd_test.db"))
	if err != nil {
		t.Fatalf("failed to open frame database: %v", err)
	}
	defer db.Close()
	frames := framestore.NewFrameStore(db.DB)

	stream := streammux.NewStreamMux[laser.Point](4, nil)
	defer stream.Close()

	pattern := "dodecahedron"
	cfg := &config.ServerConfig{DefaultPattern: &pattern}

	if err := submitDemoPattern(stream, frames, cfg); err == nil {
		t.Fatal("expected error for unknown pattern")
	}
}

// TestRunDevDriver verifies the built-in puller drains points from the
// stream and stops when the context is cancelled.
func TestRunDevDriver(t *testing.T) {
	stream := streammux.NewStreamMux[laser.Point](4, nil)
	defer stream.Close()

	stream.SubmitFrame([]laser.Point{
		{X: -0.5, Y: 0.5, R: 255},
		{X: 0.5, Y: 0.5, G: 255},
		{X: 0.0, Y: -0.5, B: 255},
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		runDevDriver(ctx, stream, 16)
	}()

	deadline := time.After(2 * time.Second)
	for stream.Status().TotalPoints == 0 {
		select {
		case <-deadline:
			cancel()
			t.Fatal("dev driver pulled no points within 2s")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dev driver did not stop after cancel")
	}
}
