package server

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestShippedConfigsLoad(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.TuningFile = "../../configs/tuning.json"
	cfg.DungeonsFile = "../../configs/dungeons.json"

	settings := resolveSettings(cfg, TuningOverrides{}, zap.NewNop())
	if settings != DefaultSettings() {
		t.Fatalf("shipped tuning should match the defaults, got %+v", settings)
	}
	app, err := NewApp(cfg, settings, nil)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if app.Catalog.Len() != 4 {
		t.Fatalf("expected builtins plus the shipped dungeon, got %v", app.Catalog.IDs())
	}
	if _, err := app.Catalog.Get("bandit-warren"); err != nil {
		t.Fatalf("shipped dungeon missing: %v", err)
	}
}

func TestMissingDungeonsFileIsSkipped(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DungeonsFile = t.TempDir() + "/none.json"
	app, err := NewApp(cfg, DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	if app.Catalog.Len() != 3 {
		t.Fatalf("expected only builtins, got %v", app.Catalog.IDs())
	}
}

func TestBrokenDungeonsFileFails(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.DungeonsFile = writeFile(t, "dungeons.json", `{"dungeons": [{"id": "x", "kind": "simple"}]}`)
	if _, err := NewApp(cfg, DefaultSettings(), nil); err == nil {
		t.Fatalf("expected invalid definition to fail startup")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := DefaultAppConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.TuningFile, cfg.DungeonsFile = "", ""
	app, err := NewApp(cfg, DefaultSettings(), nil)
	if err != nil {
		t.Fatalf("NewApp: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- app.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not stop")
	}
	if app.Zones.Occupied() != 0 {
		t.Fatalf("zones still held after shutdown")
	}
}
