package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("fallback:\n  fan_out: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	var fanOut atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchDone := make(chan error, 1)
	go func() {
		watchDone <- w.Watch(ctx, func(cfg *Config) {
			fanOut.Store(int64(cfg.Fallback.FanOut))
		})
	}()

	// Give the watcher time to establish the directory watch.
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(path, []byte("fallback:\n  fan_out: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for fanOut.Load() != 5 {
		select {
		case <-deadline:
			t.Fatal("reload callback never fired with updated config")
		case <-time.After(20 * time.Millisecond):
		}
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-watchDone; err != nil {
		t.Fatalf("watch returned error: %v", err)
	}
}

func TestWatcher_InvalidChangeDropped(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("fallback:\n  fan_out: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	var reloads atomic.Int64
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		_ = w.Watch(ctx, func(cfg *Config) {
			reloads.Add(1)
		})
	}()
	time.Sleep(100 * time.Millisecond)

	// A broken config must never reach the callback.
	if err := os.WriteFile(path, []byte("resilience:\n  timeout:\n    strategy: psychic\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(500 * time.Millisecond)

	if got := reloads.Load(); got != 0 {
		t.Errorf("invalid configuration triggered %d reloads", got)
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestWatcher_DoubleWatchRejected(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Watch(ctx, func(*Config) {}) }()
	time.Sleep(50 * time.Millisecond)

	if err := w.Watch(ctx, func(*Config) {}); err == nil {
		t.Error("second concurrent Watch must be rejected")
	}

	if err := w.Stop(); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
}

func TestDebouncer_CollapsesBursts(t *testing.T) {
	d := newDebouncer(50 * time.Millisecond)
	defer d.stop()

	var fired atomic.Int64
	for i := 0; i < 10; i++ {
		d.trigger(func() { fired.Add(1) })
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(200 * time.Millisecond)
	if got := fired.Load(); got != 1 {
		t.Errorf("expected a single debounced callback, got %d", got)
	}
}
