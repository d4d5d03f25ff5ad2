package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestWatch_DebouncesBurst(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "artifacts"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(root, "dist"), 0o755); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var batches [][]string
	go Watch(ctx, root, Options{Debounce: 150 * time.Millisecond, Skip: []string{"dist"}}, quietLogger(),
		func(_ context.Context, paths []string) {
			mu.Lock()
			batches = append(batches, paths)
			mu.Unlock()
		})

	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(root, "artifacts", "a.txt"), []byte("name: A\n===\n"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "artifacts", "b.txt"), []byte("name: B\n===\n"), 0o644)
	_ = os.WriteFile(filepath.Join(root, "dist", "a.html"), []byte("<p></p>"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(batches) > 0
	}, "no change batch delivered")

	mu.Lock()
	defer mu.Unlock()
	first := batches[0]
	if !slices.Contains(first, "artifacts/a.txt") || !slices.Contains(first, "artifacts/b.txt") {
		t.Errorf("burst not coalesced into one batch: %v", batches)
	}
	for _, b := range batches {
		if slices.Contains(b, "dist/a.html") {
			t.Errorf("skipped directory reported: %v", b)
		}
	}
}

func TestWatch_NewDirectoryWatched(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[string]bool{}
	go Watch(ctx, root, Options{Debounce: 50 * time.Millisecond}, quietLogger(),
		func(_ context.Context, paths []string) {
			mu.Lock()
			for _, p := range paths {
				seen[p] = true
			}
			mu.Unlock()
		})

	time.Sleep(100 * time.Millisecond)
	_ = os.MkdirAll(filepath.Join(root, "nested"), 0o755)
	time.Sleep(200 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(root, "nested", "c.txt"), []byte("x"), 0o644)

	eventually(t, 5*time.Second, 50*time.Millisecond, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["nested/c.txt"]
	}, "file in new directory not reported")
}

func TestIgnoredName(t *testing.T) {
	for name, want := range map[string]bool{
		"a.txt":      false,
		"a.txt~":     true,
		".a.txt.swp": true,
		".#a.txt":    true,
	} {
		if got := ignoredName(name); got != want {
			t.Errorf("ignoredName(%q) = %v, want %v", name, got, want)
		}
	}
}
