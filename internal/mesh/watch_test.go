package mesh

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "part.json")

	w, err := NewWatcher(path, 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	src, err := TopoBox{Divisions: 2}.Produce(ctx)
	if err != nil {
		t.Fatalf("Produce() error: %v", err)
	}
	data, err := Encode(src)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write mesh: %v", err)
	}

	select {
	case m := <-w.Models():
		if m.TriangleCount() != src.TriangleCount() {
			t.Errorf("reloaded TriangleCount() = %d, want %d", m.TriangleCount(), src.TriangleCount())
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() error: %v", err)
	}
	for range w.Models() {
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(filepath.Join(dir, "part.json"), 20*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	select {
	case m := <-w.Models():
		t.Errorf("unexpected reload: %v", m)
	case <-time.After(200 * time.Millisecond):
	}

	cancel()
	<-done
}
