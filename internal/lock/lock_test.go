package lock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestAcquireAndRelease(t *testing.T) {
	dir := t.TempDir()

	l, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		t.Fatalf("read lock file: %v", err)
	}
	if len(data) == 0 {
		t.Error("lock file is empty")
	}

	if err := l.Release(); err != nil {
		t.Errorf("Release() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, FileName)); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("lock file left behind: %v", err)
	}
}

func TestDoubleAcquireFails(t *testing.T) {
	dir := t.TempDir()

	l1, err := Acquire(dir)
	if err != nil {
		t.Fatalf("first Acquire() error = %v", err)
	}
	defer func() { _ = l1.Release() }()

	_, err = Acquire(dir)
	var held *HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected HeldError, got %T: %v", err, err)
	}
	if held.PID != os.Getpid() {
		t.Errorf("holder PID = %d, want %d", held.PID, os.Getpid())
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()

	if _, ok, err := Inspect(dir); err != nil || ok {
		t.Fatalf("Inspect() on empty dir = %v, %v", ok, err)
	}

	l, err := Acquire(dir)
	if err != nil {
		t.Fatal(err)
	}
	h, ok, err := Inspect(dir)
	if err != nil || !ok {
		t.Fatalf("Inspect() = %v, %v, want held", ok, err)
	}
	if h.PID != os.Getpid() || time.Since(h.Since) > time.Minute {
		t.Errorf("holder = %+v", h)
	}

	_ = l.Release()
	if _, ok, _ := Inspect(dir); ok {
		t.Error("Inspect() reports held after release")
	}
}

func TestInspectStaleFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("pid=999999\n"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := Inspect(dir); err != nil || ok {
		t.Errorf("Inspect() stale = %v, %v, want not held", ok, err)
	}
}

func TestReleaseNil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("nil Release() error = %v", err)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	l, err := Acquire(t.TempDir())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("first Release() error = %v", err)
	}
	if err := l.Release(); err != nil {
		t.Errorf("second Release() error = %v", err)
	}
}
