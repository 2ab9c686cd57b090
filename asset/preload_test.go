// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package asset

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
)

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	for i, name := range []string{"a.png", "b.png", "c.png", "d.png"} {
		paths = append(paths, writePNG(t, dir, name, i+1, 2))
	}

	var done atomic.Int32
	got, err := LoadAll(context.Background(), paths, 2, func(string) { done.Add(1) })
	if err != nil {
		t.Fatalf("LoadAll() = %v", err)
	}
	if len(got) != len(paths) {
		t.Fatalf("got %d results", len(got))
	}
	for i, p := range got {
		if p.Source != paths[i] || p.Width != uint32(i+1) { //nolint:gosec // small
			t.Errorf("result %d = %s %dx%d", i, p.Source, p.Width, p.Height)
		}
	}
	if done.Load() != int32(len(paths)) { //nolint:gosec // small
		t.Errorf("done called %d times", done.Load())
	}
}

func TestLoadAllError(t *testing.T) {
	dir := t.TempDir()
	good := writePNG(t, dir, "good.png", 2, 2)
	bad := filepath.Join(dir, "bad.png")
	if err := os.WriteFile(bad, []byte("junk"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadAll(context.Background(), []string{good, bad}, 0, nil); err == nil {
		t.Fatal("LoadAll with a corrupt file succeeded")
	}
}

func TestLoadAllCanceled(t *testing.T) {
	dir := t.TempDir()
	path := writePNG(t, dir, "a.png", 2, 2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := LoadAll(ctx, []string{path}, 1, nil); err == nil {
		t.Fatal("LoadAll on a canceled context succeeded")
	}
}
