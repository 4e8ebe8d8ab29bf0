package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestWatcher_FiresAfterQuietPeriod(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.yaml")
	require.NoError(t, os.WriteFile(path, []byte("artboard: A\n"), 0644))

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	}, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(path, []byte("artboard: B\n"), 0644))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("expected reload callback after asset change")
	}
}

func TestWatcher_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rig.yaml")
	require.NoError(t, os.WriteFile(path, []byte("artboard: A\n"), 0644))

	fired := make(chan struct{}, 1)
	w, err := NewWatcher(path, func() { fired <- struct{}{} }, zerolog.Nop())
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0644))

	select {
	case <-fired:
		t.Fatal("expected no reload for sibling file changes")
	case <-time.After(600 * time.Millisecond):
	}
}
