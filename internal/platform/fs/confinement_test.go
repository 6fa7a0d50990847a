// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package fs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestConfineName(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "audio_1.mp3"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		target  string
		wantErr bool
	}{
		{name: "existing file", target: "audio_1.mp3"},
		{name: "missing file is still confined", target: "video_2.mp4"},
		{name: "dots inside name", target: "a..b.mp4"},
		{name: "parent", target: "..", wantErr: true},
		{name: "traversal", target: "../etc/passwd", wantErr: true},
		{name: "nested", target: "sub/file.mp3", wantErr: true},
		{name: "backslash", target: `..\file.mp3`, wantErr: true},
		{name: "empty", target: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfineName(root, tt.target)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got path %q", got)
				}
				if !errors.Is(err, ErrEscapesRoot) {
					t.Errorf("expected ErrEscapesRoot, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !strings.HasSuffix(got, tt.target) {
				t.Errorf("got %q, want suffix %q", got, tt.target)
			}
		})
	}
}

func TestConfineName_SymlinkOutsideRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks require privileges on windows")
	}
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "secret.txt")
	if err := os.WriteFile(outside, []byte("secret"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(outside, filepath.Join(root, "link.mp3")); err != nil {
		t.Fatal(err)
	}

	if _, err := ConfineName(root, "link.mp3"); !errors.Is(err, ErrEscapesRoot) {
		t.Fatalf("expected ErrEscapesRoot, got %v", err)
	}
}

func TestConfineRelPath(t *testing.T) {
	root := t.TempDir()
	if err := os.Mkdir(filepath.Join(root, "subdir"), 0o750); err != nil {
		t.Fatal(err)
	}

	if _, err := ConfineRelPath(root, "subdir/foo.txt"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ConfineRelPath(root, "../outside.txt"); err == nil {
		t.Error("expected traversal error")
	}
	if _, err := ConfineRelPath(root, "/etc/passwd"); err == nil {
		t.Error("expected absolute path error")
	}
}

func TestIsRegularFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f")
	if err := os.WriteFile(file, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	if err := IsRegularFile(file); err != nil {
		t.Errorf("expected regular file: %v", err)
	}
	if err := IsRegularFile(dir); err == nil {
		t.Error("directory must not count as regular file")
	}
	if Exists(filepath.Join(dir, "missing")) {
		t.Error("missing file reported as existing")
	}
}
