package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My Clip", "My Clip"},
		{" A\nB\r\tC\x00 ", "A B C"},
		{"", "fallback"},
		{"\n\t", "fallback"},
		{strings.Repeat("x", 100), strings.Repeat("x", titleWidth)},
	}
	for _, tt := range tests {
		if got := Title(tt.in, "fallback"); got != tt.want {
			t.Errorf("Title(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"My Talk", "My_Talk.edl"},
		{"a/b:c", "a_b_c.edl"},
		{"Never Gonna (Live) [4K]", "Never_Gonna_(Live)__4K_.edl"},
		{"", DefaultProjectName + ".edl"},
		{"...", DefaultProjectName + ".edl"},
	}
	for _, tt := range tests {
		if got := FileName(tt.title, ".edl"); got != tt.want {
			t.Errorf("FileName(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCheckOutputDir(t *testing.T) {
	tmp := t.TempDir()
	file := filepath.Join(tmp, "file.txt")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("failed to create file: %v", err)
	}

	tests := []struct {
		name string
		dir  string
		want error
	}{
		{"existing dir", tmp, nil},
		{"empty", "  ", ErrOutputDirRequired},
		{"missing", filepath.Join(tmp, "missing"), ErrOutputDirMissing},
		{"traversal", "/tmp/../etc", ErrOutputDirUnclean},
		{"relative traversal", "../x", ErrOutputDirUnclean},
		{"unclean", tmp + "/./", ErrOutputDirUnclean},
		{"file", file, ErrOutputDirNotDir},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckOutputDir(tt.dir); !errors.Is(err, tt.want) {
				t.Errorf("CheckOutputDir(%q) error = %v, want %v", tt.dir, err, tt.want)
			}
		})
	}
}
