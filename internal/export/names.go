package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"
)

// titleWidth is the longest TITLE a CMX3600 reader accepts.
const titleWidth = 70

var (
	ErrOutputDirRequired = errors.New("output_dir is required")
	ErrOutputDirUnclean  = errors.New("output_dir must be a clean path without '..'")
	ErrOutputDirMissing  = errors.New("output_dir does not exist")
	ErrOutputDirNotDir   = errors.New("output_dir is not a directory")
)

// commentText flattens s onto one line so it cannot break the list layout.
func commentText(s string) string {
	return strings.Join(strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	}), " ")
}

// Title cleans a user supplied list title, falling back to fallback when
// nothing printable is left.
func Title(s, fallback string) string {
	t := []rune(commentText(s))
	if len(t) > titleWidth {
		t = t[:titleWidth]
	}
	if len(t) == 0 {
		return fallback
	}
	return strings.TrimSpace(string(t))
}

// FileName returns a portable file name for title with ext appended.
func FileName(title, ext string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), strings.ContainsRune("-_.,()", r):
			return r
		default:
			return '_'
		}
	}, commentText(title))
	if strings.Trim(name, "._") == "" {
		name = DefaultProjectName
	}
	return name + ext
}

// CheckOutputDir verifies dir names an existing directory by a clean path.
func CheckOutputDir(dir string) error {
	if strings.TrimSpace(dir) == "" {
		return ErrOutputDirRequired
	}
	if filepath.Clean(dir) != dir || slices.Contains(strings.Split(filepath.ToSlash(dir), "/"), "..") {
		return ErrOutputDirUnclean
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return ErrOutputDirMissing
	case err != nil:
		return fmt.Errorf("invalid output_dir: %w", err)
	case !info.IsDir():
		return ErrOutputDirNotDir
	}
	return nil
}
