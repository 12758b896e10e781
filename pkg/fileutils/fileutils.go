package fileutils

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	invalidChars = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	multiSpace   = regexp.MustCompile(`\s+`)
)

// SanitizeFilename strips characters that are unsafe in filenames and trims
// the result to a length most filesystems accept. The extension is preserved.
func SanitizeFilename(name string) string {
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(filepath.Base(name), ext)

	base = invalidChars.ReplaceAllString(base, "")
	base = multiSpace.ReplaceAllString(base, " ")
	// Windows rejects trailing dots.
	base = strings.Trim(base, " .")

	if base == "" {
		base = "file"
	}
	if len(base) > 200 {
		base = strings.Trim(base[:200], " .")
	}

	return base + ext
}

// UniqueFilepath returns path unchanged if nothing exists there, otherwise
// appends " (n)" before the extension until it finds a free name.
func UniqueFilepath(path string) string {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path
	}

	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	base := filepath.Base(path)
	nameWithoutExt := base[:len(base)-len(ext)]

	for i := 1; i < 1000; i++ {
		newPath := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", nameWithoutExt, i, ext))
		if _, err := os.Stat(newPath); os.IsNotExist(err) {
			return newPath
		}
	}

	// Fallback - this should rarely happen
	return path
}
