// Package security confines report files to the configured output directory.
package security

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrPathEscape indicates the resolved path would leave the output directory.
var ErrPathEscape = errors.New("path escapes base directory")

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ResolveWithin joins elems under base and returns the absolute result,
// refusing any combination that lands outside base.
func ResolveWithin(base string, elems ...string) (string, error) {
	if base == "" {
		return "", errors.New("base directory is required")
	}
	root, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolve base path: %w", err)
	}
	target := filepath.Join(append([]string{root}, elems...)...)

	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", fmt.Errorf("relativize path: %w", err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscape, target)
	}
	return target, nil
}

// WriteFileWithin writes data to name under base via a temp file and rename,
// so readers never observe a partially written report.
func WriteFileWithin(base, name string, data []byte, perm fs.FileMode) (string, error) {
	target, err := ResolveWithin(base, name)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", target, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", target, err)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return "", fmt.Errorf("chmod %s: %w", target, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return "", fmt.Errorf("rename into %s: %w", target, err)
	}
	return target, nil
}

// SafeFilename reduces s to characters that are safe in a single path
// segment. It never returns an empty string.
func SafeFilename(s string) string {
	cleaned := strings.Trim(unsafeNameChars.ReplaceAllString(s, "_"), "._")
	if cleaned == "" {
		return "report"
	}
	return cleaned
}
