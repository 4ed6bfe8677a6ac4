// Package security guards file access of the host process. Flow directories
// and config files named in sflowg.yaml must stay inside the project root.
package security

import (
	"fmt"
	"path/filepath"
	"strings"
)

// WithinBoundary reports an error when target resolves outside boundary.
// Both paths are made absolute first, so relative inputs and "../" segments
// are compared by where they actually point.
func WithinBoundary(boundary, target string) error {
	absBoundary, err := filepath.Abs(boundary)
	if err != nil {
		return fmt.Errorf("failed to resolve boundary path %q: %w", boundary, err)
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return fmt.Errorf("failed to resolve target path %q: %w", target, err)
	}

	rel, err := filepath.Rel(absBoundary, absTarget)
	if err != nil {
		return fmt.Errorf("invalid path relationship between %q and %q: %w", absBoundary, absTarget, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("path traversal detected: %q escapes boundary %q", target, boundary)
	}
	return nil
}

// Resolve joins a project-relative path onto root and checks the result stays
// inside root. Absolute paths are accepted only when they point inside root.
func Resolve(root, path string) (string, error) {
	target := path
	if !filepath.IsAbs(target) {
		target = filepath.Join(root, path)
	}
	if err := WithinBoundary(root, target); err != nil {
		return "", err
	}
	return filepath.Abs(target)
}
