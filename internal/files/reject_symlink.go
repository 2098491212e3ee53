package files

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// RejectSymlinkPath refuses output and checkpoint paths that traverse a link.
// Missing trailing components are fine; the walk stops at the first one.
func RejectSymlinkPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("path is empty")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	for _, prefix := range pathPrefixes(abs) {
		linked, kind, err := isLink(prefix)
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		if err != nil {
			return err
		}
		if linked {
			return fmt.Errorf("refusing to write to symlink path: %s (%s detected at %s)", path, kind, prefix)
		}
	}
	return nil
}

// pathPrefixes lists every ancestor of abs below the root, ending with abs itself.
func pathPrefixes(abs string) []string {
	volume := filepath.VolumeName(abs)
	rest := strings.Trim(abs[len(volume):], string(os.PathSeparator))
	if rest == "" {
		return nil
	}
	current := volume + string(os.PathSeparator)
	var prefixes []string
	for _, part := range strings.Split(rest, string(os.PathSeparator)) {
		if part == "" {
			continue
		}
		current = filepath.Join(current, part)
		prefixes = append(prefixes, current)
	}
	return prefixes
}

func isLink(path string) (bool, string, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, "", err
		}
		return false, "", fmt.Errorf("failed to access path: %w", err)
	}
	if info.Mode()&os.ModeSymlink != 0 {
		return true, "symlink", nil
	}
	reparse, err := isReparsePoint(path)
	if err != nil {
		return false, "", fmt.Errorf("failed to check reparse point: %w", err)
	}
	return reparse, "reparse point", nil
}
