//go:build !windows

package files

// isReparsePoint is Windows-only; elsewhere os.ModeSymlink covers links.
func isReparsePoint(string) (bool, error) {
	return false, nil
}
