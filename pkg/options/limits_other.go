//go:build !linux && !darwin

package options

// OpenFilesLimit is unknown on this platform.
func OpenFilesLimit() int {
	return 0
}
