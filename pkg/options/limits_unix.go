//go:build linux || darwin

package options

import "golang.org/x/sys/unix"

// OpenFilesLimit returns how many run files may be held open given the process
// RLIMIT_NOFILE soft limit, or 0 when the limit cannot be read.
func OpenFilesLimit() int {
	var rl unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_NOFILE, &rl); err != nil {
		return 0
	}

	if rl.Cur <= reservedDescriptors {
		return MinMaxOpenFiles
	}

	// Also covers RLIM_INFINITY.
	avail := rl.Cur - reservedDescriptors
	if avail > uint64(MaxMaxOpenFiles) {
		return MaxMaxOpenFiles
	}
	return int(avail)
}
