package filesys

import (
	"errors"
	"os"
	"path/filepath"
)

var (
	ErrIsNotDir = errors.New("path isn't a directory")
)

func CreateDir(dirPath string, permission os.FileMode, force bool) error {
	stat, err := os.Stat(dirPath)
	if !force && !os.IsNotExist(err) {
		return err
	}

	if stat != nil && !stat.IsDir() {
		return ErrIsNotDir
	}

	return os.MkdirAll(dirPath, permission)
}

// CreateTempDir makes sure base exists and creates a fresh private directory inside it.
// An empty base means os.TempDir().
func CreateTempDir(base, pattern string) (string, error) {
	if base == "" {
		base = os.TempDir()
	}

	if err := CreateDir(base, 0755, true); err != nil {
		return "", err
	}

	return os.MkdirTemp(base, pattern)
}

// RemoveDir deletes dirPath and everything below it. A missing directory is not an error.
func RemoveDir(dirPath string) error {
	if dirPath == "" {
		return nil
	}
	return os.RemoveAll(dirPath)
}

func ReadDir(pattern string) ([]string, error) {
	files, err := filepath.Glob(pattern)
	return files, err
}
