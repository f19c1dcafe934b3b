package errors

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"syscall"
)

// ClassifyFileOpenError maps an os.Open/OpenFile failure onto a StorageError with a useful code.
func ClassifyFileOpenError(err error, path, fileName string) *StorageError {
	code := ErrIOOpenFailed
	msg := fmt.Sprintf("Failed to open file: %s", fileName)

	switch {
	case stdErrors.Is(err, fs.ErrNotExist):
		msg = fmt.Sprintf("File does not exist: %s", fileName)
	case stdErrors.Is(err, fs.ErrPermission):
		msg = fmt.Sprintf("Permission denied opening file: %s", fileName)
	case stdErrors.Is(err, syscall.EMFILE), stdErrors.Is(err, syscall.ENFILE):
		code = ErrSystemInternal
		msg = fmt.Sprintf("Too many open files while opening: %s", fileName)
	}

	return NewStorageError(err, code, msg).WithPath(path).WithFileName(fileName)
}

// ClassifyDirectoryCreationError maps a directory creation failure onto a StorageError.
func ClassifyDirectoryCreationError(err error, path string) *StorageError {
	msg := fmt.Sprintf("Failed to create directory: %s", path)

	switch {
	case stdErrors.Is(err, fs.ErrPermission):
		msg = fmt.Sprintf("Permission denied creating directory: %s", path)
	case stdErrors.Is(err, syscall.ENOSPC):
		msg = fmt.Sprintf("No space left on device creating directory: %s", path)
	}

	return NewStorageError(err, ErrTempDirCreateFailed, msg).WithPath(path)
}
