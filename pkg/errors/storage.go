package errors

// StorageError is a specialized error type for run file and other on-disk operations.
type StorageError struct {
	*baseError
	runID    int
	offset   int64
	fileName string
	path     string
}

// NewStorageError creates a new storage-specific error with the provided context.
func NewStorageError(err error, code ErrorCode, msg string) *StorageError {
	return &StorageError{baseError: NewBaseError(err, code, msg)}
}

// WithMessage updates the error message.
func (se *StorageError) WithMessage(msg string) *StorageError {
	se.baseError.WithMessage(msg)
	return se
}

// WithCode sets the error code.
func (se *StorageError) WithCode(code ErrorCode) *StorageError {
	se.baseError.WithCode(code)
	return se
}

// WithDetail adds contextual information.
func (se *StorageError) WithDetail(key string, value any) *StorageError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithRunID sets which run file was involved in the error.
func (se *StorageError) WithRunID(id int) *StorageError {
	se.runID = id
	return se
}

// WithOffset records the byte position where the error occurred.
func (se *StorageError) WithOffset(offset int64) *StorageError {
	se.offset = offset
	return se
}

// WithFileName captures which file was being processed when the error occurred.
func (se *StorageError) WithFileName(fileName string) *StorageError {
	se.fileName = fileName
	return se
}

// WithPath captures which filesystem path was being processed during the error.
func (se *StorageError) WithPath(path string) *StorageError {
	se.path = path
	return se
}

// RunID returns the run identifier where the error occurred.
func (se *StorageError) RunID() int {
	return se.runID
}

// Offset returns the byte offset within the file where the error happened.
func (se *StorageError) Offset() int64 {
	return se.offset
}

// FileName returns the name of the file that was being processed.
func (se *StorageError) FileName() string {
	return se.fileName
}

// Path returns the full filesystem path of the file that was being processed.
func (se *StorageError) Path() string {
	return se.path
}
