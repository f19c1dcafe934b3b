package errors

type ErrorCode string

const (
	ErrIOGeneral     ErrorCode = "IO_GENERAL"
	ErrIOOpenFailed  ErrorCode = "IO_OPEN_FAILED"
	ErrIOSyncFailed  ErrorCode = "IO_SYNC_FAILED"
	ErrIOSeekFailed  ErrorCode = "IO_SEEK_FAILED"
	ErrIOReadFailed  ErrorCode = "IO_READ_FAILED"
	ErrIOWriteFailed ErrorCode = "IO_WRITE_FAILED"
	ErrIOCloseFailed ErrorCode = "IO_CLOSE_FAILED"

	ErrSystemInternal     ErrorCode = "SYSTEM_INTERNAL"
	ErrSystemInvalidInput ErrorCode = "SYSTEM_INVALID_INPUT"
	ErrSystemCanceled     ErrorCode = "SYSTEM_CANCELED"

	ErrValidationInvalidData ErrorCode = "VALIDATION_INVALID_DATA"

	ErrPoolAcquireFailed ErrorCode = "POOL_ACQUIRE_FAILED"
	ErrPoolReleaseFailed ErrorCode = "POOL_RELEASE_FAILED"
	ErrPoolClosed        ErrorCode = "POOL_CLOSED"

	ErrTempDirCreateFailed ErrorCode = "TEMP_DIR_CREATE_FAILED"
	ErrTempDirRemoveFailed ErrorCode = "TEMP_DIR_REMOVE_FAILED"

	ErrRunCreateFailed     ErrorCode = "RUN_CREATE_FAILED"
	ErrRunWriteFailed      ErrorCode = "RUN_WRITE_FAILED"
	ErrRunReadFailed       ErrorCode = "RUN_READ_FAILED"
	ErrRunCorrupted        ErrorCode = "RUN_CORRUPTED"
	ErrRunCompression      ErrorCode = "RUN_COMPRESSION"
	ErrRecordSerialization ErrorCode = "RECORD_SERIALIZATION"
	ErrRecordDecoding      ErrorCode = "RECORD_DESERIALIZATION"
	ErrRecordTooLarge      ErrorCode = "RECORD_PAYLOAD_TOO_LARGE"
	ErrRecordChecksum      ErrorCode = "RECORD_CHECKSUM_MISMATCH"
)
