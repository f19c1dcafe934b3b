package errors

// SortError reports a failure of the sort driver outside of a single run file.
type SortError struct {
	*baseError
	phase string
	items int64
}

func NewSortError(err error, code ErrorCode, msg string) *SortError {
	return &SortError{baseError: NewBaseError(err, code, msg)}
}

func (se *SortError) WithMessage(msg string) *SortError {
	se.baseError.WithMessage(msg)
	return se
}

func (se *SortError) WithCode(code ErrorCode) *SortError {
	se.baseError.WithCode(code)
	return se
}

func (se *SortError) WithDetail(key string, value any) *SortError {
	se.baseError.WithDetail(key, value)
	return se
}

// WithPhase records the phase (buffer, partition, merge) the sort was in.
func (se *SortError) WithPhase(phase string) *SortError {
	se.phase = phase
	return se
}

// WithItems records how many input items had been consumed.
func (se *SortError) WithItems(n int64) *SortError {
	se.items = n
	return se
}

func (se *SortError) Phase() string {
	return se.phase
}

func (se *SortError) Items() int64 {
	return se.items
}
