// Package filepool reads many files while keeping only a bounded number of them
// open. Descriptors are claimed from an LRU resource pool on every read and may be
// closed between reads; a reopened file resumes at the exact byte last delivered.
package filepool

import (
	stdErrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/iamBelugaa/esort/internal/pool"
	"github.com/iamBelugaa/esort/pkg/errors"
)

var (
	ErrPoolClosed = stdErrors.New("file pool is closed")
	ErrFileClosed = stdErrors.New("pooled file is closed")
)

// New creates a FilePool that keeps at most maxOpenFiles read descriptors open.
func New(maxOpenFiles int, log *zap.SugaredLogger) (*FilePool, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	fp := &FilePool{
		log:   log,
		files: make(map[string]*fileState),
	}

	p, err := pool.New(maxOpenFiles, fp.acquire, fp.release, log)
	if err != nil {
		return nil, err
	}
	fp.pool = p

	log.Debugw("Initializing file pool", "maxOpenFiles", maxOpenFiles)
	return fp, nil
}

// Open registers path and returns a reader positioned at its first byte.
// Opening a path again restarts it; readers returned earlier for it stop working.
// No descriptor is opened until the first Read.
func (fp *FilePool) Open(path string) (*File, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.closed {
		return nil, ErrPoolClosed
	}

	if _, ok := fp.files[path]; ok {
		if err := fp.forget(path); err != nil {
			return nil, err
		}
	}

	state := &fileState{path: path}
	fp.files[path] = state
	return &File{fp: fp, state: state}, nil
}

// Create creates path for writing. The descriptor bypasses the resource pool but
// counts towards Stats; it must be closed before the file is opened for reading.
func (fp *FilePool) Create(path string) (*WriteFile, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.closed {
		return nil, ErrPoolClosed
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, filepath.Base(path))
	}

	fp.stats.Creates++
	fp.opened()
	return &WriteFile{File: file, fp: fp}, nil
}

// Close releases every open descriptor and forgets all registered paths.
func (fp *FilePool) Close() error {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.closed {
		return nil
	}
	fp.closed = true

	err := fp.pool.Free()

	// Anything still open here escaped the pool; close it anyway.
	for path, state := range fp.files {
		if state.file != nil {
			err = multierr.Append(err, fp.closeHandle(state))
		}
		delete(fp.files, path)
	}

	fp.log.Debugw(
		"File pool closed",
		"opens", fp.stats.Opens,
		"reopens", fp.stats.Reopens,
		"evictions", fp.pool.Stats().Evictions,
		"peakOpen", fp.stats.PeakOpen,
	)
	return err
}

// Stats returns a snapshot of descriptor usage.
func (fp *FilePool) Stats() Stats {
	fp.mu.Lock()
	defer fp.mu.Unlock()

	stats := fp.stats
	stats.Evictions = fp.pool.Stats().Evictions
	return stats
}

// Read fills p from the file, reopening it at the saved offset if the pool closed it.
// The descriptor is closed as soon as end of file is seen.
func (f *File) Read(p []byte) (int, error) {
	fp := f.fp
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.closed {
		return 0, ErrPoolClosed
	}

	state := f.state
	if fp.files[state.path] != state {
		return 0, ErrFileClosed
	}

	if state.eof {
		return 0, io.EOF
	}

	if len(p) == 0 {
		return 0, nil
	}

	if _, err := fp.pool.Get(state.path); err != nil {
		return 0, err
	}

	n, err := state.file.Read(p)
	state.offset += int64(n)

	if err == io.EOF {
		state.eof = true
		if _, rmErr := fp.pool.Remove(state.path); rmErr != nil {
			return n, rmErr
		}
		if n > 0 {
			return n, nil
		}
		return 0, io.EOF
	}

	if err != nil {
		return n, errors.NewStorageError(err, errors.ErrIOReadFailed, "Failed to read pooled file").
			WithPath(state.path).
			WithFileName(filepath.Base(state.path)).
			WithOffset(state.offset)
	}

	return n, nil
}

// Close forgets the file's read state and releases its descriptor.
func (f *File) Close() error {
	fp := f.fp
	fp.mu.Lock()
	defer fp.mu.Unlock()

	if fp.closed || fp.files[f.state.path] != f.state {
		return nil
	}
	return fp.forget(f.state.path)
}

// Name returns the path the file reads.
func (f *File) Name() string {
	return f.state.path
}

// Offset returns how many bytes have been delivered so far.
func (f *File) Offset() int64 {
	f.fp.mu.Lock()
	defer f.fp.mu.Unlock()
	return f.state.offset
}

// Close closes the write descriptor once.
func (wf *WriteFile) Close() error {
	wf.fp.mu.Lock()
	defer wf.fp.mu.Unlock()

	if wf.closed {
		return nil
	}
	wf.closed = true
	wf.fp.closedOne()

	if err := wf.File.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrIOCloseFailed, "Failed to close file after writing").
			WithPath(wf.Name()).
			WithFileName(filepath.Base(wf.Name()))
	}
	return nil
}

func (fp *FilePool) acquire(path string) (*fileState, error) {
	state, ok := fp.files[path]
	if !ok {
		return nil, fmt.Errorf("path %s is not registered with the file pool", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, errors.ClassifyFileOpenError(err, path, filepath.Base(path))
	}

	if state.offset > 0 {
		if _, err := file.Seek(state.offset, io.SeekStart); err != nil {
			if closeErr := file.Close(); closeErr != nil {
				fp.log.Errorw("Failed to close file after seek error", "seekError", err, "closeError", closeErr)
			}
			return nil, errors.NewStorageError(err, errors.ErrIOSeekFailed, "Failed to seek reopened file").
				WithPath(path).
				WithFileName(filepath.Base(path)).
				WithOffset(state.offset)
		}
		fp.stats.Reopens++
	}

	state.file = file
	fp.stats.Opens++
	fp.opened()

	fp.log.Debugw("Pooled file opened", "path", path, "offset", state.offset, "open", fp.stats.Open)
	return state, nil
}

// release keeps the offset and drops the descriptor; the next acquire seeks back to it.
func (fp *FilePool) release(path string, state *fileState) error {
	if state.file == nil {
		return nil
	}

	fp.log.Debugw("Pooled file closed", "path", path, "offset", state.offset, "eof", state.eof)
	return fp.closeHandle(state)
}

func (fp *FilePool) closeHandle(state *fileState) error {
	file := state.file
	state.file = nil
	fp.stats.Closes++
	fp.closedOne()

	if err := file.Close(); err != nil {
		return errors.NewStorageError(err, errors.ErrIOCloseFailed, "Failed to close pooled file").
			WithPath(state.path).
			WithFileName(filepath.Base(state.path)).
			WithOffset(state.offset)
	}
	return nil
}

func (fp *FilePool) forget(path string) error {
	_, err := fp.pool.Remove(path)
	delete(fp.files, path)
	return err
}

func (fp *FilePool) opened() {
	fp.stats.Open++
	fp.stats.PeakOpen = max(fp.stats.PeakOpen, fp.stats.Open)
}

func (fp *FilePool) closedOne() {
	fp.stats.Open--
}
