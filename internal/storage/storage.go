// Package storage writes sorted runs of serialized items to temporary files and
// reads them back, optionally through a compressor. Run files are only ever read
// through a filepool.FilePool, so the number of open descriptors stays bounded no
// matter how many runs exist.
package storage

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"

	"github.com/iamBelugaa/esort/internal/index"
	"github.com/iamBelugaa/esort/internal/storage/filepool"
	"github.com/iamBelugaa/esort/pkg/checksum"
	"github.com/iamBelugaa/esort/pkg/errors"
	"github.com/iamBelugaa/esort/pkg/options"
	"github.com/iamBelugaa/esort/pkg/runinfo"
)

const (
	checksumSize    = 4
	writeBufferSize = 64 * 1024
)

// NewWriter creates a Writer that places run files in dir and reads them back through files.
func NewWriter(dir string, files *filepool.FilePool, idx *index.Index, opts *options.Options) *Writer {
	log := opts.Log()
	log.Debugw(
		"Initializing run writer",
		"dir", dir,
		"prefix", opts.RunPrefix,
		"compression", opts.Compression,
	)

	return &Writer{
		dir:         dir,
		log:         log,
		index:       idx,
		files:       files,
		options:     opts,
		checksummer: checksum.NewCRC32C(),
	}
}

// WriteRun writes chunks, already sorted and serialized, as one new run file.
// The run is registered in the index only once every byte has reached the file;
// on failure the partial file is removed.
func (w *Writer) WriteRun(ctx context.Context, chunks [][]byte) (run *Run, err error) {
	w.nextID++
	runID := w.nextID
	fileName := runinfo.GenerateName(runID, w.options.RunPrefix)
	path := filepath.Join(w.dir, fileName)

	file, err := w.files.Create(path)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err == nil {
			return
		}
		if closeErr := file.Close(); closeErr != nil {
			w.log.Errorw("Failed to close run file after write error", "path", path, "error", closeErr)
		}
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			w.log.Errorw("Failed to remove partial run file", "path", path, "error", rmErr)
		}
	}()

	counter := &countingWriter{w: file}
	buffered := bufio.NewWriterSize(counter, writeBufferSize)

	var dst io.Writer = buffered
	var compressor io.WriteCloser
	if w.options.Compression.Enabled() {
		compressor, err = newCompressor(buffered, w.options.Compression)
		if err != nil {
			return nil, errors.NewStorageError(err, errors.ErrRunCompression, "Failed to create run compressor").
				WithPath(path).
				WithFileName(fileName).
				WithRunID(runID).
				WithDetail("codec", w.options.Compression.Codec).
				WithDetail("level", w.options.Compression.Level)
		}
		dst = compressor
	}

	var payloadBytes int64
	var header [checksumSize + binary.MaxVarintLen64]byte

	for _, chunk := range chunks {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if uint64(len(chunk)) > options.MaxRecordSize {
			return nil, errors.NewStorageError(
				nil, errors.ErrRecordTooLarge,
				fmt.Sprintf(
					"Record of %s exceeds maximum allowed size of %s",
					options.FormatBytes(uint64(len(chunk))), options.FormatBytes(options.MaxRecordSize),
				),
			).
				WithPath(path).
				WithFileName(fileName).
				WithRunID(runID)
		}

		rh := RecordHeader{Checksum: w.checksummer.Calculate(chunk), PayloadSize: uint64(len(chunk))}
		n := rh.encode(header[:])

		if _, err := dst.Write(header[:n]); err != nil {
			return nil, w.writeError(err, "Failed to write record header", path, fileName, runID, payloadBytes)
		}
		if _, err := dst.Write(chunk); err != nil {
			return nil, w.writeError(err, "Failed to write record payload", path, fileName, runID, payloadBytes)
		}

		payloadBytes += int64(len(chunk))
	}

	if compressor != nil {
		if err := compressor.Close(); err != nil {
			return nil, w.writeError(err, "Failed to finish run compression", path, fileName, runID, payloadBytes)
		}
	}

	if err := buffered.Flush(); err != nil {
		return nil, w.writeError(err, "Failed to flush run file", path, fileName, runID, payloadBytes)
	}

	if err := file.Close(); err != nil {
		return nil, err
	}

	pointer := &index.RunPointer{
		ID:           runID,
		Path:         path,
		Items:        int64(len(chunks)),
		PayloadBytes: payloadBytes,
		DiskBytes:    counter.n,
		CreatedAt:    time.Now(),
	}
	w.index.Set(pointer)

	w.log.Debugw(
		"Run written",
		"runID", runID,
		"items", pointer.Items,
		"payloadBytes", payloadBytes,
		"diskBytes", counter.n,
	)

	return w.run(pointer), nil
}

// Runs returns every run written so far, in creation order.
func (w *Writer) Runs() []*Run {
	pointers := w.index.All()
	runs := make([]*Run, 0, len(pointers))
	for _, pointer := range pointers {
		runs = append(runs, w.run(pointer))
	}
	return runs
}

// Discard deletes a run that has been read to the end and drops it from the index.
// Discarding an unknown or already discarded run does nothing.
func (w *Writer) Discard(run *Run) error {
	if _, ok := w.index.Get(run.ID); !ok {
		return nil
	}

	if err := os.Remove(run.Path); err != nil && !os.IsNotExist(err) {
		return errors.NewStorageError(err, errors.ErrIOGeneral, "Failed to remove consumed run").
			WithPath(run.Path).
			WithFileName(filepath.Base(run.Path)).
			WithRunID(run.ID)
	}

	w.index.Delete(run.ID)
	w.log.Debugw("Run discarded", "runID", run.ID, "path", run.Path, "diskBytes", run.DiskBytes)
	return nil
}

func (w *Writer) run(pointer *index.RunPointer) *Run {
	return &Run{
		RunPointer:  pointer,
		log:         w.log,
		files:       w.files,
		options:     w.options,
		checksummer: w.checksummer,
	}
}

func (w *Writer) writeError(err error, msg, path, fileName string, runID int, offset int64) *errors.StorageError {
	return errors.NewStorageError(err, errors.ErrRunWriteFailed, msg).
		WithPath(path).
		WithFileName(fileName).
		WithRunID(runID).
		WithDetail("payloadOffset", offset)
}

// Cursor opens the run for a full sequential scan from its first record.
// Each call starts over, so a run can be scanned any number of times, one scan at a time.
func (r *Run) Cursor() (*Cursor, error) {
	file, err := r.files.Open(r.Path)
	if err != nil {
		return nil, errors.NewStorageError(err, errors.ErrRunReadFailed, "Failed to open run").
			WithPath(r.Path).
			WithFileName(filepath.Base(r.Path)).
			WithRunID(r.ID)
	}

	var src io.Reader = file
	var decomp io.ReadCloser
	if r.options.Compression.Enabled() {
		decomp, err = newDecompressor(file, r.options.Compression)
		if err != nil {
			return nil, multierr.Append(
				r.corrupted(err, "Failed to start run decompression", 0),
				file.Close(),
			)
		}
		src = decomp
	}

	return &Cursor{
		run:    r,
		file:   file,
		decomp: decomp,
		reader: bufio.NewReaderSize(src, r.options.ReadBufferSize),
	}, nil
}

// Next returns the next payload. The slice is only valid until the following call.
// A clean end of the run returns io.EOF and releases the run's descriptor.
func (c *Cursor) Next() ([]byte, error) {
	if c.done {
		return nil, io.EOF
	}

	var sum [checksumSize]byte
	if _, err := io.ReadFull(c.reader, sum[:]); err != nil {
		if err == io.EOF {
			if closeErr := c.Close(); closeErr != nil {
				return nil, closeErr
			}
			return nil, io.EOF
		}
		return nil, c.readError(err, "Failed to read record checksum")
	}

	size, err := binary.ReadUvarint(c.reader)
	if err != nil {
		return nil, c.readError(err, "Failed to read record size")
	}

	if size > options.MaxRecordSize {
		return nil, c.run.corrupted(nil, fmt.Sprintf("Record size %d exceeds maximum", size), c.records)
	}

	if uint64(cap(c.buf)) < size {
		c.buf = make([]byte, size)
	}
	payload := c.buf[:size]

	if _, err := io.ReadFull(c.reader, payload); err != nil {
		return nil, c.readError(err, "Failed to read record payload")
	}

	if !c.run.checksummer.Verify(payload, binary.LittleEndian.Uint32(sum[:])) {
		return nil, c.run.corrupted(nil, "Record checksum mismatch", c.records).
			WithCode(errors.ErrRecordChecksum)
	}

	c.records++
	return payload, nil
}

// Records returns how many records have been returned so far.
func (c *Cursor) Records() int64 {
	return c.records
}

// Close releases the cursor's descriptor. It is safe to call more than once.
func (c *Cursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true

	var err error
	if c.decomp != nil {
		err = multierr.Append(err, c.decomp.Close())
	}
	return multierr.Append(err, c.file.Close())
}

// End of stream inside a record means the run was truncated.
func (c *Cursor) readError(err error, msg string) *errors.StorageError {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return c.run.corrupted(err, msg+": run truncated", c.records)
	}

	return errors.NewStorageError(err, errors.ErrRunReadFailed, msg).
		WithPath(c.run.Path).
		WithFileName(filepath.Base(c.run.Path)).
		WithRunID(c.run.ID).
		WithDetail("record", c.records)
}

func (r *Run) corrupted(err error, msg string, record int64) *errors.StorageError {
	r.log.Errorw("Corrupted run", "runID", r.ID, "path", r.Path, "record", record, "reason", msg)
	return errors.NewStorageError(err, errors.ErrRunCorrupted, msg).
		WithPath(r.Path).
		WithFileName(filepath.Base(r.Path)).
		WithRunID(r.ID).
		WithDetail("record", record)
}

func (rh RecordHeader) encode(dst []byte) int {
	binary.LittleEndian.PutUint32(dst, rh.Checksum)
	return checksumSize + binary.PutUvarint(dst[checksumSize:], rh.PayloadSize)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
