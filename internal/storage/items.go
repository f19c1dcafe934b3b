package storage

import (
	"io"
	"iter"

	"github.com/iamBelugaa/esort/pkg/codec"
	"github.com/iamBelugaa/esort/pkg/errors"
)

// Decode reads the next item from c. It returns io.EOF at a clean end of the run.
func Decode[T any](c *Cursor, cd codec.Codec[T]) (T, error) {
	var zero T

	payload, err := c.Next()
	if err != nil {
		return zero, err
	}

	item, err := cd.Unmarshal(payload)
	if err != nil {
		return zero, errors.NewStorageError(err, errors.ErrRecordDecoding, "Failed to unmarshal record").
			WithPath(c.run.Path).
			WithRunID(c.run.ID).
			WithDetail("record", c.records-1).
			WithDetail("payloadSize", len(payload))
	}
	return item, nil
}

// Items returns the run's items as a sequence. Each range over it rescans the run;
// stopping early releases the descriptor.
func Items[T any](r *Run, cd codec.Codec[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		cursor, err := r.Cursor()
		if err != nil {
			yield(zero, err)
			return
		}
		defer cursor.Close()

		for {
			item, err := Decode(cursor, cd)
			if err == io.EOF {
				return
			}
			if err != nil {
				yield(zero, err)
				return
			}
			if !yield(item, nil) {
				return
			}
		}
	}
}
