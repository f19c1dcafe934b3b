// Package codec converts sort items to and from the bytes stored in spilled runs.
//
// The byte length of an item's encoding is also what the sort measures against
// its memory and run-size thresholds.
package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrShortBuffer = errors.New("codec: buffer too short")
)

// Codec encodes and decodes items of type T.
// Unmarshal must not retain data after returning; the caller may reuse it.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(data []byte) (T, error)
}

// Func adapts a pair of functions to a Codec.
type Func[T any] struct {
	MarshalFunc   func(T) ([]byte, error)
	UnmarshalFunc func([]byte) (T, error)
}

func (f Func[T]) Marshal(v T) ([]byte, error) { return f.MarshalFunc(v) }

func (f Func[T]) Unmarshal(data []byte) (T, error) { return f.UnmarshalFunc(data) }

// Uint64 encodes as 8 bytes big-endian, so byte order matches numeric order.
type Uint64 struct{}

func (Uint64) Marshal(v uint64) ([]byte, error) {
	return binary.BigEndian.AppendUint64(make([]byte, 0, 8), v), nil
}

func (Uint64) Unmarshal(data []byte) (uint64, error) {
	if len(data) != 8 {
		return 0, fmt.Errorf("%w: uint64 needs 8 bytes, got %d", ErrShortBuffer, len(data))
	}
	return binary.BigEndian.Uint64(data), nil
}

// Int64 encodes as 8 bytes big-endian with the sign bit flipped.
type Int64 struct{}

func (Int64) Marshal(v int64) ([]byte, error) {
	return Uint64{}.Marshal(uint64(v) ^ (1 << 63))
}

func (Int64) Unmarshal(data []byte) (int64, error) {
	u, err := Uint64{}.Unmarshal(data)
	if err != nil {
		return 0, err
	}
	return int64(u ^ (1 << 63)), nil
}

// String stores the raw UTF-8 bytes.
type String struct{}

func (String) Marshal(v string) ([]byte, error) { return []byte(v), nil }

func (String) Unmarshal(data []byte) (string, error) { return string(data), nil }

// Bytes stores a copy of the slice.
type Bytes struct{}

func (Bytes) Marshal(v []byte) ([]byte, error) { return append([]byte(nil), v...), nil }

func (Bytes) Unmarshal(data []byte) ([]byte, error) { return append([]byte{}, data...), nil }
