package codec

import (
	"google.golang.org/protobuf/proto"
)

// Proto encodes protobuf messages. New must return a fresh, empty message.
type Proto[M proto.Message] struct {
	New func() M
}

// NewProto returns a protobuf codec for messages created by newFn.
func NewProto[M proto.Message](newFn func() M) Proto[M] {
	return Proto[M]{New: newFn}
}

// Serializes a message with deterministic map ordering, so equal messages have equal sizes.
func (p Proto[M]) Marshal(v M) ([]byte, error) {
	opts := proto.MarshalOptions{Deterministic: true}
	return opts.Marshal(v)
}

func (p Proto[M]) Unmarshal(data []byte) (M, error) {
	msg := p.New()
	opts := proto.UnmarshalOptions{DiscardUnknown: true}

	if err := opts.Unmarshal(data, msg); err != nil {
		var zero M
		return zero, err
	}
	return msg, nil
}
