package checksum

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C(t *testing.T) {
	c := NewCRC32C()

	// Well known CRC-32C check value.
	assert.Equal(t, uint32(0xe3069283), c.Calculate([]byte("123456789")))
	assert.True(t, c.Verify([]byte("123456789"), 0xe3069283))
	assert.False(t, c.Verify([]byte("123456780"), 0xe3069283))
}
