// Package checksum computes the CRC32C checksums stored with every spilled record.
package checksum

import (
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type CRC32C struct {
	table *crc32.Table
}

func NewCRC32C() *CRC32C {
	return &CRC32C{table: castagnoli}
}

func (c *CRC32C) Calculate(data []byte) uint32 {
	return crc32.Checksum(data, c.table)
}

func (c *CRC32C) Verify(data []byte, expected uint32) bool {
	return c.Calculate(data) == expected
}
