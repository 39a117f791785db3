package avl

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pierrec/lz4/v4"
)

// uint32ByteSize is the number of bytes in a uint32.
const uint32ByteSize = 4

// ErrShortColumn is returned when a compressed column decodes to fewer values than expected.
var ErrShortColumn = errors.New("decompressed column is too short")

// CompressUInt32Slice compresses a slice of uint32-s with LZ4.
// The first byte of the result tells whether the rest is an LZ4 block (1) or
// raw little-endian values (0) for input that does not compress.
func CompressUInt32Slice(data []uint32) []byte {
	buf := new(bytes.Buffer)

	writeErr := binary.Write(buf, binary.LittleEndian, data)
	if writeErr != nil {
		return nil
	}

	compressed := make([]byte, lz4.CompressBlockBound(buf.Len()))

	written, err := lz4.CompressBlock(buf.Bytes(), compressed, nil)
	if err != nil {
		return nil
	}

	if written == 0 {
		// Incompressible: keep the raw little-endian bytes behind a marker.
		return append([]byte{0}, buf.Bytes()...)
	}

	return append([]byte{1}, compressed[:written]...)
}

// DecompressUInt32Slice decompresses a slice of uint32-s previously compressed
// with CompressUInt32Slice. `result` must be preallocated.
func DecompressUInt32Slice(data []byte, result []uint32) error {
	if len(result) == 0 {
		return nil
	}

	if len(data) == 0 {
		return fmt.Errorf("%w: no data for %d values", ErrShortColumn, len(result))
	}

	raw := data[1:]

	if data[0] == 1 {
		decompressed := make([]byte, len(result)*uint32ByteSize)

		written, err := lz4.UncompressBlock(raw, decompressed)
		if err != nil {
			return fmt.Errorf("lz4 uncompress: %w", err)
		}

		raw = decompressed[:written]
	}

	if len(raw) < len(result)*uint32ByteSize {
		return fmt.Errorf("%w: %d bytes for %d values", ErrShortColumn, len(raw), len(result))
	}

	readErr := binary.Read(bytes.NewReader(raw), binary.LittleEndian, result)
	if readErr != nil {
		return fmt.Errorf("decode column: %w", readErr)
	}

	return nil
}
