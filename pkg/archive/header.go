// Package archive wraps texture container output in a zstd frame with a
// small fixed header, so large uncompressed containers (notably float DDS and
// KTX payloads) can be stored compactly and recovered byte for byte.
package archive

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// Magic identifies a compressed texture container.
var Magic = [4]byte{'T', 'X', 'Z', '1'}

// HeaderSize is the fixed binary size of the header.
const HeaderSize = 24

// Header precedes the zstd frame and records both sizes so readers can
// preallocate the output.
type Header struct {
	Magic            [4]byte
	HeaderLength     uint32
	Length           uint64 // Uncompressed container size
	CompressedLength uint64
}

// NewHeader creates a header for the given sizes.
func NewHeader(uncompressedSize, compressedSize uint64) *Header {
	return &Header{
		Magic:            Magic,
		HeaderLength:     HeaderSize,
		Length:           uncompressedSize,
		CompressedLength: compressedSize,
	}
}

// Validate checks the header for consistency.
func (h *Header) Validate() error {
	if h.Magic != Magic {
		return errors.Errorf("archive: invalid magic: expected %x, got %x", Magic, h.Magic)
	}
	if h.HeaderLength != HeaderSize {
		return errors.Errorf("archive: invalid header length %d", h.HeaderLength)
	}
	if h.Length == 0 {
		return errors.New("archive: uncompressed size is zero")
	}
	return nil
}

// MarshalBinary encodes the header.
func (h *Header) MarshalBinary() ([]byte, error) {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, h); err != nil {
		return nil, errors.Wrap(err, "archive: marshal header")
	}
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes and validates the header.
func (h *Header) UnmarshalBinary(data []byte) error {
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, h); err != nil {
		return errors.Wrap(err, "archive: unmarshal header")
	}
	return h.Validate()
}
