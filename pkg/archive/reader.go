package archive

import (
	"io"

	"github.com/DataDog/zstd"
	"github.com/pkg/errors"
)

// Reader decompresses an archived texture container.
type Reader struct {
	header  *Header
	zReader io.ReadCloser
}

// NewReader reads and validates the header, then returns a reader for the
// decompressed container.
func NewReader(r io.Reader) (*Reader, error) {
	var headerBuf [HeaderSize]byte
	if _, err := io.ReadFull(r, headerBuf[:]); err != nil {
		return nil, errors.Wrap(err, "archive: read header")
	}

	reader := &Reader{header: &Header{}}
	if err := reader.header.UnmarshalBinary(headerBuf[:]); err != nil {
		return nil, err
	}
	reader.zReader = zstd.NewReader(r)
	return reader, nil
}

// Header returns the archive header.
func (r *Reader) Header() *Header {
	return r.header
}

// Read reads decompressed container bytes.
func (r *Reader) Read(p []byte) (int, error) {
	return r.zReader.Read(p)
}

// Close closes the decompressor.
func (r *Reader) Close() error {
	return r.zReader.Close()
}

// Length returns the uncompressed container size.
func (r *Reader) Length() int {
	return int(r.header.Length)
}

// ReadAll decompresses a whole archived container.
func ReadAll(r io.Reader) ([]byte, error) {
	reader, err := NewReader(r)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	data := make([]byte, reader.Length())
	if _, err := io.ReadFull(reader, data); err != nil {
		return nil, errors.Wrap(err, "archive: read content")
	}
	return data, nil
}
