package archive

import (
	"io"

	"github.com/DataDog/zstd"
	"github.com/pkg/errors"
)

// DefaultCompressionLevel balances ratio against the cost of compressing
// large float payloads.
const DefaultCompressionLevel = zstd.DefaultCompression

// Writer compresses a texture container into dst.
type Writer struct {
	dst     io.WriteSeeker
	zWriter *zstd.Writer
	header  *Header
	level   int
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the zstd compression level.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) {
		w.level = level
	}
}

// NewWriter creates a writer for a container of the given uncompressed size.
// A placeholder header is written immediately and patched on Close.
func NewWriter(dst io.WriteSeeker, uncompressedSize uint64, opts ...WriterOption) (*Writer, error) {
	w := &Writer{
		dst:    dst,
		level:  DefaultCompressionLevel,
		header: NewHeader(uncompressedSize, 0),
	}
	for _, opt := range opts {
		opt(w)
	}

	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if _, err := dst.Write(headerBytes); err != nil {
		return nil, errors.Wrap(err, "archive: write header")
	}

	w.zWriter = zstd.NewWriterLevel(dst, w.level)
	return w, nil
}

// Write compresses p into the archive.
func (w *Writer) Write(p []byte) (int, error) {
	return w.zWriter.Write(p)
}

// Close flushes the compressor and patches the header with the compressed
// size.
func (w *Writer) Close() error {
	if err := w.zWriter.Close(); err != nil {
		return errors.Wrap(err, "archive: close compressor")
	}

	pos, err := w.dst.Seek(0, io.SeekCurrent)
	if err != nil {
		return errors.Wrap(err, "archive: get position")
	}
	w.header.CompressedLength = uint64(pos) - HeaderSize

	if _, err := w.dst.Seek(0, io.SeekStart); err != nil {
		return errors.Wrap(err, "archive: seek to start")
	}
	headerBytes, err := w.header.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.dst.Write(headerBytes); err != nil {
		return errors.Wrap(err, "archive: rewrite header")
	}
	if _, err := w.dst.Seek(pos, io.SeekStart); err != nil {
		return errors.Wrap(err, "archive: seek to end")
	}
	return nil
}

// Encode compresses a whole container into dst.
func Encode(dst io.WriteSeeker, data []byte, opts ...WriterOption) error {
	w, err := NewWriter(dst, uint64(len(data)), opts...)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return errors.Wrap(err, "archive: write data")
	}
	return w.Close()
}
