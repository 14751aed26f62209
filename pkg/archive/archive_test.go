package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func tempFile(t *testing.T) *os.File {
	t.Helper()
	f, err := os.Create(filepath.Join(t.TempDir(), "out.dds.zst"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i % 251)
	}

	f := tempFile(t)
	if err := Encode(f, payload); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}

	decoded, err := ReadAll(f)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Error("round trip corrupted the payload")
	}
}

func TestHeaderPatching(t *testing.T) {
	payload := bytes.Repeat([]byte{0xAB}, 1024)
	f := tempFile(t)
	if err := Encode(f, payload); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		t.Fatal(err)
	}

	reader, err := NewReader(f)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	header := reader.Header()
	if header.Length != 1024 {
		t.Errorf("uncompressed length = %d, expected 1024", header.Length)
	}
	if header.CompressedLength == 0 {
		t.Error("compressed length was not patched")
	}
	info, err := f.Stat()
	if err != nil {
		t.Fatal(err)
	}
	if uint64(info.Size()) != HeaderSize+header.CompressedLength {
		t.Errorf("file size %d does not match header %d", info.Size(),
			HeaderSize+header.CompressedLength)
	}
}

func TestHeaderValidation(t *testing.T) {
	var h Header
	if err := h.Validate(); err == nil {
		t.Error("zero header should fail validation")
	}

	data := make([]byte, HeaderSize)
	copy(data, []byte("NOPE"))
	if err := new(Header).UnmarshalBinary(data); err == nil {
		t.Error("wrong magic should fail")
	}
}

func TestWriterCompressionLevel(t *testing.T) {
	payload := bytes.Repeat([]byte("texture data "), 512)

	sizes := make([]uint64, 0, 2)
	for _, level := range []int{1, 19} {
		f := tempFile(t)
		if err := Encode(f, payload, WithCompressionLevel(level)); err != nil {
			t.Fatal(err)
		}
		if _, err := f.Seek(0, 0); err != nil {
			t.Fatal(err)
		}
		reader, err := NewReader(f)
		if err != nil {
			t.Fatal(err)
		}
		sizes = append(sizes, reader.Header().CompressedLength)
		reader.Close()
	}
	if sizes[0] == 0 || sizes[1] == 0 {
		t.Error("compressed sizes should be nonzero")
	}
}
