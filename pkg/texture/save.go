package texture

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// SaveResult reports the outcome of writing a texture container.
type SaveResult int

const (
	// SaveSuccess means the full container was written.
	SaveSuccess SaveResult = iota
	// SaveInvalid means the texture has no converted payload.
	SaveInvalid
	// SaveUnknownFormat means no writer matches the requested file type.
	SaveUnknownFormat
	// SaveUnsupported means the container cannot express the texture's
	// (format, type) pair.
	SaveUnsupported
	// SaveWriteError means an I/O operation failed.
	SaveWriteError
)

func (r SaveResult) String() string {
	switch r {
	case SaveSuccess:
		return "success"
	case SaveInvalid:
		return "invalid texture"
	case SaveUnknownFormat:
		return "unknown file format"
	case SaveUnsupported:
		return "unsupported format for container"
	case SaveWriteError:
		return "write error"
	default:
		return "unknown"
	}
}

// FileType selects a container writer.
type FileType int

const (
	FileTypeAuto FileType = iota
	FileTypeDDS
	FileTypeKTX
	FileTypePVR
)

// FileTypeFromPath infers the container from the file extension.
func FileTypeFromPath(path string) FileType {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".dds":
		return FileTypeDDS
	case ".ktx":
		return FileTypeKTX
	case ".pvr":
		return FileTypePVR
	default:
		return FileTypeAuto
	}
}

// ParseFileType looks up a container by its dds/ktx/pvr name.
func ParseFileType(name string) (FileType, bool) {
	switch strings.ToLower(name) {
	case "dds":
		return FileTypeDDS, true
	case "ktx":
		return FileTypeKTX, true
	case "pvr":
		return FileTypePVR, true
	default:
		return FileTypeAuto, false
	}
}

// Save writes the converted texture to a file. With FileTypeAuto the
// container is inferred from the extension. Structural validation happens
// before the file is created so failures leave nothing behind.
func (t *Texture) Save(path string, fileType FileType) SaveResult {
	if !t.Converted() {
		return SaveInvalid
	}
	if fileType == FileTypeAuto {
		fileType = FileTypeFromPath(path)
	}

	var buf bytes.Buffer
	result := t.SaveWriter(&buf, fileType)
	if result != SaveSuccess {
		return result
	}

	f, err := os.Create(path)
	if err != nil {
		return SaveWriteError
	}
	defer f.Close()
	if _, err := f.Write(buf.Bytes()); err != nil {
		os.Remove(path)
		return SaveWriteError
	}
	return SaveSuccess
}

// SaveWriter writes the converted texture to a stream.
func (t *Texture) SaveWriter(w io.Writer, fileType FileType) SaveResult {
	if !t.Converted() {
		return SaveInvalid
	}
	switch fileType {
	case FileTypeDDS:
		return t.saveDDS(w)
	case FileTypeKTX:
		return t.saveKTX(w)
	case FileTypePVR:
		return t.savePVR(w)
	default:
		return SaveUnknownFormat
	}
}

// SaveBytes writes the converted texture into a fresh buffer.
func (t *Texture) SaveBytes(fileType FileType) ([]byte, SaveResult) {
	var buf bytes.Buffer
	result := t.SaveWriter(&buf, fileType)
	if result != SaveSuccess {
		return nil, result
	}
	return buf.Bytes(), result
}
