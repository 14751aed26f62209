package codec

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/goopsie/texpack/pkg/raster"
)

// batchSize is the number of pixels processed per job by the uncompressed
// encoders. Jobs run along a flattened pixel index in one dimension so the
// payload offsets stay aligned for multithreading.
const batchSize = 32

// packFunc packs one RGBA float pixel into dst.
type packFunc func(dst []byte, px []float32)

// standardEncoder drives a per-pixel packer over the image in batches.
type standardEncoder struct {
	img       *raster.Image
	data      []byte
	pixelSize int
	pack      packFunc
}

func newStandardEncoder(img *raster.Image, pixelSize int, pack packFunc) *standardEncoder {
	return &standardEncoder{
		img:       img,
		data:      make([]byte, img.Width()*img.Height()*pixelSize),
		pixelSize: pixelSize,
		pack:      pack,
	}
}

func (e *standardEncoder) JobsX() int {
	return (e.img.Width()*e.img.Height() + batchSize - 1) / batchSize
}

func (e *standardEncoder) JobsY() int { return 1 }

func (e *standardEncoder) Data() []byte { return e.data }

func (e *standardEncoder) Process(x, _ int, _ ThreadData) {
	width := e.img.Width()
	height := e.img.Height()
	row := x * batchSize / width
	scanline := e.img.FloatScanline(row)
	for i := 0; i < batchSize; i++ {
		curRow := (x*batchSize + i) / width
		if curRow != row {
			if curRow >= height {
				break
			}
			row = curRow
			scanline = e.img.FloatScanline(row)
		}
		col := (x*batchSize + i) % width
		e.pack(e.data[(x*batchSize+i)*e.pixelSize:], scanline[col*4:col*4+4])
	}
}

func clampF(v, min, max float32) float32 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func roundF(v float32) float32 {
	return float32(math.Round(float64(v)))
}

// unorm quantizes a [0,1] channel to the full range of an unsigned integer.
func unorm(v float32, maxVal uint32) uint32 {
	return uint32(roundF(clampF(v, 0, 1) * float32(maxVal)))
}

// snorm quantizes a [-1,1] channel to the positive range of a signed integer.
func snorm(v float32, maxVal int32) int32 {
	return int32(roundF(clampF(v, -1, 1) * float32(maxVal)))
}

// newUNormEncoder packs channels as unsigned normalized integers of the given
// byte width.
func newUNormEncoder(img *raster.Image, bytesPerChan, channels int) Encoder {
	pack := func(dst []byte, px []float32) {
		for c := 0; c < channels; c++ {
			switch bytesPerChan {
			case 1:
				dst[c] = uint8(unorm(px[c], 0xFF))
			case 2:
				binary.LittleEndian.PutUint16(dst[c*2:], uint16(unorm(px[c], 0xFFFF)))
			}
		}
	}
	return newStandardEncoder(img, bytesPerChan*channels, pack)
}

// newSNormEncoder packs channels as signed normalized integers.
func newSNormEncoder(img *raster.Image, bytesPerChan, channels int) Encoder {
	pack := func(dst []byte, px []float32) {
		for c := 0; c < channels; c++ {
			switch bytesPerChan {
			case 1:
				dst[c] = uint8(int8(snorm(px[c], 0x7F)))
			case 2:
				binary.LittleEndian.PutUint16(dst[c*2:], uint16(int16(snorm(px[c], 0x7FFF))))
			}
		}
	}
	return newStandardEncoder(img, bytesPerChan*channels, pack)
}

// newIntEncoder packs channels as raw integers, clamped to the type range.
func newIntEncoder(img *raster.Image, bytesPerChan, channels int, signed bool) Encoder {
	var minVal, maxVal float32
	switch {
	case bytesPerChan == 1 && signed:
		minVal, maxVal = math.MinInt8, math.MaxInt8
	case bytesPerChan == 1:
		minVal, maxVal = 0, math.MaxUint8
	case bytesPerChan == 2 && signed:
		minVal, maxVal = math.MinInt16, math.MaxInt16
	case bytesPerChan == 2:
		minVal, maxVal = 0, math.MaxUint16
	case bytesPerChan == 4 && signed:
		minVal, maxVal = math.MinInt32, math.MaxInt32
	default:
		minVal, maxVal = 0, math.MaxUint32
	}
	pack := func(dst []byte, px []float32) {
		for c := 0; c < channels; c++ {
			v := roundF(clampF(px[c], minVal, maxVal))
			switch bytesPerChan {
			case 1:
				dst[c] = uint8(int64(v))
			case 2:
				binary.LittleEndian.PutUint16(dst[c*2:], uint16(int64(v)))
			case 4:
				binary.LittleEndian.PutUint32(dst[c*4:], uint32(int64(v)))
			}
		}
	}
	return newStandardEncoder(img, bytesPerChan*channels, pack)
}

// newFloatEncoder packs channels as half or single-precision floats without
// clamping.
func newFloatEncoder(img *raster.Image, bytesPerChan, channels int) Encoder {
	pack := func(dst []byte, px []float32) {
		for c := 0; c < channels; c++ {
			switch bytesPerChan {
			case 2:
				binary.LittleEndian.PutUint16(dst[c*2:],
					float16.Fromfloat32(px[c]).Bits())
			case 4:
				binary.LittleEndian.PutUint32(dst[c*4:], math.Float32bits(px[c]))
			}
		}
	}
	return newStandardEncoder(img, bytesPerChan*channels, pack)
}
