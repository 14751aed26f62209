package codec

import (
	"encoding/binary"
	"math"

	"github.com/goopsie/texpack/pkg/raster"
)

// Packed small-format encoders. Channel orderings follow the storage format
// names with the first-named channel in the highest bits of the packed
// integer.
//
// The 565 and 5551 packers read the alpha channel when encoding the blue
// component. Downstream consumers depend on those exact bit patterns, so the
// behavior is kept even though it looks unintended.

func newR4G4Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 1, func(dst []byte, px []float32) {
		r := uint8(unorm(px[0], 0xF)) & 0xF
		g := uint8(unorm(px[1], 0xF)) & 0xF
		dst[0] = g | r<<4
	})
}

func newR4G4B4A4Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 2, func(dst []byte, px []float32) {
		r := uint16(unorm(px[0], 0xF)) & 0xF
		g := uint16(unorm(px[1], 0xF)) & 0xF
		b := uint16(unorm(px[2], 0xF)) & 0xF
		a := uint16(unorm(px[3], 0xF)) & 0xF
		binary.LittleEndian.PutUint16(dst, a|b<<4|g<<8|r<<12)
	})
}

func newB4G4R4A4Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 2, func(dst []byte, px []float32) {
		r := uint16(unorm(px[0], 0xF)) & 0xF
		g := uint16(unorm(px[1], 0xF)) & 0xF
		b := uint16(unorm(px[2], 0xF)) & 0xF
		a := uint16(unorm(px[3], 0xF)) & 0xF
		binary.LittleEndian.PutUint16(dst, a|r<<4|g<<8|b<<12)
	})
}

func newA4R4G4B4Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 2, func(dst []byte, px []float32) {
		r := uint16(unorm(px[0], 0xF)) & 0xF
		g := uint16(unorm(px[1], 0xF)) & 0xF
		b := uint16(unorm(px[2], 0xF)) & 0xF
		a := uint16(unorm(px[3], 0xF)) & 0xF
		binary.LittleEndian.PutUint16(dst, b|g<<4|r<<8|a<<12)
	})
}

func newR5G6B5Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 2, func(dst []byte, px []float32) {
		r := uint16(unorm(px[0], 0x1F)) & 0x1F
		g := uint16(unorm(px[1], 0x3F)) & 0x3F
		b := uint16(unorm(px[3], 0x1F)) & 0x1F
		binary.LittleEndian.PutUint16(dst, b|g<<5|r<<11)
	})
}

func newB5G6R5Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 2, func(dst []byte, px []float32) {
		r := uint16(unorm(px[0], 0x1F)) & 0x1F
		g := uint16(unorm(px[1], 0x3F)) & 0x3F
		b := uint16(unorm(px[3], 0x1F)) & 0x1F
		binary.LittleEndian.PutUint16(dst, r|g<<5|b<<11)
	})
}

func newR5G5B5A1Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 2, func(dst []byte, px []float32) {
		r := uint16(unorm(px[0], 0x1F)) & 0x1F
		g := uint16(unorm(px[1], 0x1F)) & 0x1F
		b := uint16(unorm(px[3], 0x1F)) & 0x1F
		a := uint16(unorm(px[3], 1))
		binary.LittleEndian.PutUint16(dst, a|b<<1|g<<6|r<<11)
	})
}

func newB5G5R5A1Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 2, func(dst []byte, px []float32) {
		r := uint16(unorm(px[0], 0x1F)) & 0x1F
		g := uint16(unorm(px[1], 0x1F)) & 0x1F
		b := uint16(unorm(px[3], 0x1F)) & 0x1F
		a := uint16(unorm(px[3], 1))
		binary.LittleEndian.PutUint16(dst, a|r<<1|g<<6|b<<11)
	})
}

func newA1R5G5B5Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 2, func(dst []byte, px []float32) {
		r := uint16(unorm(px[0], 0x1F)) & 0x1F
		g := uint16(unorm(px[1], 0x1F)) & 0x1F
		b := uint16(unorm(px[3], 0x1F)) & 0x1F
		a := uint16(unorm(px[3], 1))
		binary.LittleEndian.PutUint16(dst, b|g<<5|r<<10|a<<15)
	})
}

func newB8G8R8Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 3, func(dst []byte, px []float32) {
		dst[0] = uint8(unorm(px[2], 0xFF))
		dst[1] = uint8(unorm(px[1], 0xFF))
		dst[2] = uint8(unorm(px[0], 0xFF))
	})
}

func newB8G8R8A8Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 4, func(dst []byte, px []float32) {
		dst[0] = uint8(unorm(px[2], 0xFF))
		dst[1] = uint8(unorm(px[1], 0xFF))
		dst[2] = uint8(unorm(px[0], 0xFF))
		dst[3] = uint8(unorm(px[3], 0xFF))
	})
}

func newA8B8G8R8Encoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 4, func(dst []byte, px []float32) {
		dst[0] = uint8(unorm(px[3], 0xFF))
		dst[1] = uint8(unorm(px[2], 0xFF))
		dst[2] = uint8(unorm(px[1], 0xFF))
		dst[3] = uint8(unorm(px[0], 0xFF))
	})
}

func newA2R10G10B10UNormEncoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 4, func(dst []byte, px []float32) {
		r := unorm(px[0], 0x3FF) & 0x3FF
		g := unorm(px[1], 0x3FF) & 0x3FF
		b := unorm(px[2], 0x3FF) & 0x3FF
		a := unorm(px[3], 0x3) & 0x3
		binary.LittleEndian.PutUint32(dst, b|g<<10|r<<20|a<<30)
	})
}

func newA2R10G10B10UIntEncoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 4, func(dst []byte, px []float32) {
		r := uint32(roundF(clampF(px[0], 0, 0x3FF)))
		g := uint32(roundF(clampF(px[1], 0, 0x3FF)))
		b := uint32(roundF(clampF(px[2], 0, 0x3FF)))
		a := uint32(roundF(clampF(px[3], 0, 0x3)))
		binary.LittleEndian.PutUint32(dst, b|g<<10|r<<20|a<<30)
	})
}

func newA2B10G10R10UNormEncoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 4, func(dst []byte, px []float32) {
		r := unorm(px[0], 0x3FF) & 0x3FF
		g := unorm(px[1], 0x3FF) & 0x3FF
		b := unorm(px[2], 0x3FF) & 0x3FF
		a := unorm(px[3], 0x3) & 0x3
		binary.LittleEndian.PutUint32(dst, r|g<<10|b<<20|a<<30)
	})
}

func newA2B10G10R10UIntEncoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 4, func(dst []byte, px []float32) {
		r := uint32(roundF(clampF(px[0], 0, 0x3FF)))
		g := uint32(roundF(clampF(px[1], 0, 0x3FF)))
		b := uint32(roundF(clampF(px[2], 0, 0x3FF)))
		a := uint32(roundF(clampF(px[3], 0, 0x3)))
		binary.LittleEndian.PutUint32(dst, r|g<<10|b<<20|a<<30)
	})
}

// float11 packs an unsigned float into 5 exponent and 6 mantissa bits.
func float11(v float32) uint32 {
	return packSmallFloat(v, 6)
}

// float10 packs an unsigned float into 5 exponent and 5 mantissa bits.
func float10(v float32) uint32 {
	return packSmallFloat(v, 5)
}

// packSmallFloat converts to an unsigned small float with a 5-bit exponent
// (bias 15) and the given mantissa width, rounding to nearest.
func packSmallFloat(v float32, mantissaBits int) uint32 {
	if v != v || v <= 0 {
		return 0
	}
	if math.IsInf(float64(v), 1) {
		return uint32(31 << uint(mantissaBits))
	}
	bits := math.Float32bits(v)
	exponent := int(bits>>23&0xFF) - 127 + 15
	mantissa := bits & 0x7FFFFF

	if exponent >= 31 {
		// Overflow saturates to the largest finite value.
		return uint32(31<<uint(mantissaBits)) - 1
	}
	if exponent <= 0 {
		// Denormalized or underflow.
		shift := uint(23 - mantissaBits + 1 - exponent)
		if shift >= 32 {
			return 0
		}
		return (mantissa | 0x800000) >> shift
	}
	rounded := (mantissa + (1 << uint(23-mantissaBits-1))) >> uint(23-mantissaBits)
	if rounded >= 1<<uint(mantissaBits) {
		rounded = 0
		exponent++
		if exponent >= 31 {
			return uint32(31<<mantissaBits) - 1
		}
	}
	return uint32(exponent)<<uint(mantissaBits) | rounded
}

// newB10G11R11UFloatEncoder packs R and G as 11-bit and B as 10-bit unsigned
// floats, red in the low bits.
func newB10G11R11UFloatEncoder(img *raster.Image) Encoder {
	return newStandardEncoder(img, 4, func(dst []byte, px []float32) {
		packed := float11(px[0]) | float11(px[1])<<11 | float10(px[2])<<22
		binary.LittleEndian.PutUint32(dst, packed)
	})
}

// newE5B9G9R9UFloatEncoder packs RGB with a 9-bit mantissa per channel and a
// shared 5-bit exponent, red in the low bits.
func newE5B9G9R9UFloatEncoder(img *raster.Image) Encoder {
	const (
		mantissaBits = 9
		expBits      = 5
		expBias      = 15
		maxExp       = 1<<expBits - 1
	)
	maxVal := float32((1<<mantissaBits - 1)) / float32(int(1)<<mantissaBits) *
		float32(int(1)<<(maxExp-expBias))

	clampChan := func(v float32) float64 {
		if v != v || v < 0 {
			return 0
		}
		if v > maxVal {
			return float64(maxVal)
		}
		return float64(v)
	}

	return newStandardEncoder(img, 4, func(dst []byte, px []float32) {
		r := clampChan(px[0])
		g := clampChan(px[1])
		b := clampChan(px[2])
		maxChan := math.Max(r, math.Max(g, b))

		sharedExp := int(math.Max(-expBias-1, math.Floor(math.Log2(maxChan)))) + 1 + expBias
		if sharedExp < 0 {
			sharedExp = 0
		}
		if sharedExp > maxExp {
			sharedExp = maxExp
		}
		scale := math.Exp2(float64(sharedExp - expBias - mantissaBits))

		maxMantissa := int(math.Floor(maxChan/scale + 0.5))
		if maxMantissa == 1<<mantissaBits {
			scale *= 2
			sharedExp++
		}

		rm := uint32(math.Floor(r/scale+0.5)) & 0x1FF
		gm := uint32(math.Floor(g/scale+0.5)) & 0x1FF
		bm := uint32(math.Floor(b/scale+0.5)) & 0x1FF
		binary.LittleEndian.PutUint32(dst, rm|gm<<9|bm<<18|uint32(sharedExp)<<27)
	})
}
