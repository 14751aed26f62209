package codec

import (
	"github.com/x448/float16"

	"github.com/goopsie/texpack/pkg/raster"
)

// bitWriter assembles a 128-bit block LSB first.
type bitWriter struct {
	data []byte
	pos  int
}

func (w *bitWriter) write(value uint64, bits int) {
	for i := 0; i < bits; i++ {
		if value>>uint(i)&1 != 0 {
			w.data[w.pos>>3] |= 1 << uint(w.pos&7)
		}
		w.pos++
	}
}

// aWeight4 is the 4-bit interpolation weight table shared by BC6H and BC7.
var aWeight4 = [16]int{0, 4, 9, 13, 17, 21, 26, 30, 34, 38, 43, 47, 51, 55, 60, 64}

// bc6hQuantize reduces a half-float value to a 10-bit endpoint. The unsigned
// path maps [0, 0x7BFF] directly; the signed path folds the sign into a
// magnitude with the top value reserved.
func bc6hQuantize(h uint16, signed bool) int {
	if !signed {
		if h >= 0x7C00 {
			// Infinity or NaN clamps to the largest finite half.
			h = 0x7BFF
		}
		return int(h >> 6)
	}
	negative := h&0x8000 != 0
	mag := int(h & 0x7FFF)
	if mag >= 0x7C00 {
		mag = 0x7BFF
	}
	q := mag >> 6
	if q > 0x1FF {
		q = 0x1FF
	}
	if negative {
		q = (-q) & 0x3FF
	}
	return q
}

func bc6hEffectiveValue(colors *[blockPixels][4]float32, i int,
	weights [3]float32) float32 {
	v := float32(0)
	for c := 0; c < 3; c++ {
		v += weights[c] * colors[i][c]
	}
	return v
}

// newBC6HEncoder emits mode 11 blocks: one subset, 10-bit endpoints, 4-bit
// indices. Signed and unsigned inputs quantize differently. Quality caps the
// number of index passes, but a pass only repeats after the endpoints are
// swapped to clear the anchor bit, so at most two passes run.
func newBC6HEncoder(p Params, img *raster.Image, signed bool) Encoder {
	e := newBlockEncoder(p, img, 16)
	weights := channelWeights(img.ColorSpace(), p.Mask)
	passes := 1 + int(p.Quality)

	e.compress = func(block []byte, colors *[blockPixels][4]float32) {
		for i := range block[:16] {
			block[i] = 0
		}

		// Locate the extremes along the weighted luminance axis.
		loIdx, hiIdx := 0, 0
		lo, hi := bc6hEffectiveValue(colors, 0, weights), bc6hEffectiveValue(colors, 0, weights)
		for i := 1; i < blockPixels; i++ {
			v := bc6hEffectiveValue(colors, i, weights)
			if v < lo {
				lo = v
				loIdx = i
			}
			if v > hi {
				hi = v
				hiIdx = i
			}
		}

		var e0, e1 [3]int
		var h0, h1 [3]uint16
		for c := 0; c < 3; c++ {
			h0[c] = float16.Fromfloat32(colors[loIdx][c]).Bits()
			h1[c] = float16.Fromfloat32(colors[hiIdx][c]).Bits()
			e0[c] = bc6hQuantize(h0[c], signed)
			e1[c] = bc6hQuantize(h1[c], signed)
		}

		// Per-pixel indices along the endpoint axis.
		var indices [blockPixels]int
		span := hi - lo
		for pass := 0; pass < passes; pass++ {
			for i := range indices {
				if span <= 0 {
					indices[i] = 0
					continue
				}
				t := (bc6hEffectiveValue(colors, i, weights) - lo) / span
				best := 0
				bestD := float32(2)
				for w := 0; w < 16; w++ {
					d := t - float32(aWeight4[w])/64
					if d < 0 {
						d = -d
					}
					if d < bestD {
						best = w
						bestD = d
					}
				}
				indices[i] = best
			}
			// The anchor index must have its high bit clear; swap endpoints
			// and invert when it does not.
			if indices[0] >= 8 {
				e0, e1 = e1, e0
				lo, hi = hi, lo
				span = -span
				for i := range indices {
					indices[i] = 15 - indices[i]
				}
				continue
			}
			break
		}

		w := bitWriter{data: block[:16]}
		w.write(0x03, 5) // mode 11
		for c := 0; c < 3; c++ {
			w.write(uint64(e0[c]), 10)
		}
		for c := 0; c < 3; c++ {
			w.write(uint64(e1[c]), 10)
		}
		w.write(uint64(indices[0]), 3)
		for i := 1; i < blockPixels; i++ {
			w.write(uint64(indices[i]), 4)
		}
	}
	return e
}
