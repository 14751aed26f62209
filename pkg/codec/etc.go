package codec

import (
	"encoding/binary"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

// etcModifiers are the eight ETC1 codeword tables as {small, large} pairs.
// A pixel index selects +small, +large, -small, or -large.
var etcModifiers = [8][2]int{
	{2, 8}, {5, 17}, {9, 29}, {13, 42}, {18, 60}, {24, 80}, {33, 106}, {47, 183},
}

// eacModifiers are the sixteen EAC codeword tables indexed by pixel index.
var eacModifiers = [16][8]int{
	{-3, -6, -9, -15, 2, 5, 8, 14},
	{-3, -7, -10, -13, 2, 6, 9, 12},
	{-2, -5, -8, -13, 1, 4, 7, 12},
	{-2, -4, -6, -13, 1, 3, 5, 12},
	{-3, -6, -8, -12, 2, 5, 7, 11},
	{-3, -7, -9, -11, 2, 6, 8, 10},
	{-4, -7, -8, -11, 3, 6, 7, 10},
	{-3, -5, -8, -11, 2, 4, 7, 10},
	{-2, -6, -8, -10, 1, 5, 7, 9},
	{-2, -5, -8, -10, 1, 4, 7, 9},
	{-2, -4, -8, -10, 1, 3, 7, 9},
	{-2, -5, -7, -10, 1, 4, 6, 9},
	{-3, -4, -7, -10, 2, 3, 6, 9},
	{-1, -2, -3, -10, 0, 1, 2, 9},
	{-4, -6, -8, -9, 3, 5, 7, 8},
	{-3, -5, -7, -9, 2, 4, 6, 8},
}

// etcEffort maps quality to the number of codeword tables searched per
// subblock.
func etcEffort(q format.Quality) int {
	effort := 2 + int(q)*6/4*2
	if effort > 8 {
		effort = 8
	}
	if effort < 2 {
		effort = 2
	}
	return effort
}

// etcErrorWeights follows the original metric selection: Rec.709 for sRGB
// color variants, uniform otherwise.
func etcErrorWeights(space colorspace.Space) [3]float64 {
	if space == colorspace.SRGB {
		return [3]float64{0.2126, 0.7152, 0.0722}
	}
	return [3]float64{1, 1, 1}
}

type etcEncoder struct {
	*blockEncoder
	fmt     format.Format
	typ     format.Type
	effort  int
	weights [3]float64
}

func newETCEncoder(p Params, img *raster.Image) Encoder {
	blockSize := 8
	if p.Format == format.ETC2R8G8B8A8 || p.Format == format.EACR11G11 {
		blockSize = 16
	}
	e := &etcEncoder{
		blockEncoder: newBlockEncoder(p, img, blockSize),
		fmt:          p.Format,
		typ:          p.Type,
		effort:       etcEffort(p.Quality),
	}
	switch p.Format {
	case format.EACR11, format.EACR11G11:
		// Numeric metric: channels are independent values, not colors.
		e.weights = [3]float64{1, 1, 1}
	case format.ETC2R8G8B8A1, format.ETC2R8G8B8A8:
		if img.ColorSpace() == colorspace.SRGB {
			e.weights = etcErrorWeights(colorspace.SRGB)
		} else {
			e.weights = [3]float64{1, 1, 1}
		}
	default:
		e.weights = etcErrorWeights(img.ColorSpace())
	}
	e.compress = e.compressBlock
	return e
}

func (e *etcEncoder) compressBlock(block []byte, colors *[blockPixels][4]float32) {
	switch e.fmt {
	case format.ETC1, format.ETC2R8G8B8:
		e.encodeETC1(block, colors, false)
	case format.ETC2R8G8B8A1:
		e.encodeETC2PunchThrough(block, colors)
	case format.ETC2R8G8B8A8:
		var alpha [blockPixels]float64
		for i := range colors {
			alpha[i] = float64(clampF(colors[i][3], 0, 1)) * 255
		}
		encodeEACBlock(block, &alpha, 255)
		e.encodeETC1(block[8:], colors, false)
	case format.EACR11:
		e.encodeEAC11(block, colors, 0)
	case format.EACR11G11:
		e.encodeEAC11(block, colors, 0)
		e.encodeEAC11(block[8:], colors, 1)
	}
}

// subblockPixels lists the pixel indices (x*4 + y order) of the two
// subblocks for each flip orientation.
func subblockPixels(flip, sub int) [8]int {
	var out [8]int
	n := 0
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			in := false
			if flip == 0 {
				in = (x < 2) == (sub == 0)
			} else {
				in = (y < 2) == (sub == 0)
			}
			if in {
				out[n] = x*4 + y
				n++
			}
		}
	}
	return out
}

func etcPixelColor(colors *[blockPixels][4]float32, idx int) [3]int {
	// Pixel storage here is x*4+y; the fetched block is row-major.
	x := idx / 4
	y := idx % 4
	i := y*blockDim + x
	return [3]int{
		int(unorm(colors[i][0], 0xFF)),
		int(unorm(colors[i][1], 0xFF)),
		int(unorm(colors[i][2], 0xFF)),
	}
}

// etcSubblock is one half of an ETC1 block: its reconstructed base color,
// chosen codeword, per-pixel modifier indices, and accumulated error.
type etcSubblock struct {
	base    [3]int
	table   int
	indices [8]int
	err     float64
}

// encodeETC1 writes an 8-byte ETC1 block, choosing flip orientation,
// individual or differential base colors, and the best codeword per subblock.
// ETC1 blocks are also valid ETC2 RGB blocks. forceDiff keeps the block in
// differential mode (clamping the delta into range) for the punch-through
// variant where the bit means opaque instead.
func (e *etcEncoder) encodeETC1(block []byte, colors *[blockPixels][4]float32,
	forceDiff bool) {

	bestErr := -1.0
	var bestFlip int
	var bestDiff bool
	var bestSub [2]etcSubblock

	for flip := 0; flip < 2; flip++ {
		// Average each subblock to propose base colors.
		var avg [2][3]int
		for sub := 0; sub < 2; sub++ {
			pixels := subblockPixels(flip, sub)
			var sum [3]int
			for _, p := range pixels {
				c := etcPixelColor(colors, p)
				for ch := 0; ch < 3; ch++ {
					sum[ch] += c[ch]
				}
			}
			for ch := 0; ch < 3; ch++ {
				avg[sub][ch] = sum[ch] / 8
			}
		}

		// Differential mode when the 5-bit bases are within delta range.
		var base5 [2][3]int
		diff := true
		for ch := 0; ch < 3; ch++ {
			base5[0][ch] = avg[0][ch] >> 3
			base5[1][ch] = avg[1][ch] >> 3
			d := base5[1][ch] - base5[0][ch]
			if d < -4 || d > 3 {
				if forceDiff {
					if d < -4 {
						d = -4
					} else {
						d = 3
					}
					base5[1][ch] = base5[0][ch] + d
				} else {
					diff = false
				}
			}
		}

		var cur [2]etcSubblock
		total := 0.0
		for sub := 0; sub < 2; sub++ {
			var base [3]int
			if diff {
				for ch := 0; ch < 3; ch++ {
					b := base5[sub][ch]
					base[ch] = b<<3 | b>>2
				}
			} else {
				for ch := 0; ch < 3; ch++ {
					b := avg[sub][ch] >> 4
					base[ch] = b<<4 | b
				}
			}
			cur[sub] = e.bestETCTable(colors, subblockPixels(flip, sub), base)
			total += cur[sub].err
		}
		if bestErr < 0 || total < bestErr {
			bestErr = total
			bestFlip = flip
			bestDiff = diff
			bestSub = cur
		}
	}

	e.writeETC1(block, bestFlip, bestDiff, bestSub[0].base, bestSub[1].base,
		bestSub[0].table, bestSub[1].table,
		mergeIndices(bestFlip, &bestSub[0].indices, &bestSub[1].indices))
}

// bestETCTable finds the codeword and per-pixel modifiers minimizing the
// weighted error for one subblock. The search width follows the effort level.
func (e *etcEncoder) bestETCTable(colors *[blockPixels][4]float32, pixels [8]int,
	base [3]int) etcSubblock {

	result := etcSubblock{base: base, err: -1}

	for table := 0; table < e.effort; table++ {
		mods := [4]int{etcModifiers[table][0], etcModifiers[table][1],
			-etcModifiers[table][0], -etcModifiers[table][1]}
		var indices [8]int
		total := 0.0
		for n, p := range pixels {
			c := etcPixelColor(colors, p)
			best := 0
			bestErr := -1.0
			for m, mod := range mods {
				var err float64
				for ch := 0; ch < 3; ch++ {
					v := clampInt(base[ch]+mod, 0, 255)
					d := float64(c[ch] - v)
					err += e.weights[ch] * d * d
				}
				if bestErr < 0 || err < bestErr {
					best = m
					bestErr = err
				}
			}
			indices[n] = best
			total += bestErr
		}
		if result.err < 0 || total < result.err {
			result.table = table
			result.indices = indices
			result.err = total
		}
	}
	return result
}

// mergeIndices scatters the two subblock index lists back into x*4+y pixel
// order.
func mergeIndices(flip int, sub0, sub1 *[8]int) [16]int {
	var out [16]int
	p0 := subblockPixels(flip, 0)
	p1 := subblockPixels(flip, 1)
	for n, p := range p0 {
		out[p] = sub0[n]
	}
	for n, p := range p1 {
		out[p] = sub1[n]
	}
	return out
}

func (e *etcEncoder) writeETC1(block []byte, flip int, diff bool, base0, base1 [3]int,
	table0, table1 int, indices [16]int) {

	if diff {
		for ch := 0; ch < 3; ch++ {
			b0 := base0[ch] >> 3
			delta := (base1[ch] >> 3) - b0
			block[ch] = byte(b0<<3 | delta&0x7)
		}
	} else {
		for ch := 0; ch < 3; ch++ {
			block[ch] = byte(base0[ch]>>4<<4 | base1[ch]>>4)
		}
	}
	diffBit := 0
	if diff {
		diffBit = 1
	}
	block[3] = byte(table0<<5 | table1<<2 | diffBit<<1 | flip)

	var msb, lsb uint16
	for p, idx := range indices {
		if idx>>1 != 0 {
			msb |= 1 << uint(p)
		}
		if idx&1 != 0 {
			lsb |= 1 << uint(p)
		}
	}
	binary.BigEndian.PutUint16(block[4:], msb)
	binary.BigEndian.PutUint16(block[6:], lsb)
}

// encodeETC2PunchThrough handles the RGB8A1 variant: the differential bit
// becomes the opaque flag, and index 2 decodes as transparent black when a
// block is marked non-opaque.
func (e *etcEncoder) encodeETC2PunchThrough(block []byte,
	colors *[blockPixels][4]float32) {

	opaque := true
	for i := range colors {
		if colors[i][3] < 0.5 {
			opaque = false
			break
		}
	}
	if opaque {
		// Opaque blocks are differential ETC1 with the opaque bit set.
		e.encodeETC1(block, colors, true)
		block[3] |= 0x2
		return
	}

	// Base color from the average of the opaque pixels.
	var sum [3]int
	count := 0
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			i := y*blockDim + x
			if colors[i][3] < 0.5 {
				continue
			}
			c := etcPixelColor(colors, x*4+y)
			for ch := 0; ch < 3; ch++ {
				sum[ch] += c[ch]
			}
			count++
		}
	}
	var base [3]int
	if count > 0 {
		for ch := 0; ch < 3; ch++ {
			b := sum[ch] / count >> 3
			base[ch] = b<<3 | b>>2
		}
	}

	// With the opaque bit clear, modifiers 0 and 2 are zero and index 2 is
	// transparent.
	bestTable := 0
	var bestIndices [16]int
	bestErr := -1.0
	for table := 0; table < e.effort; table++ {
		large := etcModifiers[table][1]
		mods := [4]int{0, large, 0, -large}
		var indices [16]int
		total := 0.0
		for x := 0; x < 4; x++ {
			for y := 0; y < 4; y++ {
				i := y*blockDim + x
				p := x*4 + y
				if colors[i][3] < 0.5 {
					indices[p] = 2
					continue
				}
				c := etcPixelColor(colors, p)
				best := 0
				bestPix := -1.0
				for _, m := range [3]int{0, 1, 3} {
					var err float64
					for ch := 0; ch < 3; ch++ {
						v := clampInt(base[ch]+mods[m], 0, 255)
						d := float64(c[ch] - v)
						err += e.weights[ch] * d * d
					}
					if bestPix < 0 || err < bestPix {
						best = m
						bestPix = err
					}
				}
				indices[p] = best
				total += bestPix
			}
		}
		if bestErr < 0 || total < bestErr {
			bestErr = total
			bestTable = table
			bestIndices = indices
		}
	}

	b5 := [3]int{base[0] >> 3, base[1] >> 3, base[2] >> 3}
	for ch := 0; ch < 3; ch++ {
		block[ch] = byte(b5[ch] << 3)
	}
	// Opaque bit stays clear; flip bit zero.
	block[3] = byte(bestTable<<5 | bestTable<<2)

	var msb, lsb uint16
	for p, idx := range bestIndices {
		if idx>>1 != 0 {
			msb |= 1 << uint(p)
		}
		if idx&1 != 0 {
			lsb |= 1 << uint(p)
		}
	}
	binary.BigEndian.PutUint16(block[4:], msb)
	binary.BigEndian.PutUint16(block[6:], lsb)
}

// encodeEACBlock encodes one 8-byte EAC block from samples in [0, maxVal].
func encodeEACBlock(block []byte, samples *[blockPixels]float64, maxVal float64) {
	avg := 0.0
	for _, v := range samples {
		avg += v
	}
	avg /= blockPixels
	base := clampInt(int(avg/maxVal*255+0.5), 0, 255)

	bestErr := -1.0
	bestTable, bestMult := 0, 1
	var bestIndices [blockPixels]int
	for table := 0; table < 16; table++ {
		for mult := 1; mult < 16; mult++ {
			var indices [blockPixels]int
			total := 0.0
			for i, v := range samples {
				target := v / maxVal * 255
				best := 0
				bestPix := -1.0
				for m := 0; m < 8; m++ {
					decoded := float64(clampInt(base+eacModifiers[table][m]*mult, 0, 255))
					d := target - decoded
					if bestPix < 0 || d*d < bestPix {
						best = m
						bestPix = d * d
					}
				}
				indices[i] = best
				total += bestPix
			}
			if bestErr < 0 || total < bestErr {
				bestErr = total
				bestTable = table
				bestMult = mult
				bestIndices = indices
			}
		}
	}

	block[0] = byte(base)
	block[1] = byte(bestMult<<4 | bestTable)
	writeEACIndices(block, &bestIndices)
}

// writeEACIndices packs 16 3-bit indices MSB first in x*4+y pixel order.
func writeEACIndices(block []byte, indices *[blockPixels]int) {
	var bits uint64
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			i := y*blockDim + x
			bits = bits<<3 | uint64(indices[i]&0x7)
		}
	}
	for i := 0; i < 6; i++ {
		block[2+i] = byte(bits >> uint(40-i*8))
	}
}

// encodeEAC11 encodes the 11-bit single-channel variant for channel ch.
func (e *etcEncoder) encodeEAC11(block []byte, colors *[blockPixels][4]float32, ch int) {
	signed := e.typ == format.SNorm
	var samples [blockPixels]float64
	for i := range colors {
		if signed {
			samples[i] = float64(clampF(colors[i][ch], -1, 1))
		} else {
			samples[i] = float64(clampF(colors[i][ch], 0, 1))
		}
	}

	avg := 0.0
	for _, v := range samples {
		avg += v
	}
	avg /= blockPixels

	var base int
	if signed {
		base = clampInt(int(avg*127+0.5), -127, 127)
	} else {
		base = clampInt(int(avg*255+0.5), 0, 255)
	}

	// Decoded value on the 11-bit scale.
	decode := func(b, mod int) float64 {
		if signed {
			v := clampInt(b*8+mod*8, -1023, 1023)
			return float64(v) / 1023
		}
		v := clampInt(b*8+4+mod*8, 0, 2047)
		return float64(v) / 2047
	}

	bestErr := -1.0
	bestTable, bestMult := 0, 1
	var bestIndices [blockPixels]int
	for table := 0; table < 16; table++ {
		for mult := 1; mult < 16; mult++ {
			var indices [blockPixels]int
			total := 0.0
			for i, v := range samples {
				best := 0
				bestPix := -1.0
				for m := 0; m < 8; m++ {
					d := v - decode(base, eacModifiers[table][m]*mult)
					if bestPix < 0 || d*d < bestPix {
						best = m
						bestPix = d * d
					}
				}
				indices[i] = best
				total += bestPix
			}
			if bestErr < 0 || total < bestErr {
				bestErr = total
				bestTable = table
				bestMult = mult
				bestIndices = indices
			}
		}
	}

	if signed {
		block[0] = byte(int8(base))
	} else {
		block[0] = byte(base)
	}
	block[1] = byte(bestMult<<4 | bestTable)
	writeEACIndices(block, &bestIndices)
}
