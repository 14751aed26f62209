package codec

import (
	"encoding/binary"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

const (
	blockDim    = 4
	blockPixels = blockDim * blockDim
)

// blockEncoder is the shared scaffolding for the 4x4 block compressors. It
// fetches edge-clamped blocks of float RGBA and writes fixed-size outputs at
// row-major block offsets.
type blockEncoder struct {
	img         *raster.Image
	data        []byte
	blockSize   int
	jobsX       int
	jobsY       int
	space       colorspace.Space
	quality     format.Quality
	mask        format.ColorMask
	weightAlpha bool

	compress func(block []byte, colors *[blockPixels][4]float32)
}

func newBlockEncoder(p Params, img *raster.Image, blockSize int) *blockEncoder {
	e := &blockEncoder{
		img:         img,
		blockSize:   blockSize,
		jobsX:       (img.Width() + blockDim - 1) / blockDim,
		jobsY:       (img.Height() + blockDim - 1) / blockDim,
		space:       img.ColorSpace(),
		quality:     p.Quality,
		mask:        p.Mask,
		weightAlpha: weightAlpha(p.Alpha),
	}
	e.data = make([]byte, e.jobsX*e.jobsY*blockSize)
	return e
}

func (e *blockEncoder) JobsX() int   { return e.jobsX }
func (e *blockEncoder) JobsY() int   { return e.jobsY }
func (e *blockEncoder) Data() []byte { return e.data }

func (e *blockEncoder) Process(x, y int, _ ThreadData) {
	var colors [blockPixels][4]float32
	e.fetch(x, y, &colors)
	e.compress(e.data[(y*e.jobsX+x)*e.blockSize:], &colors)
}

// fetch reads a 4x4 block with edge clamping.
func (e *blockEncoder) fetch(x, y int, out *[blockPixels][4]float32) {
	width := e.img.Width()
	height := e.img.Height()
	for j := 0; j < blockDim; j++ {
		row := y*blockDim + j
		if row > height-1 {
			row = height - 1
		}
		scanline := e.img.FloatScanline(row)
		for i := 0; i < blockDim; i++ {
			col := x*blockDim + i
			if col > width-1 {
				col = width - 1
			}
			copy(out[j*blockDim+i][:], scanline[col*4:col*4+4])
		}
	}
}

// toColorBlock quantizes a float block to 8-bit RGBA.
func toColorBlock(colors *[blockPixels][4]float32) (out [blockPixels][4]uint8) {
	for i := range colors {
		for c := 0; c < 4; c++ {
			out[i][c] = uint8(unorm(colors[i][c], 0xFF))
		}
	}
	return out
}

// endpointLevels maps the quality preset to the number of endpoint refinement
// passes run by the DXT-style encoders.
func endpointLevels(q format.Quality) int {
	return 1 + int(q)
}

// searchRadius maps quality to the endpoint search radius of the
// high-quality single-channel encoder.
func searchRadius(q format.Quality) int {
	switch q {
	case format.QualityLowest, format.QualityLow:
		return 3
	case format.QualityNormal:
		return 5
	case format.QualityHigh:
		return 16
	default:
		return 32
	}
}

func to565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

func from565(c uint16) (r, g, b int) {
	r = int(c>>11) & 0x1F
	g = int(c>>5) & 0x3F
	b = int(c) & 0x1F
	r = r<<3 | r>>2
	g = g<<2 | g>>4
	b = b<<3 | b>>2
	return r, g, b
}

// encodeBC1Block writes an 8-byte BC1 color block. The weights bias the error
// metric; transparent selects the 3-color mode with index 3 reserved for
// pixels under the alpha threshold. Without transparent the block is always
// encoded in 4-color mode, so allowBlack has no effect on the output.
func encodeBC1Block(dst []byte, block *[blockPixels][4]uint8, weights [3]float32,
	levels int, transparent, allowBlack bool) {

	// Initial endpoints from the per-channel extremes of the opaque pixels.
	var minC, maxC [3]int
	for c := 0; c < 3; c++ {
		minC[c] = 255
	}
	opaque := 0
	for i := range block {
		if transparent && block[i][3] < 128 {
			continue
		}
		opaque++
		for c := 0; c < 3; c++ {
			v := int(block[i][c])
			if v < minC[c] {
				minC[c] = v
			}
			if v > maxC[c] {
				maxC[c] = v
			}
		}
	}
	if opaque == 0 {
		minC = [3]int{}
		maxC = [3]int{}
	}

	c0 := to565(uint8(maxC[0]), uint8(maxC[1]), uint8(maxC[2]))
	c1 := to565(uint8(minC[0]), uint8(minC[1]), uint8(minC[2]))

	var indices [blockPixels]int
	for pass := 0; pass < levels; pass++ {
		if transparent {
			// 3-color mode requires c0 <= c1.
			if c0 > c1 {
				c0, c1 = c1, c0
			}
		} else if c0 < c1 {
			c0, c1 = c1, c0
		} else if c0 == c1 {
			break
		}

		palette := bc1Palette(c0, c1, transparent)
		assignBC1Indices(&indices, block, &palette, weights, transparent, allowBlack)
		if pass == levels-1 {
			break
		}
		nc0, nc1, ok := refineBC1Endpoints(block, &indices, transparent)
		if !ok || (nc0 == c0 && nc1 == c1) {
			break
		}
		c0, c1 = nc0, nc1
	}

	// Re-derive the final assignment in case refinement changed endpoints.
	if transparent && c0 > c1 {
		c0, c1 = c1, c0
	} else if !transparent && c0 < c1 {
		c0, c1 = c1, c0
	}
	palette := bc1Palette(c0, c1, transparent)
	assignBC1Indices(&indices, block, &palette, weights, transparent, allowBlack)

	binary.LittleEndian.PutUint16(dst, c0)
	binary.LittleEndian.PutUint16(dst[2:], c1)
	var sel uint32
	for i := range indices {
		sel |= uint32(indices[i]) << uint(i*2)
	}
	binary.LittleEndian.PutUint32(dst[4:], sel)
}

// bc1Palette expands the two 565 endpoints into the 4-entry (or 3-entry plus
// transparent) palette.
func bc1Palette(c0, c1 uint16, threeColor bool) [4][4]int {
	var palette [4][4]int
	r0, g0, b0 := from565(c0)
	r1, g1, b1 := from565(c1)
	palette[0] = [4]int{r0, g0, b0, 255}
	palette[1] = [4]int{r1, g1, b1, 255}
	if threeColor {
		palette[2] = [4]int{(r0 + r1) / 2, (g0 + g1) / 2, (b0 + b1) / 2, 255}
		palette[3] = [4]int{0, 0, 0, 0}
	} else {
		palette[2] = [4]int{(r0*2 + r1) / 3, (g0*2 + g1) / 3, (b0*2 + b1) / 3, 255}
		palette[3] = [4]int{(r0 + r1*2) / 3, (g0 + g1*2) / 3, (b0 + b1*2) / 3, 255}
	}
	return palette
}

func assignBC1Indices(indices *[blockPixels]int, block *[blockPixels][4]uint8,
	palette *[4][4]int, weights [3]float32, transparent, allowBlack bool) {

	// In 3-color mode index 3 decodes as transparent black, so opaque pixels
	// only pick from the first three entries. allowBlack is moot in 4-color
	// mode where every index maps to an interpolated color.
	for i := range block {
		if transparent && block[i][3] < 128 {
			indices[i] = 3
			continue
		}
		best := 0
		bestErr := float32(0)
		limit := 4
		if transparent {
			limit = 3
		}
		for p := 0; p < limit; p++ {
			var err float32
			for c := 0; c < 3; c++ {
				d := float32(int(block[i][c]) - palette[p][c])
				err += weights[c] * d * d
			}
			if p == 0 || err < bestErr {
				best = p
				bestErr = err
			}
		}
		indices[i] = best
	}
}

// refineBC1Endpoints least-squares fits new endpoints from the current
// assignment.
func refineBC1Endpoints(block *[blockPixels][4]uint8, indices *[blockPixels]int,
	transparent bool) (uint16, uint16, bool) {

	// Interpolation weights per index in thirds (or halves for 3-color).
	var alpha [4]float64
	if transparent {
		alpha = [4]float64{1, 0, 0.5, 0}
	} else {
		alpha = [4]float64{1, 0, 2.0 / 3.0, 1.0 / 3.0}
	}

	var att, atb, btb float64
	var axSum, bxSum [3]float64
	n := 0
	for i := range block {
		if transparent && indices[i] == 3 {
			continue
		}
		a := alpha[indices[i]]
		b := 1 - a
		att += a * a
		atb += a * b
		btb += b * b
		for c := 0; c < 3; c++ {
			axSum[c] += a * float64(block[i][c])
			bxSum[c] += b * float64(block[i][c])
		}
		n++
	}
	if n == 0 {
		return 0, 0, false
	}

	det := att*btb - atb*atb
	if det == 0 {
		return 0, 0, false
	}
	var e0, e1 [3]float64
	for c := 0; c < 3; c++ {
		e0[c] = (btb*axSum[c] - atb*bxSum[c]) / det
		e1[c] = (att*bxSum[c] - atb*axSum[c]) / det
	}
	clamp255 := func(v float64) uint8 {
		if v < 0 {
			return 0
		}
		if v > 255 {
			return 255
		}
		return uint8(v + 0.5)
	}
	c0 := to565(clamp255(e0[0]), clamp255(e0[1]), clamp255(e0[2]))
	c1 := to565(clamp255(e1[0]), clamp255(e1[1]), clamp255(e1[2]))
	return c0, c1, true
}

// encodeBC4Block writes an 8-byte single-channel block from 8-bit samples.
// The search radius widens the endpoint candidates tried around the extremes.
func encodeBC4Block(dst []byte, samples *[blockPixels]uint8, radius int) {
	minV, maxV := samples[0], samples[0]
	for _, v := range samples[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	bestErr := int64(1) << 62
	bestLo, bestHi := minV, maxV
	var bestIdx [blockPixels]int
	try := func(lo, hi uint8) {
		palette := bc4Palette(hi, lo)
		var idx [blockPixels]int
		var err int64
		for i, v := range samples {
			b, e := nearest8(&palette, v)
			idx[i] = b
			err += e
		}
		if err < bestErr {
			bestErr = err
			bestLo, bestHi = lo, hi
			bestIdx = idx
		}
	}

	try(minV, maxV)
	for r := 1; r <= radius && bestErr > 0; r++ {
		lo := int(minV) - r
		hi := int(maxV) + r
		if lo >= 0 {
			try(uint8(lo), bestHi)
		}
		if hi <= 255 {
			try(bestLo, uint8(hi))
		}
	}

	writeBC4Block(dst, uint64(bestHi), uint64(bestLo), &bestIdx)
}

// encodeBC4SignedBlock is the SNorm variant operating on int8 samples.
func encodeBC4SignedBlock(dst []byte, samples *[blockPixels]int8, radius int) {
	minV, maxV := samples[0], samples[0]
	for _, v := range samples[1:] {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}

	bestErr := int64(1) << 62
	bestLo, bestHi := minV, maxV
	var bestIdx [blockPixels]int
	try := func(lo, hi int8) {
		palette := bc4SignedPalette(hi, lo)
		var idx [blockPixels]int
		var err int64
		for i, v := range samples {
			best := 0
			bestE := int64(1) << 62
			for p, pv := range palette {
				d := int64(v) - int64(pv)
				if d*d < bestE {
					best = p
					bestE = d * d
				}
			}
			idx[i] = best
			err += bestE
		}
		if err < bestErr {
			bestErr = err
			bestLo, bestHi = lo, hi
			bestIdx = idx
		}
	}

	try(minV, maxV)
	for r := 1; r <= radius && bestErr > 0; r++ {
		lo := int(minV) - r
		hi := int(maxV) + r
		if lo >= -127 {
			try(int8(lo), bestHi)
		}
		if hi <= 127 {
			try(bestLo, int8(hi))
		}
	}

	writeBC4Block(dst, uint64(uint8(bestHi)), uint64(uint8(bestLo)), &bestIdx)
}

func writeBC4Block(dst []byte, e0, e1 uint64, indices *[blockPixels]int) {
	packed := e0 | e1<<8
	for i, idx := range indices {
		packed |= uint64(idx) << uint(16+i*3)
	}
	binary.LittleEndian.PutUint64(dst, packed)
}

// bc4Palette is the 8-entry interpolated palette for e0 > e1.
func bc4Palette(e0, e1 uint8) [8]int {
	var p [8]int
	p[0] = int(e0)
	p[1] = int(e1)
	if e0 > e1 {
		for i := 2; i < 8; i++ {
			p[i] = (int(e0)*(8-i) + int(e1)*(i-1)) / 7
		}
	} else {
		for i := 2; i < 6; i++ {
			p[i] = (int(e0)*(6-i) + int(e1)*(i-1)) / 5
		}
		p[6] = 0
		p[7] = 255
	}
	return p
}

func bc4SignedPalette(e0, e1 int8) [8]int {
	var p [8]int
	p[0] = int(e0)
	p[1] = int(e1)
	if e0 > e1 {
		for i := 2; i < 8; i++ {
			p[i] = (int(e0)*(8-i) + int(e1)*(i-1)) / 7
		}
	} else {
		for i := 2; i < 6; i++ {
			p[i] = (int(e0)*(6-i) + int(e1)*(i-1)) / 5
		}
		p[6] = -127
		p[7] = 127
	}
	return p
}

func nearest8(palette *[8]int, v uint8) (int, int64) {
	best := 0
	bestErr := int64(1) << 62
	for p, pv := range palette {
		d := int64(v) - int64(pv)
		if d*d < bestErr {
			best = p
			bestErr = d * d
		}
	}
	return best, bestErr
}

// newBC1Encoder is the no-alpha variant. Every block is encoded in 4-color
// mode; the 3-color mode is not tried.
func newBC1Encoder(p Params, img *raster.Image) Encoder {
	e := newBlockEncoder(p, img, 8)
	levels := endpointLevels(p.Quality)
	weights := channelWeights(img.ColorSpace(), p.Mask)
	e.compress = func(block []byte, colors *[blockPixels][4]float32) {
		colorBlock := toColorBlock(colors)
		encodeBC1Block(block, &colorBlock, weights, levels, false, true)
	}
	return e
}

// newBC1AEncoder preserves 1-bit alpha. Blocks with any pixel under the
// threshold use the transparent 3-color mode with perceptual weights for sRGB
// inputs; opaque blocks fall back to plain BC1 but must not use the implicit
// black since it would decode as transparent.
func newBC1AEncoder(p Params, img *raster.Image) Encoder {
	e := newBlockEncoder(p, img, 8)
	levels := endpointLevels(p.Quality)
	weights := channelWeights(img.ColorSpace(), p.Mask)
	e.compress = func(block []byte, colors *[blockPixels][4]float32) {
		hasAlpha := false
		for i := range colors {
			if colors[i][3] < 0.5 {
				hasAlpha = true
				break
			}
		}
		colorBlock := toColorBlock(colors)
		if hasAlpha {
			encodeBC1Block(block, &colorBlock, weights, levels, true, false)
		} else {
			encodeBC1Block(block, &colorBlock, weights, levels, false, false)
		}
	}
	return e
}

// newBC2Encoder packs 4-bit explicit alpha ahead of a BC1 color block
// restricted to 4-color mode.
func newBC2Encoder(p Params, img *raster.Image) Encoder {
	e := newBlockEncoder(p, img, 16)
	levels := endpointLevels(p.Quality)
	weights := channelWeights(img.ColorSpace(), p.Mask)
	e.compress = func(block []byte, colors *[blockPixels][4]float32) {
		colorBlock := toColorBlock(colors)
		for i := 0; i < blockPixels/2; i++ {
			a0 := uint8(roundF(float32(colorBlock[i*2][3]) * 15.0 / 255.0))
			a1 := uint8(roundF(float32(colorBlock[i*2+1][3]) * 15.0 / 255.0))
			block[i] = a0 | a1<<4
		}
		encodeBC1Block(block[8:], &colorBlock, weights, levels, false, false)
	}
	return e
}

// newBC3Encoder pairs a BC4-style alpha block with a 4-color BC1 color block.
func newBC3Encoder(p Params, img *raster.Image) Encoder {
	e := newBlockEncoder(p, img, 16)
	levels := endpointLevels(p.Quality)
	weights := channelWeights(img.ColorSpace(), p.Mask)
	radius := 1
	if p.Quality > format.QualityLow {
		radius = searchRadius(p.Quality)
	}
	e.compress = func(block []byte, colors *[blockPixels][4]float32) {
		colorBlock := toColorBlock(colors)
		var alpha [blockPixels]uint8
		for i := range colorBlock {
			alpha[i] = colorBlock[i][3]
		}
		encodeBC4Block(block, &alpha, radius)
		encodeBC1Block(block[8:], &colorBlock, weights, levels, false, false)
	}
	return e
}

// newBC4Encoder encodes the red channel; the signed variant quantizes to
// [-127, 127].
func newBC4Encoder(p Params, img *raster.Image, signed bool) Encoder {
	e := newBlockEncoder(p, img, 8)
	radius := 1
	if p.Quality > format.QualityLow {
		radius = searchRadius(p.Quality)
	}
	e.compress = func(block []byte, colors *[blockPixels][4]float32) {
		if signed {
			var samples [blockPixels]int8
			for i := range colors {
				samples[i] = int8(snorm(colors[i][0], 0x7F))
			}
			encodeBC4SignedBlock(block, &samples, radius)
		} else {
			var samples [blockPixels]uint8
			for i := range colors {
				samples[i] = uint8(unorm(colors[i][0], 0xFF))
			}
			encodeBC4Block(block, &samples, radius)
		}
	}
	return e
}

// newBC5Encoder encodes red and green as two independent BC4 blocks.
func newBC5Encoder(p Params, img *raster.Image, signed bool) Encoder {
	e := newBlockEncoder(p, img, 16)
	radius := 1
	if p.Quality > format.QualityLow {
		radius = searchRadius(p.Quality)
	}
	e.compress = func(block []byte, colors *[blockPixels][4]float32) {
		for c := 0; c < 2; c++ {
			if signed {
				var samples [blockPixels]int8
				for i := range colors {
					samples[i] = int8(snorm(colors[i][c], 0x7F))
				}
				encodeBC4SignedBlock(block[c*8:], &samples, radius)
			} else {
				var samples [blockPixels]uint8
				for i := range colors {
					samples[i] = uint8(unorm(colors[i][c], 0xFF))
				}
				encodeBC4Block(block[c*8:], &samples, radius)
			}
		}
	}
	return e
}
