package codec

import (
	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

// bc7Params mirrors the knobs the quality presets map onto. The mode 6 core
// uses the uber level for refinement passes and the weights for the error
// metric; the partition limits apply when multi-subset modes are searched.
type bc7Params struct {
	maxPartitions   int
	uberLevel       int
	tryLeastSquares bool
	mode17Filter    bool
	weights         [4]float32
}

const bc7MaxPartitions = 64

func newBC7Params(q format.Quality, space colorspace.Space, mask format.ColorMask) bc7Params {
	var p bc7Params
	perceptual := func() {
		p.weights = [4]float32{0.2126, 0.7152, 0.0722, 1}
	}
	linear := func() {
		p.weights = [4]float32{1, 1, 1, 1}
	}
	switch q {
	case format.QualityLowest:
		p.maxPartitions = 0
		p.uberLevel = 0
		p.tryLeastSquares = false
		p.mode17Filter = true
		linear()
	case format.QualityLow:
		p.maxPartitions = 16
		p.uberLevel = 0
		p.tryLeastSquares = true
		p.mode17Filter = true
		linear()
	case format.QualityNormal:
		p.maxPartitions = bc7MaxPartitions
		p.uberLevel = 1
		p.tryLeastSquares = true
		p.mode17Filter = false
		if space == colorspace.SRGB {
			perceptual()
		} else {
			linear()
		}
	default:
		p.maxPartitions = bc7MaxPartitions
		p.uberLevel = 4
		p.tryLeastSquares = true
		p.mode17Filter = false
		if space == colorspace.SRGB {
			perceptual()
		} else {
			linear()
		}
	}
	if !mask.R {
		p.weights[0] = 0
	}
	if !mask.G {
		p.weights[1] = 0
	}
	if !mask.B {
		p.weights[2] = 0
	}
	if !mask.A {
		p.weights[3] = 0
	}
	return p
}

// newBC7Encoder emits mode 6 blocks: one subset, 7.7.7.7 endpoints with per
// endpoint P bits, and 4-bit indices.
func newBC7Encoder(p Params, img *raster.Image) Encoder {
	e := newBlockEncoder(p, img, 16)
	params := newBC7Params(p.Quality, img.ColorSpace(), p.Mask)

	e.compress = func(block []byte, colors *[blockPixels][4]float32) {
		for i := range block[:16] {
			block[i] = 0
		}
		colorBlock := toColorBlock(colors)

		var minC, maxC [4]int
		for c := 0; c < 4; c++ {
			minC[c] = 255
		}
		for i := range colorBlock {
			for c := 0; c < 4; c++ {
				v := int(colorBlock[i][c])
				if v < minC[c] {
					minC[c] = v
				}
				if v > maxC[c] {
					maxC[c] = v
				}
			}
		}

		e0, p0 := bc7QuantizeEndpoint(minC)
		e1, p1 := bc7QuantizeEndpoint(maxC)

		var indices [blockPixels]int
		passes := 1 + params.uberLevel
		for pass := 0; pass < passes; pass++ {
			pal0 := bc7Decode(e0, p0)
			pal1 := bc7Decode(e1, p1)
			assignBC7Indices(&indices, &colorBlock, pal0, pal1, params.weights)

			if indices[0] >= 8 {
				e0, e1 = e1, e0
				p0, p1 = p1, p0
				for i := range indices {
					indices[i] = 15 - indices[i]
				}
			}
			if !params.tryLeastSquares || pass == passes-1 {
				break
			}
			n0, n1, ok := refineBC7Endpoints(&colorBlock, &indices)
			if !ok {
				break
			}
			e0, p0 = bc7QuantizeEndpoint(n0)
			e1, p1 = bc7QuantizeEndpoint(n1)
		}

		w := bitWriter{data: block[:16]}
		w.write(1<<6, 7) // mode 6
		for c := 0; c < 4; c++ {
			w.write(uint64(e0[c]), 7)
			w.write(uint64(e1[c]), 7)
		}
		w.write(uint64(p0), 1)
		w.write(uint64(p1), 1)
		w.write(uint64(indices[0]), 3)
		for i := 1; i < blockPixels; i++ {
			w.write(uint64(indices[i]), 4)
		}
	}
	return e
}

// bc7QuantizeEndpoint reduces an 8-bit RGBA endpoint to 7 bits plus a shared
// P bit.
func bc7QuantizeEndpoint(c [4]int) ([4]int, int) {
	// Choose the P bit that minimizes the total quantization error.
	bestP := 0
	bestErr := 1 << 30
	var bestQ [4]int
	for p := 0; p < 2; p++ {
		var q [4]int
		err := 0
		for i := 0; i < 4; i++ {
			v := (c[i] - p) >> 1
			if v < 0 {
				v = 0
			}
			if v > 127 {
				v = 127
			}
			q[i] = v
			d := c[i] - (v<<1 | p)
			err += d * d
		}
		if err < bestErr {
			bestErr = err
			bestP = p
			bestQ = q
		}
	}
	return bestQ, bestP
}

// bc7Decode expands a 7-bit endpoint plus P bit back to 8 bits.
func bc7Decode(e [4]int, p int) [4]int {
	var out [4]int
	for c := 0; c < 4; c++ {
		out[c] = e[c]<<1 | p
	}
	return out
}

func assignBC7Indices(indices *[blockPixels]int, block *[blockPixels][4]uint8,
	e0, e1 [4]int, weights [4]float32) {

	for i := range block {
		best := 0
		bestErr := float32(0)
		for w := 0; w < 16; w++ {
			var err float32
			for c := 0; c < 4; c++ {
				interp := (e0[c]*(64-aWeight4[w]) + e1[c]*aWeight4[w] + 32) >> 6
				d := float32(int(block[i][c]) - interp)
				err += weights[c] * d * d
			}
			if w == 0 || err < bestErr {
				best = w
				bestErr = err
			}
		}
		indices[i] = best
	}
}

// refineBC7Endpoints least-squares fits RGBA endpoints from the current
// assignment.
func refineBC7Endpoints(block *[blockPixels][4]uint8,
	indices *[blockPixels]int) ([4]int, [4]int, bool) {

	var att, atb, btb float64
	var axSum, bxSum [4]float64
	for i := range block {
		b := float64(aWeight4[indices[i]]) / 64
		a := 1 - b
		att += a * a
		atb += a * b
		btb += b * b
		for c := 0; c < 4; c++ {
			axSum[c] += a * float64(block[i][c])
			bxSum[c] += b * float64(block[i][c])
		}
	}
	det := att*btb - atb*atb
	if det == 0 {
		return [4]int{}, [4]int{}, false
	}
	var e0, e1 [4]int
	for c := 0; c < 4; c++ {
		v0 := (btb*axSum[c] - atb*bxSum[c]) / det
		v1 := (att*bxSum[c] - atb*axSum[c]) / det
		e0[c] = clampInt(int(v0+0.5), 0, 255)
		e1[c] = clampInt(int(v1+0.5), 0, 255)
	}
	return e0, e1, true
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
