package codec

import (
	"encoding/binary"
	"runtime"
	"sync"

	"github.com/x448/float16"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

const (
	astcBlockSize   = 16
	astcMaxBlockDim = 12
)

type astcProfile int

const (
	astcProfileLDR astcProfile = iota
	astcProfileHDRRGBLDRA
	astcProfileHDR
)

type astcSel int

const (
	astcSelR astcSel = iota
	astcSelG
	astcSelB
	astcSelA
	astcSelZero
	astcSelOne
)

type astcSwizzle struct {
	r, g, b, a astcSel
}

// astcConfig keys the context cache. Two conversions with the same config can
// share contexts.
type astcConfig struct {
	blockX, blockY int
	profile        astcProfile
	alphaWeight    bool
	perceptual     bool
	preset         format.Quality
}

// astcContext holds the precomputed tables and scratch buffers one worker
// needs. Contexts are expensive enough to build that they are pooled
// process-wide.
type astcContext struct {
	config astcConfig

	// Unquantized weight values for the 2-bit grid.
	weightValues [4]int
	// Scratch space reused across blocks.
	texels  [astcMaxBlockDim * astcMaxBlockDim][4]float32
	indices [16]int
}

func newAstcContext(config astcConfig) *astcContext {
	ctx := &astcContext{config: config}
	for v := 0; v < 4; v++ {
		rep := v * 21
		if rep > 32 {
			rep++
		}
		ctx.weightValues[v] = rep
	}
	return ctx
}

// astcContextCache pools contexts keyed by configuration. The bound of three
// contexts per hardware thread keeps steady-state encoding of many textures
// from reallocating them.
type astcContextCache struct {
	mu      sync.Mutex
	entries []*astcContext
	size    int
}

var astcContexts = &astcContextCache{size: 3 * runtime.NumCPU()}

func (c *astcContextCache) create(config astcConfig) *astcContext {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, ctx := range c.entries {
		if ctx.config == config {
			c.entries = append(c.entries[:i], c.entries[i+1:]...)
			return ctx
		}
	}
	return newAstcContext(config)
}

func (c *astcContextCache) destroy(ctx *astcContext) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.entries) >= c.size {
		// Drop the oldest entry.
		c.entries = c.entries[:len(c.entries)-1]
	}
	c.entries = append([]*astcContext{ctx}, c.entries...)
}

type astcThreadData struct {
	ctx *astcContext
}

func (td *astcThreadData) Close() error {
	astcContexts.destroy(td.ctx)
	return nil
}

type astcEncoder struct {
	img     *raster.Image
	data    []byte
	blockX  int
	blockY  int
	jobsX   int
	jobsY   int
	config  astcConfig
	swizzle astcSwizzle
}

// newASTCEncoder builds an encoder for one of the 2D ASTC footprints. The
// profile follows the numeric type and alpha mode; perceptual weighting is
// enabled for sRGB inputs and the swizzle projects masked channels.
func newASTCEncoder(p Params, img *raster.Image, blockX, blockY int) Encoder {
	e := &astcEncoder{
		img:    img,
		blockX: blockX,
		blockY: blockY,
		jobsX:  (img.Width() + blockX - 1) / blockX,
		jobsY:  (img.Height() + blockY - 1) / blockY,
	}
	e.data = make([]byte, e.jobsX*e.jobsY*astcBlockSize)

	if p.Mask.R {
		e.swizzle.r = astcSelR
	} else {
		e.swizzle.r = astcSelZero
	}
	if p.Mask.G {
		e.swizzle.g = astcSelG
	} else {
		e.swizzle.g = astcSelZero
	}
	if p.Mask.B {
		e.swizzle.b = astcSelB
	} else {
		e.swizzle.b = astcSelZero
	}
	if p.Mask.A {
		if p.Alpha == format.AlphaNone {
			e.swizzle.a = astcSelOne
		} else {
			e.swizzle.a = astcSelA
		}
	} else {
		e.swizzle.a = astcSelZero
	}

	profile := astcProfileLDR
	if p.Type == format.UFloat {
		if p.Alpha == format.AlphaNone || p.Alpha == format.AlphaPreMultiplied {
			profile = astcProfileHDRRGBLDRA
		} else {
			profile = astcProfileHDR
		}
	}

	e.config = astcConfig{
		blockX:      blockX,
		blockY:      blockY,
		profile:     profile,
		alphaWeight: weightAlpha(p.Alpha),
		perceptual:  img.ColorSpace() == colorspace.SRGB,
		preset:      p.Quality,
	}
	return e
}

func (e *astcEncoder) JobsX() int   { return e.jobsX }
func (e *astcEncoder) JobsY() int   { return e.jobsY }
func (e *astcEncoder) Data() []byte { return e.data }

func (e *astcEncoder) CreateThreadData() ThreadData {
	return &astcThreadData{ctx: astcContexts.create(e.config)}
}

func (e *astcEncoder) Process(x, y int, td ThreadData) {
	ctx := td.(*astcThreadData).ctx
	width := e.img.Width()
	height := e.img.Height()

	// Fetch the swizzled block with edge clamping.
	for j := 0; j < e.blockY; j++ {
		row := y*e.blockY + j
		if row > height-1 {
			row = height - 1
		}
		scanline := e.img.FloatScanline(row)
		for i := 0; i < e.blockX; i++ {
			col := x*e.blockX + i
			if col > width-1 {
				col = width - 1
			}
			px := scanline[col*4 : col*4+4]
			out := &ctx.texels[j*e.blockX+i]
			out[0] = astcSelect(px, e.swizzle.r)
			out[1] = astcSelect(px, e.swizzle.g)
			out[2] = astcSelect(px, e.swizzle.b)
			out[3] = astcSelect(px, e.swizzle.a)
		}
	}

	block := e.data[(y*e.jobsX+x)*astcBlockSize : (y*e.jobsX+x)*astcBlockSize+astcBlockSize]
	for i := range block {
		block[i] = 0
	}
	e.encodeBlock(ctx, block)
}

func astcSelect(px []float32, sel astcSel) float32 {
	switch sel {
	case astcSelR:
		return px[0]
	case astcSelG:
		return px[1]
	case astcSelB:
		return px[2]
	case astcSelA:
		return px[3]
	case astcSelOne:
		return 1
	default:
		return 0
	}
}

func (e *astcEncoder) encodeBlock(ctx *astcContext, block []byte) {
	count := e.blockX * e.blockY

	uniform := true
	first := ctx.texels[0]
	for i := 1; i < count; i++ {
		if ctx.texels[i] != first {
			uniform = false
			break
		}
	}
	if uniform {
		e.writeVoidExtent(block, first)
		return
	}

	// Single-partition LDR RGBA direct endpoints with a decimated 4x4 grid of
	// 2-bit weights. HDR inputs clamp into the LDR range here; the profile
	// still governs container metadata.
	var minC, maxC [4]int
	for c := 0; c < 4; c++ {
		minC[c] = 255
	}
	for i := 0; i < count; i++ {
		for c := 0; c < 4; c++ {
			v := int(unorm(ctx.texels[i][c], 0xFF))
			if v < minC[c] {
				minC[c] = v
			}
			if v > maxC[c] {
				maxC[c] = v
			}
		}
	}

	// CEM 12 applies blue contraction when the first endpoint's RGB sum
	// exceeds the second's, so keep the smaller sum first.
	e0, e1 := minC, maxC
	if e0[0]+e0[1]+e0[2] > e1[0]+e1[1]+e1[2] {
		e0, e1 = e1, e0
	}

	weights := e.channelErrorWeights()

	// Sample the weight grid from the block: grid cell (gx, gy) covers a
	// region of texels; pick the weight minimizing the error against the
	// region average.
	for gy := 0; gy < 4; gy++ {
		for gx := 0; gx < 4; gx++ {
			var avg [4]float64
			n := 0
			x0 := gx * e.blockX / 4
			x1 := (gx + 1) * e.blockX / 4
			y0 := gy * e.blockY / 4
			y1 := (gy + 1) * e.blockY / 4
			if x1 <= x0 {
				x1 = x0 + 1
			}
			if y1 <= y0 {
				y1 = y0 + 1
			}
			for ty := y0; ty < y1; ty++ {
				for tx := x0; tx < x1; tx++ {
					for c := 0; c < 4; c++ {
						avg[c] += float64(unorm(ctx.texels[ty*e.blockX+tx][c], 0xFF))
					}
					n++
				}
			}
			for c := 0; c < 4; c++ {
				avg[c] /= float64(n)
			}

			best := 0
			bestErr := -1.0
			for v := 0; v < 4; v++ {
				w := ctx.weightValues[v]
				var err float64
				for c := 0; c < 4; c++ {
					interp := float64((e0[c]*(64-w) + e1[c]*w + 32) >> 6)
					d := avg[c] - interp
					err += weights[c] * d * d
				}
				if bestErr < 0 || err < bestErr {
					best = v
					bestErr = err
				}
			}
			ctx.indices[gy*4+gx] = best
		}
	}

	w := bitWriter{data: block}
	w.write(0x42, 11) // single plane, 4x4 grid, 2-bit weights
	w.write(0, 2)     // one partition
	w.write(12, 4)    // CEM: LDR RGBA direct
	for c := 0; c < 4; c++ {
		w.write(uint64(e0[c]), 8)
		w.write(uint64(e1[c]), 8)
	}

	// Weights are BISE bits stored reversed from the top of the block.
	pos := 127
	for i := 0; i < 16; i++ {
		v := ctx.indices[i]
		for b := 0; b < 2; b++ {
			if v>>uint(b)&1 != 0 {
				block[pos>>3] |= 1 << uint(pos&7)
			}
			pos--
		}
	}
}

func (e *astcEncoder) channelErrorWeights() [4]float64 {
	if e.config.perceptual {
		w := [4]float64{0.2126, 0.7152, 0.0722, 1}
		if !e.config.alphaWeight {
			w[3] = 0.25
		}
		return w
	}
	w := [4]float64{1, 1, 1, 1}
	if !e.config.alphaWeight {
		w[3] = 0.25
	}
	return w
}

// writeVoidExtent emits the constant-color block encoding with the extent
// marked as unused.
func (e *astcEncoder) writeVoidExtent(block []byte, color [4]float32) {
	hdr := e.config.profile != astcProfileLDR
	low := uint64(0xFFFFFFFFFFFFF000) | 0x1FC | 3<<10
	if hdr {
		low |= 1 << 9
	}
	binary.LittleEndian.PutUint64(block, low)
	for c := 0; c < 4; c++ {
		var v uint16
		if hdr {
			v = float16.Fromfloat32(color[c]).Bits()
		} else {
			v = uint16(unorm(color[c], 0xFFFF))
		}
		binary.LittleEndian.PutUint16(block[8+c*2:], v)
	}
}
