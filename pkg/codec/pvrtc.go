package codec

import (
	"encoding/binary"

	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

// pvrtcEncoder compresses the whole image in one job because the codec is
// global: every block's modulation references its neighbors' color planes.
type pvrtcEncoder struct {
	img          *raster.Image
	data         []byte
	fmt          format.Format
	quality      format.Quality
	premultiplied bool
}

func newPVRTCEncoder(p Params, img *raster.Image) Encoder {
	return &pvrtcEncoder{
		img:           img,
		fmt:           p.Format,
		quality:       p.Quality,
		premultiplied: p.Alpha == format.AlphaPreMultiplied,
	}
}

func (e *pvrtcEncoder) JobsX() int   { return 1 }
func (e *pvrtcEncoder) JobsY() int   { return 1 }
func (e *pvrtcEncoder) Data() []byte { return e.data }

func (e *pvrtcEncoder) blockDims() (int, int) {
	switch e.fmt {
	case format.PVRTC1RGB2BPP, format.PVRTC1RGBA2BPP, format.PVRTC2RGBA2BPP:
		return 8, 4
	default:
		return 4, 4
	}
}

// mortonIndex interleaves the block coordinates; PVRTC stores blocks in
// Morton order.
func mortonIndex(x, y int) int {
	idx := 0
	for bit := 0; bit < 16; bit++ {
		idx |= (y >> bit & 1) << uint(bit*2)
		idx |= (x >> bit & 1) << uint(bit*2+1)
	}
	return idx
}

func (e *pvrtcEncoder) Process(_, _ int, _ ThreadData) {
	blockW, blockH := e.blockDims()
	width := e.img.Width()
	height := e.img.Height()

	blocksX := (width + blockW - 1) / blockW
	blocksY := (height + blockH - 1) / blockH
	// PVRTC1 surfaces are at least two blocks in each dimension.
	if e.fmt != format.PVRTC2RGBA2BPP && e.fmt != format.PVRTC2RGBA4BPP {
		if blocksX < 2 {
			blocksX = 2
		}
		if blocksY < 2 {
			blocksY = 2
		}
	}
	e.data = make([]byte, blocksX*blocksY*8)

	for by := 0; by < blocksY; by++ {
		for bx := 0; bx < blocksX; bx++ {
			block := e.data[mortonIndex(bx, by)*8:]
			e.encodeBlock(block[:8], bx*blockW, by*blockH, blockW, blockH)
		}
	}
}

// encodeBlock writes one 8-byte PVRTC block: 32 bits of modulation and two
// 16-bit color plane endpoints. Color A holds the block minimum, color B the
// maximum; modulation blends between them.
func (e *pvrtcEncoder) encodeBlock(block []byte, px, py, blockW, blockH int) {
	width := e.img.Width()
	height := e.img.Height()

	minC := [4]int{255, 255, 255, 255}
	maxC := [4]int{}
	var pixels [32][4]int
	for j := 0; j < blockH; j++ {
		row := clampInt(py+j, 0, height-1)
		scanline := e.img.FloatScanline(row)
		for i := 0; i < blockW; i++ {
			col := clampInt(px+i, 0, width-1)
			var c [4]int
			for ch := 0; ch < 4; ch++ {
				c[ch] = int(unorm(scanline[col*4+ch], 0xFF))
				if c[ch] < minC[ch] {
					minC[ch] = c[ch]
				}
				if c[ch] > maxC[ch] {
					maxC[ch] = c[ch]
				}
			}
			pixels[j*blockW+i] = c
		}
	}

	hasAlpha := format.HasAlpha(e.fmt) && minC[3] < 255

	colorA := packPVRTCColor(minC, hasAlpha, false)
	colorB := packPVRTCColor(maxC, hasAlpha, true)

	// Modulation: 4bpp blocks store two bits per pixel blending A toward B;
	// 2bpp blocks store a single bit selecting one plane or the other.
	var modulation uint32
	count := blockW * blockH
	if count == 16 {
		blendWeights := [4]int{0, 3, 5, 8}
		for i := 0; i < count; i++ {
			best := 0
			bestErr := -1
			for m, w := range blendWeights {
				err := 0
				for ch := 0; ch < 4; ch++ {
					v := (minC[ch]*(8-w) + maxC[ch]*w) / 8
					d := pixels[i][ch] - v
					err += d * d
				}
				if bestErr < 0 || err < bestErr {
					best = m
					bestErr = err
				}
			}
			modulation |= uint32(best) << uint(i*2)
		}
	} else {
		for i := 0; i < count; i++ {
			errA, errB := 0, 0
			for ch := 0; ch < 4; ch++ {
				dA := pixels[i][ch] - minC[ch]
				dB := pixels[i][ch] - maxC[ch]
				errA += dA * dA
				errB += dB * dB
			}
			if errB < errA {
				modulation |= 1 << uint(i)
			}
		}
	}

	binary.LittleEndian.PutUint32(block, modulation)
	binary.LittleEndian.PutUint16(block[4:], colorA)
	binary.LittleEndian.PutUint16(block[6:], colorB)
}

// packPVRTCColor packs a 16-bit color plane entry. Opaque entries use
// 1:5:5:5 with the opacity bit set; translucent entries use 3-bit alpha with
// 4:4:4 (or 4:4:3 for color A) components.
func packPVRTCColor(c [4]int, hasAlpha, isB bool) uint16 {
	if !hasAlpha || c[3] >= 0xF0 {
		v := uint16(0x8000)
		v |= uint16(c[0]>>3) << 10
		v |= uint16(c[1]>>3) << 5
		if isB {
			v |= uint16(c[2] >> 3)
		} else {
			v |= uint16(c[2] >> 4 << 1)
		}
		return v
	}
	v := uint16(c[3]>>5) << 12
	v |= uint16(c[0]>>4) << 8
	v |= uint16(c[1]>>4) << 4
	if isB {
		v |= uint16(c[2] >> 4)
	} else {
		v |= uint16(c[2] >> 5 << 1)
	}
	return v
}
