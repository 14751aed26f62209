package raster

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/pkg/errors"

	"github.com/goopsie/texpack/pkg/colorspace"
)

// Filter selects the resampling kernel used by Resize.
type Filter int

const (
	FilterBox Filter = iota
	FilterLinear
	FilterCubic
	FilterCatmullRom
	FilterBSpline
)

func (f Filter) String() string {
	switch f {
	case FilterBox:
		return "box"
	case FilterLinear:
		return "linear"
	case FilterCubic:
		return "cubic"
	case FilterCatmullRom:
		return "catmull-rom"
	case FilterBSpline:
		return "b-spline"
	default:
		return "unknown"
	}
}

// ParseFilter looks up a filter by its command-line name.
func ParseFilter(name string) (Filter, bool) {
	for _, f := range []Filter{FilterBox, FilterLinear, FilterCubic, FilterCatmullRom,
		FilterBSpline} {
		if f.String() == name {
			return f, true
		}
	}
	return FilterBox, false
}

// mitchellNetravali builds the cubic filter family. Cubic is the
// Mitchell-Netravali recommendation (B = C = 1/3), B-spline is B=1/C=0, and
// Catmull-Rom is B=0/C=1/2.
func mitchellNetravali(b, c float64) func(float64) float64 {
	return func(t float64) float64 {
		t = math.Abs(t)
		if t < 1 {
			return ((12-9*b-6*c)*t*t*t + (-18+12*b+6*c)*t*t + (6 - 2*b)) / 6
		}
		if t < 2 {
			return ((-b-6*c)*t*t*t + (6*b+30*c)*t*t + (-12*b-48*c)*t + (8*b + 24*c)) / 6
		}
		return 0
	}
}

type kernel struct {
	support float64
	at      func(float64) float64
}

func filterKernel(f Filter) kernel {
	switch f {
	case FilterBox:
		return kernel{0.5, func(t float64) float64 {
			if math.Abs(t) <= 0.5 {
				return 1
			}
			return 0
		}}
	case FilterLinear:
		return kernel{1, func(t float64) float64 {
			t = math.Abs(t)
			if t < 1 {
				return 1 - t
			}
			return 0
		}}
	case FilterCubic:
		return kernel{2, mitchellNetravali(1.0/3.0, 1.0/3.0)}
	case FilterCatmullRom:
		return kernel{2, mitchellNetravali(0, 0.5)}
	case FilterBSpline:
		return kernel{2, mitchellNetravali(1, 0)}
	default:
		return kernel{0.5, func(float64) float64 { return 1 }}
	}
}

func drawKernel(f Filter) *xdraw.Kernel {
	k := filterKernel(f)
	return &xdraw.Kernel{Support: k.support, At: k.at}
}

// Resize returns a resampled copy of the image. sRGB images are linearized
// before filtering and re-encoded afterward. Layouts without a native resize
// path fall back to a per-pixel resampler that supports Box and Linear only.
func (img *Image) Resize(width, height int, filter Filter) (*Image, error) {
	if !img.IsValid() {
		return nil, errors.New("raster: resize on invalid image")
	}
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("raster: invalid resize dimensions %dx%d", width, height)
	}
	if width == img.width && height == img.height {
		return img.Clone(), nil
	}

	// Resize in linear space.
	if img.space != colorspace.Linear {
		linear := img.Clone()
		if err := linear.ChangeColorSpace(colorspace.Linear); err != nil {
			return nil, err
		}
		out, err := linear.Resize(width, height, filter)
		if err != nil {
			return nil, err
		}
		if err := out.ChangeColorSpace(img.space); err != nil {
			return nil, err
		}
		return out, nil
	}

	switch img.layout {
	case Gray8, Gray16, UInt16, RGB5, RGB565, RGB8, RGB16, RGBA8, RGBA16:
		return img.resizeDraw(width, height, filter)
	case RGBF, RGBAF, Float:
		return img.resizeFloat(width, height, filter)
	default:
		return img.resizeFallback(width, height, filter)
	}
}

// resizeDraw scales the 8 and 16-bit integer layouts through the x/image
// scalers, round tripping through the closest stdlib raster.
func (img *Image) resizeDraw(width, height int, filter Filter) (*Image, error) {
	k := drawKernel(filter)
	dstRect := image.Rect(0, 0, width, height)

	scale16 := func(src *image.NRGBA64) *image.NRGBA64 {
		dst := image.NewNRGBA64(dstRect)
		k.Scale(dst, dstRect, src, src.Bounds(), xdraw.Src, nil)
		return dst
	}
	scale8 := func(src *image.NRGBA) *image.NRGBA {
		dst := image.NewNRGBA(dstRect)
		k.Scale(dst, dstRect, src, src.Bounds(), xdraw.Src, nil)
		return dst
	}

	out := &Image{}
	switch img.layout {
	case Gray8:
		src := image.NewGray(image.Rect(0, 0, img.width, img.height))
		for y := 0; y < img.height; y++ {
			copy(src.Pix[y*src.Stride:], img.Scanline(y))
		}
		dst := image.NewGray(dstRect)
		k.Scale(dst, dstRect, src, src.Bounds(), xdraw.Src, nil)
		if err := out.Init(Gray8, width, height, img.space); err != nil {
			return nil, err
		}
		for y := 0; y < height; y++ {
			copy(out.Scanline(y), dst.Pix[y*dst.Stride:y*dst.Stride+width])
		}
		return out, nil
	case Gray16, UInt16:
		src := image.NewGray16(image.Rect(0, 0, img.width, img.height))
		for y := 0; y < img.height; y++ {
			row := img.Scanline(y)
			for x := 0; x < img.width; x++ {
				src.Pix[y*src.Stride+x*2] = row[x*2+1]
				src.Pix[y*src.Stride+x*2+1] = row[x*2]
			}
		}
		dst := image.NewGray16(dstRect)
		k.Scale(dst, dstRect, src, src.Bounds(), xdraw.Src, nil)
		if err := out.Init(img.layout, width, height, img.space); err != nil {
			return nil, err
		}
		for y := 0; y < height; y++ {
			row := out.Scanline(y)
			for x := 0; x < width; x++ {
				row[x*2] = dst.Pix[y*dst.Stride+x*2+1]
				row[x*2+1] = dst.Pix[y*dst.Stride+x*2]
			}
		}
		return out, nil
	case RGB16, RGBA16:
		src := image.NewNRGBA64(image.Rect(0, 0, img.width, img.height))
		for y := 0; y < img.height; y++ {
			row := img.Scanline(y)
			for x := 0; x < img.width; x++ {
				c := getPixel(img.layout, row, x)
				put16 := func(i int, v float64) {
					q := fromNorm16(v)
					src.Pix[y*src.Stride+x*8+i*2] = byte(q >> 8)
					src.Pix[y*src.Stride+x*8+i*2+1] = byte(q)
				}
				put16(0, c.R)
				put16(1, c.G)
				put16(2, c.B)
				put16(3, c.A)
			}
		}
		dst := scale16(src)
		if err := out.Init(img.layout, width, height, img.space); err != nil {
			return nil, err
		}
		for y := 0; y < height; y++ {
			row := out.Scanline(y)
			for x := 0; x < width; x++ {
				get16 := func(i int) float64 {
					v := uint16(dst.Pix[y*dst.Stride+x*8+i*2])<<8 |
						uint16(dst.Pix[y*dst.Stride+x*8+i*2+1])
					return float64(v) / 65535
				}
				setPixel(img.layout, row, x,
					Color{get16(0), get16(1), get16(2), get16(3)})
			}
		}
		return out, nil
	default: // RGB5, RGB565, RGB8, RGBA8
		src := image.NewNRGBA(image.Rect(0, 0, img.width, img.height))
		for y := 0; y < img.height; y++ {
			row := img.Scanline(y)
			for x := 0; x < img.width; x++ {
				c := getPixel(img.layout, row, x)
				src.Pix[y*src.Stride+x*4] = fromNorm8(c.R)
				src.Pix[y*src.Stride+x*4+1] = fromNorm8(c.G)
				src.Pix[y*src.Stride+x*4+2] = fromNorm8(c.B)
				src.Pix[y*src.Stride+x*4+3] = fromNorm8(c.A)
			}
		}
		dst := scale8(src)
		if err := out.Init(img.layout, width, height, img.space); err != nil {
			return nil, err
		}
		for y := 0; y < height; y++ {
			row := out.Scanline(y)
			for x := 0; x < width; x++ {
				setPixel(img.layout, row, x, Color{
					R: toNorm8(dst.Pix[y*dst.Stride+x*4]),
					G: toNorm8(dst.Pix[y*dst.Stride+x*4+1]),
					B: toNorm8(dst.Pix[y*dst.Stride+x*4+2]),
					A: toNorm8(dst.Pix[y*dst.Stride+x*4+3]),
				})
			}
		}
		return out, nil
	}
}

// resizeFloat runs a separable convolution in float precision so HDR values
// survive. Supports every filter.
func (img *Image) resizeFloat(width, height int, filter Filter) (*Image, error) {
	channels := 4
	switch img.layout {
	case RGBF:
		channels = 3
	case Float:
		channels = 1
	}

	k := filterKernel(filter)

	// Horizontal pass into a temporary width x srcHeight buffer.
	tmp := make([]float64, width*img.height*channels)
	convolve1D(k, img.width, width, func(y, x int) []float32 {
		return img.FloatScanline(y)[x*channels : x*channels+channels]
	}, img.height, channels, func(y, x int, v []float64) {
		copy(tmp[(y*width+x)*channels:], v)
	})

	out := &Image{}
	if err := out.Init(img.layout, width, height, img.space); err != nil {
		return nil, err
	}

	// Vertical pass reading from the temporary buffer.
	invScale := float64(img.height) / float64(height)
	support := k.support * math.Max(invScale, 1)
	filterScale := 1 / math.Max(invScale, 1)
	acc := make([]float64, channels)
	for y := 0; y < height; y++ {
		center := (float64(y) + 0.5) * invScale
		top := int(math.Max(center-support+0.5, 0))
		bottom := int(math.Min(center+support+0.5, float64(img.height)))
		dst := out.FloatScanline(y)
		for x := 0; x < width; x++ {
			for c := range acc {
				acc[c] = 0
			}
			total := 0.0
			for i := top; i < bottom; i++ {
				w := k.at((float64(i) + 0.5 - center) * filterScale)
				if w == 0 {
					continue
				}
				src := tmp[(i*width+x)*channels:]
				for c := 0; c < channels; c++ {
					acc[c] += src[c] * w
				}
				total += w
			}
			for c := 0; c < channels; c++ {
				dst[x*channels+c] = float32(acc[c] / total)
			}
		}
	}
	return out, nil
}

// convolve1D resamples srcLen samples down to dstLen along one axis for every
// row of the other axis.
func convolve1D(k kernel, srcLen, dstLen int, sample func(row, i int) []float32,
	rows, channels int, store func(row, i int, v []float64)) {

	invScale := float64(srcLen) / float64(dstLen)
	support := k.support * math.Max(invScale, 1)
	filterScale := 1 / math.Max(invScale, 1)
	acc := make([]float64, channels)
	for row := 0; row < rows; row++ {
		for x := 0; x < dstLen; x++ {
			center := (float64(x) + 0.5) * invScale
			left := int(math.Max(center-support+0.5, 0))
			right := int(math.Min(center+support+0.5, float64(srcLen)))
			for c := range acc {
				acc[c] = 0
			}
			total := 0.0
			for i := left; i < right; i++ {
				w := k.at((float64(i) + 0.5 - center) * filterScale)
				if w == 0 {
					continue
				}
				src := sample(row, i)
				for c := 0; c < channels; c++ {
					acc[c] += float64(src[c]) * w
				}
				total += w
			}
			for c := range acc {
				acc[c] /= total
			}
			store(row, x, acc)
		}
	}
}

// resizeFallback is the per-pixel path for the scalar layouts. Only Box and
// Linear are supported.
func (img *Image) resizeFallback(width, height int, filter Filter) (*Image, error) {
	if filter != FilterBox && filter != FilterLinear {
		return nil, errors.Errorf("raster: %v cannot be resized with the %v filter",
			img.layout, filter)
	}

	invScaleX := float64(img.width) / float64(width)
	invScaleY := float64(img.height) / float64(height)
	offsetX := math.Max(invScaleX, 1)
	offsetY := math.Max(invScaleY, 1)
	filterScaleX := 1 / offsetX
	filterScaleY := 1 / offsetY

	out := &Image{}
	if err := out.Init(img.layout, width, height, img.space); err != nil {
		return nil, err
	}

	if filter == FilterBox {
		offsetX *= 0.5
		offsetY *= 0.5
		for y := 0; y < height; y++ {
			centerY := (float64(y) + 0.5) * invScaleY
			top := int(math.Max(centerY-offsetY+0.5, 0))
			bottom := int(math.Min(centerY+offsetY+0.5, float64(img.height)))
			dstRow := out.Scanline(y)
			for x := 0; x < width; x++ {
				centerX := (float64(x) + 0.5) * invScaleX
				left := int(math.Max(centerX-offsetX+0.5, 0))
				right := int(math.Min(centerX+offsetX+0.5, float64(img.width)))

				var c Color
				total := 0
				for i := top; i < bottom; i++ {
					if math.Abs(float64(i)+0.5-centerY)*filterScaleY > 0.5 {
						continue
					}
					srcRow := img.Scanline(i)
					for j := left; j < right; j++ {
						if math.Abs(float64(j)+0.5-centerX)*filterScaleX > 0.5 {
							continue
						}
						cur := getPixel(img.layout, srcRow, j)
						c.R += cur.R
						c.G += cur.G
						c.B += cur.B
						c.A += cur.A
						total++
					}
				}
				c.R /= float64(total)
				c.G /= float64(total)
				c.B /= float64(total)
				c.A /= float64(total)
				setPixelGrayscale(img.layout, dstRow, x, c)
			}
		}
		return out, nil
	}

	for y := 0; y < height; y++ {
		centerY := (float64(y) + 0.5) * invScaleY
		top := int(math.Max(centerY-offsetY+0.5, 0))
		bottom := int(math.Min(centerY+offsetY+0.5, float64(img.height)))
		dstRow := out.Scanline(y)
		for x := 0; x < width; x++ {
			centerX := (float64(x) + 0.5) * invScaleX
			left := int(math.Max(centerX-offsetX+0.5, 0))
			right := int(math.Min(centerX+offsetX+0.5, float64(img.width)))

			var c Color
			total := 0.0
			for i := top; i < bottom; i++ {
				scaleY := math.Max(1-math.Abs(float64(i)+0.5-centerY)*filterScaleY, 0)
				if scaleY == 0 {
					continue
				}
				srcRow := img.Scanline(i)
				for j := left; j < right; j++ {
					scaleX := math.Max(1-math.Abs(float64(j)+0.5-centerX)*filterScaleX, 0)
					if scaleX == 0 {
						continue
					}
					cur := getPixel(img.layout, srcRow, j)
					scale := scaleX * scaleY
					c.R += cur.R * scale
					c.G += cur.G * scale
					c.B += cur.B * scale
					c.A += cur.A * scale
					total += scale
				}
			}
			c.R /= total
			c.G /= total
			c.B /= total
			c.A /= total
			setPixelGrayscale(img.layout, dstRow, x, c)
		}
	}
	return out, nil
}
