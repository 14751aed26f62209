// Package texture assembles source images into a GPU-ready texture: it owns
// the image pyramid, generates mip chains, drives the block conversion, and
// writes the DDS, KTX, and PVR container formats.
package texture

import (
	"github.com/pkg/errors"

	"github.com/goopsie/texpack/pkg/codec"
	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

// AllCores requests one conversion worker per hardware thread.
const AllCores = codec.AllCores

// MipReplacement controls how a custom mip image interacts with the
// generated chain.
type MipReplacement int

const (
	// ReplaceOnce injects the override into its slot only; the next level
	// resumes from the image the chain would have produced.
	ReplaceOnce MipReplacement = iota
	// ReplaceContinue makes every subsequent level downsample from the
	// override.
	ReplaceContinue
)

// ImageIndex addresses one slot of the pyramid.
type ImageIndex struct {
	Face  format.CubeFace
	Mip   int
	Depth int
}

// CustomMip is a caller-provided replacement for one generated level.
type CustomMip struct {
	Image       *raster.Image
	Replacement MipReplacement
}

// CustomMips maps pyramid slots to their overrides.
type CustomMips map[ImageIndex]CustomMip

// Texture holds the input image pyramid and, after conversion, the encoded
// payload pyramid with the same [mip][depth][face] indexing.
type Texture struct {
	dim       format.Dimension
	space     colorspace.Space
	width     int
	height    int
	depth     int
	mipLevels int
	faces     int
	images    [][][]*raster.Image

	fmt       format.Format
	typ       format.Type
	alphaType format.Alpha
	mask      format.ColorMask
	data      [][][][]byte
}

// New creates a texture with empty image slots. depth is the array length for
// 1D/2D/cube textures (0 for non-arrays) and the slice count for 3D.
func New(dim format.Dimension, width, height, depth, mipLevels int,
	space colorspace.Space) (*Texture, error) {

	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("texture: invalid dimensions %dx%d", width, height)
	}
	if dim == format.Dim3D && depth <= 0 {
		return nil, errors.New("texture: 3D textures need a depth")
	}

	t := &Texture{
		dim:       dim,
		space:     space,
		width:     width,
		height:    height,
		depth:     depth,
		alphaType: format.AlphaStandard,
		mask:      format.AllChannels(),
	}
	t.mipLevels = clampMipLevels(mipLevels, dim, width, height, depth)
	t.faces = 1
	if dim == format.Cube {
		t.faces = 6
	}

	t.images = make([][][]*raster.Image, t.mipLevels)
	for mip := range t.images {
		t.images[mip] = makeImageLevel(t.Depth(mip), t.faces)
	}
	return t, nil
}

func makeImageLevel(depth, faces int) [][]*raster.Image {
	level := make([][]*raster.Image, depth)
	for d := range level {
		level[d] = make([]*raster.Image, faces)
	}
	return level
}

func clampMipLevels(mipLevels int, dim format.Dimension, width, height, depth int) int {
	if mipLevels < 1 {
		mipLevels = 1
	}
	if max := format.MaxMipmapLevels(dim, width, height, depth); mipLevels > max {
		mipLevels = max
	}
	return mipLevels
}

func (t *Texture) Dimension() format.Dimension  { return t.dim }
func (t *Texture) ColorSpace() colorspace.Space { return t.space }
func (t *Texture) MipLevelCount() int           { return t.mipLevels }
func (t *Texture) FaceCount() int               { return t.faces }
func (t *Texture) Format() format.Format        { return t.fmt }
func (t *Texture) Type() format.Type            { return t.typ }
func (t *Texture) AlphaType() format.Alpha      { return t.alphaType }
func (t *Texture) ColorMask() format.ColorMask  { return t.mask }

// IsArray reports whether the texture carries array layers.
func (t *Texture) IsArray() bool {
	return t.dim != format.Dim3D && t.depth > 0
}

// Width returns the width of the given mip level.
func (t *Texture) Width(mip int) int {
	if mip < 0 || mip >= t.mipLevels {
		return 0
	}
	return maxInt(t.width>>uint(mip), 1)
}

// Height returns the height of the given mip level.
func (t *Texture) Height(mip int) int {
	if mip < 0 || mip >= t.mipLevels {
		return 0
	}
	return maxInt(t.height>>uint(mip), 1)
}

// Depth returns the slice count at the given mip level for 3D textures, or
// the constant array length otherwise.
func (t *Texture) Depth(mip int) int {
	if mip < 0 || mip >= t.mipLevels {
		return 0
	}
	if t.dim == format.Dim3D {
		return maxInt(t.depth>>uint(mip), 1)
	}
	return maxInt(t.depth, 1)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func (t *Texture) faceValid(face format.CubeFace) bool {
	if t.faces == 6 {
		return face >= format.PosX && face <= format.NegZ
	}
	return face == format.PosX
}

// GetImage returns the image at a pyramid slot, or nil when out of range.
func (t *Texture) GetImage(face format.CubeFace, mip, depth int) *raster.Image {
	if mip < 0 || mip >= t.mipLevels || depth < 0 || depth >= t.Depth(mip) ||
		!t.faceValid(face) {
		return nil
	}
	return t.images[mip][depth][face]
}

// SetImage stores an image at a pyramid slot, converting it to the canonical
// RGBA float layout and the texture's color space. Dimensions must match the
// slot exactly.
func (t *Texture) SetImage(img *raster.Image, face format.CubeFace, mip, depth int) error {
	if mip < 0 || mip >= t.mipLevels {
		return errors.Errorf("texture: mip level %d out of range", mip)
	}
	if depth < 0 || depth >= t.Depth(mip) {
		return errors.Errorf("texture: depth %d out of range", depth)
	}
	if !t.faceValid(face) {
		return errors.Errorf("texture: invalid face %v", face)
	}
	if !img.IsValid() {
		return errors.New("texture: invalid image")
	}
	if img.Width() != t.Width(mip) || img.Height() != t.Height(mip) {
		return errors.Errorf("texture: image is %dx%d, slot needs %dx%d", img.Width(),
			img.Height(), t.Width(mip), t.Height(mip))
	}

	converted, err := img.Convert(raster.RGBAF, false)
	if err != nil {
		return err
	}
	if err := converted.ChangeColorSpace(t.space); err != nil {
		return err
	}
	t.images[mip][depth][face] = converted
	return nil
}

// ImagesComplete reports whether every pyramid slot holds a valid image.
func (t *Texture) ImagesComplete() bool {
	for _, level := range t.images {
		for _, faces := range level {
			for _, img := range faces {
				if img == nil || !img.IsValid() {
					return false
				}
			}
		}
	}
	return true
}

// Converted reports whether an encoded payload is present.
func (t *Texture) Converted() bool {
	return len(t.data) > 0
}

// Data returns the encoded payload of a pyramid slot.
func (t *Texture) Data(face format.CubeFace, mip, depth int) []byte {
	if !t.Converted() || mip < 0 || mip >= t.mipLevels || depth < 0 ||
		depth >= t.Depth(mip) || !t.faceValid(face) {
		return nil
	}
	return t.data[mip][depth][face]
}

// DataSize returns the encoded payload size of a pyramid slot.
func (t *Texture) DataSize(face format.CubeFace, mip, depth int) int {
	return len(t.Data(face, mip, depth))
}

// Convert encodes the whole pyramid into the requested storage format. When
// the encoder dispatch fails the format reverts to Unknown and no payload is
// kept; a failed precondition check returns before any state is touched.
func (t *Texture) Convert(f format.Format, typ format.Type, quality format.Quality,
	alpha format.Alpha, mask format.ColorMask, threads uint) error {

	if !t.ImagesComplete() {
		return errors.New("texture: not all images are set")
	}
	if !format.Valid(f, typ) {
		return errors.Errorf("texture: format %v cannot hold %v values", f, typ)
	}
	if t.space == colorspace.SRGB && !format.HasNativeSRGB(f, typ) {
		return errors.Errorf("texture: format %v/%v has no sRGB variant", f, typ)
	}

	t.fmt = f
	t.typ = typ
	t.alphaType = alpha
	t.mask = mask

	params := codec.Params{Format: f, Type: typ, Quality: quality, Alpha: alpha, Mask: mask}
	data, ok := codec.Convert(params, t.images, threads)
	if !ok {
		t.fmt = format.Unknown
		t.data = nil
		return errors.Errorf("texture: no encoder for %v/%v", f, typ)
	}
	t.data = data
	return nil
}

// AdjustImageValueRange remaps an image loaded from a normalized source so
// its values match the requested numeric type: [0,1] becomes [-1,1] for
// SNorm, and scales to the integer range for UInt/Int. origLayout names the
// layout the pixels were loaded with when the image has since been converted.
func AdjustImageValueRange(img *raster.Image, typ format.Type,
	origLayout raster.Layout) (*raster.Image, error) {

	if !img.IsValid() {
		return nil, errors.New("texture: invalid image")
	}
	if typ != format.SNorm && typ != format.UInt && typ != format.Int {
		return img, nil
	}
	if origLayout == raster.Invalid {
		origLayout = img.Layout()
	}

	var bits [4]int
	switch origLayout {
	case raster.Gray8, raster.RGB8, raster.RGBA8:
		bits = [4]int{8, 8, 8, 8}
	case raster.Gray16, raster.RGB16, raster.RGBA16:
		bits = [4]int{16, 16, 16, 16}
	case raster.RGB5:
		bits = [4]int{5, 5, 5, 0}
	case raster.RGB565:
		bits = [4]int{5, 6, 5, 0}
	default:
		// Unscaled sources keep their values.
		return img, nil
	}

	var channels int
	var out *raster.Image
	var err error
	switch img.Layout() {
	case raster.Gray8, raster.Gray16, raster.Double:
		channels = 1
		out, err = img.Convert(raster.Float, true)
	case raster.Float:
		channels = 1
		out = img.Clone()
	case raster.RGB5, raster.RGB565, raster.RGB8, raster.RGB16, raster.Complex:
		channels = 3
		out, err = img.Convert(raster.RGBF, false)
	case raster.RGBF:
		channels = 3
		out = img.Clone()
	case raster.RGBA8, raster.RGBA16:
		channels = 4
		out, err = img.Convert(raster.RGBAF, false)
	case raster.RGBAF:
		channels = 4
		out = img.Clone()
	default:
		return img, nil
	}
	if err != nil {
		return nil, err
	}

	if typ == format.SNorm {
		for y := 0; y < out.Height(); y++ {
			row := out.FloatScanline(y)
			for x := 0; x < out.Width()*channels; x++ {
				row[x] = row[x]*2 - 1
			}
		}
		return out, nil
	}

	var multiply, offset [4]float32
	for c := 0; c < channels; c++ {
		if bits[c] == 0 {
			multiply[c] = 1
			continue
		}
		multiply[c] = float32(int(1)<<uint(bits[c]) - 1)
		if typ == format.Int {
			offset[c] = -float32(int(1) << uint(bits[c]-1))
		}
	}
	for y := 0; y < out.Height(); y++ {
		row := out.FloatScanline(y)
		for x := 0; x < out.Width(); x++ {
			for c := 0; c < channels; c++ {
				row[x*channels+c] = roundF32(row[x*channels+c]*multiply[c] + offset[c])
			}
		}
	}
	return out, nil
}

func roundF32(v float32) float32 {
	if v >= 0 {
		return float32(int64(v + 0.5))
	}
	return float32(int64(v - 0.5))
}
