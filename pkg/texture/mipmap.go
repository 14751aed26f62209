package texture

import (
	"math"

	"github.com/pkg/errors"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

// GenerateMipmaps derives the mip chain from the level 0 images by repeated
// halving with the given filter. Custom overrides replace individual levels:
// with ReplaceContinue later levels downsample from the override, with
// ReplaceOnce the chain resumes from the image it would have produced. For 3D
// textures an override must cover every depth of its level with a consistent
// replacement policy.
func (t *Texture) GenerateMipmaps(filter raster.Filter, mipLevels int,
	customMips CustomMips) error {

	for _, faces := range t.images[0] {
		for _, img := range faces {
			if img == nil || !img.IsValid() {
				return errors.New("texture: level 0 images are not all set")
			}
		}
	}
	for idx, custom := range customMips {
		if custom.Image == nil || !custom.Image.IsValid() {
			return errors.Errorf("texture: custom mip %v has no image", idx)
		}
	}

	mipLevels = clampMipLevels(mipLevels, t.dim, t.width, t.height, t.depth)
	t.mipLevels = mipLevels
	if len(t.images) > mipLevels {
		t.images = t.images[:mipLevels]
	}
	for len(t.images) < mipLevels {
		t.images = append(t.images, nil)
	}

	if t.dim == format.Dim3D {
		return t.generateMipmaps3D(filter, customMips)
	}
	return t.generateMipmaps2D(filter, customMips)
}

func (t *Texture) generateMipmaps2D(filter raster.Filter, customMips CustomMips) error {
	depth := maxInt(t.depth, 1)
	for mip := 1; mip < t.mipLevels; mip++ {
		t.images[mip] = makeImageLevel(depth, t.faces)
	}

	// Process level by level per (depth, face) chain so replacements can
	// restore the generated state.
	for d := 0; d < depth; d++ {
		for f := 0; f < t.faces; f++ {
			var prev *raster.Image
			for mip := 1; mip < t.mipLevels; mip++ {
				mipWidth := t.Width(mip)
				mipHeight := t.Height(mip)
				custom, isCustom := customMips[ImageIndex{
					Face: format.CubeFace(f), Mip: mip, Depth: d}]

				var cur *raster.Image
				var err error
				restore := isCustom && custom.Replacement == ReplaceOnce
				if !isCustom || restore {
					src := prev
					if src == nil {
						src = t.images[mip-1][d][f]
					}
					cur, err = src.Resize(mipWidth, mipHeight, filter)
					if err != nil {
						return err
					}
				}

				if restore {
					prev = cur
				} else {
					prev = nil
				}

				if isCustom {
					img, err := t.prepareCustomMip(custom.Image, mipWidth, mipHeight, filter)
					if err != nil {
						return err
					}
					t.images[mip][d][f] = img
				} else {
					t.images[mip][d][f] = cur
				}
			}
		}
	}
	return nil
}

func (t *Texture) generateMipmaps3D(filter raster.Filter, customMips CustomMips) error {
	var inputImages []*raster.Image
	for mip := 1; mip < t.mipLevels; mip++ {
		mipWidth := t.Width(mip)
		mipHeight := t.Height(mip)
		mipDepth := t.Depth(mip)

		// Custom 3D levels must cover every depth with one policy.
		isCustom := false
		replacement := ReplaceOnce
		for d := 0; d < mipDepth; d++ {
			custom, found := customMips[ImageIndex{Mip: mip, Depth: d}]
			switch {
			case !found:
				if isCustom {
					return errors.Errorf("texture: custom mips for level %d must cover "+
						"every depth", mip)
				}
			case d == 0:
				isCustom = true
				replacement = custom.Replacement
			case !isCustom || replacement != custom.Replacement:
				return errors.Errorf("texture: custom mips for level %d have "+
					"inconsistent replacement", mip)
			}
		}

		var mipImages []*raster.Image
		restore := isCustom && replacement == ReplaceOnce && mip < t.mipLevels-1
		if !isCustom || restore {
			// Resize the previous level in X/Y, then reduce along Z.
			if inputImages == nil {
				prevLevel := t.images[mip-1]
				inputImages = make([]*raster.Image, len(prevLevel))
				for d := range prevLevel {
					img, err := prevLevel[d][0].Resize(mipWidth, mipHeight, filter)
					if err != nil {
						return err
					}
					inputImages[d] = img
				}
			} else {
				for d, img := range inputImages {
					resized, err := img.Resize(mipWidth, mipHeight, filter)
					if err != nil {
						return err
					}
					inputImages[d] = resized
				}
			}

			var err error
			mipImages, err = reduceDepth(inputImages, mipWidth, mipHeight, mipDepth,
				t.space, filter)
			if err != nil {
				return err
			}
		}

		if restore {
			inputImages = mipImages
			if isCustom {
				// The generated images only restore the chain state.
				mipImages = nil
			}
		} else {
			inputImages = nil
		}

		if isCustom {
			mipImages = make([]*raster.Image, mipDepth)
			for d := 0; d < mipDepth; d++ {
				custom := customMips[ImageIndex{Mip: mip, Depth: d}]
				img, err := t.prepareCustomMip(custom.Image, mipWidth, mipHeight, filter)
				if err != nil {
					return err
				}
				mipImages[d] = img
			}
		}

		level := make([][]*raster.Image, mipDepth)
		for d := 0; d < mipDepth; d++ {
			level[d] = []*raster.Image{mipImages[d]}
		}
		t.images[mip] = level
	}
	return nil
}

// prepareCustomMip resizes an override to the level's dimensions and brings
// it into the texture's working layout and color space.
func (t *Texture) prepareCustomMip(img *raster.Image, width, height int,
	filter raster.Filter) (*raster.Image, error) {

	converted, err := img.Convert(raster.RGBAF, false)
	if err != nil {
		return nil, err
	}
	if err := converted.ChangeColorSpace(t.space); err != nil {
		return nil, err
	}
	return converted.Resize(width, height, filter)
}

// reduceDepth collapses a stack of half-size slices down to the new depth
// with a 1D Box or Linear convolution along Z, averaging in linear light.
func reduceDepth(slices []*raster.Image, width, height, depth int,
	space colorspace.Space, filter raster.Filter) ([]*raster.Image, error) {

	out := make([]*raster.Image, depth)
	invScale := float64(len(slices)) / float64(depth)
	offset := math.Max(invScale, 1)
	filterScale := 1 / offset
	box := filter == raster.FilterBox

	srgb := space == colorspace.SRGB
	for d := 0; d < depth; d++ {
		img, err := raster.New(raster.RGBAF, width, height, space)
		if err != nil {
			return nil, err
		}
		out[d] = img

		center := (float64(d) + 0.5) * invScale
		start := int(math.Max(center-offset+0.5, 0))
		end := int(math.Min(center+offset+0.5, float64(len(slices))))

		for y := 0; y < height; y++ {
			dst := img.FloatScanline(y)
			for x := 0; x < width; x++ {
				var acc [4]float64
				total := 0.0
				for i := start; i < end; i++ {
					var scale float64
					if box {
						if math.Abs(float64(i)+0.5-center)*filterScale > 0.5 {
							continue
						}
						scale = 1
					} else {
						scale = math.Max(1-math.Abs(float64(i)+0.5-center)*filterScale, 0)
						if scale == 0 {
							continue
						}
					}

					src := slices[i].FloatScanline(y)
					r := float64(src[x*4])
					g := float64(src[x*4+1])
					b := float64(src[x*4+2])
					a := float64(src[x*4+3])
					if srgb {
						r = colorspace.SRGBToLinear(r)
						g = colorspace.SRGBToLinear(g)
						b = colorspace.SRGBToLinear(b)
					}
					acc[0] += r * scale
					acc[1] += g * scale
					acc[2] += b * scale
					acc[3] += a * scale
					total += scale
				}

				r := acc[0] / total
				g := acc[1] / total
				b := acc[2] / total
				if srgb {
					r = colorspace.LinearToSRGB(r)
					g = colorspace.LinearToSRGB(g)
					b = colorspace.LinearToSRGB(b)
				}
				dst[x*4] = float32(r)
				dst[x*4+1] = float32(g)
				dst[x*4+2] = float32(b)
				dst[x*4+3] = float32(acc[3] / total)
			}
		}
	}
	return out, nil
}
