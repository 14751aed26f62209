// texpack converts bitmap images into GPU texture containers.
//
// Images load into a high-precision working space, pass through optional
// manipulations (resize, rotate, flips, swizzle, grayscale, normal map
// synthesis, premultiplication), gain a mip chain, are block-compressed or
// packed into one of the supported storage formats, and are written as DDS,
// KTX, or PVR.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/goopsie/texpack/pkg/archive"
	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
	"github.com/goopsie/texpack/pkg/texture"
)

const (
	exitSuccess   = 0
	exitArgError  = 1
	exitLoadError = 2
	exitSaveError = 3
)

func main() {
	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage(os.Stderr)
		os.Exit(exitArgError)
	}

	os.Exit(run(opts))
}

func run(opts *options) int {
	space := colorspace.Linear
	if opts.srgb {
		space = colorspace.SRGB
	}

	if space == colorspace.SRGB && !format.HasNativeSRGB(opts.fmt, opts.typ) {
		fmt.Fprintf(os.Stderr, "error: format %v/%v cannot store sRGB\n", opts.fmt,
			opts.typ)
		return exitArgError
	}
	if !format.Valid(opts.fmt, opts.typ) {
		fmt.Fprintf(os.Stderr, "error: format %v cannot hold %v values\n", opts.fmt,
			opts.typ)
		return exitArgError
	}
	if space == colorspace.SRGB && format.BlockSize(opts.fmt) <= 2 &&
		format.BlockWidth(opts.fmt) == 1 && !opts.quiet {
		fmt.Fprintln(os.Stderr, "warning: sRGB conversion into a low-precision format "+
			"loses shadow detail")
	}

	images := make(map[ImageKey]*raster.Image)
	var width, height int
	for _, input := range opts.inputs {
		img := &raster.Image{}
		if err := img.Load(input.path, space); err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot load %q: %v\n", input.path, err)
			return exitLoadError
		}
		if opts.verbose {
			fmt.Printf("loaded %s (%dx%d, %v)\n", input.path, img.Width(), img.Height(),
				img.Layout())
		}

		loadedLayout := img.Layout()
		processed, err := applyImageOperations(opts, img)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return exitLoadError
		}
		// Integer output types need the normalized samples rescaled to the
		// storage range the source was quantized with.
		processed, err = texture.AdjustImageValueRange(processed, opts.typ, loadedLayout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return exitLoadError
		}

		key := ImageKey{Index: input.index, Face: input.face}
		if _, exists := images[key]; exists {
			fmt.Fprintf(os.Stderr, "error: duplicate input for layer %d face %v\n",
				input.index, input.face)
			return exitArgError
		}
		images[key] = processed
		if width == 0 {
			width, height = processed.Width(), processed.Height()
		} else if processed.Width() != width || processed.Height() != height {
			fmt.Fprintf(os.Stderr, "error: input images have mismatched dimensions\n")
			return exitLoadError
		}
	}

	tex, code := buildTexture(opts, images, width, height, space)
	if tex == nil {
		return code
	}

	if err := tex.Convert(opts.fmt, opts.typ, opts.quality, opts.alpha,
		colorMaskFromSwizzle(opts), opts.jobs); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return exitSaveError
	}
	if opts.verbose {
		fmt.Printf("converted to %v/%v\n", opts.fmt, opts.typ)
	}

	if opts.createDir {
		if err := os.MkdirAll(filepath.Dir(opts.output), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "error: cannot create output directory: %v\n", err)
			return exitSaveError
		}
	}

	if result := saveTexture(opts, tex); result != texture.SaveSuccess {
		fmt.Fprintf(os.Stderr, "error: cannot save %q: %v\n", opts.output, result)
		return exitSaveError
	}
	if !opts.quiet {
		fmt.Printf("wrote %s\n", opts.output)
	}
	return exitSuccess
}

// ImageKey identifies one (layer, face) input slot.
type ImageKey struct {
	Index int
	Face  format.CubeFace
}

// applyImageOperations runs the per-image manipulation pipeline in a fixed
// order: rotate, flips, grayscale, normal map, swizzle, premultiply, resize.
func applyImageOperations(opts *options, img *raster.Image) (*raster.Image, error) {
	var err error
	if opts.doRotate && opts.rotate%360 != 0 {
		angle, ok := raster.RotateAngleFromDegrees(opts.rotate)
		if !ok {
			return nil, fmt.Errorf("invalid rotation %d", opts.rotate)
		}
		if img, err = img.Rotate(angle); err != nil {
			return nil, err
		}
	}
	if opts.flipX {
		if err = img.FlipHorizontal(); err != nil {
			return nil, err
		}
	}
	if opts.flipY {
		if err = img.FlipVertical(); err != nil {
			return nil, err
		}
	}
	if opts.grayscale {
		if err = img.Grayscale(); err != nil {
			return nil, err
		}
	}
	if opts.normalMap {
		if img, err = img.CreateNormalMap(opts.normalOptions, opts.normalHeight,
			raster.RGBAF); err != nil {
			return nil, err
		}
	}
	if opts.swizzle {
		if err = img.Swizzle(opts.swizzleSel[0], opts.swizzleSel[1], opts.swizzleSel[2],
			opts.swizzleSel[3]); err != nil {
			return nil, err
		}
	}
	if opts.preMultiply {
		// Premultiplication happens in the working layout.
		if img.Layout() != raster.RGBAF {
			if img, err = img.Convert(raster.RGBAF, false); err != nil {
				return nil, err
			}
		}
		if err = img.PreMultiplyAlpha(); err != nil {
			return nil, err
		}
	}
	if opts.resize {
		width := opts.resizeWidth.resolve(img.Width(), img.Width(), img.Height())
		height := opts.resizeHeight.resolve(img.Height(), img.Width(), img.Height())
		if img, err = img.Resize(width, height, opts.resizeFilter); err != nil {
			return nil, err
		}
	}
	return img, nil
}

// colorMaskFromSwizzle disables channels the swizzle zeroed with the x
// selector. Masking alpha also drops the alpha semantics to none.
func colorMaskFromSwizzle(opts *options) format.ColorMask {
	mask := format.AllChannels()
	if !opts.swizzle {
		return mask
	}
	if opts.swizzleSel[0] == raster.ChannelNone {
		mask.R = false
	}
	if opts.swizzleSel[1] == raster.ChannelNone {
		mask.G = false
	}
	if opts.swizzleSel[2] == raster.ChannelNone {
		mask.B = false
	}
	if opts.swizzleSel[3] == raster.ChannelNone {
		mask.A = false
		opts.alpha = format.AlphaNone
	}
	return mask
}

func buildTexture(opts *options, images map[ImageKey]*raster.Image, width, height int,
	space colorspace.Space) (*texture.Texture, int) {

	dim := format.Dim2D
	depth := 0
	switch {
	case opts.kind == inputCube || opts.kind == inputCubeArray:
		dim = format.Cube
	case opts.dimension == 1:
		dim = format.Dim1D
	case opts.dimension == 3:
		dim = format.Dim3D
	}

	layers := 0
	for key := range images {
		if key.Index+1 > layers {
			layers = key.Index + 1
		}
	}
	switch {
	case dim == format.Dim3D:
		depth = layers
	case opts.kind == inputArray || opts.kind == inputCubeArray:
		depth = layers
	}

	mipLevels := 1
	if opts.mipmap {
		if opts.mipLevels > 0 {
			mipLevels = opts.mipLevels
		} else {
			mipLevels = format.MaxMipmapLevels(dim, width, height, depth)
		}
	}

	tex, err := texture.New(dim, width, height, depth, mipLevels, space)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return nil, exitArgError
	}

	faces := 1
	if dim == format.Cube {
		faces = 6
	}
	for layer := 0; layer < maxOne(layers); layer++ {
		for face := 0; face < faces; face++ {
			key := ImageKey{Index: layer, Face: format.CubeFace(face)}
			img, ok := images[key]
			if !ok {
				fmt.Fprintf(os.Stderr, "error: missing input for layer %d face %v\n",
					layer, format.CubeFace(face))
				return nil, exitLoadError
			}
			if err := tex.SetImage(img, format.CubeFace(face), 0, layer); err != nil {
				fmt.Fprintf(os.Stderr, "error: %v\n", err)
				return nil, exitLoadError
			}
		}
	}

	if opts.mipmap || len(opts.customMips) > 0 {
		custom := texture.CustomMips{}
		for _, entry := range opts.customMips {
			img := &raster.Image{}
			if err := img.Load(entry.path, space); err != nil {
				fmt.Fprintf(os.Stderr, "error: cannot load %q: %v\n", entry.path, err)
				return nil, exitLoadError
			}
			custom[texture.ImageIndex{Face: entry.face, Mip: entry.level,
				Depth: entry.depth}] = texture.CustomMip{
				Image:       img,
				Replacement: entry.replacement,
			}
		}
		if err := tex.GenerateMipmaps(opts.mipFilter, mipLevels, custom); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return nil, exitLoadError
		}
	}
	return tex, exitSuccess
}

func maxOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// saveTexture writes the container, optionally zstd-framed when the output
// path carries a .zst suffix or --compress was given.
func saveTexture(opts *options, tex *texture.Texture) texture.SaveResult {
	output := opts.output
	compress := opts.compress
	if strings.HasSuffix(strings.ToLower(output), ".zst") {
		compress = true
	}

	fileType := opts.fileFormat
	if fileType == texture.FileTypeAuto {
		fileType = texture.FileTypeFromPath(strings.TrimSuffix(
			strings.TrimSuffix(output, ".zst"), ".ZST"))
	}

	if !compress {
		return tex.Save(output, fileType)
	}

	data, result := tex.SaveBytes(fileType)
	if result != texture.SaveSuccess {
		return result
	}
	f, err := os.Create(output)
	if err != nil {
		return texture.SaveWriteError
	}
	defer f.Close()
	if err := archive.Encode(f, data); err != nil {
		os.Remove(output)
		return texture.SaveWriteError
	}
	return texture.SaveSuccess
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `usage: texpack [options] -i input -f format -o output

Input (mutually exclusive families):
  -i, --input <file>                    single image
  -a, --array [index] <file>            array layer (repeatable)
  -c, --cube <face> <file>              cube face (+x,-x,+y,-y,+z,-z)
  -C, --cube-array <index> <face> <file>  cube array face
  -I, --input-list <kind> <file>        list file (image|array|cube|cube-array)

Manipulation:
  -r, --resize <w> <h> [filter]         sizes accept nextpo2, nearestpo2,
                                        width[-nextpo2|-nearestpo2], height...,
                                        min..., max...; filters: box, linear,
                                        cubic, b-spline, catmull-rom
  -m, --mipmap [levels] [filter]        generate mipmaps
  -M, --custom-mip <level> [depth] [face] [once|continue] <file>
      --custom-mip-list <file>
      --flipx / --flipy                 mirror the image
      --rotate <degrees>                rotate by a multiple of 90
  -n, --normalmap [wrap|wrapx|wrapy] [height]
  -g, --grayscale
  -s, --swizzle <rgba>                  each of r, g, b, a, x
      --srgb                            treat inputs as sRGB
      --pre-multiply

Output:
  -d, --dimension {1|2|3}
  -f, --format <name>
  -t, --type {unorm|snorm|uint|int|ufloat|float}
      --alpha {none|standard|pre-multiplied|encoded}
  -Q, --quality {lowest|low|normal|high|highest}
  -o, --output <file>
      --file-format {dds|ktx|pvr}
      --create-dir
      --compress                        zstd-frame the container

General:
  -j, --jobs [n]
  -q, --quiet
  -v, --verbose
  -h, --help
`)
}
