package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
	"github.com/goopsie/texpack/pkg/texture"
)

func TestParseArgsMinimal(t *testing.T) {
	opts, err := parseArgs([]string{"-i", "in.png", "-f", "BC1_RGB", "-o", "out.dds"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.kind != inputSingle || len(opts.inputs) != 1 {
		t.Errorf("unexpected inputs: %+v", opts.inputs)
	}
	if opts.fmt != format.BC1RGB {
		t.Errorf("format = %v", opts.fmt)
	}
	if opts.typ != format.UNorm {
		t.Errorf("default type = %v, expected unorm", opts.typ)
	}
	if opts.quality != format.QualityNormal {
		t.Errorf("default quality = %v", opts.quality)
	}
	if opts.output != "out.dds" {
		t.Errorf("output = %q", opts.output)
	}
}

func TestParseArgsMissingRequired(t *testing.T) {
	cases := [][]string{
		{"-f", "BC1_RGB", "-o", "out.dds"},
		{"-i", "in.png", "-o", "out.dds"},
		{"-i", "in.png", "-f", "BC1_RGB"},
		{"-i", "in.png", "-f", "nope", "-o", "out.dds"},
		{"--bogus"},
	}
	for _, args := range cases {
		if _, err := parseArgs(args); err == nil {
			t.Errorf("parseArgs(%v) should fail", args)
		}
	}
}

func TestParseArgsMixedInputs(t *testing.T) {
	if _, err := parseArgs([]string{"-i", "a.png", "-c", "+x", "b.png", "-f", "BC1_RGB",
		"-o", "out.dds"}); err == nil {
		t.Error("mixing input families should fail")
	}
}

func TestParseArgsCube(t *testing.T) {
	opts, err := parseArgs([]string{
		"-c", "+x", "px.png", "-c", "-x", "nx.png", "-c", "+y", "py.png",
		"-c", "-y", "ny.png", "-c", "+z", "pz.png", "-c", "-z", "nz.png",
		"-f", "BC1_RGB", "-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.kind != inputCube || len(opts.inputs) != 6 {
		t.Fatalf("cube inputs = %d", len(opts.inputs))
	}
	if opts.inputs[5].face != format.NegZ {
		t.Errorf("last face = %v", opts.inputs[5].face)
	}
}

func TestParseArgsResize(t *testing.T) {
	opts, err := parseArgs([]string{"-i", "in.png", "-r", "256", "nextpo2", "linear",
		"-f", "R8G8B8A8", "-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if !opts.resize {
		t.Fatal("resize not enabled")
	}
	if opts.resizeWidth.value != 256 {
		t.Errorf("width = %+v", opts.resizeWidth)
	}
	if opts.resizeHeight.keyword != "nextpo2" {
		t.Errorf("height = %+v", opts.resizeHeight)
	}
	if opts.resizeFilter != raster.FilterLinear {
		t.Errorf("filter = %v", opts.resizeFilter)
	}
}

func TestParseArgsMipmapOptionals(t *testing.T) {
	opts, err := parseArgs([]string{"-i", "in.png", "-m", "-f", "R8G8B8A8", "-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if !opts.mipmap || opts.mipLevels != -1 {
		t.Errorf("bare -m: mipmap=%v levels=%d", opts.mipmap, opts.mipLevels)
	}

	opts, err = parseArgs([]string{"-i", "in.png", "-m", "4", "box", "-f", "R8G8B8A8",
		"-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.mipLevels != 4 || opts.mipFilter != raster.FilterBox {
		t.Errorf("levels=%d filter=%v", opts.mipLevels, opts.mipFilter)
	}
}

func TestParseArgsCustomMip(t *testing.T) {
	opts, err := parseArgs([]string{"-i", "in.png", "-M", "2", "continue", "mip2.png",
		"-f", "R8G8B8A8", "-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if len(opts.customMips) != 1 {
		t.Fatalf("custom mips = %d", len(opts.customMips))
	}
	entry := opts.customMips[0]
	if entry.level != 2 || entry.replacement != texture.ReplaceContinue ||
		entry.path != "mip2.png" {
		t.Errorf("entry = %+v", entry)
	}
}

func TestParseArgsCustomMipFull(t *testing.T) {
	opts, err := parseArgs([]string{"-i", "in.png", "-M", "1", "3", "-y", "once",
		"mip.png", "-f", "R8G8B8A8", "-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	entry := opts.customMips[0]
	if entry.level != 1 || entry.depth != 3 || entry.face != format.NegY ||
		entry.replacement != texture.ReplaceOnce {
		t.Errorf("entry = %+v", entry)
	}
}

func TestParseArgsSwizzle(t *testing.T) {
	opts, err := parseArgs([]string{"-i", "in.png", "-s", "rgbx", "-f", "R8G8B8A8",
		"-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if !opts.swizzle {
		t.Fatal("swizzle not enabled")
	}
	if opts.swizzleSel[3] != raster.ChannelNone {
		t.Errorf("alpha selector = %v", opts.swizzleSel[3])
	}
	mask := colorMaskFromSwizzle(opts)
	if mask.A {
		t.Error("x on alpha must clear the alpha mask bit")
	}
	if opts.alpha != format.AlphaNone {
		t.Error("x on alpha must set alpha semantics to none")
	}
}

func TestParseArgsPreMultiply(t *testing.T) {
	opts, err := parseArgs([]string{"-i", "in.png", "--pre-multiply", "-f", "R8G8B8A8",
		"-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.alpha != format.AlphaPreMultiplied {
		t.Errorf("alpha = %v, expected pre-multiplied", opts.alpha)
	}

	// An explicit --alpha wins over the premultiply default.
	opts, err = parseArgs([]string{"-i", "in.png", "--alpha", "encoded", "--pre-multiply",
		"-f", "R8G8B8A8", "-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.alpha != format.AlphaEncoded {
		t.Errorf("alpha = %v, expected encoded", opts.alpha)
	}
}

func TestParseArgsRotateValidation(t *testing.T) {
	if _, err := parseArgs([]string{"-i", "in.png", "--rotate", "45", "-f", "R8G8B8A8",
		"-o", "out.ktx"}); err == nil {
		t.Error("rotation by 45 degrees should fail")
	}
	if _, err := parseArgs([]string{"-i", "in.png", "--rotate", "-90", "-f", "R8G8B8A8",
		"-o", "out.ktx"}); err != nil {
		t.Errorf("rotation by -90 should parse: %v", err)
	}
}

func TestParseArgsInputList(t *testing.T) {
	dir := t.TempDir()
	listPath := filepath.Join(dir, "faces.txt")
	content := "# cube faces\n+x px.png\n-x nx.png\n+y py.png\n-y ny.png\n+z pz.png\n-z nz.png\n"
	if err := os.WriteFile(listPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	opts, err := parseArgs([]string{"-I", "cube", listPath, "-f", "BC1_RGB", "-o",
		"out.pvr"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.kind != inputCube || len(opts.inputs) != 6 {
		t.Fatalf("inputs = %d, kind = %v", len(opts.inputs), opts.kind)
	}
}

func TestSizeSpecResolve(t *testing.T) {
	tests := []struct {
		spec     string
		axis     int
		expected int
	}{
		{"128", 100, 128},
		{"nextpo2", 100, 128},
		{"nearestpo2", 100, 128},
		{"nearestpo2", 65, 64},
		{"width", 100, 200},
		{"height", 100, 50},
		{"min", 100, 50},
		{"max", 100, 200},
		{"width-nextpo2", 100, 256},
		{"min-nearestpo2", 100, 64},
	}
	for _, test := range tests {
		spec, err := parseSizeSpec(test.spec)
		if err != nil {
			t.Errorf("parseSizeSpec(%s) failed: %v", test.spec, err)
			continue
		}
		// Source image is 200x50.
		if got := spec.resolve(test.axis, 200, 50); got != test.expected {
			t.Errorf("%s resolved to %d, expected %d", test.spec, got, test.expected)
		}
	}
}

func TestParseArgsJobs(t *testing.T) {
	opts, err := parseArgs([]string{"-i", "in.png", "-j", "4", "-f", "R8G8B8A8", "-o",
		"out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.jobs != 4 {
		t.Errorf("jobs = %d", opts.jobs)
	}

	opts, err = parseArgs([]string{"-i", "in.png", "-j", "-f", "R8G8B8A8", "-o", "out.ktx"})
	if err != nil {
		t.Fatal(err)
	}
	if opts.jobs != texture.AllCores {
		t.Errorf("bare -j should select all cores")
	}
}
