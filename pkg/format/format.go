// Package format defines the texture storage formats, numeric channel types,
// and the per-format layout tables used by the converters and container
// writers.
package format

// Format is a texture storage format.
type Format int

const (
	Unknown Format = iota

	// Standard formats.
	R4G4
	R4G4B4A4
	B4G4R4A4
	A4R4G4B4
	R5G6B5
	B5G6R5
	R5G5B5A1
	B5G5R5A1
	A1R5G5B5
	R8
	R8G8
	R8G8B8
	B8G8R8
	R8G8B8A8
	B8G8R8A8
	A8B8G8R8
	A2R10G10B10
	A2B10G10R10
	R16
	R16G16
	R16G16B16
	R16G16B16A16
	R32
	R32G32
	R32G32B32
	R32G32B32A32

	// Special formats.
	B10G11R11UFloat
	E5B9G9R9UFloat

	// Compressed formats.
	BC1RGB
	BC1RGBA
	BC2
	BC3
	BC4
	BC5
	BC6H
	BC7
	ETC1
	ETC2R8G8B8
	ETC2R8G8B8A1
	ETC2R8G8B8A8
	EACR11
	EACR11G11
	ASTC4x4
	ASTC5x4
	ASTC5x5
	ASTC6x5
	ASTC6x6
	ASTC8x5
	ASTC8x6
	ASTC8x8
	ASTC10x5
	ASTC10x6
	ASTC10x8
	ASTC10x10
	ASTC12x10
	ASTC12x12
	PVRTC1RGB2BPP
	PVRTC1RGBA2BPP
	PVRTC1RGB4BPP
	PVRTC1RGBA4BPP
	PVRTC2RGBA2BPP
	PVRTC2RGBA4BPP

	formatCount
)

// Type is the numeric interpretation of a format's channels.
type Type int

const (
	UNorm Type = iota
	SNorm
	UInt
	Int
	UFloat
	Float

	typeCount
)

// Dimension is the dimensionality of a texture.
type Dimension int

const (
	Dim1D Dimension = iota
	Dim2D
	Dim3D
	Cube
)

// CubeFace identifies one side of a cube texture. PosX is also the nominal
// face for non-cube textures.
type CubeFace int

const (
	PosX CubeFace = iota
	NegX
	PosY
	NegY
	PosZ
	NegZ
)

// Alpha describes how the alpha channel relates to the color channels.
type Alpha int

const (
	AlphaNone Alpha = iota
	AlphaStandard
	AlphaPreMultiplied
	AlphaEncoded
)

// Quality is the encoder effort preset.
type Quality int

const (
	QualityLowest Quality = iota
	QualityLow
	QualityNormal
	QualityHigh
	QualityHighest
)

// ColorMask enables or disables individual channels for encoding.
type ColorMask struct {
	R, G, B, A bool
}

// AllChannels is the default mask with every channel enabled.
func AllChannels() ColorMask {
	return ColorMask{R: true, G: true, B: true, A: true}
}

type layoutInfo struct {
	blockWidth  int
	blockHeight int
	blockSize   int
	minWidth    int
	minHeight   int
	alpha       bool
	nativeSRGB  bool
}

// One row per Format, in declaration order.
var layouts = [formatCount]layoutInfo{
	Unknown: {},

	R4G4:         {1, 1, 1, 1, 1, false, false},
	R4G4B4A4:     {1, 1, 2, 1, 1, true, false},
	B4G4R4A4:     {1, 1, 2, 1, 1, true, false},
	A4R4G4B4:     {1, 1, 2, 1, 1, false, false},
	R5G6B5:       {1, 1, 2, 1, 1, false, false},
	B5G6R5:       {1, 1, 2, 1, 1, false, false},
	R5G5B5A1:     {1, 1, 2, 1, 1, true, false},
	B5G5R5A1:     {1, 1, 2, 1, 1, true, false},
	A1R5G5B5:     {1, 1, 2, 1, 1, true, false},
	R8:           {1, 1, 1, 1, 1, false, false},
	R8G8:         {1, 1, 2, 1, 1, false, false},
	R8G8B8:       {1, 1, 3, 1, 1, false, true},
	B8G8R8:       {1, 1, 3, 1, 1, false, true},
	R8G8B8A8:     {1, 1, 4, 1, 1, true, true},
	B8G8R8A8:     {1, 1, 4, 1, 1, true, true},
	A8B8G8R8:     {1, 1, 4, 1, 1, true, true},
	A2R10G10B10:  {1, 1, 4, 1, 1, true, false},
	A2B10G10R10:  {1, 1, 4, 1, 1, true, false},
	R16:          {1, 1, 2, 1, 1, false, false},
	R16G16:       {1, 1, 4, 1, 1, false, false},
	R16G16B16:    {1, 1, 6, 1, 1, false, false},
	R16G16B16A16: {1, 1, 8, 1, 1, true, false},
	R32:          {1, 1, 4, 1, 1, false, false},
	R32G32:       {1, 1, 8, 1, 1, false, false},
	R32G32B32:    {1, 1, 12, 1, 1, false, false},
	R32G32B32A32: {1, 1, 16, 1, 1, true, false},

	B10G11R11UFloat: {1, 1, 4, 1, 1, false, false},
	E5B9G9R9UFloat:  {1, 1, 4, 1, 1, false, false},

	BC1RGB:         {4, 4, 8, 4, 4, false, true},
	BC1RGBA:        {4, 4, 8, 4, 4, true, true},
	BC2:            {4, 4, 16, 4, 4, true, true},
	BC3:            {4, 4, 16, 4, 4, true, true},
	BC4:            {4, 4, 8, 4, 4, false, false},
	BC5:            {4, 4, 16, 4, 4, false, false},
	BC6H:           {4, 4, 16, 4, 4, false, false},
	BC7:            {4, 4, 16, 4, 4, true, true},
	ETC1:           {4, 4, 8, 4, 4, false, false},
	ETC2R8G8B8:     {4, 4, 8, 4, 4, false, true},
	ETC2R8G8B8A1:   {4, 4, 8, 4, 4, true, true},
	ETC2R8G8B8A8:   {4, 4, 16, 4, 4, true, true},
	EACR11:         {4, 4, 8, 4, 4, false, false},
	EACR11G11:      {4, 4, 16, 4, 4, false, false},
	ASTC4x4:        {4, 4, 16, 4, 4, true, true},
	ASTC5x4:        {5, 4, 16, 5, 4, true, true},
	ASTC5x5:        {5, 5, 16, 5, 5, true, true},
	ASTC6x5:        {6, 5, 16, 6, 5, true, true},
	ASTC6x6:        {6, 6, 16, 6, 6, true, true},
	ASTC8x5:        {8, 5, 16, 8, 5, true, true},
	ASTC8x6:        {8, 6, 16, 8, 6, true, true},
	ASTC8x8:        {8, 8, 16, 8, 8, true, true},
	ASTC10x5:       {10, 5, 16, 10, 5, true, true},
	ASTC10x6:       {10, 6, 16, 10, 6, true, true},
	ASTC10x8:       {10, 8, 16, 10, 8, true, true},
	ASTC10x10:      {10, 10, 16, 10, 10, true, true},
	ASTC12x10:      {12, 10, 16, 12, 10, true, true},
	ASTC12x12:      {12, 12, 16, 12, 12, true, true},
	PVRTC1RGB2BPP:  {8, 4, 8, 16, 8, false, true},
	PVRTC1RGBA2BPP: {8, 4, 8, 16, 8, true, true},
	PVRTC1RGB4BPP:  {4, 4, 8, 8, 8, false, true},
	PVRTC1RGBA4BPP: {4, 4, 8, 8, 8, true, true},
	PVRTC2RGBA2BPP: {8, 4, 8, 16, 8, true, true},
	PVRTC2RGBA4BPP: {4, 4, 8, 8, 8, true, true},
}

// BlockWidth returns the encoded block width in pixels, or 0 for Unknown.
func BlockWidth(f Format) int {
	if f < 0 || f >= formatCount {
		return 0
	}
	return layouts[f].blockWidth
}

// BlockHeight returns the encoded block height in pixels, or 0 for Unknown.
func BlockHeight(f Format) int {
	if f < 0 || f >= formatCount {
		return 0
	}
	return layouts[f].blockHeight
}

// BlockSize returns the encoded block size in bytes, or 0 for Unknown.
func BlockSize(f Format) int {
	if f < 0 || f >= formatCount {
		return 0
	}
	return layouts[f].blockSize
}

// MinWidth returns the minimum width supported by the format.
func MinWidth(f Format) int {
	if f < 0 || f >= formatCount {
		return 0
	}
	return layouts[f].minWidth
}

// MinHeight returns the minimum height supported by the format.
func MinHeight(f Format) int {
	if f < 0 || f >= formatCount {
		return 0
	}
	return layouts[f].minHeight
}

// HasAlpha reports whether the format stores an alpha channel.
func HasAlpha(f Format) bool {
	if f < 0 || f >= formatCount {
		return false
	}
	return layouts[f].alpha
}

// HasNativeSRGB reports whether the (format, type) pair has a native sRGB
// variant in at least one container.
func HasNativeSRGB(f Format, t Type) bool {
	if f < 0 || f >= formatCount {
		return false
	}
	return layouts[f].nativeSRGB && t == UNorm
}

// Valid reports whether the numeric type can be combined with the format.
func Valid(f Format, t Type) bool {
	if f < 0 || f >= formatCount || t < 0 || t >= typeCount {
		return false
	}
	return validMatrix[f][t]
}

// One row per Format: UNorm, SNorm, UInt, Int, UFloat, Float.
var validMatrix = [formatCount][typeCount]bool{
	Unknown: {false, false, false, false, false, false},

	R4G4:         {true, false, false, false, false, false},
	R4G4B4A4:     {true, false, false, false, false, false},
	B4G4R4A4:     {true, false, false, false, false, false},
	A4R4G4B4:     {true, false, false, false, false, false},
	R5G6B5:       {true, false, false, false, false, false},
	B5G6R5:       {true, false, false, false, false, false},
	R5G5B5A1:     {true, false, false, false, false, false},
	B5G5R5A1:     {true, false, false, false, false, false},
	A1R5G5B5:     {true, false, false, false, false, false},
	R8:           {true, true, true, true, false, false},
	R8G8:         {true, true, true, true, false, false},
	R8G8B8:       {true, true, true, true, false, false},
	B8G8R8:       {true, false, false, false, false, false},
	R8G8B8A8:     {true, true, true, true, false, false},
	B8G8R8A8:     {true, false, false, false, false, false},
	A8B8G8R8:     {true, false, false, false, false, false},
	A2R10G10B10:  {true, false, true, false, false, false},
	A2B10G10R10:  {true, false, true, false, false, false},
	R16:          {true, true, true, true, false, true},
	R16G16:       {true, true, true, true, false, true},
	R16G16B16:    {true, true, true, true, false, true},
	R16G16B16A16: {true, true, true, true, false, true},
	R32:          {false, false, true, true, false, true},
	R32G32:       {false, false, true, true, false, true},
	R32G32B32:    {false, false, true, true, false, true},
	R32G32B32A32: {false, false, true, true, false, true},

	B10G11R11UFloat: {false, false, false, false, true, false},
	E5B9G9R9UFloat:  {false, false, false, false, true, false},

	BC1RGB:         {true, false, false, false, false, false},
	BC1RGBA:        {true, false, false, false, false, false},
	BC2:            {true, false, false, false, false, false},
	BC3:            {true, false, false, false, false, false},
	BC4:            {true, true, false, false, false, false},
	BC5:            {true, true, false, false, false, false},
	BC6H:           {false, false, false, false, true, true},
	BC7:            {true, false, false, false, false, false},
	ETC1:           {true, false, false, false, false, false},
	ETC2R8G8B8:     {true, false, false, false, false, false},
	ETC2R8G8B8A1:   {true, false, false, false, false, false},
	ETC2R8G8B8A8:   {true, false, false, false, false, false},
	EACR11:         {true, true, false, false, false, false},
	EACR11G11:      {true, true, false, false, false, false},
	ASTC4x4:        {true, false, false, false, true, false},
	ASTC5x4:        {true, false, false, false, true, false},
	ASTC5x5:        {true, false, false, false, true, false},
	ASTC6x5:        {true, false, false, false, true, false},
	ASTC6x6:        {true, false, false, false, true, false},
	ASTC8x5:        {true, false, false, false, true, false},
	ASTC8x6:        {true, false, false, false, true, false},
	ASTC8x8:        {true, false, false, false, true, false},
	ASTC10x5:       {true, false, false, false, true, false},
	ASTC10x6:       {true, false, false, false, true, false},
	ASTC10x8:       {true, false, false, false, true, false},
	ASTC10x10:      {true, false, false, false, true, false},
	ASTC12x10:      {true, false, false, false, true, false},
	ASTC12x12:      {true, false, false, false, true, false},
	PVRTC1RGB2BPP:  {true, false, false, false, false, false},
	PVRTC1RGBA2BPP: {true, false, false, false, false, false},
	PVRTC1RGB4BPP:  {true, false, false, false, false, false},
	PVRTC1RGBA4BPP: {true, false, false, false, false, false},
	PVRTC2RGBA2BPP: {true, false, false, false, false, false},
	PVRTC2RGBA4BPP: {true, false, false, false, false, false},
}

// MaxMipmapLevels returns the number of levels in a full chain, including the
// base level.
func MaxMipmapLevels(dim Dimension, width, height, depth int) int {
	levels := bitLength(width)
	if h := bitLength(height); h > levels {
		levels = h
	}
	if dim == Dim3D {
		if d := bitLength(depth); d > levels {
			levels = d
		}
	}
	return levels
}

func bitLength(v int) int {
	n := 0
	for v > 0 {
		n++
		v >>= 1
	}
	return n
}
