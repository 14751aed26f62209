// Package codec contains the per-format block encoders and the parallel
// engine that drives them across a texture's image pyramid.
//
// An encoder reports its job grid, encodes one block per (x, y) job into a
// deterministic offset of its payload, and may allocate per-thread state that
// the engine hands back to every Process call on that worker.
package codec

import (
	"io"

	"github.com/goopsie/texpack/pkg/colorspace"
	"github.com/goopsie/texpack/pkg/format"
)

// Params carries the conversion request from the texture to the encoders.
type Params struct {
	Format  format.Format
	Type    format.Type
	Quality format.Quality
	Alpha   format.Alpha
	Mask    format.ColorMask
}

// ThreadData is opaque per-worker encoder state. Implementations that hold
// releasable resources also implement io.Closer; the engine closes them when
// the worker retires.
type ThreadData interface{}

// Encoder converts one image into one encoded payload.
type Encoder interface {
	// JobsX and JobsY define the job grid. jobsX*blockX >= width and
	// jobsY*blockY >= height for block formats; uncompressed encoders batch
	// along a flattened pixel index instead.
	JobsX() int
	JobsY() int

	// Process encodes the block at grid position (x, y), writing its bytes at
	// a deterministic offset of the payload.
	Process(x, y int, td ThreadData)

	// Data returns the encoded payload once every job has run.
	Data() []byte
}

// threadDataCreator is implemented by encoders that keep heavy per-thread
// state (tables, codec contexts).
type threadDataCreator interface {
	CreateThreadData() ThreadData
}

func createThreadData(e Encoder) ThreadData {
	if c, ok := e.(threadDataCreator); ok {
		return c.CreateThreadData()
	}
	return nil
}

func releaseThreadData(td ThreadData) {
	if c, ok := td.(io.Closer); ok {
		c.Close()
	}
}

// weightAlpha reports whether the alpha mode requests alpha-aware error
// weighting during compression.
func weightAlpha(alpha format.Alpha) bool {
	return alpha == format.AlphaStandard || alpha == format.AlphaPreMultiplied
}

// channelWeights maps the color space and mask onto per-channel error
// weights: Rec.709 for sRGB, uniform for linear, zero for masked channels.
func channelWeights(space colorspace.Space, mask format.ColorMask) [3]float32 {
	var w [3]float32
	if space == colorspace.SRGB {
		w = [3]float32{0.2126, 0.7152, 0.0722}
	} else {
		w = [3]float32{1, 1, 1}
	}
	if !mask.R {
		w[0] = 0
	}
	if !mask.G {
		w[1] = 0
	}
	if !mask.B {
		w[2] = 0
	}
	return w
}
