package codec

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/goopsie/texpack/pkg/format"
	"github.com/goopsie/texpack/pkg/raster"
)

// AllCores requests one worker per hardware thread.
const AllCores = ^uint(0)

// newEncoder selects the encoder for a (format, type) pair, or nil when the
// combination has no encoding.
func newEncoder(p Params, img *raster.Image) Encoder {
	switch p.Format {
	case format.R4G4:
		if p.Type == format.UNorm {
			return newR4G4Encoder(img)
		}
	case format.R4G4B4A4:
		if p.Type == format.UNorm {
			return newR4G4B4A4Encoder(img)
		}
	case format.B4G4R4A4:
		if p.Type == format.UNorm {
			return newB4G4R4A4Encoder(img)
		}
	case format.A4R4G4B4:
		if p.Type == format.UNorm {
			return newA4R4G4B4Encoder(img)
		}
	case format.R5G6B5:
		if p.Type == format.UNorm {
			return newR5G6B5Encoder(img)
		}
	case format.B5G6R5:
		if p.Type == format.UNorm {
			return newB5G6R5Encoder(img)
		}
	case format.R5G5B5A1:
		if p.Type == format.UNorm {
			return newR5G5B5A1Encoder(img)
		}
	case format.B5G5R5A1:
		if p.Type == format.UNorm {
			return newB5G5R5A1Encoder(img)
		}
	case format.A1R5G5B5:
		if p.Type == format.UNorm {
			return newA1R5G5B5Encoder(img)
		}
	case format.R8, format.R8G8, format.R8G8B8, format.R8G8B8A8:
		channels := map[format.Format]int{format.R8: 1, format.R8G8: 2,
			format.R8G8B8: 3, format.R8G8B8A8: 4}[p.Format]
		switch p.Type {
		case format.UNorm:
			return newUNormEncoder(img, 1, channels)
		case format.SNorm:
			return newSNormEncoder(img, 1, channels)
		case format.UInt, format.Int:
			return newIntEncoder(img, 1, channels, p.Type == format.Int)
		}
	case format.B8G8R8:
		if p.Type == format.UNorm {
			return newB8G8R8Encoder(img)
		}
	case format.B8G8R8A8:
		if p.Type == format.UNorm {
			return newB8G8R8A8Encoder(img)
		}
	case format.A8B8G8R8:
		if p.Type == format.UNorm {
			return newA8B8G8R8Encoder(img)
		}
	case format.A2R10G10B10:
		switch p.Type {
		case format.UNorm:
			return newA2R10G10B10UNormEncoder(img)
		case format.UInt:
			return newA2R10G10B10UIntEncoder(img)
		}
	case format.A2B10G10R10:
		switch p.Type {
		case format.UNorm:
			return newA2B10G10R10UNormEncoder(img)
		case format.UInt:
			return newA2B10G10R10UIntEncoder(img)
		}
	case format.R16, format.R16G16, format.R16G16B16, format.R16G16B16A16:
		channels := map[format.Format]int{format.R16: 1, format.R16G16: 2,
			format.R16G16B16: 3, format.R16G16B16A16: 4}[p.Format]
		switch p.Type {
		case format.UNorm:
			return newUNormEncoder(img, 2, channels)
		case format.SNorm:
			return newSNormEncoder(img, 2, channels)
		case format.UInt, format.Int:
			return newIntEncoder(img, 2, channels, p.Type == format.Int)
		case format.Float:
			return newFloatEncoder(img, 2, channels)
		}
	case format.R32, format.R32G32, format.R32G32B32, format.R32G32B32A32:
		channels := map[format.Format]int{format.R32: 1, format.R32G32: 2,
			format.R32G32B32: 3, format.R32G32B32A32: 4}[p.Format]
		switch p.Type {
		case format.UInt, format.Int:
			return newIntEncoder(img, 4, channels, p.Type == format.Int)
		case format.Float:
			return newFloatEncoder(img, 4, channels)
		}
	case format.B10G11R11UFloat:
		if p.Type == format.UFloat {
			return newB10G11R11UFloatEncoder(img)
		}
	case format.E5B9G9R9UFloat:
		if p.Type == format.UFloat {
			return newE5B9G9R9UFloatEncoder(img)
		}
	case format.BC1RGB:
		if p.Type == format.UNorm {
			return newBC1Encoder(p, img)
		}
	case format.BC1RGBA:
		if p.Type == format.UNorm {
			return newBC1AEncoder(p, img)
		}
	case format.BC2:
		if p.Type == format.UNorm {
			return newBC2Encoder(p, img)
		}
	case format.BC3:
		if p.Type == format.UNorm {
			return newBC3Encoder(p, img)
		}
	case format.BC4:
		switch p.Type {
		case format.UNorm:
			return newBC4Encoder(p, img, false)
		case format.SNorm:
			return newBC4Encoder(p, img, true)
		}
	case format.BC5:
		switch p.Type {
		case format.UNorm:
			return newBC5Encoder(p, img, false)
		case format.SNorm:
			return newBC5Encoder(p, img, true)
		}
	case format.BC6H:
		switch p.Type {
		case format.UFloat:
			return newBC6HEncoder(p, img, false)
		case format.Float:
			return newBC6HEncoder(p, img, true)
		}
	case format.BC7:
		if p.Type == format.UNorm {
			return newBC7Encoder(p, img)
		}
	case format.ETC1, format.ETC2R8G8B8, format.ETC2R8G8B8A1, format.ETC2R8G8B8A8:
		if p.Type == format.UNorm {
			return newETCEncoder(p, img)
		}
	case format.EACR11, format.EACR11G11:
		if p.Type == format.UNorm || p.Type == format.SNorm {
			return newETCEncoder(p, img)
		}
	case format.ASTC4x4, format.ASTC5x4, format.ASTC5x5, format.ASTC6x5, format.ASTC6x6,
		format.ASTC8x5, format.ASTC8x6, format.ASTC8x8, format.ASTC10x5, format.ASTC10x6,
		format.ASTC10x8, format.ASTC10x10, format.ASTC12x10, format.ASTC12x12:
		if p.Type == format.UNorm || p.Type == format.UFloat {
			return newASTCEncoder(p, img, format.BlockWidth(p.Format),
				format.BlockHeight(p.Format))
		}
	case format.PVRTC1RGB2BPP, format.PVRTC1RGBA2BPP, format.PVRTC1RGB4BPP,
		format.PVRTC1RGBA4BPP, format.PVRTC2RGBA2BPP, format.PVRTC2RGBA4BPP:
		if p.Type == format.UNorm {
			return newPVRTCEncoder(p, img)
		}
	}
	return nil
}

// Convert encodes every (mip, depth, face) slot of the image pyramid and
// returns the matching payload pyramid. Each source image is released as soon
// as its slot completes. Encoder selection may fail only on the very first
// slot; failure aborts the whole conversion with no partial output.
func Convert(p Params, images [][][]*raster.Image, threadCount uint) ([][][][]byte, bool) {
	if threadCount == AllCores {
		threadCount = uint(runtime.NumCPU())
	}

	out := make([][][][]byte, len(images))
	for mip := range images {
		out[mip] = make([][][]byte, len(images[mip]))
		for d := range images[mip] {
			out[mip][d] = make([][]byte, len(images[mip][d]))
			for f := range images[mip][d] {
				encoder := newEncoder(p, images[mip][d][f])
				if encoder == nil {
					// Selection depends only on (format, type), so this can
					// only happen before any work has run.
					return nil, false
				}

				runJobs(encoder, threadCount)

				images[mip][d][f].Reset()
				out[mip][d][f] = encoder.Data()
			}
		}
	}
	return out, true
}

// runJobs executes the encoder's job grid, serially or on a worker pool with
// an atomic cursor. Block outputs land at fixed offsets, so the cursor only
// decides which worker handles a job, never where its bytes go.
func runJobs(encoder Encoder, threadCount uint) {
	jobsX := encoder.JobsX()
	jobsY := encoder.JobsY()
	jobCount := jobsX * jobsY

	curThreads := int(threadCount)
	if jobCount < curThreads {
		curThreads = jobCount
	}
	if curThreads <= 1 {
		td := createThreadData(encoder)
		for y := 0; y < jobsY; y++ {
			for x := 0; x < jobsX; x++ {
				encoder.Process(x, y, td)
			}
		}
		releaseThreadData(td)
		return
	}

	// Allocate every worker's state before spawning so codecs that touch
	// global state during setup initialize serially.
	threadData := make([]ThreadData, curThreads)
	for i := range threadData {
		threadData[i] = createThreadData(encoder)
	}

	var cursor atomic.Uint32
	var wg sync.WaitGroup
	for i := 0; i < curThreads; i++ {
		wg.Add(1)
		go func(td ThreadData) {
			defer wg.Done()
			for {
				job := int(cursor.Add(1)) - 1
				if job >= jobCount {
					return
				}
				encoder.Process(job%jobsX, job/jobsX, td)
			}
		}(threadData[i])
	}
	wg.Wait()

	for _, td := range threadData {
		releaseThreadData(td)
	}
}
