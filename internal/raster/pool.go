package raster

import "sync"

const (
	// Buffer retention thresholds - buffers larger than these are released
	// so one oversized render does not pin memory in the pool.
	maxRetainPix   = 64 << 20 // A4 at 600 dpi is ~35M pixels
	maxRetainRects = 1 << 16
)

// pixPool holds page pixel buffers for recycled bitmap surfaces.
//
// A painter that exports each page as soon as it is finished never needs more
// than one live page, so rendering many pages or re-rendering the same text
// reuses a handful of buffers instead of allocating ~9MB per A4 page.
var pixPool = sync.Pool{
	New: func() interface{} {
		return new([]uint8)
	},
}

// rectPool manages per-placement command buffers.
var rectPool = sync.Pool{
	New: func() interface{} {
		// a 5x5 glyph has at most 25 cells
		buf := make([]Rect, 0, 32)
		return &buf
	},
}

// acquirePix returns a zeroed (white) buffer of n pixels.
func acquirePix(n int) []uint8 {
	bufPtr := pixPool.Get().(*[]uint8)
	buf := *bufPtr
	if cap(buf) < n {
		return make([]uint8, n)
	}
	buf = buf[:n]
	clear(buf)
	return buf
}

// releasePix returns a pixel buffer to the pool.
func releasePix(buf []uint8) {
	if buf == nil || cap(buf) > maxRetainPix {
		return
	}
	pixPool.Put(&buf)
}

func acquireRects() []Rect {
	bufPtr := rectPool.Get().(*[]Rect)
	return (*bufPtr)[:0]
}

func releaseRects(buf []Rect) {
	if buf == nil || cap(buf) > maxRetainRects {
		return
	}
	rectPool.Put(&buf)
}
