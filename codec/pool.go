package codec

import "sync"

const (
	// Pool limits to prevent memory bloat
	poolMaxCap  = 64 << 10
	poolInitCap = 256
)

var writerPool = sync.Pool{
	New: func() any {
		return &writer{buf: make([]byte, 0, poolInitCap)}
	},
}

func getWriter() *writer {
	return writerPool.Get().(*writer)
}

func putWriter(w *writer) {
	if w == nil || cap(w.buf) > poolMaxCap {
		return // reject oversized
	}
	w.buf = w.buf[:0]
	writerPool.Put(w)
}
