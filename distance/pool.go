package distance

import (
	"sync"
	"sync/atomic"
)

// bufferPool recycles the scratch matrices of the vectorized batch path so
// that classifying many queries against the same reference set does not
// allocate an n×d matrix per query.
type bufferPool struct {
	pool     sync.Pool
	created  int64
	recycled int64
}

// BufferStats reports scratch buffer reuse of the vectorized strategy.
type BufferStats struct {
	Created  int64
	Recycled int64
}

func newBufferPool() *bufferPool {
	bp := &bufferPool{}
	bp.pool.New = func() interface{} {
		atomic.AddInt64(&bp.created, 1)
		return new([]float64)
	}
	return bp
}

// get returns a buffer of length n. 内容は不定なので呼び出し側で上書きすること。
func (bp *bufferPool) get(n int) *[]float64 {
	buf := bp.pool.Get().(*[]float64)
	if cap(*buf) < n {
		*buf = make([]float64, n)
	}
	*buf = (*buf)[:n]
	return buf
}

func (bp *bufferPool) put(buf *[]float64) {
	atomic.AddInt64(&bp.recycled, 1)
	bp.pool.Put(buf)
}

func (bp *bufferPool) stats() BufferStats {
	return BufferStats{
		Created:  atomic.LoadInt64(&bp.created),
		Recycled: atomic.LoadInt64(&bp.recycled),
	}
}

var scratch = newBufferPool()

// ScratchStats returns the scratch buffer counters of the vectorized strategy.
func ScratchStats() BufferStats {
	return scratch.stats()
}
