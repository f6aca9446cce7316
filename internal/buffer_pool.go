package internal

import "sync"

// BufferPool recycles fixed-size read buffers.
type BufferPool struct {
	size int
	pool sync.Pool
}

func NewBufferPool(size int) *BufferPool {
	p := &BufferPool{size: size}
	p.pool.New = func() any {
		buf := make([]byte, size)
		return &buf
	}
	return p
}

// Size returns the length of the buffers handed out.
func (p *BufferPool) Size() int {
	return p.size
}

func (p *BufferPool) Get() *[]byte {
	return p.pool.Get().(*[]byte)
}

// Put returns buf to the pool. Buffers of another size are dropped.
func (p *BufferPool) Put(buf *[]byte) {
	if buf == nil || len(*buf) != p.size {
		return
	}
	p.pool.Put(buf)
}
