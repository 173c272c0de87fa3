package engine

import "sync"

// ArgBuffer holds bind arguments for one statement.
type ArgBuffer struct {
	args []any
}

// Reset clears the buffer for reuse, dropping value references.
func (ab *ArgBuffer) Reset() {
	clear(ab.args)
	ab.args = ab.args[:0]
}

// EnsureCapacity grows the buffer if needed
func (ab *ArgBuffer) EnsureCapacity(size int) {
	if cap(ab.args) < size {
		ab.args = make([]any, 0, size)
	}
}

// maxPooledArgs keeps huge batches from pinning memory in the pool.
const maxPooledArgs = 1 << 16

var argPool = sync.Pool{
	New: func() interface{} {
		return &ArgBuffer{
			args: make([]any, 0, 64),
		}
	},
}

func getArgBuffer(size int) *ArgBuffer {
	ab := argPool.Get().(*ArgBuffer)
	ab.Reset()
	ab.EnsureCapacity(size)
	return ab
}

func putArgBuffer(ab *ArgBuffer) {
	if cap(ab.args) > maxPooledArgs {
		return
	}
	ab.Reset()
	argPool.Put(ab)
}
