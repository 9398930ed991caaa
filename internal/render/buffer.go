package render

// DefaultBufferSize is the initial capacity of a render buffer.
const DefaultBufferSize = 10_000_000

// Buffer is a byte sink addressed by offset. Writes past the end grow it.
type Buffer struct {
	b []byte
}

func NewBuffer(size int) *Buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Buffer{b: make([]byte, 0, size)}
}

// WriteAt writes s at off and returns the number of bytes written. Content
// after off+len(s) is kept.
func (b *Buffer) WriteAt(off int, s string) int {
	end := off + len(s)
	if end > len(b.b) {
		if end > cap(b.b) {
			grown := make([]byte, len(b.b), max(end, 2*cap(b.b)))
			copy(grown, b.b)
			b.b = grown
		}
		b.b = b.b[:end]
	}
	copy(b.b[off:end], s)
	return len(s)
}

// Bytes returns the content up to n.
func (b *Buffer) Bytes(n int) []byte {
	return b.b[:min(n, len(b.b))]
}

func (b *Buffer) String(n int) string {
	return string(b.Bytes(n))
}

// Len is the highest offset written so far.
func (b *Buffer) Len() int { return len(b.b) }

// Reset truncates the buffer, keeping its capacity.
func (b *Buffer) Reset() { b.b = b.b[:0] }
