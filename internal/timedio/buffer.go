package timedio

// ChunkSize is the increment input buffers grow by.
const ChunkSize = 2000

// BufferCap returns the largest buffer Grow will produce for max: max rounded
// up to a multiple of ChunkSize.
func BufferCap(max int) int {
	if max <= 0 {
		return 0
	}
	return (max + ChunkSize - 1) / ChunkSize * ChunkSize
}

// Grow extends *buf by one chunk, preserving its contents. The buffer's
// capacity is len(*buf). If the new size would exceed BufferCap(max), Grow
// returns ErrCapExceeded and leaves *buf untouched.
func Grow(buf *[]byte, max int) error {
	size := len(*buf) + ChunkSize
	if size > BufferCap(max) {
		return ErrCapExceeded
	}

	if cap(*buf) >= size {
		*buf = (*buf)[:size]
		return nil
	}

	grown := make([]byte, size)
	copy(grown, *buf)
	*buf = grown
	return nil
}
