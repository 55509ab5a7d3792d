package channel

// Buffered wraps a buffered Go channel. Sends block only when the buffer
// is full, which lets the console prompt stay responsive while a long
// import runs.
type Buffered[T any] struct {
	ch chan T
}

// NewBuffered creates a buffered channel with the given capacity.
func NewBuffered[T any](size int) *Buffered[T] {
	return &Buffered[T]{ch: make(chan T, size)}
}

// Send enqueues a value, blocking while the buffer is full.
func (b *Buffered[T]) Send(v T) {
	b.ch <- v
}

// Receive returns the receive side of the channel.
func (b *Buffered[T]) Receive() <-chan T {
	return b.ch
}

// Len returns the number of queued values.
func (b *Buffered[T]) Len() int {
	return len(b.ch)
}

// Close closes the channel. No sends may follow.
func (b *Buffered[T]) Close() {
	close(b.ch)
}
