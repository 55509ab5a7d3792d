package channel

// Unbuffered wraps an unbuffered Go channel. Every Send rendezvouses with
// its Receive, which surfaces ordering bugs that a buffer would mask.
type Unbuffered[T any] struct {
	ch chan T
}

// NewUnbuffered creates an unbuffered channel.
func NewUnbuffered[T any]() *Unbuffered[T] {
	return &Unbuffered[T]{ch: make(chan T)}
}

// Send blocks until a receiver takes the value.
func (u *Unbuffered[T]) Send(v T) {
	u.ch <- v
}

// Receive returns the receive side of the channel.
func (u *Unbuffered[T]) Receive() <-chan T {
	return u.ch
}

// Len always returns 0 for unbuffered channels.
func (u *Unbuffered[T]) Len() int {
	return 0
}

// Close closes the channel. No sends may follow.
func (u *Unbuffered[T]) Close() {
	close(u.ch)
}
