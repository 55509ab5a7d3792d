//go:build !debug

package channel

// New creates the channel used for command flow. Production builds get a
// buffered channel sized by the caller.
func New[T any](size int) Channel[T] {
	return NewBuffered[T](size)
}
