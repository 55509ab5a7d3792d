//go:build debug

package channel

// New creates the channel used for command flow. Debug builds get an
// unbuffered channel (size is ignored) so every command rendezvouses with
// its handler, making interleavings deterministic under test.
func New[T any](size int) Channel[T] {
	return NewUnbuffered[T]()
}
