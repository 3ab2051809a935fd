package wlanix

import "sync"

// Empty is the payload of replies that carry no data.
type Empty struct{}

// Result is the reply type for requests that can fail: either Err is a
// non-zero Errno or Value holds the success payload.
type Result[T any] struct {
	Err   Errno
	Value T
}

// Ok wraps a success value.
func Ok[T any](v T) Result[T] { return Result[T]{Value: v} }

// Fail wraps an error code.
func Fail[T any](e Errno) Result[T] { return Result[T]{Err: e} }

// Completer is a one-shot reply slot. The first Reply wins; later calls
// are no-ops. The receive side always gets exactly zero or one value and
// never blocks the replier.
type Completer[T any] struct {
	once sync.Once
	ch   chan T
	done bool
	mu   sync.Mutex
}

// NewCompleter returns a completer and the channel its reply arrives on.
func NewCompleter[T any]() (*Completer[T], <-chan T) {
	c := &Completer[T]{ch: make(chan T, 1)}
	return c, c.ch
}

// Reply delivers the response. It reports whether this call was the one
// that completed the request.
func (c *Completer[T]) Reply(v T) bool {
	sent := false
	c.once.Do(func() {
		c.ch <- v
		close(c.ch)
		c.mu.Lock()
		c.done = true
		c.mu.Unlock()
		sent = true
	})
	return sent
}

// Completed reports whether a reply has been delivered.
func (c *Completer[T]) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}
