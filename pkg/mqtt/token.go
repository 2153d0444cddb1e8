package mqtt

import "time"

// errorToken is an already completed token carrying err.
type errorToken struct {
	err  error
	done chan struct{}
}

func newErrorToken(err error) *errorToken {
	done := make(chan struct{})
	close(done)
	return &errorToken{err: err, done: done}
}

func (t *errorToken) Wait() bool                     { return true }
func (t *errorToken) WaitTimeout(time.Duration) bool { return true }
func (t *errorToken) Done() <-chan struct{}          { return t.done }
func (t *errorToken) Error() error                   { return t.err }
