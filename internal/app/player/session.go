package player

import "github.com/google/uuid"

// Session is the handle returned by Play. It completes when the worker
// exits, whether the queue drained, Stop was called, or the backend
// failed. The no-op cases (already playing, empty queue) return handles
// that are complete on arrival.
type Session struct {
	ID uuid.UUID

	done chan struct{}
	err  error
}

func newSession() *Session {
	return &Session{ID: uuid.New(), done: make(chan struct{})}
}

func completedSession() *Session {
	s := newSession()
	s.finish(nil)
	return s
}

// finish records the outcome and releases waiters. Called exactly once.
func (s *Session) finish(err error) {
	s.err = err
	close(s.done)
}

// Done returns a channel that is closed when the session has ended.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Wait blocks until the session ends and returns its error.
func (s *Session) Wait() error {
	<-s.done
	return s.err
}

// Err returns the session error, or nil while the session is running.
func (s *Session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}
