package driver

import (
	"database/sql"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Session is a database handle that owns a background lifecycle goroutine.
// The goroutine starts with the session and tears the connection down once the
// session is released or aborted. Neither call waits for the teardown; use Wait
// to join it.
type Session struct {
	*sql.DB

	logger  *slog.Logger
	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	aborted atomic.Bool
}

// NewSession wraps an open handle and starts its lifecycle goroutine.
// If logger is nil, a discard logger is used.
func NewSession(db *sql.DB, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Session{
		DB:     db,
		logger: logger,
		stop:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Session) run() {
	defer close(s.done)
	<-s.stop

	err := s.DB.Close()
	if s.aborted.Load() {
		return
	}
	if err != nil {
		s.logger.Error("connection error", "error", err)
		return
	}
	s.logger.Debug("postgres session closed")
}

// Release hands the connection to the lifecycle goroutine for teardown and
// returns immediately. Teardown errors are logged, never returned.
func (s *Session) Release() {
	s.once.Do(func() { close(s.stop) })
}

// Abort stops the lifecycle goroutine without waiting for it and discards any
// teardown error.
func (s *Session) Abort() {
	s.aborted.Store(true)
	s.Release()
}

// Wait blocks until the lifecycle goroutine has closed the connection.
func (s *Session) Wait() {
	<-s.done
}

// Done is closed once the connection has been torn down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}
