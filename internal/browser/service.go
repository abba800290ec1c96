// Package browser implements the database browser operations: connectivity
// probing, ad-hoc query execution and schema enumeration.
//
// Each operation opens its own single-connection session, runs its round-trips
// sequentially and hands the session back for background teardown. Driver
// errors are returned as-is; their message is what callers display.
package browser

import (
	"log/slog"
	"sync"

	"pgdeck/internal/driver"
)

// Options tunes operation behaviour.
type Options struct {
	// ReadOnly rejects statements that are not read-only before connecting.
	ReadOnly bool
	// QualifiedColumnLookup filters the per-table column lookup by schema as
	// well as table name. Off by default: like-named tables in different
	// schemas then share one column list.
	QualifiedColumnLookup bool
}

// Service runs browser operations against connection targets supplied per call.
// It holds no per-target state and is safe for concurrent use.
type Service struct {
	open     driver.Opener
	logger   *slog.Logger
	opts     Options
	sessions sync.WaitGroup
}

// New creates a Service. If logger is nil, a discard logger is used.
func New(open driver.Opener, logger *slog.Logger, opts Options) *Service {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Service{
		open:   open,
		logger: logger,
		opts:   opts,
	}
}

// Wait blocks until every session opened so far has been torn down.
func (s *Service) Wait() {
	s.sessions.Wait()
}

func (s *Service) track(sess *driver.Session) {
	s.sessions.Add(1)
	go func() {
		defer s.sessions.Done()
		<-sess.Done()
	}()
}
