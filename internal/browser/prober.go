package browser

import (
	"context"
)

// Probe reports whether a connection to target can be established.
// Every failure collapses to false. On success the session is aborted at once
// instead of being shut down gracefully.
func (s *Service) Probe(ctx context.Context, target string) bool {
	sess, err := s.open(ctx, target)
	if err != nil {
		s.logger.Debug("probe failed", "error", err)
		return false
	}
	s.track(sess)
	sess.Abort()
	return true
}
