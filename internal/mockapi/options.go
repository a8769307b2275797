package mockapi

import "github.com/okian/runboard/pkg/logger"

// Option customizes a Server.
type Option func(*Server)

// WithLogger sets the logger used by the server.
func WithLogger(log logger.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}
