package worker

import (
	"go.uber.org/zap"
)

// Subscriber attaches its handlers to the shared event dispatcher.
type Subscriber interface {
	RegisterHandlers()
}

// StartEventHandlers registers every subscriber once at startup. Nil entries
// are skipped.
func StartEventHandlers(logger *zap.Logger, subscribers ...Subscriber) int {
	if logger == nil {
		logger = zap.NewNop()
	}
	registered := 0
	for _, s := range subscribers {
		if s == nil {
			continue
		}
		s.RegisterHandlers()
		registered++
	}
	logger.Debug("event handlers registered", zap.Int("subscribers", registered))
	return registered
}
