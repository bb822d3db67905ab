package retry

import "github.com/ppiankov/docquiz/internal/logging"

// LogTransitions returns an OnTransition hook that logs every state change
// and then forwards it to next (may be nil).
func LogTransitions(log *logging.Logger, next func(Transition)) func(Transition) {
	log = logging.OrNop(log)
	return func(t Transition) {
		switch t.To {
		case StateAttempting:
			log.Warn("attempt failed, retrying", "attempt", t.Attempt, "backoff", t.Delay, "error", t.Err)
		case StateFailed:
			log.Error("giving up", "attempt", t.Attempt, "error", t.Err)
		case StateSucceeded:
			log.Debug("attempt succeeded", "attempt", t.Attempt)
		}
		if next != nil {
			next(t)
		}
	}
}
