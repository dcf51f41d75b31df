// Package notify implements the notification surface. Notices are
// fire-and-forget: they are logged and kept in a bounded ring so the
// dashboard can render them as toasts, and never fail the caller.
package notify

import (
	"sync"
	"time"

	"github.com/adstack/adboard-bff-go/internal/domain"

	"go.uber.org/zap"
)

// Ring is a bounded in-memory notifier (implements port.Notifier).
type Ring struct {
	mu      sync.Mutex
	notices []domain.Notice
	cap     int
	logger  *zap.Logger
}

// NewRing creates a notifier keeping the last capacity notices.
func NewRing(capacity int, logger *zap.Logger) *Ring {
	if capacity <= 0 {
		capacity = 50
	}
	return &Ring{
		notices: make([]domain.Notice, 0, capacity),
		cap:     capacity,
		logger:  logger,
	}
}

// Success records a success notice.
func (r *Ring) Success(msg string) {
	r.logger.Info("notice", zap.String("level", domain.NoticeSuccess), zap.String("message", msg))
	r.push(domain.Notice{Level: domain.NoticeSuccess, Message: msg, At: time.Now()})
}

// Error records an error notice.
func (r *Ring) Error(msg string) {
	r.logger.Warn("notice", zap.String("level", domain.NoticeError), zap.String("message", msg))
	r.push(domain.Notice{Level: domain.NoticeError, Message: msg, At: time.Now()})
}

// Recent returns the stored notices, newest first.
func (r *Ring) Recent() []domain.Notice {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Notice, len(r.notices))
	for i, n := range r.notices {
		out[len(r.notices)-1-i] = n
	}
	return out
}

func (r *Ring) push(n domain.Notice) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.notices) == r.cap {
		copy(r.notices, r.notices[1:])
		r.notices = r.notices[:r.cap-1]
	}
	r.notices = append(r.notices, n)
}
