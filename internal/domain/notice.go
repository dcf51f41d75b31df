package domain

import "time"

// Notice levels.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

// Notice is a user-facing notification emitted after an operation
// finishes. The dashboard renders these as toasts.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}
