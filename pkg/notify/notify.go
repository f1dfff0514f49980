// Package notify collects transient user-facing notifications (toasts).
package notify

import (
	"sync"
	"time"

	"staybook/pkg/logger"

	"github.com/google/uuid"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Source    string    `json:"source"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}

type Notifier interface {
	Notify(level Level, source, message string)
}

// Inbox keeps the most recent notifications until they are drained. Oldest
// entries are dropped once capacity is reached.
type Inbox struct {
	mu       sync.Mutex
	items    []Notification
	capacity int
	log      *logger.Logger
}

func NewInbox(capacity int, log *logger.Logger) *Inbox {
	if capacity <= 0 {
		capacity = 1
	}
	return &Inbox{capacity: capacity, log: log}
}

func (in *Inbox) Notify(level Level, source, message string) {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Source:    source,
		Message:   message,
		CreatedAt: time.Now(),
	}

	in.mu.Lock()
	if len(in.items) == in.capacity {
		in.items = in.items[1:]
	}
	in.items = append(in.items, n)
	in.mu.Unlock()

	switch level {
	case LevelError:
		in.log.Warn("User notified of failure", "source", source, "message", message)
	default:
		in.log.Debug("User notified", "source", source, "level", string(level), "message", message)
	}
}

// Drain returns and clears the pending notifications, oldest first.
func (in *Inbox) Drain() []Notification {
	in.mu.Lock()
	defer in.mu.Unlock()

	out := in.items
	in.items = nil
	if out == nil {
		return []Notification{}
	}
	return out
}

func (in *Inbox) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.items)
}
