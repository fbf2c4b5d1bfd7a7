// Package notify delivers compliance review notifications.
package notify

import (
	"context"
	"fmt"
	"sync"

	"custodia/internal/risk/models"
	"custodia/internal/sentinel"
	id "custodia/pkg/domain"
)

// Memory keeps sent notifications in memory. Used by the offline CLI and
// when no broker is configured.
type Memory struct {
	mu   sync.RWMutex
	sent []models.Notification
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Send(_ context.Context, n *models.Notification) (id.NotificationID, error) {
	if n == nil {
		return id.NotificationID{}, fmt.Errorf("notification is required: %w", sentinel.ErrInvalidInput)
	}
	c := *n
	if c.ID.IsNil() {
		c.ID = id.NewNotificationID()
	}
	m.mu.Lock()
	m.sent = append(m.sent, c)
	m.mu.Unlock()
	return c.ID, nil
}

// Sent returns a snapshot of every notification, oldest first.
func (m *Memory) Sent() []models.Notification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Notification, len(m.sent))
	copy(out, m.sent)
	return out
}
