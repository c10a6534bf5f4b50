package testutil

import (
	"context"
	"sync"

	"storefront/internal/notifications"
)

// MailerStub records messages and fails with Err when it is set. FailOn
// limits failures to one template.
type MailerStub struct {
	mu     sync.Mutex
	Sent   []notifications.Message
	Err    error
	FailOn string
}

// Send records msg or returns the configured error.
func (m *MailerStub) Send(_ context.Context, msg notifications.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil && (m.FailOn == "" || m.FailOn == msg.Template) {
		return m.Err
	}
	m.Sent = append(m.Sent, msg)
	return nil
}

// Templates returns the template names of the sent messages in order.
func (m *MailerStub) Templates() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.Sent))
	for i, msg := range m.Sent {
		out[i] = msg.Template
	}
	return out
}
