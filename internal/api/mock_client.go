package api

import (
	"context"
	"sync"

	"github.com/diogo/cellchat/internal/models"
)

// MockClient is a Completer for tests. When CompleteFunc is set it
// decides the reply; otherwise Completion and Err are returned.
type MockClient struct {
	Completion   *models.Completion
	Err          error
	CompleteFunc func(ctx context.Context, history []models.Message, message string) (*models.Completion, error)

	mu          sync.Mutex
	calls       int
	lastMessage string
	lastHistory []models.Message
}

var _ Completer = (*MockClient)(nil)

// Complete records the call and returns the configured reply
func (m *MockClient) Complete(ctx context.Context, history []models.Message, message string) (*models.Completion, error) {
	m.mu.Lock()
	m.calls++
	m.lastMessage = message
	m.lastHistory = append([]models.Message(nil), history...)
	fn := m.CompleteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, history, message)
	}
	return m.Completion, m.Err
}

// Calls returns how many times Complete ran
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// LastMessage returns the message of the latest call
func (m *MockClient) LastMessage() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastMessage
}

// LastHistory returns a copy of the history of the latest call
func (m *MockClient) LastHistory() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.Message(nil), m.lastHistory...)
}
