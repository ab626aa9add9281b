package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	recoDomain "github.com/davicafu/tiendalab/internal/recommendation/domain"
)

// MockCompleter simula un backend de extracción
type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, transcript []recoDomain.ChatMessage, prompt string) (string, error) {
	args := m.Called(ctx, transcript, prompt)
	return args.String(0), args.Error(1)
}

// InMemoryAnalytics acumula las filas del registro analítico.
type InMemoryAnalytics struct {
	mu      sync.Mutex
	Entries []recoDomain.QueryLog
}

func (a *InMemoryAnalytics) RecordQuery(ctx context.Context, entry recoDomain.QueryLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.Entries = append(a.Entries, entry)
	return nil
}

// Verificación estática
var _ recoDomain.Completer = (*MockCompleter)(nil)
var _ recoDomain.Analytics = (*InMemoryAnalytics)(nil)
