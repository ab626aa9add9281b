package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	sharedDomain "github.com/davicafu/tiendalab/internal/shared/domain"
)

// MockOutboxRepository simula el repo del outbox
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Enqueue(ctx context.Context, msg sharedDomain.OutboxMessage) (int64, error) {
	args := m.Called(ctx, msg)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) Claim(ctx context.Context, limit int) (sharedDomain.ClaimedBatch, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(sharedDomain.ClaimedBatch), args.Error(1)
}

func (m *MockOutboxRepository) CountPending(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) DeleteSentBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

// MockClaimedBatch simula un lote reclamado
type MockClaimedBatch struct {
	mock.Mock
}

func (m *MockClaimedBatch) Records() []sharedDomain.OutboxRecord {
	args := m.Called()
	return args.Get(0).([]sharedDomain.OutboxRecord)
}

func (m *MockClaimedBatch) MarkSent(ctx context.Context, ids []int64) error {
	args := m.Called(ctx, ids)
	return args.Error(0)
}

func (m *MockClaimedBatch) MarkFailed(ctx context.Context, ids []int64, cause string) error {
	args := m.Called(ctx, ids, cause)
	return args.Error(0)
}

func (m *MockClaimedBatch) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPublisher simula un publisher
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}
