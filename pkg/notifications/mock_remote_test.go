package notifications

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockRemote for testing Store
type MockRemote struct {
	mock.Mock
}

func (m *MockRemote) List(ctx context.Context, opts ListOptions) ([]Notification, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Notification), args.Error(1)
}

func (m *MockRemote) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockRemote) MarkRead(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	if fn, ok := args.Get(0).(func(context.Context, string) error); ok {
		return fn(ctx, id)
	}
	return args.Error(0)
}

func (m *MockRemote) MarkAllRead(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockRemote) Delete(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}
