package portal

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"eventportal/internal/model"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n model.Notification, delay time.Duration) error {
	args := m.Called(ctx, n, delay)
	return args.Error(0)
}
