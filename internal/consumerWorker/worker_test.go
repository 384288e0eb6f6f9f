package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"

	"eventportal/internal/model"
	"eventportal/internal/repo"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

type mockSender struct {
	mock.Mock
}

func (m *mockSender) Send(to, subject, body string) error {
	return m.Called(to, subject, body).Error(0)
}

type mockRegistrations struct {
	mock.Mock
}

func (m *mockRegistrations) GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error) {
	args := m.Called(ctx, id)
	reg, _ := args.Get(0).(*model.Registration)
	return reg, args.Error(1)
}

type chanConsumer struct {
	bodies [][]byte
}

func (c *chanConsumer) Consume(ctx context.Context, handler func(context.Context, []byte) error) error {
	for _, b := range c.bodies {
		_ = handler(ctx, b)
	}
	<-ctx.Done()
	return nil
}

func encode(t *testing.T, n model.Notification) []byte {
	t.Helper()
	b, err := json.Marshal(n)
	require.NoError(t, err)
	return b
}

func notification(kind string) model.Notification {
	return model.Notification{
		Kind:           kind,
		RegistrationID: 11,
		EventID:        3,
		UserID:         7,
		Email:          "jane@x.com",
		EventTitle:     "Go Workshop",
		Amount:         decimal.RequireFromString("25"),
	}
}

func TestHandle_ReceiptIsMailed(t *testing.T) {
	mail := &mockSender{}
	regs := &mockRegistrations{}
	mail.On("Send", "jane@x.com", "Your registration for Go Workshop is confirmed", mock.Anything).Return(nil)

	r := NewReader(nil, regs, mail)
	require.NoError(t, r.Handle(context.Background(), encode(t, notification(model.NotifyPaymentSucceeded))))

	mail.AssertExpectations(t)
	regs.AssertNotCalled(t, "GetRegistrationByID", mock.Anything, mock.Anything)
}

func TestHandle_ReminderOnlyWhilePending(t *testing.T) {
	ctx := context.Background()

	pending := &mockRegistrations{}
	pending.On("GetRegistrationByID", mock.Anything, int64(11)).Return(&model.Registration{ID: 11, Status: model.RegistrationPending}, nil)
	mail := &mockSender{}
	mail.On("Send", "jane@x.com", "Payment pending for Go Workshop", mock.Anything).Return(nil)

	require.NoError(t, NewReader(nil, pending, mail).Handle(ctx, encode(t, notification(model.NotifyPaymentReminder))))
	mail.AssertNumberOfCalls(t, "Send", 1)

	paid := &mockRegistrations{}
	paid.On("GetRegistrationByID", mock.Anything, int64(11)).Return(&model.Registration{ID: 11, Status: model.RegistrationSuccess}, nil)
	quiet := &mockSender{}

	require.NoError(t, NewReader(nil, paid, quiet).Handle(ctx, encode(t, notification(model.NotifyPaymentReminder))))
	quiet.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandle_Errors(t *testing.T) {
	ctx := context.Background()

	gone := &mockRegistrations{}
	gone.On("GetRegistrationByID", mock.Anything, int64(11)).Return(nil, repo.ErrRegistrationNotFound)
	assert.NoError(t, NewReader(nil, gone, &mockSender{}).Handle(ctx, encode(t, notification(model.NotifyPaymentReminder))))

	down := &mockRegistrations{}
	down.On("GetRegistrationByID", mock.Anything, int64(11)).Return(nil, errors.New("db down"))
	assert.Error(t, NewReader(nil, down, &mockSender{}).Handle(ctx, encode(t, notification(model.NotifyPaymentReminder))))

	failing := &mockSender{}
	failing.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))
	assert.Error(t, NewReader(nil, &mockRegistrations{}, failing).Handle(ctx, encode(t, notification(model.NotifyPaymentSucceeded))))

	r := NewReader(nil, &mockRegistrations{}, &mockSender{})
	assert.NoError(t, r.Handle(ctx, []byte("{not json")))
	assert.NoError(t, r.Handle(ctx, encode(t, notification("party_invite"))))
}

func TestReader_StartStop(t *testing.T) {
	sent := make(chan struct{}, 1)
	mail := &mockSender{}
	mail.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Run(func(mock.Arguments) {
		sent <- struct{}{}
	})

	consumer := &chanConsumer{bodies: [][]byte{encode(t, notification(model.NotifyPaymentSucceeded))}}
	r := NewReader(consumer, &mockRegistrations{}, mail)

	r.Start(context.Background())
	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("notification was not mailed")
	}
	r.Stop()
}
