package mailer

import (
	"errors"
	"net/smtp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventportal/internal/model"
)

func TestSend_SkipsWithoutHost(t *testing.T) {
	log := zerolog.Nop()
	m := New(Config{}, &log)
	called := false
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	require.NoError(t, m.Send("jane@x.com", "hi", "body"))
	assert.False(t, called)
}

func TestSend_UsesConfiguredServer(t *testing.T) {
	log := zerolog.Nop()
	m := New(Config{Host: "smtp.example.com", Username: "portal@example.com", Password: "pw"}, &log)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	m.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		assert.NotNil(t, a)
		return nil
	}

	require.NoError(t, m.Send("jane@x.com", "Subject line", "Body text"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "portal@example.com", gotFrom)
	assert.Equal(t, []string{"jane@x.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Subject line\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\nBody text")

	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }
	assert.Error(t, m.Send("jane@x.com", "s", "b"))
}

func TestMessages(t *testing.T) {
	n := model.Notification{RegistrationID: 9, EventTitle: "Go Workshop", Amount: decimal.RequireFromString("25")}

	subject, body := ReceiptMessage(n)
	assert.Equal(t, "Your registration for Go Workshop is confirmed", subject)
	assert.Contains(t, body, "Amount paid: 25.00")
	assert.Contains(t, body, "Registration number: 9")

	n.Amount = decimal.Zero
	_, body = ReceiptMessage(n)
	assert.Contains(t, body, "free")

	subject, body = ReminderMessage(model.Notification{EventTitle: "Go Workshop", Amount: decimal.RequireFromString("25")})
	assert.Equal(t, "Payment pending for Go Workshop", subject)
	assert.Contains(t, body, "25.00")
}
