package mailer

import (
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"eventportal/internal/model"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type Mailer struct {
	cfg  Config
	log  *zerolog.Logger
	send sendFunc
}

func New(cfg Config, log *zerolog.Logger) *Mailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	return &Mailer{cfg: cfg, log: log, send: smtp.SendMail}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.Host != ""
}

// Send delivers a plain-text message. Without an SMTP host it only logs.
func (m *Mailer) Send(to, subject, body string) error {
	if !m.Enabled() {
		m.log.Info().Str("to", to).Str("subject", subject).Msg("smtp not configured, email skipped")
		return nil
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/plain; charset=UTF-8\r\n\r\n%s",
		m.cfg.From, to, subject, body,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(addr, auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		m.log.Warn().Err(err).Str("to", to).Msg("failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	m.log.Info().Str("to", to).Str("subject", subject).Msg("email sent")
	return nil
}

func ReceiptMessage(n model.Notification) (string, string) {
	subject := fmt.Sprintf("Your registration for %s is confirmed", n.EventTitle)

	var b strings.Builder
	fmt.Fprintf(&b, "Hello!\n\nYour registration for \"%s\" is confirmed.\n", n.EventTitle)
	if n.Amount.IsZero() {
		b.WriteString("This event is free, nothing was charged.\n")
	} else {
		fmt.Fprintf(&b, "Amount paid: %s\n", n.Amount.StringFixed(2))
	}
	fmt.Fprintf(&b, "Registration number: %d\n\nSee you there!", n.RegistrationID)
	return subject, b.String()
}

func ReminderMessage(n model.Notification) (string, string) {
	subject := fmt.Sprintf("Payment pending for %s", n.EventTitle)
	body := fmt.Sprintf(
		"Hello!\n\nYou started registering for \"%s\" but the payment of %s has not been completed.\nSign in and open your registrations to finish it.",
		n.EventTitle, n.Amount.StringFixed(2),
	)
	return subject, body
}
