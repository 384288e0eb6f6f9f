package consumerWorker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/wb-go/wbf/zlog"

	"eventportal/internal/mailer"
	"eventportal/internal/metrics"
	"eventportal/internal/model"
	"eventportal/internal/repo"
)

type Consumer interface {
	Consume(ctx context.Context, handler func(context.Context, []byte) error) error
}

type Sender interface {
	Send(to, subject, body string) error
}

// RegistrationReader is the part of the repository the worker needs.
type RegistrationReader interface {
	GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error)
}

type Reader struct {
	rmq    Consumer
	repo   RegistrationReader
	mail   Sender
	done   chan struct{}
	cancel context.CancelFunc
}

func NewReader(rmq Consumer, repo RegistrationReader, mail Sender) *Reader {
	return &Reader{
		rmq:  rmq,
		repo: repo,
		mail: mail,
		done: make(chan struct{}),
	}
}

func (r *Reader) Start(ctx context.Context) {
	cctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	zlog.Logger.Info().Msg("notification reader started")

	go func() {
		defer close(r.done)

		if err := r.rmq.Consume(cctx, r.Handle); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to consume notifications")
			return
		}
		zlog.Logger.Info().Msg("notification reader stopped")
	}()
}

func (r *Reader) Stop() {
	if r.cancel != nil {
		r.cancel()
		<-r.done
	}
}

// Handle processes one message. Malformed and unknown messages are dropped
// without error so they are not redelivered forever.
func (r *Reader) Handle(ctx context.Context, body []byte) error {
	var n model.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		zlog.Logger.Error().Err(err).Msg("dropping malformed notification")
		metrics.Notifications.WithLabelValues("unknown", "malformed").Inc()
		return nil
	}

	log := zlog.Logger.With().
		Str("kind", n.Kind).
		Int64("registration_id", n.RegistrationID).
		Logger()

	var subject, text string
	switch n.Kind {
	case model.NotifyPaymentSucceeded:
		subject, text = mailer.ReceiptMessage(n)

	case model.NotifyPaymentReminder:
		reg, err := r.repo.GetRegistrationByID(ctx, n.RegistrationID)
		if err != nil {
			if errors.Is(err, repo.ErrRegistrationNotFound) {
				log.Warn().Msg("registration gone, reminder dropped")
				return nil
			}
			return fmt.Errorf("load registration %d: %w", n.RegistrationID, err)
		}
		if reg.Status != model.RegistrationPending {
			log.Info().Msg("registration already paid, reminder skipped")
			metrics.Notifications.WithLabelValues(n.Kind, "skipped").Inc()
			return nil
		}
		subject, text = mailer.ReminderMessage(n)

	default:
		log.Warn().Msg("dropping notification of unknown kind")
		metrics.Notifications.WithLabelValues("unknown", "dropped").Inc()
		return nil
	}

	if n.Email == "" {
		log.Warn().Msg("notification has no recipient")
		return nil
	}

	if err := r.mail.Send(n.Email, subject, text); err != nil {
		metrics.Notifications.WithLabelValues(n.Kind, "send_failed").Inc()
		return err
	}

	metrics.Notifications.WithLabelValues(n.Kind, "sent").Inc()
	log.Info().Msg("notification email sent")
	return nil
}
