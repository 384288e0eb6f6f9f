package portal

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"eventportal/internal/model"
	"eventportal/internal/repo"
	"eventportal/internal/secret"
	"eventportal/internal/session"
	"eventportal/pkg/validator"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserCreate         = errors.New("failed to create user")
	ErrEventNotFound      = errors.New("event not found")
	ErrEventInactive      = errors.New("event is not open for registration")
	ErrNoCheckout         = errors.New("no checkout in progress")
	ErrCardNotFound       = errors.New("saved card not found")
	ErrCardUnreadable     = errors.New("saved card cannot be read")
	ErrAlreadyPaid        = errors.New("registration already paid")
)

func init() {
	validator.SetEventTypes(model.EventTypes)
}

// CheckoutStore remembers the one payment each user still has to make.
type CheckoutStore interface {
	Put(ctx context.Context, userID int64, c session.Checkout) error
	Get(ctx context.Context, userID int64) (*session.Checkout, error)
	Delete(ctx context.Context, userID int64) error
	TTL() time.Duration
}

// Notifier hands notifications to whoever mails them. A delay of zero means
// deliver now.
type Notifier interface {
	Notify(ctx context.Context, n model.Notification, delay time.Duration) error
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, model.Notification, time.Duration) error { return nil }

type Portal struct {
	repo      repo.Repository
	checkouts CheckoutStore
	cipher    *secret.Cipher
	notifier  Notifier
	log       *zerolog.Logger
	now       func() time.Time
}

func New(r repo.Repository, checkouts CheckoutStore, cipher *secret.Cipher, notifier Notifier, log *zerolog.Logger) *Portal {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Portal{
		repo:      r,
		checkouts: checkouts,
		cipher:    cipher,
		notifier:  notifier,
		log:       log,
		now:       time.Now,
	}
}

func (p *Portal) Ping(ctx context.Context) error {
	return p.repo.Ping(ctx)
}

// notify never fails the caller; a lost email is logged and counted.
func (p *Portal) notify(ctx context.Context, n model.Notification, delay time.Duration) {
	if err := p.notifier.Notify(ctx, n, delay); err != nil {
		p.log.Warn().Err(err).
			Str("kind", n.Kind).
			Int64("registration_id", n.RegistrationID).
			Msg("failed to queue notification")
	}
}
