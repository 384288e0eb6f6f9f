package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"eventportal/internal/metrics"
	"eventportal/internal/model"
	"eventportal/internal/repo"
	"eventportal/internal/session"
	"eventportal/pkg/validator"
)

type Contact struct {
	Name  string `json:"contact_name" validate:"required,max=200"`
	Email string `json:"contact_email" validate:"required,email,max=255"`
}

// RegisterResult carries Payment for free events and Checkout with the
// user's saved cards for paid ones.
type RegisterResult struct {
	Registration *model.Registration
	Payment      *model.Payment
	Checkout     *session.Checkout
	SavedCards   []model.MaskedCard
}

type NewCard struct {
	HolderName string `json:"card_holder_name" validate:"required,max=200"`
	Number     string `json:"card_number" validate:"required,cardnumber"`
	CVV        string `json:"cvv" validate:"required,cvv"`
	ExpiryDate string `json:"expiry_date" validate:"required,expiry"`
	Save       bool   `json:"save"`
}

// PayRequest names exactly one of a saved card or a new card.
type PayRequest struct {
	CardID  *int64
	NewCard *NewCard
}

// Register creates a pending registration for an active event. Free events
// are settled on the spot; paid ones leave a checkout behind.
func (p *Portal) Register(ctx context.Context, userID, eventID int64, contact Contact) (*RegisterResult, error) {
	event, err := p.lookupEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	if !event.IsActive {
		return nil, ErrEventInactive
	}

	contact, err = p.fillContact(ctx, userID, contact)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(ctx, contact); err != nil {
		return nil, err
	}

	reg := &model.Registration{
		UserID:       userID,
		EventID:      event.ID,
		ContactName:  contact.Name,
		ContactEmail: contact.Email,
		Status:       model.RegistrationPending,
	}
	if event.IsFree() {
		return p.settleFree(ctx, event, reg)
	}

	if _, err := p.repo.CreateRegistration(ctx, reg); err != nil {
		return nil, err
	}

	metrics.Registrations.WithLabelValues("paid").Inc()

	c := session.Checkout{
		RegistrationID: reg.ID,
		EventID:        event.ID,
		EventTitle:     event.Title,
		ContactEmail:   reg.ContactEmail,
		Amount:         event.Price,
		CreatedAt:      p.now(),
	}
	if err := p.checkouts.Put(ctx, userID, c); err != nil {
		return nil, err
	}

	cards, err := p.SavedCards(ctx, userID)
	if err != nil {
		return nil, err
	}

	p.notify(ctx, model.Notification{
		Kind:           model.NotifyPaymentReminder,
		RegistrationID: reg.ID,
		EventID:        event.ID,
		UserID:         userID,
		Email:          reg.ContactEmail,
		EventTitle:     event.Title,
		Amount:         event.Price,
	}, p.checkouts.TTL())

	p.log.Info().Int64("registration_id", reg.ID).Int64("event_id", event.ID).Msg("registration pending payment")
	return &RegisterResult{Registration: reg, Checkout: &c, SavedCards: cards}, nil
}

// fillContact defaults empty contact fields to the account's own details.
func (p *Portal) fillContact(ctx context.Context, userID int64, c Contact) (Contact, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = normalizeEmail(c.Email)
	if c.Name != "" && c.Email != "" {
		return c, nil
	}

	u, err := p.GetUser(ctx, userID)
	if err != nil {
		return c, fmt.Errorf("load user %d: %w", userID, err)
	}
	if c.Name == "" {
		c.Name = strings.TrimSpace(u.FirstName + " " + u.LastName)
	}
	if c.Email == "" {
		c.Email = u.Email
	}
	return c, nil
}

// settleFree stores the registration and its zero payment in one go.
func (p *Portal) settleFree(ctx context.Context, event *model.Event, reg *model.Registration) (*RegisterResult, error) {
	pay := &model.Payment{
		Amount: decimal.Zero,
		Type:   model.PaymentTypeFree,
	}
	if err := p.repo.RegisterFreeTx(ctx, reg, pay); err != nil {
		return nil, err
	}

	metrics.Registrations.WithLabelValues("free").Inc()
	metrics.Payments.WithLabelValues(pay.Type).Inc()

	p.notify(ctx, model.Notification{
		Kind:           model.NotifyPaymentSucceeded,
		RegistrationID: reg.ID,
		EventID:        event.ID,
		UserID:         reg.UserID,
		Email:          reg.ContactEmail,
		EventTitle:     event.Title,
		Amount:         pay.Amount,
		PaymentType:    pay.Type,
	}, 0)

	p.log.Info().Int64("registration_id", reg.ID).Int64("event_id", event.ID).Msg("free registration confirmed")
	return &RegisterResult{Registration: reg, Payment: pay}, nil
}

func (p *Portal) loadCheckout(ctx context.Context, userID int64) (*session.Checkout, error) {
	c, err := p.checkouts.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, session.ErrNoCheckout) {
			return nil, ErrNoCheckout
		}
		return nil, err
	}
	return c, nil
}

// Checkout returns the pending payment and the cards it can be paid with.
func (p *Portal) Checkout(ctx context.Context, userID int64) (*session.Checkout, []model.MaskedCard, error) {
	c, err := p.loadCheckout(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	cards, err := p.SavedCards(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return c, cards, nil
}

// CancelCheckout forgets the pending payment. The registration itself stays
// Pending.
func (p *Portal) CancelCheckout(ctx context.Context, userID int64) error {
	c, err := p.loadCheckout(ctx, userID)
	if err != nil {
		return err
	}
	if err := p.checkouts.Delete(ctx, userID); err != nil {
		return err
	}
	p.log.Info().Int64("registration_id", c.RegistrationID).Msg("checkout cancelled")
	return nil
}

// Pay records the payment for the user's checkout. Card details are only
// held in memory here and never logged.
func (p *Portal) Pay(ctx context.Context, userID int64, req PayRequest) (*model.Payment, error) {
	c, err := p.loadCheckout(ctx, userID)
	if err != nil {
		return nil, err
	}

	if (req.CardID == nil) == (req.NewCard == nil) {
		return nil, &validator.ValidationError{Field: "card", Tag: "required", Message: "Choose a saved card or enter a new one"}
	}

	pay := &model.Payment{
		RegistrationID: c.RegistrationID,
		UserID:         userID,
		Amount:         c.Amount,
	}

	var newCard *model.SavedCard
	if req.CardID != nil {
		if err := p.checkSavedCard(ctx, userID, *req.CardID); err != nil {
			return nil, err
		}
		cardID := *req.CardID
		pay.CardID = &cardID
		pay.Type = model.PaymentTypeSaved
	} else {
		typed := *req.NewCard
		newCard, err = p.prepareCard(ctx, userID, &typed)
		if err != nil {
			return nil, err
		}
		pay.Type = model.PaymentTypeOneTime
		if newCard != nil {
			pay.Type = model.PaymentTypeSaved
		}
	}

	if _, err := p.repo.RecordPaymentTx(ctx, pay, newCard); err != nil {
		switch {
		case errors.Is(err, repo.ErrAlreadyPaid):
			p.dropCheckout(ctx, userID)
			return nil, ErrAlreadyPaid
		case errors.Is(err, repo.ErrRegistrationNotFound):
			p.dropCheckout(ctx, userID)
			return nil, ErrNoCheckout
		}
		return nil, err
	}

	p.dropCheckout(ctx, userID)
	metrics.Payments.WithLabelValues(pay.Type).Inc()

	p.notify(ctx, model.Notification{
		Kind:           model.NotifyPaymentSucceeded,
		RegistrationID: c.RegistrationID,
		EventID:        c.EventID,
		UserID:         userID,
		Email:          c.ContactEmail,
		EventTitle:     c.EventTitle,
		Amount:         pay.Amount,
		PaymentType:    pay.Type,
	}, 0)

	p.log.Info().
		Int64("registration_id", c.RegistrationID).
		Int64("payment_id", pay.ID).
		Str("payment_type", pay.Type).
		Msg("payment recorded")
	return pay, nil
}

func (p *Portal) dropCheckout(ctx context.Context, userID int64) {
	if err := p.checkouts.Delete(ctx, userID); err != nil {
		p.log.Warn().Err(err).Int64("user_id", userID).Msg("failed to clear checkout")
	}
}

// checkSavedCard makes sure the card is the user's and still decrypts.
func (p *Portal) checkSavedCard(ctx context.Context, userID, cardID int64) error {
	card, err := p.repo.GetSavedCard(ctx, userID, cardID)
	if err != nil {
		if errors.Is(err, repo.ErrCardNotFound) {
			return ErrCardNotFound
		}
		return err
	}
	if _, err := p.cipher.Decrypt(card.CardNumberEncrypted); err != nil {
		p.log.Error().Int64("card_id", cardID).Msg("saved card number cannot be decrypted")
		return ErrCardUnreadable
	}
	if _, err := p.cipher.Decrypt(card.CVVEncrypted); err != nil {
		p.log.Error().Int64("card_id", cardID).Msg("saved card cvv cannot be decrypted")
		return ErrCardUnreadable
	}
	return nil
}

func (c *NewCard) normalize() {
	c.HolderName = strings.TrimSpace(c.HolderName)
	c.Number = strings.NewReplacer(" ", "", "-", "").Replace(c.Number)
	c.CVV = strings.TrimSpace(c.CVV)
	c.ExpiryDate = strings.TrimSpace(c.ExpiryDate)
}

// prepareCard normalizes and validates a typed card in place and, when it is
// to be kept, returns it encrypted for storage. A one-time card yields nil.
func (p *Portal) prepareCard(ctx context.Context, userID int64, in *NewCard) (*model.SavedCard, error) {
	in.normalize()

	if err := validator.Validate(ctx, in); err != nil {
		return nil, err
	}
	if !in.Save {
		return nil, nil
	}

	number, err := p.cipher.Encrypt(in.Number)
	if err != nil {
		return nil, err
	}
	cvv, err := p.cipher.Encrypt(in.CVV)
	if err != nil {
		return nil, err
	}

	return &model.SavedCard{
		UserID:              userID,
		HolderName:          in.HolderName,
		CardNumberEncrypted: number,
		CVVEncrypted:        cvv,
		ExpiryDate:          in.ExpiryDate,
	}, nil
}
