package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"eventportal/internal/model"
)

// RecordPaymentTx stores the payment and flips its registration to Success
// as one unit. When newCard is set the card is saved in the same
// transaction and the payment points at it.
func (r *repository) RecordPaymentTx(ctx context.Context, p *model.Payment, newCard *model.SavedCard) (int64, error) {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			_ = tx.Rollback()
			panic(rec)
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx, `
		SELECT status
		FROM registrations
		WHERE id = $1 AND user_id = $2
		FOR UPDATE
	`, p.RegistrationID, p.UserID).Scan(&status)
	if err != nil {
		_ = tx.Rollback()
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrRegistrationNotFound
		}
		return 0, fmt.Errorf("failed to lock registration: %w", err)
	}
	if status == model.RegistrationSuccess {
		_ = tx.Rollback()
		return 0, ErrAlreadyPaid
	}

	if newCard != nil {
		err = tx.QueryRowContext(ctx, insertCardQuery,
			newCard.UserID, newCard.HolderName, newCard.CardNumberEncrypted, newCard.CVVEncrypted, newCard.ExpiryDate,
		).Scan(&newCard.ID, &newCard.CreatedAt)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("failed to save card: %w", err)
		}
		cardID := newCard.ID
		p.CardID = &cardID
	}

	if p.TxnID == "" {
		p.TxnID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.PaymentSuccess
	}

	var cardID sql.NullInt64
	if p.CardID != nil {
		cardID = sql.NullInt64{Int64: *p.CardID, Valid: true}
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (registration_id, user_id, card_id, amount, payment_type, payment_status, txn_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, p.RegistrationID, p.UserID, cardID, p.Amount, p.Type, p.Status, p.TxnID).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to insert payment: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE registrations
		SET status = $1, updated_at = NOW()
		WHERE id = $2
	`, model.RegistrationSuccess, p.RegistrationID); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("failed to update registration status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return p.ID, nil
}

// RegisterFreeTx inserts an already settled registration together with its
// payment. Neither row exists unless both do.
func (r *repository) RegisterFreeTx(ctx context.Context, reg *model.Registration, p *model.Payment) error {
	tx, err := r.db.Master.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}

	defer func() {
		if rec := recover(); rec != nil {
			_ = tx.Rollback()
			panic(rec)
		}
	}()

	reg.Status = model.RegistrationSuccess
	err = tx.QueryRowContext(ctx, `
		INSERT INTO registrations (user_id, event_id, contact_name, contact_email, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`, reg.UserID, reg.EventID, reg.ContactName, reg.ContactEmail, reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to create registration: %w", err)
	}

	p.RegistrationID = reg.ID
	p.UserID = reg.UserID
	if p.TxnID == "" {
		p.TxnID = uuid.NewString()
	}
	if p.Status == "" {
		p.Status = model.PaymentSuccess
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO payments (registration_id, user_id, card_id, amount, payment_type, payment_status, txn_id)
		VALUES ($1, $2, NULL, $3, $4, $5, $6)
		RETURNING id, created_at
	`, p.RegistrationID, p.UserID, p.Amount, p.Type, p.Status, p.TxnID).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to insert payment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
