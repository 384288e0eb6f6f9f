package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventportal/internal/model"
)

func (r *repository) CreateRegistration(ctx context.Context, reg *model.Registration) (int64, error) {
	if reg.Status == "" {
		reg.Status = model.RegistrationPending
	}

	query := `
		INSERT INTO registrations (user_id, event_id, contact_name, contact_email, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		reg.UserID, reg.EventID, reg.ContactName, reg.ContactEmail, reg.Status,
	).Scan(&reg.ID, &reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create registration: %w", err)
	}
	return reg.ID, nil
}

func (r *repository) GetRegistrationByID(ctx context.Context, id int64) (*model.Registration, error) {
	query := `
		SELECT id, user_id, event_id, contact_name, contact_email, status, created_at, updated_at
		FROM registrations
		WHERE id = $1
	`

	var reg model.Registration
	if err := r.db.QueryRowContext(ctx, query, id).Scan(
		&reg.ID,
		&reg.UserID,
		&reg.EventID,
		&reg.ContactName,
		&reg.ContactEmail,
		&reg.Status,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("failed to get registration: %w", err)
	}

	return &reg, nil
}

// ListUserRegistrations returns, per event, only the user's most recent
// registration together with the status of its most recent payment.
func (r *repository) ListUserRegistrations(ctx context.Context, userID int64) ([]model.UserRegistration, error) {
	query := `
		SELECT r.id, e.id, e.title, e.description, e.event_date, to_char(e.event_time, 'HH24:MI'),
		       e.location, e.price, r.status,
		       (SELECT p.payment_status
		        FROM payments p
		        WHERE p.registration_id = r.id
		        ORDER BY p.created_at DESC, p.id DESC
		        LIMIT 1)
		FROM registrations r
		JOIN events e ON r.event_id = e.id
		WHERE r.user_id = $1
		  AND r.id = (
		        SELECT MAX(r2.id)
		        FROM registrations r2
		        WHERE r2.user_id = r.user_id
		          AND r2.event_id = r.event_id
		  )
		ORDER BY e.event_date ASC, e.event_time ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user registrations: %w", err)
	}
	defer rows.Close()

	regs := make([]model.UserRegistration, 0)
	for rows.Next() {
		var (
			ur            model.UserRegistration
			paymentStatus sql.NullString
		)
		if err := rows.Scan(
			&ur.RegistrationID, &ur.EventID, &ur.Title, &ur.Description, &ur.Date, &ur.Time,
			&ur.Location, &ur.Price, &ur.RegistrationStatus, &paymentStatus,
		); err != nil {
			return nil, fmt.Errorf("failed to scan registration: %w", err)
		}
		if paymentStatus.Valid {
			s := paymentStatus.String
			ur.PaymentStatus = &s
		}
		regs = append(regs, ur)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate registrations: %w", err)
	}

	return regs, nil
}
