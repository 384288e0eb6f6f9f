package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"eventportal/internal/model"
)

const eventColumns = `
	id, title, description, event_date, to_char(event_time, 'HH24:MI'), location,
	event_type, capacity, price, organizer_id, is_active, created_at, updated_at
`

func scanEvent(row scanner) (*model.Event, error) {
	var e model.Event
	if err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Time, &e.Location,
		&e.Type, &e.Capacity, &e.Price, &e.OrganizerID, &e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) CreateEvent(ctx context.Context, e *model.Event) (int64, error) {
	query := `
		INSERT INTO events (title, description, event_date, event_time, location, event_type, capacity, price, organizer_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		e.Title, e.Description, e.Date.Format("2006-01-02"), e.Time, e.Location,
		e.Type, e.Capacity, e.Price, e.OrganizerID,
	).Scan(&e.ID, &e.IsActive, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert event: %w", err)
	}
	return e.ID, nil
}

// GetEventByID returns the event whether or not it is still active.
func (r *repository) GetEventByID(ctx context.Context, id int64) (*model.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`

	e, err := scanEvent(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return e, nil
}

func (r *repository) ListActiveEvents(ctx context.Context) ([]model.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM events
		WHERE is_active
		ORDER BY event_date ASC, event_time ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get events: %w", err)
	}
	defer rows.Close()

	events := make([]model.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}

	return events, nil
}

// DeactivateEvent hides the event from listings; its rows stay in place so
// registrations and payments keep pointing at it.
func (r *repository) DeactivateEvent(ctx context.Context, id int64) error {
	query := `
		UPDATE events
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate event: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to deactivate event: %w", err)
	}
	if n == 0 {
		return ErrEventNotFound
	}
	return nil
}

func (r *repository) EventStats(ctx context.Context, eventID int64) (model.EventStats, error) {
	stats := model.EventStats{EventID: eventID, Revenue: decimal.Zero}

	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
	).Scan(&stats.Registrations); err != nil {
		return stats, fmt.Errorf("failed to count registrations: %w", err)
	}

	query := `
		SELECT COALESCE(SUM(p.amount), 0)
		FROM payments p
		JOIN registrations r ON p.registration_id = r.id
		WHERE r.event_id = $1 AND p.payment_status = $2
	`
	if err := r.db.QueryRowContext(ctx, query, eventID, model.PaymentSuccess).Scan(&stats.Revenue); err != nil {
		return stats, fmt.Errorf("failed to sum revenue: %w", err)
	}

	return stats, nil
}
