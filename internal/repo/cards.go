package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventportal/internal/model"
)

const insertCardQuery = `
	INSERT INTO saved_cards (user_id, card_holder_name, card_number_encrypted, cvv_encrypted, expiry_date)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING id, created_at
`

// AddSavedCard stores a card whose number and CVV are already encrypted.
func (r *repository) AddSavedCard(ctx context.Context, card *model.SavedCard) (int64, error) {
	err := r.db.QueryRowContext(ctx, insertCardQuery,
		card.UserID, card.HolderName, card.CardNumberEncrypted, card.CVVEncrypted, card.ExpiryDate,
	).Scan(&card.ID, &card.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to save card: %w", err)
	}
	return card.ID, nil
}

func (r *repository) ListSavedCards(ctx context.Context, userID int64) ([]model.SavedCard, error) {
	query := `
		SELECT id, user_id, card_holder_name, card_number_encrypted, cvv_encrypted, expiry_date, created_at
		FROM saved_cards
		WHERE user_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get saved cards: %w", err)
	}
	defer rows.Close()

	cards := make([]model.SavedCard, 0)
	for rows.Next() {
		var c model.SavedCard
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.HolderName, &c.CardNumberEncrypted, &c.CVVEncrypted, &c.ExpiryDate, &c.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan saved card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate saved cards: %w", err)
	}

	return cards, nil
}

// GetSavedCard only finds cards owned by userID.
func (r *repository) GetSavedCard(ctx context.Context, userID, cardID int64) (*model.SavedCard, error) {
	query := `
		SELECT id, user_id, card_holder_name, card_number_encrypted, cvv_encrypted, expiry_date, created_at
		FROM saved_cards
		WHERE id = $1 AND user_id = $2
	`

	var c model.SavedCard
	if err := r.db.QueryRowContext(ctx, query, cardID, userID).Scan(
		&c.ID, &c.UserID, &c.HolderName, &c.CardNumberEncrypted, &c.CVVEncrypted, &c.ExpiryDate, &c.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCardNotFound
		}
		return nil, fmt.Errorf("failed to get saved card: %w", err)
	}
	return &c, nil
}
