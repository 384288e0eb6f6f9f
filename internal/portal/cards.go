package portal

import (
	"context"

	"eventportal/internal/model"
	"eventportal/internal/secret"
)

// SavedCards lists the user's cards with masked numbers. Cards that no
// configured key can read are left out.
func (p *Portal) SavedCards(ctx context.Context, userID int64) ([]model.MaskedCard, error) {
	cards, err := p.repo.ListSavedCards(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]model.MaskedCard, 0, len(cards))
	for _, c := range cards {
		number, err := p.cipher.Decrypt(c.CardNumberEncrypted)
		if err != nil {
			p.log.Warn().Int64("card_id", c.ID).Msg("skipping saved card that cannot be decrypted")
			continue
		}
		out = append(out, model.MaskedCard{
			ID:         c.ID,
			HolderName: c.HolderName,
			Number:     secret.MaskCardNumber(number),
			ExpiryDate: c.ExpiryDate,
		})
	}
	return out, nil
}

// AddSavedCard stores a card outside of any payment.
func (p *Portal) AddSavedCard(ctx context.Context, userID int64, in NewCard) (*model.MaskedCard, error) {
	in.Save = true
	card, err := p.prepareCard(ctx, userID, &in)
	if err != nil {
		return nil, err
	}
	if _, err := p.repo.AddSavedCard(ctx, card); err != nil {
		return nil, err
	}
	return &model.MaskedCard{
		ID:         card.ID,
		HolderName: card.HolderName,
		Number:     secret.MaskCardNumber(in.Number),
		ExpiryDate: card.ExpiryDate,
	}, nil
}

func (p *Portal) MyRegistrations(ctx context.Context, userID int64) ([]model.UserRegistration, error) {
	return p.repo.ListUserRegistrations(ctx, userID)
}
