package service

import (
	"github.com/wb-go/wbf/ginext"

	"eventportal/internal/dto"
	"eventportal/internal/portal"
)

func (s *service) Register(ctx *ginext.Context) {
	p := caller(ctx)
	if p == nil {
		return
	}
	eventID, ok := pathID(ctx)
	if !ok {
		return
	}

	var req dto.RegisterRequest
	if ctx.Request.ContentLength != 0 && !s.bindJSON(ctx, &req) {
		return
	}

	res, err := s.portal.Register(ctx, p.UserID, eventID, portal.Contact{
		Name:  req.ContactName,
		Email: req.ContactEmail,
	})
	if err != nil {
		s.fail(ctx, err, "failed to register")
		return
	}

	out := dto.RegisterResponse{
		RegistrationID: res.Registration.ID,
		Status:         res.Registration.Status,
	}
	if res.Payment != nil {
		out.Payment = dto.NewPaymentResponse(res.Payment)
	}
	if res.Checkout != nil {
		out.Checkout = dto.NewCheckoutResponse(res.Checkout, dto.NewSavedCardsResponse(res.SavedCards))
	}
	dto.SuccessCreatedResponse(ctx, out)
}

func (s *service) GetCheckout(ctx *ginext.Context) {
	p := caller(ctx)
	if p == nil {
		return
	}

	c, cards, err := s.portal.Checkout(ctx, p.UserID)
	if err != nil {
		s.fail(ctx, err, "failed to load checkout")
		return
	}
	dto.SuccessResponse(ctx, dto.NewCheckoutResponse(c, dto.NewSavedCardsResponse(cards)))
}

func (s *service) Pay(ctx *ginext.Context) {
	p := caller(ctx)
	if p == nil {
		return
	}

	var req dto.PayRequest
	if !s.bindJSON(ctx, &req) {
		return
	}

	pr := portal.PayRequest{CardID: req.CardID}
	if req.NewCard != nil {
		pr.NewCard = &portal.NewCard{
			HolderName: req.NewCard.HolderName,
			Number:     req.NewCard.Number,
			CVV:        req.NewCard.CVV,
			ExpiryDate: req.NewCard.ExpiryDate,
			Save:       req.NewCard.Save,
		}
	}

	pay, err := s.portal.Pay(ctx, p.UserID, pr)
	if err != nil {
		s.fail(ctx, err, "failed to record payment")
		return
	}
	dto.SuccessResponse(ctx, dto.NewPaymentResponse(pay))
}

func (s *service) CancelCheckout(ctx *ginext.Context) {
	p := caller(ctx)
	if p == nil {
		return
	}

	if err := s.portal.CancelCheckout(ctx, p.UserID); err != nil {
		s.fail(ctx, err, "failed to cancel checkout")
		return
	}
	dto.SuccessResponse(ctx, map[string]bool{"cancelled": true})
}

func (s *service) MyRegistrations(ctx *ginext.Context) {
	p := caller(ctx)
	if p == nil {
		return
	}

	regs, err := s.portal.MyRegistrations(ctx, p.UserID)
	if err != nil {
		s.fail(ctx, err, "failed to list registrations")
		return
	}
	dto.SuccessResponse(ctx, dto.NewUserRegistrationsResponse(regs))
}

func (s *service) MyCards(ctx *ginext.Context) {
	p := caller(ctx)
	if p == nil {
		return
	}

	cards, err := s.portal.SavedCards(ctx, p.UserID)
	if err != nil {
		s.fail(ctx, err, "failed to list saved cards")
		return
	}
	dto.SuccessResponse(ctx, dto.NewSavedCardsResponse(cards))
}

func (s *service) AddCard(ctx *ginext.Context) {
	p := caller(ctx)
	if p == nil {
		return
	}

	var req dto.CardRequest
	if !s.bindJSON(ctx, &req) {
		return
	}

	card, err := s.portal.AddSavedCard(ctx, p.UserID, portal.NewCard{
		HolderName: req.HolderName,
		Number:     req.Number,
		CVV:        req.CVV,
		ExpiryDate: req.ExpiryDate,
	})
	if err != nil {
		s.fail(ctx, err, "failed to save card")
		return
	}
	dto.SuccessCreatedResponse(ctx, dto.SavedCardResponse{
		ID:         card.ID,
		HolderName: card.HolderName,
		CardNumber: card.Number,
		ExpiryDate: card.ExpiryDate,
	})
}
