package service

import (
	"errors"
	"strconv"

	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"eventportal/internal/auth"
	"eventportal/internal/dto"
	"eventportal/internal/portal"
	"eventportal/pkg/validator"
)

type Service interface {
	Signup(ctx *ginext.Context)
	Login(ctx *ginext.Context)

	ListEvents(ctx *ginext.Context)
	GetEvent(ctx *ginext.Context)
	Register(ctx *ginext.Context)

	GetCheckout(ctx *ginext.Context)
	Pay(ctx *ginext.Context)
	CancelCheckout(ctx *ginext.Context)

	MyRegistrations(ctx *ginext.Context)
	MyCards(ctx *ginext.Context)
	AddCard(ctx *ginext.Context)

	CreateEvent(ctx *ginext.Context)
	DeleteEvent(ctx *ginext.Context)
	EventStats(ctx *ginext.Context)
	Dashboard(ctx *ginext.Context)

	Health(ctx *ginext.Context)
}

type service struct {
	portal *portal.Portal
	tokens *auth.Manager
	log    *zerolog.Logger
}

func NewService(p *portal.Portal, tokens *auth.Manager, logger *zerolog.Logger) Service {
	return &service{
		portal: p,
		tokens: tokens,
		log:    logger,
	}
}

func (s *service) bindJSON(ctx *ginext.Context, req any) bool {
	if err := ctx.ShouldBindJSON(req); err != nil {
		s.log.Debug().Err(err).Str("path", ctx.FullPath()).Msg("failed to parse request body")
		dto.FieldIncorrectError(ctx, "Invalid JSON format")
		return false
	}
	return true
}

func pathID(ctx *ginext.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		dto.FieldIncorrectError(ctx, "id must be a positive number")
		return 0, false
	}
	return id, true
}

func caller(ctx *ginext.Context) *auth.Principal {
	p, ok := auth.PrincipalFrom(ctx)
	if !ok {
		dto.UnauthorizedError(ctx, "Authentication required")
		return nil
	}
	return p
}

// fail maps portal errors onto the response envelope. Anything it does not
// know is logged and reported as a 500.
func (s *service) fail(ctx *ginext.Context, err error, msg string) {
	if ve, ok := validator.AsValidationError(err); ok {
		dto.FieldIncorrectError(ctx, ve.Message)
		return
	}

	switch {
	case errors.Is(err, portal.ErrInvalidCredentials):
		dto.InvalidCredentialsError(ctx)
	case errors.Is(err, portal.ErrUserCreate):
		s.log.Warn().Err(err).Msg(msg)
		dto.UserCreateError(ctx)
	case errors.Is(err, portal.ErrEventNotFound):
		dto.EventNotFoundError(ctx)
	case errors.Is(err, portal.ErrEventInactive):
		dto.EventInactiveError(ctx)
	case errors.Is(err, portal.ErrNoCheckout):
		dto.CheckoutNotFoundError(ctx)
	case errors.Is(err, portal.ErrCardNotFound), errors.Is(err, portal.ErrCardUnreadable):
		dto.CardNotFoundError(ctx)
	case errors.Is(err, portal.ErrAlreadyPaid):
		dto.AlreadyPaidError(ctx)
	default:
		s.log.Error().Err(err).Str("path", ctx.FullPath()).Msg(msg)
		dto.InternalServerError(ctx)
	}
}

func (s *service) Health(ctx *ginext.Context) {
	if err := s.portal.Ping(ctx); err != nil {
		s.log.Error().Err(err).Msg("health check failed")
		dto.InternalServerError(ctx)
		return
	}
	dto.SuccessResponse(ctx, map[string]string{"database": "ok"})
}
