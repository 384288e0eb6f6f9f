package service

import (
	"github.com/wb-go/wbf/ginext"

	"eventportal/internal/dto"
	"eventportal/internal/portal"
)

func (s *service) Signup(ctx *ginext.Context) {
	var req dto.SignupRequest
	if !s.bindJSON(ctx, &req) {
		return
	}

	u, err := s.portal.CreateUser(ctx, portal.NewUser{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Email:     req.Email,
		Password:  req.Password,
		Role:      req.Role,
	})
	if err != nil {
		s.fail(ctx, err, "failed to create user")
		return
	}

	dto.SuccessCreatedResponse(ctx, dto.NewUserResponse(u))
}

func (s *service) Login(ctx *ginext.Context) {
	var req dto.LoginRequest
	if !s.bindJSON(ctx, &req) {
		return
	}

	u, err := s.portal.AuthenticateUser(ctx, req.Email, req.Password)
	if err != nil {
		s.fail(ctx, err, "failed to authenticate user")
		return
	}

	token, exp, err := s.tokens.Issue(u)
	if err != nil {
		s.fail(ctx, err, "failed to issue token")
		return
	}

	s.log.Info().Int64("user_id", u.ID).Msg("user logged in")
	dto.SuccessResponse(ctx, dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   exp,
		User:        dto.NewUserResponse(u),
	})
}
