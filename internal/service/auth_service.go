package service

import (
	"context"

	"eduauth/internal/dto"
)

type AuthService interface {
	Register(ctx context.Context, r dto.SignUpRequest, tr dto.Tracking) (*dto.SessionOut, error)
	Login(ctx context.Context, r dto.LogInRequest, tr dto.Tracking) (*dto.SessionOut, error)
}
