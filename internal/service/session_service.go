package service

import (
	"context"

	"eduauth/internal/domain"
	"eduauth/internal/dto"
)

// SessionService orchestrates the session lifecycle: minting token pairs,
// rotating them, and revoking session rows.
type SessionService interface {
	Issue(ctx context.Context, user *domain.User, platform domain.Platform, tr dto.Tracking) (*dto.SessionOut, error)
	Refresh(ctx context.Context, oldAccess, oldRefresh string, tr dto.Tracking) (*dto.SessionOut, error)
	Revoke(ctx context.Context, sessionID domain.SessionID) error
	// RevokeAll closes every session the user holds, across all platforms,
	// and reports how many were closed.
	RevokeAll(ctx context.Context, userID domain.UserID) (int64, error)
}
