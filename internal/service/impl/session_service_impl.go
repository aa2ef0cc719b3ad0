package impl

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"eduauth/internal/apperr"
	"eduauth/internal/domain"
	"eduauth/internal/dto"
	"eduauth/internal/jwtcodec"
	"eduauth/internal/netutil"
	"eduauth/internal/observability/metrics"
	"eduauth/internal/observability/middleware"
	"eduauth/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type SessionConfig struct {
	Issuer     string
	AccessTTL  time.Duration // e.g. 48h
	RefreshTTL time.Duration // e.g. 30 * 24h, must greatly exceed AccessTTL
}

// SessionServiceImpl is the session lifecycle orchestrator: it mints token
// pairs through the codec and keeps the sessions table as the source of truth
// for which pairs are still live.
type SessionServiceImpl struct {
	Cfg   SessionConfig
	Codec *jwtcodec.Codec
	Store dataStore
}

func NewSessionService(cfg SessionConfig, codec *jwtcodec.Codec, st *store.Store) *SessionServiceImpl {
	return &SessionServiceImpl{
		Cfg:   cfg,
		Codec: codec,
		Store: gormStoreAdapter{store: st},
	}
}

// Issue creates a session row and returns the freshly signed token pair.
// Used by registration, login and as the target of a refresh.
func (s *SessionServiceImpl) Issue(
	ctx context.Context,
	user *domain.User,
	platform domain.Platform,
	tr dto.Tracking,
) (*dto.SessionOut, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("issue", result).Inc()
	}()

	var out *dto.SessionOut
	err := s.Store.WithTx(ctx, func(tx storeTx) error {
		o, err := s.issue(ctx, tx, user, platform, tr)
		if err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		result = "failure"
		return nil, err
	}
	return out, nil
}

// Refresh rotates a token pair. The old access token is decoded without
// verification so an expired token can still name its session; possession of
// the exact stored (access, refresh) pair is the actual authorization check.
// Lookup, new-session insert and old-session delete run in one transaction.
func (s *SessionServiceImpl) Refresh(
	ctx context.Context,
	oldAccess, oldRefresh string,
	tr dto.Tracking,
) (*dto.SessionOut, error) {
	result := "success"
	defer func() {
		metrics.TokensIssuedTotal.WithLabelValues("refresh", result).Inc()
	}()

	if _, err := s.Codec.DecodeAccess(oldAccess, false); err != nil {
		result = "failure"
		return nil, apperr.ErrUnauthorized
	}

	var out *dto.SessionOut
	err := s.Store.WithTx(ctx, func(tx storeTx) error {
		old, err := tx.Sessions().GetByTokenPairForUpdate(ctx, oldAccess, oldRefresh)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				// Already rotated, logged out, or never issued.
				return apperr.ErrUnauthorized
			}
			return err
		}

		user, err := tx.Users().GetByID(ctx, old.UserID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				return apperr.ErrUnauthorized
			}
			return err
		}

		o, err := s.issue(ctx, tx, user, old.Platform, tr)
		if err != nil {
			return err
		}
		if err := tx.Sessions().Delete(ctx, old.ID); err != nil {
			return err
		}
		out = o
		return nil
	})
	if err != nil {
		result = "failure"
		return nil, err
	}
	return out, nil
}

// Revoke deletes the session row. Idempotent: revoking an absent session is
// not an error.
func (s *SessionServiceImpl) Revoke(ctx context.Context, sessionID domain.SessionID) error {
	err := s.Store.WithTx(ctx, func(tx storeTx) error {
		sess, err := tx.Sessions().GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrRecordNotFound) {
				// Already revoked or rotated away.
				return nil
			}
			return err
		}
		if err := tx.Sessions().Delete(ctx, sess.ID); err != nil {
			return err
		}
		slog.Info("revoked session",
			"session_id", sess.ID,
			"user_id", sess.UserID,
			"platform", sess.Platform,
			"request_id", middleware.RequestIDFromContext(ctx),
		)
		return nil
	})
	if err != nil {
		metrics.SessionsRevokedTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("success").Inc()
	return nil
}

// RevokeAll deletes every session the user holds. Returns the number of
// sessions closed; zero is fine, a user with no sessions is not an error.
func (s *SessionServiceImpl) RevokeAll(ctx context.Context, userID domain.UserID) (int64, error) {
	var n int64
	err := s.Store.WithTx(ctx, func(tx storeTx) error {
		count, err := tx.Sessions().DeleteAllForUser(ctx, userID)
		if err != nil {
			return err
		}
		n = count
		return nil
	})
	if err != nil {
		metrics.SessionsRevokedTotal.WithLabelValues("failure").Inc()
		return 0, err
	}
	metrics.SessionsRevokedTotal.WithLabelValues("success").Add(float64(n))
	if n > 0 {
		slog.Info("revoked all sessions",
			"user_id", userID,
			"count", n,
			"request_id", middleware.RequestIDFromContext(ctx),
		)
	}
	return n, nil
}

func (s *SessionServiceImpl) issue(
	ctx context.Context,
	tx storeTx,
	user *domain.User,
	platform domain.Platform,
	tr dto.Tracking,
) (*dto.SessionOut, error) {
	if user == nil {
		return nil, ErrNilUser
	}
	now := time.Now().UTC()
	sessionID := uuid.New()
	snap := snapshot(user)

	access, err := s.Codec.EncodeAccess(jwtcodec.AccessClaims{
		User:      snap,
		SessionID: sessionID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Cfg.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.Cfg.AccessTTL)),
		},
	})
	if err != nil {
		return nil, err
	}

	refresh, err := s.Codec.EncodeRefresh(jwtcodec.RefreshClaims{
		User: snap,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.Cfg.Issuer,
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.Cfg.RefreshTTL)),
		},
	})
	if err != nil {
		return nil, err
	}

	sess := &domain.Session{
		ID:           sessionID,
		UserID:       user.ID,
		AccessToken:  access,
		RefreshToken: refresh,
		Platform:     platform,
		IPAddress:    normalizeIP(tr.IPAddress),
		UserAgent:    netutil.TruncateUserAgent(tr.UserAgent),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := tx.Sessions().Create(ctx, sess); err != nil {
		return nil, err
	}

	slog.Info("issued session",
		"session_id", sessionID,
		"user_id", user.ID,
		"platform", platform,
		"request_id", middleware.RequestIDFromContext(ctx),
	)

	return &dto.SessionOut{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(s.Cfg.AccessTTL.Seconds()),
	}, nil
}

func snapshot(user *domain.User) jwtcodec.UserSnapshot {
	return jwtcodec.UserSnapshot{
		Name:     user.Name,
		Email:    user.Email,
		Role:     string(user.Role),
		AvatarID: user.AvatarID,
	}
}

func normalizeIP(ip string) string {
	if normalized, ok := netutil.NormalizeIP(ip); ok {
		return normalized
	}
	return strings.TrimSpace(ip)
}
