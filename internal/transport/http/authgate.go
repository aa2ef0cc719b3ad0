package http

import (
	"context"
	"net/http"
	"strings"

	"eduauth/internal/apperr"
	"eduauth/internal/domain"
	"eduauth/internal/jwtcodec"
	"eduauth/internal/observability/metrics"
	"eduauth/internal/store"

	"github.com/google/uuid"
)

type SessionReader interface {
	GetByAccessToken(ctx context.Context, accessToken string) (*domain.Session, error)
}

type UserReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Gate is the per-request authentication dependency. Three strictness levels:
// AccessClaims trusts a verified token's claims, CurrentUser additionally
// requires the session row and principal to still exist, and
// AccessClaimsUnverified reads claims without any verification (refresh flow
// only). Every failure collapses to apperr.ErrUnauthorized so callers learn
// nothing about which check tripped.
type Gate struct {
	codec    *jwtcodec.Codec
	sessions SessionReader
	users    UserReader
}

func NewGate(codec *jwtcodec.Codec, st *store.Store) *Gate {
	return &Gate{codec: codec, sessions: st.Sessions(), users: st.Users()}
}

func newGateWith(codec *jwtcodec.Codec, sessions SessionReader, users UserReader) *Gate {
	return &Gate{codec: codec, sessions: sessions, users: users}
}

// BearerToken extracts the raw token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	raw := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(raw) < len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return "", apperr.ErrUnauthorized
	}
	token := strings.TrimSpace(raw[len(prefix):])
	if token == "" {
		return "", apperr.ErrUnauthorized
	}
	return token, nil
}

// AccessClaims is trust mode: signature and expiry checked, store untouched.
// It serves claims-only endpoints that can answer from token contents without
// a store round trip; routes that must observe revocation use CurrentUser.
func (g *Gate) AccessClaims(r *http.Request) (*jwtcodec.AccessClaims, error) {
	claims, err := g.decodeBearer(r, true)
	if err != nil {
		metrics.GateChecksTotal.WithLabelValues("trust", "failure").Inc()
		return nil, err
	}
	metrics.GateChecksTotal.WithLabelValues("trust", "success").Inc()
	return claims, nil
}

// AccessClaimsUnverified decodes without checking signature or expiry. Only
// the refresh endpoint may use it: it must read an expired access token to
// learn which session to rotate.
func (g *Gate) AccessClaimsUnverified(r *http.Request) (*jwtcodec.AccessClaims, error) {
	claims, err := g.decodeBearer(r, false)
	if err != nil {
		metrics.GateChecksTotal.WithLabelValues("unverified", "failure").Inc()
		return nil, err
	}
	metrics.GateChecksTotal.WithLabelValues("unverified", "success").Inc()
	return claims, nil
}

// CurrentUser is verify-session mode: on top of trust mode, the session row
// holding this exact token and the principal itself must still exist. This is
// what makes logout observable; a revoked session fails here immediately.
func (g *Gate) CurrentUser(r *http.Request) (*domain.User, *jwtcodec.AccessClaims, error) {
	result := "failure"
	defer func() {
		metrics.GateChecksTotal.WithLabelValues("session", result).Inc()
	}()

	token, err := BearerToken(r)
	if err != nil {
		return nil, nil, apperr.ErrUnauthorized
	}
	claims, err := g.codec.DecodeAccess(token, true)
	if err != nil {
		return nil, nil, apperr.ErrUnauthorized
	}

	ctx := r.Context()
	if _, err := g.sessions.GetByAccessToken(ctx, token); err != nil {
		return nil, nil, apperr.ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, apperr.ErrUnauthorized
	}
	user, err := g.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, apperr.ErrUnauthorized
	}

	result = "success"
	return user, claims, nil
}

func (g *Gate) decodeBearer(r *http.Request, verify bool) (*jwtcodec.AccessClaims, error) {
	token, err := BearerToken(r)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	claims, err := g.codec.DecodeAccess(token, verify)
	if err != nil {
		return nil, apperr.ErrUnauthorized
	}
	return claims, nil
}
