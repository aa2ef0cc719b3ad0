package impl

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eduauth/internal/apperr"
	"eduauth/internal/domain"
	"eduauth/internal/dto"
	"eduauth/internal/jwtcodec"

	"github.com/google/uuid"
)

func newTestSessionService(t *testing.T, accessTTL time.Duration) (*SessionServiceImpl, *memoryStore) {
	t.Helper()
	codec, err := jwtcodec.New([]byte("session-test-key"), []string{"HS256"})
	if err != nil {
		t.Fatalf("jwtcodec.New: %v", err)
	}
	st := newMemoryStore()
	svc := &SessionServiceImpl{
		Cfg: SessionConfig{
			Issuer:     "eduauth-test",
			AccessTTL:  accessTTL,
			RefreshTTL: 30 * 24 * time.Hour,
		},
		Codec: codec,
		Store: st,
	}
	return svc, st
}

func testUser() *domain.User {
	now := time.Now().UTC()
	return &domain.User{
		ID:        uuid.New(),
		Name:      "Ivan",
		Email:     "ivan@example.com",
		Role:      domain.RoleStudent,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestIssue(t *testing.T) {
	svc, st := newTestSessionService(t, 48*time.Hour)
	user := testUser()
	st.addUser(user)

	out, err := svc.Issue(context.Background(), user, domain.PlatformIOS, dto.Tracking{
		IPAddress: "192.0.2.4:5566",
		UserAgent: "test-agent",
	})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if out.TokenType != "bearer" {
		t.Errorf("token_type = %q, want bearer", out.TokenType)
	}
	if out.ExpiresIn != 48*3600 {
		t.Errorf("expires_in = %d, want %d", out.ExpiresIn, 48*3600)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatal("missing tokens in response")
	}

	claims, err := svc.Codec.DecodeAccess(out.AccessToken, true)
	if err != nil {
		t.Fatalf("decoding issued access token: %v", err)
	}
	if claims.Subject != user.ID.String() {
		t.Errorf("subject = %q, want %q", claims.Subject, user.ID)
	}
	if claims.User.Email != user.Email {
		t.Errorf("snapshot email = %q, want %q", claims.User.Email, user.Email)
	}

	sess, err := memSessionStore{st}.GetByTokenPairForUpdate(context.Background(), out.AccessToken, out.RefreshToken)
	if err != nil {
		t.Fatalf("session row not persisted: %v", err)
	}
	if sess.ID.String() != claims.SessionID {
		t.Errorf("claims session id = %q, row id = %q", claims.SessionID, sess.ID)
	}
	if sess.Platform != domain.PlatformIOS {
		t.Errorf("platform = %q, want IOS", sess.Platform)
	}
	if sess.IPAddress != "192.0.2.4" {
		t.Errorf("ip = %q, want normalized 192.0.2.4", sess.IPAddress)
	}

	rc, err := svc.Codec.DecodeRefresh(out.RefreshToken, true)
	if err != nil {
		t.Fatalf("decoding issued refresh token: %v", err)
	}
	if rc.Subject != user.ID.String() {
		t.Errorf("refresh subject = %q, want %q", rc.Subject, user.ID)
	}
}

func TestRefreshRotatesExactlyOnce(t *testing.T) {
	svc, st := newTestSessionService(t, 48*time.Hour)
	user := testUser()
	st.addUser(user)
	ctx := context.Background()

	first, err := svc.Issue(ctx, user, domain.PlatformWeb, dto.Tracking{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	second, err := svc.Refresh(ctx, first.AccessToken, first.RefreshToken, dto.Tracking{})
	if err != nil {
		t.Fatalf("first Refresh: %v", err)
	}
	if second.AccessToken == first.AccessToken {
		t.Error("refresh returned the same access token")
	}
	if got := st.sessionCount(); got != 1 {
		t.Errorf("session count after refresh = %d, want 1 (old row deleted)", got)
	}

	// The consumed pair must be dead.
	if _, err := svc.Refresh(ctx, first.AccessToken, first.RefreshToken, dto.Tracking{}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("second refresh with consumed pair = %v, want ErrUnauthorized", err)
	}

	// The new pair keeps working.
	if _, err := svc.Refresh(ctx, second.AccessToken, second.RefreshToken, dto.Tracking{}); err != nil {
		t.Errorf("refresh with rotated pair: %v", err)
	}
}

func TestRefreshKeepsPlatform(t *testing.T) {
	svc, st := newTestSessionService(t, 48*time.Hour)
	user := testUser()
	st.addUser(user)
	ctx := context.Background()

	out, err := svc.Issue(ctx, user, domain.PlatformAndroid, dto.Tracking{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	rotated, err := svc.Refresh(ctx, out.AccessToken, out.RefreshToken, dto.Tracking{})
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	sess, err := memSessionStore{st}.GetByTokenPairForUpdate(ctx, rotated.AccessToken, rotated.RefreshToken)
	if err != nil {
		t.Fatalf("rotated session missing: %v", err)
	}
	if sess.Platform != domain.PlatformAndroid {
		t.Errorf("platform after rotation = %q, want ANDROID", sess.Platform)
	}
}

func TestRefreshWithExpiredAccessToken(t *testing.T) {
	// Access TTL in the past: the minted token is expired on arrival, which
	// is exactly the state refresh has to handle.
	svc, st := newTestSessionService(t, -time.Minute)
	user := testUser()
	st.addUser(user)
	ctx := context.Background()

	out, err := svc.Issue(ctx, user, domain.PlatformWeb, dto.Tracking{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Codec.DecodeAccess(out.AccessToken, true); !errors.Is(err, jwtcodec.ErrExpiredToken) {
		t.Fatalf("precondition: access token should be expired, got %v", err)
	}

	if _, err := svc.Refresh(ctx, out.AccessToken, out.RefreshToken, dto.Tracking{}); err != nil {
		t.Errorf("refresh with expired access token: %v", err)
	}
}

func TestRefreshUnknownPair(t *testing.T) {
	svc, st := newTestSessionService(t, 48*time.Hour)
	user := testUser()
	st.addUser(user)
	ctx := context.Background()

	out, err := svc.Issue(ctx, user, domain.PlatformWeb, dto.Tracking{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	// Mismatched pair: both tokens valid individually, but not the stored pair.
	other, err := svc.Issue(ctx, user, domain.PlatformWeb, dto.Tracking{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := svc.Refresh(ctx, out.AccessToken, other.RefreshToken, dto.Tracking{}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("refresh with mismatched pair = %v, want ErrUnauthorized", err)
	}

	// Garbage access token fails before any store access.
	if _, err := svc.Refresh(ctx, "not-a-token", out.RefreshToken, dto.Tracking{}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Errorf("refresh with malformed token = %v, want ErrUnauthorized", err)
	}
}

func TestConcurrentRefreshSingleWinner(t *testing.T) {
	svc, st := newTestSessionService(t, 48*time.Hour)
	user := testUser()
	st.addUser(user)
	ctx := context.Background()

	out, err := svc.Issue(ctx, user, domain.PlatformWeb, dto.Tracking{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	const callers = 2
	results := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.Refresh(ctx, out.AccessToken, out.RefreshToken, dto.Tracking{})
		}(i)
	}
	wg.Wait()

	var ok, unauthorized int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, apperr.ErrUnauthorized):
			unauthorized++
		default:
			t.Errorf("unexpected refresh error: %v", err)
		}
	}
	if ok != 1 || unauthorized != 1 {
		t.Errorf("concurrent refresh: %d succeeded, %d unauthorized; want exactly 1 and 1", ok, unauthorized)
	}
	if got := st.sessionCount(); got != 1 {
		t.Errorf("session count = %d, want 1", got)
	}
}

func TestRevokeIsIdempotent(t *testing.T) {
	svc, st := newTestSessionService(t, 48*time.Hour)
	user := testUser()
	st.addUser(user)
	ctx := context.Background()

	out, err := svc.Issue(ctx, user, domain.PlatformWeb, dto.Tracking{})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := svc.Codec.DecodeAccess(out.AccessToken, true)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	sessionID := uuid.MustParse(claims.SessionID)

	if err := svc.Revoke(ctx, sessionID); err != nil {
		t.Fatalf("first Revoke: %v", err)
	}
	if got := st.sessionCount(); got != 0 {
		t.Errorf("session count after revoke = %d, want 0", got)
	}
	if err := svc.Revoke(ctx, sessionID); err != nil {
		t.Errorf("second Revoke should be a no-op, got %v", err)
	}
}

func TestRevokeAll(t *testing.T) {
	svc, st := newTestSessionService(t, 48*time.Hour)
	user := testUser()
	other := testUser()
	other.Email = "oleg@example.com"
	st.addUser(user)
	st.addUser(other)
	ctx := context.Background()

	for _, p := range []domain.Platform{domain.PlatformWeb, domain.PlatformIOS} {
		if _, err := svc.Issue(ctx, user, p, dto.Tracking{}); err != nil {
			t.Fatalf("Issue(%s): %v", p, err)
		}
	}
	if _, err := svc.Issue(ctx, other, domain.PlatformWeb, dto.Tracking{}); err != nil {
		t.Fatalf("Issue(other): %v", err)
	}

	n, err := svc.RevokeAll(ctx, user.ID)
	if err != nil {
		t.Fatalf("RevokeAll: %v", err)
	}
	if n != 2 {
		t.Errorf("revoked count = %d, want 2", n)
	}
	// The other user's session survives.
	if got := st.sessionCount(); got != 1 {
		t.Errorf("session count = %d, want 1", got)
	}

	n, err = svc.RevokeAll(ctx, user.ID)
	if err != nil {
		t.Fatalf("second RevokeAll: %v", err)
	}
	if n != 0 {
		t.Errorf("second revoked count = %d, want 0", n)
	}
}
