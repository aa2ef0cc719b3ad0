package http

import (
	"encoding/json"
	"net/http"
	"strings"

	"eduauth/internal/apperr"
	"eduauth/internal/dto"
	"eduauth/internal/netutil"
	obsmw "eduauth/internal/observability/middleware"
	"eduauth/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type handlers struct {
	auth     service.AuthService
	sessions service.SessionService
	gate     *Gate
}

func NewRouter(auth service.AuthService, sessions service.SessionService, gate *Gate) http.Handler {
	h := &handlers{auth: auth, sessions: sessions, gate: gate}

	r := chi.NewRouter()
	r.Use(obsmw.WithRequestAndTrace)
	r.Use(obsmw.WithMetrics)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(api chi.Router) {
		api.Route("/oauth", func(o chi.Router) {
			o.Post("/register", h.register)
			o.Post("/login", h.login)
			o.Post("/refresh-token", h.refreshToken)
			o.Delete("/logout", h.logout)
			o.Delete("/logout-all", h.logoutAll)
		})
		api.Get("/user/me", h.me)
	})

	return r
}

func (h *handlers) register(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMalformedBody(w)
		return
	}
	out, err := h.auth.Register(r.Context(), req, tracking(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) login(w http.ResponseWriter, r *http.Request) {
	var req dto.LogInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMalformedBody(w)
		return
	}
	out, err := h.auth.Login(r.Context(), req, tracking(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// refreshToken reads the old access token from the Authorization header in
// no-verify mode (it is usually expired by now) and the refresh token from
// the body; the session service authorizes the rotation by exact-pair lookup.
func (h *handlers) refreshToken(w http.ResponseWriter, r *http.Request) {
	oldAccess, err := BearerToken(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.gate.AccessClaimsUnverified(r); err != nil {
		writeError(w, r, err)
		return
	}

	var req dto.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMalformedBody(w)
		return
	}

	out, err := h.sessions.Refresh(r.Context(), oldAccess, req.RefreshToken, tracking(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *handlers) logout(w http.ResponseWriter, r *http.Request) {
	_, claims, err := h.gate.CurrentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		writeError(w, r, apperr.ErrUnauthorized)
		return
	}
	if err := h.sessions.Revoke(r.Context(), sessionID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// logoutAll closes every session the caller holds, not just the one named by
// the presented token.
func (h *handlers) logoutAll(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.gate.CurrentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := h.sessions.RevokeAll(r.Context(), user.ID); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) me(w http.ResponseWriter, r *http.Request) {
	user, _, err := h.gate.CurrentUser(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewUserOut(user))
}

func tracking(r *http.Request) dto.Tracking {
	return dto.Tracking{
		IPAddress: clientIP(r),
		UserAgent: netutil.TruncateUserAgent(r.UserAgent()),
	}
}

func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// XFF can be a list: client, proxy1, proxy2...
		ip := strings.TrimSpace(strings.Split(xff, ",")[0])
		if normalized, ok := netutil.NormalizeIP(ip); ok {
			return normalized
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		if normalized, ok := netutil.NormalizeIP(xr); ok {
			return normalized
		}
	}
	if normalized, ok := netutil.NormalizeIP(r.RemoteAddr); ok {
		return normalized
	}
	return r.RemoteAddr
}
