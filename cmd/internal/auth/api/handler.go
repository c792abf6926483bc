// Package authapi maps session service results onto the HTTP surface:
// JSON bodies, status codes, and the access/refresh cookie pair.
package authapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"classhub/cmd/internal/auth/session"
)

// Handler wires the auth HTTP endpoints to the session service.
type Handler struct {
	log      *slog.Logger
	cfg      Config
	sessions *session.Service
}

// NewHandler constructs an auth Handler.
func NewHandler(log *slog.Logger, cfg Config, sessions *session.Service) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if sessions == nil {
		return nil, errors.New("authapi: nil session service")
	}
	return &Handler{log: log, cfg: cfg, sessions: sessions}, nil
}

// Register wires auth routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/auth/signup", h.handleSignup)
	mux.HandleFunc("/auth/login", h.handleLogin)
	mux.HandleFunc("/auth/token", h.handleRefresh)
	mux.HandleFunc("/auth/logout", h.handleLogout)
	mux.Handle("/auth/user", h.RequireUser(http.HandlerFunc(h.handleUser)))
}

// ---- handlers ----

func (h *Handler) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req signupRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	now := time.Now().UTC()
	user, err := h.sessions.Signup(r.Context(), now, req.Name, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, "auth.signup", err)
		return
	}

	writeJSON(w, http.StatusOK, signupResponse{User: toUserResponse(user)})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	now := time.Now().UTC()
	user, issued, err := h.sessions.Login(r.Context(), now, req.Email, req.Password)
	if err != nil {
		h.writeServiceError(w, "auth.login", err)
		return
	}

	// Dual delivery: cookies for browsers, body for clients that cannot
	// read cookies.
	h.setSessionCookies(w, issued)
	writeJSON(w, http.StatusOK, loginResponse{
		User:         toUserResponse(user),
		AccessToken:  issued.AccessToken,
		RefreshToken: issued.RefreshToken,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// The body is decoded for shape compatibility only; the principal is
	// the verified token claim, not req.UserID.
	var req refreshRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}

	refreshToken, ok := h.refreshTokenFromCookie(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token", "refresh token cookie is required")
		return
	}

	now := time.Now().UTC()
	issued, err := h.sessions.Refresh(r.Context(), now, refreshToken)
	if err != nil {
		h.writeServiceError(w, "auth.refresh", err)
		return
	}

	h.setSessionCookies(w, issued)
	writeJSON(w, http.StatusOK, toRefreshResponse(issued))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	// Cookies are cleared whatever else happens; a client that logs out
	// is logged out locally even when its body is malformed or its token
	// was already dead. Must happen before the first WriteHeader.
	h.clearSessionCookies(w)

	var req logoutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}
	}

	refreshToken, ok := h.refreshTokenFromCookie(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token", "refresh token cookie is required")
		return
	}

	now := time.Now().UTC()
	if err := h.sessions.Logout(r.Context(), now, refreshToken); err != nil {
		h.writeServiceError(w, "auth.logout", err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// handleUser serves PUT and DELETE /auth/user for the authenticated
// principal established by RequireUser.
func (h *Handler) handleUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing principal")
		return
	}

	now := time.Now().UTC()

	switch r.Method {
	case http.MethodPut:
		var req updateUserRequest
		if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
			return
		}

		user, err := h.sessions.UpdateAccount(r.Context(), now, userID, req.Name, req.Email, req.Password)
		if err != nil {
			h.writeServiceError(w, "auth.user.update", err)
			return
		}
		writeJSON(w, http.StatusOK, signupResponse{User: toUserResponse(user)})

	case http.MethodDelete:
		user, err := h.sessions.DeleteAccount(r.Context(), now, userID)
		if err != nil {
			h.writeServiceError(w, "auth.user.delete", err)
			return
		}
		h.clearSessionCookies(w)
		writeJSON(w, http.StatusOK, signupResponse{User: toUserResponse(user)})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// ---- auth middleware ----

type contextKey struct{ name string }

var userIDKey = contextKey{"user_id"}

// UserIDFromContext extracts the verified principal installed by RequireUser.
func UserIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// RequireUser verifies the access token (bearer header or cookie) and
// injects the user id into the request context. Access tokens are
// verified statelessly; there is no store lookup on this path.
func (h *Handler) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.accessTokenFromRequest(r)
		if token == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing access token")
			return
		}

		claims, err := h.sessions.Authenticate(token, time.Now().UTC())
		if err != nil {
			h.writeServiceError(w, "auth.access", err)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ---- error mapping ----

// writeServiceError maps the session error taxonomy to the wire.
// Unexpected errors become generic 500s; internal detail never leaves
// the process.
func (h *Handler) writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case session.IsValidation(err):
		writeError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, session.ErrDuplicateUser):
		writeError(w, http.StatusBadRequest, "duplicate_user", "user already exists")
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials")
	case errors.Is(err, session.ErrMissingToken):
		writeError(w, http.StatusUnauthorized, "missing_token", "token is required")
	case errors.Is(err, session.ErrTokenExpired):
		writeError(w, http.StatusUnauthorized, "token_expired", "token expired")
	case errors.Is(err, session.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
	case errors.Is(err, session.ErrMalformedSignature):
		writeError(w, http.StatusForbidden, "malformed_signature", "token signature is invalid")
	default:
		h.log.Error(op+".fail", "err", err)
		writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
