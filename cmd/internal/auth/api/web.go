package authapi

import (
	"net/http"
	"strings"
	"time"

	"classhub/cmd/internal/auth/session"
)

// setSessionCookies installs the access/refresh cookie pair. Expiry
// comes from the issued claims, so cookie lifetime and the embedded
// token expiry are derived from the same instant.
func (h *Handler) setSessionCookies(w http.ResponseWriter, issued session.Issued) {
	h.setCookie(w, h.cfg.AccessCookieName, issued.AccessToken, issued.AccessExpiresAt)
	h.setCookie(w, h.cfg.RefreshCookieName, issued.RefreshToken, issued.RefreshExpiresAt)
}

// clearSessionCookies expires both cookies. Called unconditionally on
// logout, whatever the store said.
func (h *Handler) clearSessionCookies(w http.ResponseWriter) {
	h.expireCookie(w, h.cfg.AccessCookieName)
	h.expireCookie(w, h.cfg.RefreshCookieName)
}

func (h *Handler) refreshTokenFromCookie(r *http.Request) (string, bool) {
	if h == nil || r == nil {
		return "", false
	}
	c, err := r.Cookie(h.cfg.RefreshCookieName)
	if err != nil {
		return "", false
	}
	v := strings.TrimSpace(c.Value)
	if v == "" {
		return "", false
	}
	return v, true
}

func (h *Handler) accessTokenFromRequest(r *http.Request) string {
	if tok := bearerToken(r); tok != "" {
		return tok
	}
	if c, err := r.Cookie(h.cfg.AccessCookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func (h *Handler) setCookie(w http.ResponseWriter, name, value string, exp time.Time) {
	if h == nil || w == nil {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  exp,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure(),
		SameSite: h.cfg.CookieSameSite,
	})
}

func (h *Handler) expireCookie(w http.ResponseWriter, name string) {
	if h == nil || w == nil || strings.TrimSpace(name) == "" {
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     h.cfg.CookiePath,
		Domain:   h.cfg.CookieDomain,
		Expires:  time.Unix(0, 0).UTC(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure(),
		SameSite: h.cfg.CookieSameSite,
	})
}
