// Package session implements classhub's session-token lifecycle.
//
// It issues access/refresh token pairs, rotates refresh tokens on every
// successful refresh, and revokes them on logout. Access tokens are
// short-lived signed claims verified statelessly; refresh tokens are
// signed claims that must additionally match the single active row the
// store keeps per user. A signature-valid refresh token that has been
// rotated or revoked is therefore rejected.
//
// Transport (HTTP cookies/JSON) integration is intentionally out of
// scope here; see cmd/internal/auth/api.
package session
