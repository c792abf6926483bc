package session

import (
	"context"
	"strings"
	"time"

	"classhub/cmd/identity"
)

// Service implements the high-level session operations for classhub:
// signup, login, refresh rotation, logout, and account maintenance.
//
// All session state lives in the token Store; the service holds no
// mutable state and is safe for concurrent use. Operations on the same
// user serialize at the store's atomic upsert.
type Service struct {
	cfg    Config
	users  identity.Store
	tokens Store
	codec  Codec

	// dummyHash absorbs a bcrypt verify when login targets a missing
	// user, keeping the two failure paths close in latency.
	dummyHash string
}

// Issued is the result of issuing or rotating a token pair.
type Issued struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}

// NewService constructs a Service over the given stores and codec.
func NewService(cfg Config, users identity.Store, tokens Store, codec Codec) (*Service, error) {
	if users == nil || tokens == nil || codec == nil {
		return nil, ErrConfig
	}

	s := &Service{cfg: cfg, users: users, tokens: tokens, codec: codec}

	if hash, err := identity.HashPassword("dummy-password-for-timing-only"); err == nil {
		s.dummyHash = hash
	}

	return s, nil
}

// Signup validates and registers a new user. It never logs the user in;
// the created user is returned without any tokens.
func (s *Service) Signup(ctx context.Context, now time.Time, name, email, password string) (identity.User, error) {
	email = identity.NormalizeEmail(email)

	// Format checks come first: a malformed request never reaches the
	// store, so it cannot leak timing about existing accounts.
	if !identity.ValidEmail(email) {
		return identity.User{}, ValidationError{Field: "email"}
	}
	if !identity.ValidName(name) {
		return identity.User{}, ValidationError{Field: "name"}
	}
	if !identity.ValidPassword(password) {
		return identity.User{}, ValidationError{Field: "password"}
	}

	hash, err := identity.HashPassword(password)
	if err != nil {
		return identity.User{}, err
	}

	user, err := s.users.CreateUser(ctx, identity.CreateUserInput{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Now:          now,
	})
	if err != nil {
		if identity.IsConflict(err) {
			return identity.User{}, ErrDuplicateUser
		}
		return identity.User{}, err
	}

	return user, nil
}

// Login verifies credentials and issues a fresh token pair. The new
// refresh token replaces any previously active one for the user, so a
// second login logs out other devices.
//
// A missing user and a wrong password both return ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, now time.Time, email, password string) (identity.User, Issued, error) {
	email = identity.NormalizeEmail(email)

	if !identity.ValidEmail(email) {
		return identity.User{}, Issued{}, ValidationError{Field: "email"}
	}
	if !identity.ValidPassword(password) {
		return identity.User{}, Issued{}, ValidationError{Field: "password"}
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if identity.IsNotFound(err) {
			if s.dummyHash != "" {
				identity.VerifyPassword(password, s.dummyHash)
			}
			return identity.User{}, Issued{}, ErrInvalidCredentials
		}
		return identity.User{}, Issued{}, err
	}

	if !identity.VerifyPassword(password, user.PasswordHash) {
		return identity.User{}, Issued{}, ErrInvalidCredentials
	}

	issued, err := s.issue(ctx, now, user.ID)
	if err != nil {
		return identity.User{}, Issued{}, err
	}

	return user, issued, nil
}

// Refresh exchanges a valid refresh token for a new token pair (full
// rotation: both tokens are new, and the presented refresh token is
// dead afterwards).
//
// The store-presence check runs before signature verification so a
// revoked or rotated token fails ErrInvalidToken uniformly, regardless
// of its signature being intact.
func (s *Service) Refresh(ctx context.Context, now time.Time, refreshToken string) (Issued, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return Issued{}, ErrMissingToken
	}
	// Sanity bound against pathological inputs.
	if len(refreshToken) > 4096 {
		return Issued{}, ErrInvalidToken
	}

	rec, err := s.tokens.GetActiveByToken(ctx, refreshToken)
	if err != nil {
		return Issued{}, err
	}

	// The row's expires_at is written from the same instant as the
	// signature's exp but checked independently; a stale row never
	// rotates even when the signature would still verify.
	if !rec.Active(now) {
		return Issued{}, ErrTokenExpired
	}

	claims, err := s.codec.VerifyRefresh(refreshToken, now)
	if err != nil {
		return Issued{}, err
	}

	// The principal is the verified claim, never a request field. It
	// must also own the store record.
	if claims.UserID != rec.UserID {
		return Issued{}, ErrInvalidToken
	}

	return s.issue(ctx, now, rec.UserID)
}

// Logout revokes the active refresh credential matching the presented
// token. The record stays in the store with its revocation timestamp.
func (s *Service) Logout(ctx context.Context, now time.Time, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return ErrMissingToken
	}

	rec, err := s.tokens.GetActiveByToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	return s.tokens.Revoke(ctx, now, rec.UserID, refreshToken)
}

// Authenticate verifies an access token statelessly. Access tokens are
// never checked against the store; signature validity is sufficient.
func (s *Service) Authenticate(token string, now time.Time) (Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Claims{}, ErrMissingToken
	}
	return s.codec.VerifyAccess(token, now)
}

// UpdateAccount applies a partial update to the authenticated user.
// A changed password is re-validated and re-hashed.
func (s *Service) UpdateAccount(ctx context.Context, now time.Time, userID string, name, email, password *string) (identity.User, error) {
	in := identity.UpdateUserInput{UserID: userID, Now: now}

	if name != nil {
		if !identity.ValidName(*name) {
			return identity.User{}, ValidationError{Field: "name"}
		}
		in.Name = name
	}
	if email != nil {
		norm := identity.NormalizeEmail(*email)
		if !identity.ValidEmail(norm) {
			return identity.User{}, ValidationError{Field: "email"}
		}
		in.Email = &norm
	}
	if password != nil {
		if !identity.ValidPassword(*password) {
			return identity.User{}, ValidationError{Field: "password"}
		}
		hash, err := identity.HashPassword(*password)
		if err != nil {
			return identity.User{}, err
		}
		in.PasswordHash = &hash
	}

	user, err := s.users.UpdateUser(ctx, in)
	if err != nil {
		if identity.IsConflict(err) {
			return identity.User{}, ErrDuplicateUser
		}
		return identity.User{}, err
	}
	return user, nil
}

// DeleteAccount soft-deletes the authenticated user and revokes their
// refresh credential so the account cannot be refreshed back to life.
func (s *Service) DeleteAccount(ctx context.Context, now time.Time, userID string) (identity.User, error) {
	user, err := s.users.SoftDeleteUser(ctx, userID, now)
	if err != nil {
		return identity.User{}, err
	}

	if err := s.tokens.RevokeUser(ctx, now, userID); err != nil {
		return identity.User{}, err
	}

	return user, nil
}

// issue creates a new access/refresh pair and atomically installs the
// refresh token as the user's sole active credential. Both expiries are
// derived from the same instant.
func (s *Service) issue(ctx context.Context, now time.Time, userID string) (Issued, error) {
	accessToken, accessExp, err := s.codec.IssueAccess(userID, now)
	if err != nil {
		return Issued{}, err
	}

	refreshToken, refreshExp, err := s.codec.IssueRefresh(userID, now)
	if err != nil {
		return Issued{}, err
	}

	if err := s.tokens.Replace(ctx, now, userID, refreshToken, refreshExp); err != nil {
		return Issued{}, err
	}

	return Issued{
		AccessToken:      accessToken,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refreshToken,
		RefreshExpiresAt: refreshExp,
	}, nil
}
