package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"classhub/cmd/identity"
)

// fakeUserStore is an in-memory identity.Store for service tests.
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int
	byID   map[string]identity.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{byID: make(map[string]identity.User)}
}

func (f *fakeUserStore) CreateUser(_ context.Context, in identity.CreateUserInput) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Email == in.Email && u.Status.Active() {
			return identity.User{}, identity.ConflictError{Op: "fake.CreateUser", Field: "email"}
		}
	}

	f.nextID++
	u := identity.User{
		ID:           fmt.Sprintf("user-%d", f.nextID),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
		CreatedAt:    in.Now,
		Status:       identity.StatusActive(),
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByID(_ context.Context, userID string) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[userID]
	if !ok {
		return identity.User{}, identity.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserStore) GetUserByEmail(_ context.Context, email string) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.byID {
		if u.Email == email && u.Status.Active() {
			return u, nil
		}
	}
	return identity.User{}, identity.ErrNotFound
}

func (f *fakeUserStore) UpdateUser(_ context.Context, in identity.UpdateUserInput) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[in.UserID]
	if !ok || !u.Status.Active() {
		return identity.User{}, identity.ErrNotFound
	}
	if in.Email != nil {
		for id, other := range f.byID {
			if id != in.UserID && other.Email == *in.Email && other.Status.Active() {
				return identity.User{}, identity.ConflictError{Op: "fake.UpdateUser", Field: "email"}
			}
		}
		u.Email = *in.Email
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.PasswordHash != nil {
		u.PasswordHash = *in.PasswordHash
	}
	f.byID[u.ID] = u
	return u, nil
}

func (f *fakeUserStore) SoftDeleteUser(_ context.Context, userID string, now time.Time) (identity.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.byID[userID]
	if !ok || !u.Status.Active() {
		return identity.User{}, identity.ErrNotFound
	}
	u.Status = identity.StatusDeleted(now)
	f.byID[u.ID] = u
	return u, nil
}

// fakeTokenStore is an in-memory Store holding one record per user.
type fakeTokenStore struct {
	mu     sync.Mutex
	byUser map[string]Record
}

func newFakeTokenStore() *fakeTokenStore {
	return &fakeTokenStore{byUser: make(map[string]Record)}
}

func (f *fakeTokenStore) Replace(_ context.Context, now time.Time, userID, token string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.byUser[userID] = Record{
		UserID:       userID,
		RefreshToken: token,
		IssuedAt:     now,
		ExpiresAt:    expiresAt,
	}
	return nil
}

func (f *fakeTokenStore) GetActiveByToken(_ context.Context, token string) (Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, rec := range f.byUser {
		if rec.RefreshToken == token && rec.RevokedAt == nil {
			return rec, nil
		}
	}
	return Record{}, ErrInvalidToken
}

func (f *fakeTokenStore) Revoke(_ context.Context, now time.Time, userID, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.byUser[userID]
	if !ok || rec.RefreshToken != token || rec.RevokedAt != nil {
		return ErrInvalidToken
	}
	rec.RevokedAt = &now
	f.byUser[userID] = rec
	return nil
}

func (f *fakeTokenStore) RevokeUser(_ context.Context, now time.Time, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	rec, ok := f.byUser[userID]
	if !ok || rec.RevokedAt != nil {
		return nil
	}
	rec.RevokedAt = &now
	f.byUser[userID] = rec
	return nil
}

func newTestService(t *testing.T) (*Service, *fakeUserStore, *fakeTokenStore) {
	t.Helper()

	codec := mustCodec(t)
	users := newFakeUserStore()
	tokens := newFakeTokenStore()

	svc, err := NewService(testCodecConfig(), users, tokens, codec)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, users, tokens
}

const (
	testName     = "Alice1"
	testEmail    = "alice@example.com"
	testPassword = "Passw0rd!"
)

func signupTestUser(t *testing.T, svc *Service, now time.Time) identity.User {
	t.Helper()
	u, err := svc.Signup(context.Background(), now, testName, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	return u
}

func TestSignupThenLogin(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	created := signupTestUser(t, svc, now)
	if created.PasswordHash == testPassword {
		t.Fatalf("password stored in plaintext")
	}

	// Signup issues no tokens.
	if len(tokens.byUser) != 0 {
		t.Fatalf("signup created a session record")
	}

	user, issued, err := svc.Login(ctx, now, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.ID != created.ID {
		t.Fatalf("login returned user %q, want %q", user.ID, created.ID)
	}
	if issued.AccessToken == "" || issued.RefreshToken == "" {
		t.Fatalf("login returned empty tokens")
	}
	if issued.AccessToken == issued.RefreshToken {
		t.Fatalf("access and refresh tokens are identical")
	}

	claims, err := svc.Authenticate(issued.AccessToken, now)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if claims.UserID != created.ID {
		t.Fatalf("access token claims user %q, want %q", claims.UserID, created.ID)
	}
}

func TestSignup_Duplicate(t *testing.T) {
	svc, _, _ := newTestService(t)
	now := time.Now().UTC()

	signupTestUser(t, svc, now)

	_, err := svc.Signup(context.Background(), now, "Bob2", testEmail, testPassword)
	if !errors.Is(err, ErrDuplicateUser) {
		t.Fatalf("expected ErrDuplicateUser, got %v", err)
	}
}

func TestSignup_Validation(t *testing.T) {
	svc, users, _ := newTestService(t)
	now := time.Now().UTC()

	tests := []struct {
		name, uname, email, password, field string
	}{
		{"bad email", testName, "not-an-email", testPassword, "email"},
		{"bad name", "bad name!", testEmail, testPassword, "name"},
		{"short password", testName, testEmail, "short1!", "password"},
		{"no symbol", testName, testEmail, "Password1", "password"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Signup(context.Background(), now, tc.uname, tc.email, tc.password)
			var verr ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Field != tc.field {
				t.Fatalf("field = %q, want %q", verr.Field, tc.field)
			}
		})
	}

	if len(users.byID) != 0 {
		t.Fatalf("validation failure reached the store")
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	signupTestUser(t, svc, now)

	// Unknown user and wrong password fail identically.
	if _, _, err := svc.Login(ctx, now, "nobody@example.com", testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, now, testEmail, "Wr0ngpass!"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLogin_ReplacesPreviousSession(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	signupTestUser(t, svc, now)

	_, first, err := svc.Login(ctx, now, testEmail, testPassword)
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	_, second, err := svc.Login(ctx, now.Add(time.Second), testEmail, testPassword)
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	// The first device's refresh token is dead.
	if _, err := svc.Refresh(ctx, now.Add(2*time.Second), first.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("old refresh token: expected ErrInvalidToken, got %v", err)
	}
	if _, err := svc.Refresh(ctx, now.Add(2*time.Second), second.RefreshToken); err != nil {
		t.Fatalf("current refresh token: %v", err)
	}
}

func TestRefresh_Rotation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := signupTestUser(t, svc, now)
	_, issued, err := svc.Login(ctx, now, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	rotated, err := svc.Refresh(ctx, now.Add(time.Minute), issued.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rotated.RefreshToken == issued.RefreshToken {
		t.Fatalf("refresh did not rotate the refresh token")
	}
	if rotated.AccessToken == issued.AccessToken {
		t.Fatalf("refresh did not issue a new access token")
	}

	// The presented token is single-use.
	if _, err := svc.Refresh(ctx, now.Add(2*time.Minute), issued.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("replayed refresh token: expected ErrInvalidToken, got %v", err)
	}

	// The rotated access token authenticates the same user.
	claims, err := svc.Authenticate(rotated.AccessToken, now.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if claims.UserID != user.ID {
		t.Fatalf("rotated token claims user %q, want %q", claims.UserID, user.ID)
	}
}

func TestRefresh_MissingAndInvalid(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	if _, err := svc.Refresh(ctx, now, "  "); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("blank token: expected ErrMissingToken, got %v", err)
	}
	if _, err := svc.Refresh(ctx, now, "never-issued"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("unknown token: expected ErrInvalidToken, got %v", err)
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	signupTestUser(t, svc, now)
	_, issued, err := svc.Login(ctx, now, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Store record still present, but the signature's exp has passed.
	_, err = svc.Refresh(ctx, now.Add(8*24*time.Hour), issued.RefreshToken)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestRefresh_ExpiredStoreRecord(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := signupTestUser(t, svc, now)
	_, issued, err := svc.Login(ctx, now, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// Age only the store row; the signature stays well within its 7-day
	// validity. The stale row must still refuse to rotate.
	rec := tokens.byUser[user.ID]
	rec.ExpiresAt = now.Add(-time.Second)
	tokens.byUser[user.ID] = rec

	_, err = svc.Refresh(ctx, now.Add(time.Second), issued.RefreshToken)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("stale store row: expected ErrTokenExpired, got %v", err)
	}
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	svc, _, tokens := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := signupTestUser(t, svc, now)
	_, issued, err := svc.Login(ctx, now, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, now.Add(time.Second), issued.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	// The record survives with a revocation timestamp.
	rec := tokens.byUser[user.ID]
	if rec.RevokedAt == nil {
		t.Fatalf("logout did not revoke the record")
	}

	if _, err := svc.Refresh(ctx, now.Add(2*time.Second), issued.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("revoked token: expected ErrInvalidToken, got %v", err)
	}
	if err := svc.Logout(ctx, now.Add(2*time.Second), issued.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("double logout: expected ErrInvalidToken, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	signupTestUser(t, svc, now)
	_, issued, err := svc.Login(ctx, now, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if _, err := svc.Authenticate("", now); !errors.Is(err, ErrMissingToken) {
		t.Fatalf("empty token: expected ErrMissingToken, got %v", err)
	}
	if _, err := svc.Authenticate(issued.AccessToken, now.Add(2*time.Hour)); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expired token: expected ErrTokenExpired, got %v", err)
	}
	// A refresh token is not an access token.
	if _, err := svc.Authenticate(issued.RefreshToken, now); !errors.Is(err, ErrMalformedSignature) {
		t.Fatalf("refresh as access: expected ErrMalformedSignature, got %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := signupTestUser(t, svc, now)

	newName := "Bob2"
	newPassword := "N3wpassw0rd!"
	updated, err := svc.UpdateAccount(ctx, now, user.ID, &newName, nil, &newPassword)
	if err != nil {
		t.Fatalf("UpdateAccount: %v", err)
	}
	if updated.Name != newName {
		t.Fatalf("name = %q, want %q", updated.Name, newName)
	}

	// Old password no longer works; new one does.
	if _, _, err := svc.Login(ctx, now, testEmail, testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password after change: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(ctx, now, testEmail, newPassword); err != nil {
		t.Fatalf("new password after change: %v", err)
	}

	badEmail := "not-an-email"
	if _, err := svc.UpdateAccount(ctx, now, user.ID, nil, &badEmail, nil); !IsValidation(err) {
		t.Fatalf("bad email: expected validation error, got %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	svc, users, _ := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	user := signupTestUser(t, svc, now)
	_, issued, err := svc.Login(ctx, now, testEmail, testPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	deleted, err := svc.DeleteAccount(ctx, now.Add(time.Second), user.ID)
	if err != nil {
		t.Fatalf("DeleteAccount: %v", err)
	}
	if deleted.Status.Active() {
		t.Fatalf("deleted user still active")
	}

	// The refresh credential is dead and the email no longer logs in.
	if _, err := svc.Refresh(ctx, now.Add(2*time.Second), issued.RefreshToken); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("refresh after delete: expected ErrInvalidToken, got %v", err)
	}
	if _, _, err := svc.Login(ctx, now.Add(2*time.Second), testEmail, testPassword); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("login after delete: expected ErrInvalidCredentials, got %v", err)
	}

	// The row survives soft deletion.
	if _, err := users.GetUserByID(ctx, user.ID); err != nil {
		t.Fatalf("row removed by soft delete: %v", err)
	}
}
