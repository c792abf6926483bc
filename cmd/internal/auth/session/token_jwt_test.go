package session

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testCodecConfig() Config {
	cfg := DefaultConfig()
	cfg.AccessSecret = []byte("access-secret-for-tests-0123456789")
	cfg.RefreshSecret = []byte("refresh-secret-for-tests-0123456789")
	return cfg
}

func mustCodec(t *testing.T) Codec {
	t.Helper()
	c, err := NewJWTCodec(testCodecConfig())
	if err != nil {
		t.Fatalf("NewJWTCodec: %v", err)
	}
	return c
}

func TestNewJWTCodec_RejectsBadConfig(t *testing.T) {
	cfg := testCodecConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	if _, err := NewJWTCodec(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for shared secrets, got %v", err)
	}

	cfg = testCodecConfig()
	cfg.AccessSecret = nil
	if _, err := NewJWTCodec(cfg); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for missing secret, got %v", err)
	}
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	c := mustCodec(t)
	now := time.Now().UTC()

	tok, exp, err := c.IssueAccess("01HZZZZZZZZZZZZZZZZZZZZZZZ", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	if !exp.After(now) {
		t.Fatalf("expected exp after now")
	}

	claims, err := c.VerifyAccess(tok, now.Add(time.Second))
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != "01HZZZZZZZZZZZZZZZZZZZZZZZ" {
		t.Fatalf("user id = %q", claims.UserID)
	}
	if !claims.ExpiresAt.Equal(exp.Truncate(time.Second)) {
		t.Fatalf("embedded exp %v != issued exp %v", claims.ExpiresAt, exp)
	}
}

func TestVerify_Expired(t *testing.T) {
	c := mustCodec(t)
	now := time.Now().UTC()

	tok, _, err := c.IssueRefresh("u1", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	// Verification clock well past the 7-day refresh TTL.
	_, err = c.VerifyRefresh(tok, now.Add(8*24*time.Hour))
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestVerify_CrossClassFails(t *testing.T) {
	c := mustCodec(t)
	now := time.Now().UTC()

	access, _, err := c.IssueAccess("u1", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	refresh, _, err := c.IssueRefresh("u1", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}

	// Either direction must fail the signature check: compromise of one
	// token class must not forge the other.
	if _, err := c.VerifyRefresh(access, now); !errors.Is(err, ErrMalformedSignature) {
		t.Fatalf("access token verified as refresh: %v", err)
	}
	if _, err := c.VerifyAccess(refresh, now); !errors.Is(err, ErrMalformedSignature) {
		t.Fatalf("refresh token verified as access: %v", err)
	}
}

func TestVerify_Tampered(t *testing.T) {
	c := mustCodec(t)
	now := time.Now().UTC()

	tok, _, err := c.IssueAccess("u1", now)
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}

	// Flip a character in the signature segment.
	i := strings.LastIndex(tok, ".")
	sig := []byte(tok[i+1:])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := tok[:i+1] + string(sig)

	if _, err := c.VerifyAccess(tampered, now); !errors.Is(err, ErrMalformedSignature) {
		t.Fatalf("expected ErrMalformedSignature, got %v", err)
	}
}

func TestVerify_Garbage(t *testing.T) {
	c := mustCodec(t)
	now := time.Now().UTC()

	if _, err := c.VerifyAccess("not-a-token", now); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestIssue_TokensAreUnique(t *testing.T) {
	c := mustCodec(t)
	now := time.Now().UTC()

	// The store keys on the token string; two issues within the same
	// second must still differ.
	t1, _, err := c.IssueRefresh("u1", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	t2, _, err := c.IssueRefresh("u1", now)
	if err != nil {
		t.Fatalf("IssueRefresh: %v", err)
	}
	if t1 == t2 {
		t.Fatalf("two refresh tokens issued at the same instant are identical")
	}
}
