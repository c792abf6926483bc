package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"classhub/cmd/identity"
)

// Claims is the signed payload embedded in both token classes.
type Claims struct {
	UserID    string
	ExpiresAt time.Time
	IssuedAt  time.Time
	Issuer    string
}

// Codec signs and verifies expiring token claims.
//
// Access and refresh tokens are the same shape but are signed with
// independent secrets; a token of one class never verifies as the other.
type Codec interface {
	IssueAccess(userID string, now time.Time) (token string, exp time.Time, err error)
	VerifyAccess(token string, now time.Time) (Claims, error)
	IssueRefresh(userID string, now time.Time) (token string, exp time.Time, err error)
	VerifyRefresh(token string, now time.Time) (Claims, error)
}

type jwtClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

type jwtCodec struct {
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration

	accessSecret  []byte
	refreshSecret []byte
}

// NewJWTCodec builds a Codec using HS256-signed JWTs.
func NewJWTCodec(cfg Config) (Codec, error) {
	if len(cfg.AccessSecret) == 0 || len(cfg.RefreshSecret) == 0 {
		return nil, ErrConfig
	}
	if string(cfg.AccessSecret) == string(cfg.RefreshSecret) {
		return nil, ErrConfig
	}
	if cfg.AccessTokenTTL <= 0 || cfg.RefreshTokenTTL <= 0 {
		return nil, ErrConfig
	}

	return &jwtCodec{
		issuer:        cfg.Issuer,
		accessTTL:     cfg.AccessTokenTTL,
		refreshTTL:    cfg.RefreshTokenTTL,
		accessSecret:  cfg.AccessSecret,
		refreshSecret: cfg.RefreshSecret,
	}, nil
}

func (c *jwtCodec) IssueAccess(userID string, now time.Time) (string, time.Time, error) {
	return c.issue(userID, now, c.accessTTL, c.accessSecret)
}

func (c *jwtCodec) VerifyAccess(token string, now time.Time) (Claims, error) {
	return c.verify(token, now, c.accessSecret)
}

func (c *jwtCodec) IssueRefresh(userID string, now time.Time) (string, time.Time, error) {
	return c.issue(userID, now, c.refreshTTL, c.refreshSecret)
}

func (c *jwtCodec) VerifyRefresh(token string, now time.Time) (Claims, error) {
	return c.verify(token, now, c.refreshSecret)
}

func (c *jwtCodec) issue(userID string, now time.Time, ttl time.Duration, secret []byte) (string, time.Time, error) {
	exp := now.Add(ttl)

	// A fresh jti makes every issued token distinct even within the
	// one-second resolution of iat; the store relies on token uniqueness.
	jti, err := identity.NewULID(now)
	if err != nil {
		return "", time.Time{}, err
	}

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwtClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        jti,
		},
	})

	signed, err := tok.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func (c *jwtCodec) verify(token string, now time.Time, secret []byte) (Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(c.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return now }),
	)

	var claims jwtClaims
	_, err := parser.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return secret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return Claims{}, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return Claims{}, ErrMalformedSignature
		default:
			return Claims{}, ErrInvalidToken
		}
	}
	if claims.UserID == "" || claims.ExpiresAt == nil {
		return Claims{}, ErrInvalidToken
	}

	out := Claims{
		UserID:    claims.UserID,
		ExpiresAt: claims.ExpiresAt.Time,
		Issuer:    claims.Issuer,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
