// Package identity implements classhub's identity foundation.
//
// It contains the User model with its soft-delete lifecycle, credential
// format validators, bcrypt password hashing, and the user store
// interface plus its Postgres implementation.
//
// This package is intentionally dependency-light and security-first.
package identity
