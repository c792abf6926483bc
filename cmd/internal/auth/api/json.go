package authapi

import (
	"encoding/json"
	"errors"
	"net/http"
)

// apiError is the uniform error body for the auth routes: a stable
// machine code plus a human message. The message never carries
// credentials, hashes, or token material.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error apiError `json:"error"`
}

var (
	errMissingBody  = errors.New("missing request body")
	errTrailingData = errors.New("request body holds more than one JSON value")
)

// writeJSON marshals v and writes it with Cache-Control: no-store.
// Every auth response carries tokens or account data; none of it may be
// cached by intermediaries.
func writeJSON(w http.ResponseWriter, status int, v any) {
	buf, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":{"code":"server_error","message":"internal error"}}`,
			http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, errorResponse{Error: apiError{Code: code, Message: msg}})
}

// decodeJSON reads exactly one JSON value into dst. Bodies are capped
// at maxBytes, unknown fields are rejected, and trailing data after the
// value is an error: a request either has the documented shape or it is
// a 400, never a partially honored payload.
func decodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errMissingBody
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errTrailingData
	}
	return nil
}
