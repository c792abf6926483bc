package authapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Email string `json:"email"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{"valid", `{"email":"a@b.com"}`, false},
		{"unknown field", `{"email":"a@b.com","admin":true}`, true},
		{"trailing value", `{"email":"a@b.com"}{"email":"c@d.com"}`, true},
		{"not json", `email=a@b.com`, true},
		{"empty", ``, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))
			w := httptest.NewRecorder()

			var dst payload
			err := decodeJSON(w, r, 1<<20, &dst)
			if (err != nil) != tc.wantErr {
				t.Fatalf("decodeJSON(%q) error = %v, wantErr %v", tc.body, err, tc.wantErr)
			}
		})
	}
}

func TestDecodeJSON_BodyCap(t *testing.T) {
	big := `{"email":"` + strings.Repeat("a", 100) + `@b.com"}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
	w := httptest.NewRecorder()

	var dst struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, 16, &dst); err == nil {
		t.Fatalf("oversize body decoded without error")
	}
}

func TestWriteJSON_SetsNoStore(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, http.StatusOK, map[string]string{"ok": "yes"})

	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("Cache-Control = %q", got)
	}
	if got := w.Header().Get("Content-Type"); !strings.HasPrefix(got, "application/json") {
		t.Fatalf("Content-Type = %q", got)
	}

	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body["ok"] != "yes" {
		t.Fatalf("body = %s (err %v)", w.Body.String(), err)
	}
}
