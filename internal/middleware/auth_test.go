package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"garbanzo/internal/httputil"
)

type stubVerifier struct {
	subject string
	err     error
}

func (s stubVerifier) Verify(token string) (string, error) {
	return s.subject, s.err
}

func TestAuthAllowsPublicPaths(t *testing.T) {
	handler := Auth(stubVerifier{err: errors.New("never called")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, path := range []string{"/health", "/api/auth/register", "/api/auth/login"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, rec.Code)
		}
	}
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(stubVerifier{subject: "alice@example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached without a token")
	}))

	for _, header := range []string{"", "Bearer ", "Basic abc", "token"} {
		req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("header %q: status = %d, want 401", header, rec.Code)
		}
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(stubVerifier{err: errors.New("expired")})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler reached with invalid token")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestAuthInjectsSubject(t *testing.T) {
	var got string
	handler := Auth(stubVerifier{subject: "alice@example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = httputil.GetUserID(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/conversations", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got != "alice@example.com" {
		t.Errorf("subject = %q, want alice@example.com", got)
	}
}
