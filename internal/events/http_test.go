package events

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapliy/emergency-dispatch/pkg/observability"
)

const testSecret = "push-secret"

func signToken(t *testing.T, secret string, method jwt.SigningMethod, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(method, jwt.RegisteredClaims{
		Subject:   "change-stream",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestServer_PushEvent(t *testing.T) {
	body := `{"id":"e1","type":"document.deleted","collection":"users","document_id":"user-1"}`

	tests := []struct {
		name        string
		auth        string
		body        string
		wantStatus  int
		wantDeleted []string
	}{
		{
			name:        "accepted",
			auth:        "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, time.Minute),
			body:        body,
			wantStatus:  http.StatusAccepted,
			wantDeleted: []string{"user-1"},
		},
		{
			name:       "missing token",
			body:       body,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong secret",
			auth:       "Bearer " + signToken(t, "other", jwt.SigningMethodHS256, time.Minute),
			body:       body,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "wrong algorithm",
			auth:       "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS512, time.Minute),
			body:       body,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			auth:       "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, -time.Minute),
			body:       body,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "malformed body",
			auth:       "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, time.Minute),
			body:       `{"type":`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing collection",
			auth:       "Bearer " + signToken(t, testSecret, jwt.SigningMethodHS256, time.Minute),
			body:       `{"type":"document.deleted","document_id":"user-1"}`,
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, h := newTestRouter()
			srv := NewServer(router, testSecret, observability.NopLogger())

			req := httptest.NewRequest(http.MethodPost, "/v1/events", strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			rec := httptest.NewRecorder()

			srv.Routes().ServeHTTP(rec, req)
			srv.Wait()

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDeleted, h.deletedIDs)
		})
	}
}

func TestServer_PushEventWithoutSecret(t *testing.T) {
	router, h := newTestRouter()
	srv := NewServer(router, "", observability.NopLogger())

	req := httptest.NewRequest(http.MethodPost, "/v1/events",
		strings.NewReader(`{"type":"document.deleted","collection":"users","document_id":"user-2"}`))
	rec := httptest.NewRecorder()

	srv.Routes().ServeHTTP(rec, req)
	srv.Wait()

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []string{"user-2"}, h.deletedIDs)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	router, _ := newTestRouter()
	srv := NewServer(router, "", observability.NopLogger())

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/events", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestServer_Health(t *testing.T) {
	router, _ := newTestRouter()
	srv := NewServer(router, "", observability.NopLogger())

	rec := httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	srv.AddHealthCheck("postgres", func(ctx context.Context) error { return errors.New("connection refused") })
	rec = httptest.NewRecorder()
	srv.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "connection refused")
}
