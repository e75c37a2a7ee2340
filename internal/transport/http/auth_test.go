package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodbridge/api/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuthenticate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		header         string
		expectedStatus int
		expectedActor  domain.Actor
	}{
		{
			name:           "valid donor token",
			header:         "Bearer " + signToken(t, jwt.MapClaims{"sub": "donor-1", "role": "donor"}),
			expectedStatus: http.StatusOK,
			expectedActor:  domain.Actor{ID: "donor-1", Role: domain.RoleDonor},
		},
		{
			name:           "valid recipient token",
			header:         "Bearer " + signToken(t, jwt.MapClaims{"sub": "rec-1", "role": "recipient"}),
			expectedStatus: http.StatusOK,
			expectedActor:  domain.Actor{ID: "rec-1", Role: domain.RoleRecipient},
		},
		{
			name:           "missing header",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "not bearer",
			header:         "Basic abc",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "garbage token",
			header:         "Bearer not.a.token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing sub",
			header:         "Bearer " + signToken(t, jwt.MapClaims{"role": "donor"}),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown role",
			header:         "Bearer " + signToken(t, jwt.MapClaims{"sub": "x", "role": "superuser"}),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var seen domain.Actor
			handler := Authenticate(testSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen, _ = ActorFrom(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/donations", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedStatus == http.StatusOK && seen != tt.expectedActor {
				t.Fatalf("expected actor %+v, got %+v", tt.expectedActor, seen)
			}
		})
	}
}

func TestAuthenticate_WrongSecret(t *testing.T) {
	t.Parallel()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "donor-1", "role": "donor"}).
		SignedString([]byte("other-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	handler := Authenticate(testSecret, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/donations", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", rec.Code)
	}
}
