package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/yevmiye/internal/model"
)

// --- モック定義 ---

type mockAuthenticator struct {
	authenticateFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if m.authenticateFn != nil {
		return m.authenticateFn(ctx, token)
	}
	return nil, model.NewUnauthorizedError()
}

var _ SessionAuthenticator = (*mockAuthenticator)(nil)

func validTokenAuthenticator() *mockAuthenticator {
	return &mockAuthenticator{
		authenticateFn: func(_ context.Context, token string) (*model.User, error) {
			if token == "valid-token" {
				return &model.User{ID: "user-123", Email: "a@x.com"}, nil
			}
			return nil, model.NewUnauthorizedError()
		},
	}
}

// --- テスト ---

func TestSessionMiddleware_ValidToken_InjectsUser(t *testing.T) {
	mw := NewSessionMiddleware(validTokenAuthenticator())

	var capturedUser *model.User
	var capturedUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var err error
		capturedUser, err = UserFromContext(r.Context())
		if err != nil {
			t.Errorf("expected user in context, got %v", err)
		}
		capturedUserID, _ = UserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/workplaces", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if capturedUser == nil || capturedUser.ID != "user-123" {
		t.Errorf("user = %+v", capturedUser)
	}
	if capturedUserID != "user-123" {
		t.Errorf("userID = %q, want %q", capturedUserID, "user-123")
	}
}

func TestSessionMiddleware_RejectsBeforeHandler(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"ヘッダーなし", ""},
		{"Bearerなし", "valid-token"},
		{"別スキーム", "Basic dXNlcjpwYXNz"},
		{"空トークン", "Bearer   "},
		{"不正トークン", "Bearer invalid-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewSessionMiddleware(validTokenAuthenticator())
			handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Error("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/workplaces", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			var body ErrorResponseBody
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Code != model.ErrCodeUnauthorized {
				t.Errorf("code = %q, want %q", body.Code, model.ErrCodeUnauthorized)
			}
		})
	}
}

func TestSessionMiddleware_LowercaseBearer(t *testing.T) {
	mw := NewSessionMiddleware(validTokenAuthenticator())
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.Header.Set("Authorization", "bearer valid-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
}

func TestSessionMiddleware_AuthenticatorFailure_Returns500(t *testing.T) {
	mw := NewSessionMiddleware(&mockAuthenticator{
		authenticateFn: func(context.Context, string) (*model.User, error) {
			return nil, errors.New("db connection lost")
		},
	})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be called")
	}))

	req := httptest.NewRequest(http.MethodGet, "/workplaces", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if got := w.Body.String(); got == "" || containsAny(got, "db connection lost") {
		t.Errorf("内部エラーの詳細を返すべきではない: %s", got)
	}
}

func TestUserFromContext_Missing(t *testing.T) {
	if _, err := UserFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
	if _, err := UserIDFromContext(context.Background()); err == nil {
		t.Error("expected error for empty context")
	}
}

func TestContextWithUserID(t *testing.T) {
	ctx := ContextWithUserID(context.Background(), "user-9")
	got, err := UserIDFromContext(ctx)
	if err != nil || got != "user-9" {
		t.Errorf("UserIDFromContext = %q, %v", got, err)
	}
}
