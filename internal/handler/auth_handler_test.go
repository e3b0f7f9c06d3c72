package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/yevmiye/internal/auth"
	"github.com/hitoshi/yevmiye/internal/model"
)

// --- モック定義 ---

type mockAuthService struct {
	registerFn       func(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	loginFn          func(ctx context.Context, email, password string) (*auth.Session, error)
	federatedLoginFn func(ctx context.Context, token string) (*auth.Session, error)
	resolveSelfFn    func(ctx context.Context, userID string) (*model.Profile, error)
}

func (m *mockAuthService) Register(ctx context.Context, in auth.RegisterInput) (*model.User, error) {
	if m.registerFn != nil {
		return m.registerFn(ctx, in)
	}
	return &model.User{}, nil
}

func (m *mockAuthService) Login(ctx context.Context, email, password string) (*auth.Session, error) {
	if m.loginFn != nil {
		return m.loginFn(ctx, email, password)
	}
	return nil, model.NewInvalidCredentialsError()
}

func (m *mockAuthService) FederatedLogin(ctx context.Context, token string) (*auth.Session, error) {
	if m.federatedLoginFn != nil {
		return m.federatedLoginFn(ctx, token)
	}
	return nil, model.NewInvalidTokenError()
}

func (m *mockAuthService) ResolveSelf(ctx context.Context, userID string) (*model.Profile, error) {
	if m.resolveSelfFn != nil {
		return m.resolveSelfFn(ctx, userID)
	}
	return nil, model.NewUserNotFoundError()
}

var _ AuthServiceInterface = (*mockAuthService)(nil)

func testSession(token string) *auth.Session {
	return &auth.Session{
		Token: token,
		User:  model.PublicUser{ID: "user-1", Name: "Ayşe", Surname: "Yılmaz", Email: "ayse@example.com"},
	}
}

// --- POST /auth/register ---

func TestAuthHandler_Register_Created(t *testing.T) {
	var got auth.RegisterInput
	h := NewAuthHandler(&mockAuthService{
		registerFn: func(_ context.Context, in auth.RegisterInput) (*model.User, error) {
			got = in
			return &model.User{ID: "user-1"}, nil
		},
	})

	body := `{"name":"Ayşe","surname":"Yılmaz","email":"ayse@example.com","password":"secret123"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Register(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}
	if got.Email != "ayse@example.com" || got.Password != "secret123" || got.Name != "Ayşe" || got.Surname != "Yılmaz" {
		t.Errorf("input = %+v", got)
	}
	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["message"] == "" || resp["message"] == nil {
		t.Error("message missing")
	}
	if _, ok := resp["token"]; ok {
		t.Error("登録時にトークンを返すべきではない")
	}
}

func TestAuthHandler_Register_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   string
	}{
		{"不正なJSON", `{"email":`, nil, http.StatusBadRequest, model.ErrCodeInvalidRequest},
		{"検証エラー", `{}`, model.NewValidationError("必須"), http.StatusBadRequest, model.ErrCodeValidation},
		{"メール重複", `{"email":"a@x.com","password":"p"}`, model.NewEmailAlreadyRegisteredError(), http.StatusBadRequest, model.ErrCodeEmailAlreadyRegistered},
		{"内部エラー", `{"email":"a@x.com","password":"p"}`, errors.New("db down"), http.StatusInternalServerError, model.ErrCodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&mockAuthService{
				registerFn: func(context.Context, auth.RegisterInput) (*model.User, error) {
					return nil, tt.err
				},
			})
			w := httptest.NewRecorder()
			h.Register(w, httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(tt.body)))

			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
			if body := parseAPIErrorResponse(t, w); body["code"] != tt.code {
				t.Errorf("code = %q, want %q", body["code"], tt.code)
			}
		})
	}
}

// --- POST /auth/login ---

func TestAuthHandler_Login_Success(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		loginFn: func(_ context.Context, email, password string) (*auth.Session, error) {
			if email != "ayse@example.com" || password != "secret123" {
				t.Errorf("email/password = %q/%q", email, password)
			}
			return testSession("jwt-token"), nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"ayse@example.com","password":"secret123"}`))
	w := httptest.NewRecorder()
	h.Login(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp sessionResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Token != "jwt-token" || resp.User.ID != "user-1" || resp.User.Surname != "Yılmaz" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestAuthHandler_Login_ResponseHasNoSecrets(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{
		loginFn: func(context.Context, string, string) (*auth.Session, error) {
			return testSession("jwt-token"), nil
		},
	})

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a","password":"b"}`)))

	body := w.Body.String()
	for _, forbidden := range []string{"password", "googleId", "google_id", "hash"} {
		if strings.Contains(body, forbidden) {
			t.Errorf("response contains %q: %s", forbidden, body)
		}
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	h.Login(w, httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email":"a@x.com","password":"wrong"}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q", body["code"])
	}
}

// --- POST /auth/federated ---

func TestAuthHandler_FederatedLogin_TokenFields(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"providerToken", `{"providerToken":"provider-abc"}`, "provider-abc"},
		{"idToken互換", `{"idToken":"id-abc"}`, "id-abc"},
		{"両方指定時はproviderToken優先", `{"providerToken":"p","idToken":"i"}`, "p"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := NewAuthHandler(&mockAuthService{
				federatedLoginFn: func(_ context.Context, token string) (*auth.Session, error) {
					got = token
					return testSession("jwt"), nil
				},
			})
			w := httptest.NewRecorder()
			h.FederatedLogin(w, httptest.NewRequest(http.MethodPost, "/auth/federated", strings.NewReader(tt.body)))

			if w.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
			}
			if got != tt.want {
				t.Errorf("token = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAuthHandler_FederatedLogin_InvalidToken(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	h.FederatedLogin(w, httptest.NewRequest(http.MethodPost, "/auth/federated", strings.NewReader(`{"providerToken":"forged"}`)))

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeInvalidToken {
		t.Errorf("code = %q", body["code"])
	}
}

// --- GET /auth/me ---

func TestAuthHandler_Me(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	h := NewAuthHandler(&mockAuthService{
		resolveSelfFn: func(_ context.Context, userID string) (*model.Profile, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q", userID)
			}
			return &model.Profile{
				ID: "user-1", Name: "Ayşe", Surname: "Yılmaz", Email: "ayse@example.com",
				HasPassword: true, GoogleLinked: false, CreatedAt: created, UpdatedAt: created,
			}, nil
		},
	})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/auth/me", nil), "user-1")
	w := httptest.NewRecorder()
	h.Me(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp map[string]any
	json.NewDecoder(w.Body).Decode(&resp)
	if resp["email"] != "ayse@example.com" || resp["hasPassword"] != true || resp["googleLinked"] != false {
		t.Errorf("resp = %v", resp)
	}
	if resp["createdAt"] != "2026-01-02T03:04:05Z" {
		t.Errorf("createdAt = %v", resp["createdAt"])
	}
}

func TestAuthHandler_Me_NoUserInContext(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	h.Me(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
