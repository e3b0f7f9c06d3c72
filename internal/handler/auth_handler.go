package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/yevmiye/internal/auth"
	"github.com/hitoshi/yevmiye/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register はメールアドレスとパスワードでユーザーを登録する。
	Register(ctx context.Context, in auth.RegisterInput) (*model.User, error)
	// Login はパスワード認証を行いセッショントークンを発行する。
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	// FederatedLogin はGoogle IDトークンでログインする。
	FederatedLogin(ctx context.Context, providerToken string) (*auth.Session, error)
	// ResolveSelf は本人のユーザー情報を返す。
	ResolveSelf(ctx context.Context, userID string) (*model.Profile, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

type registerRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// federatedLoginRequest はGoogleログインのリクエスト。
// モバイルクライアントの互換性のためidTokenも受け付ける。
type federatedLoginRequest struct {
	ProviderToken string `json:"providerToken"`
	IDToken       string `json:"idToken"`
}

func (r federatedLoginRequest) token() string {
	if strings.TrimSpace(r.ProviderToken) != "" {
		return r.ProviderToken
	}
	return r.IDToken
}

// publicUserResponse はログインレスポンスに含めるユーザー情報。
type publicUserResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
}

type sessionResponse struct {
	Token string             `json:"token"`
	User  publicUserResponse `json:"user"`
}

// profileResponse は GET /auth/me のレスポンス。
type profileResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Surname      string    `json:"surname"`
	Email        string    `json:"email"`
	HasPassword  bool      `json:"hasPassword"`
	GoogleLinked bool      `json:"googleLinked"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Register はユーザーを登録する。トークンは発行しない。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.service.Register(r.Context(), auth.RegisterInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: req.Password,
	}); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "ユーザーを登録しました。"})
}

// Login はメールアドレスとパスワードでログインする。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// FederatedLogin はGoogle IDトークンでログインする。
// POST /auth/federated, POST /auth/google
func (h *AuthHandler) FederatedLogin(w http.ResponseWriter, r *http.Request) {
	var req federatedLoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.service.FederatedLogin(r.Context(), req.token())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toSessionResponse(session))
}

// Me は認証済みユーザーの情報を返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	profile, err := h.service.ResolveSelf(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		ID:           profile.ID,
		Name:         profile.Name,
		Surname:      profile.Surname,
		Email:        profile.Email,
		HasPassword:  profile.HasPassword,
		GoogleLinked: profile.GoogleLinked,
		CreatedAt:    profile.CreatedAt,
		UpdatedAt:    profile.UpdatedAt,
	})
}

func toSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{
		Token: s.Token,
		User: publicUserResponse{
			ID:      s.User.ID,
			Name:    s.User.Name,
			Surname: s.User.Surname,
			Email:   s.User.Email,
		},
	}
}
