// Package auth はパスワード認証、Googleログイン、セッショントークンの発行と検証を提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/yevmiye/internal/model"
	"github.com/hitoshi/yevmiye/internal/repository"
	"github.com/hitoshi/yevmiye/internal/security"
)

// bcryptは72バイトを超えるパスワードを扱えない。
const maxPasswordBytes = 72

// 認証方式（メトリクスとログのラベル）
const (
	MethodRegister  = "register"
	MethodPassword  = "password"
	MethodFederated = "federated"
	MethodSession   = "session"
)

// 認証結果（メトリクスのラベル）
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// IDTokenVerifier は外部IdPのIDトークンを検証する。
type IDTokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// AttemptRecorder は認証試行の結果を記録する。
type AttemptRecorder interface {
	RecordAuthAttempt(method, outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordAuthAttempt(string, string) {}

// RegisterInput はユーザー登録の入力値。
type RegisterInput struct {
	Name     string
	Surname  string
	Email    string
	Password string
}

// Session はログイン成功時に返すセッショントークンと公開用ユーザー情報。
type Session struct {
	Token string
	User  model.PublicUser
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	users     repository.UserRepository
	hasher    *PasswordHasher
	tokens    *TokenManager
	google    IDTokenVerifier
	sanitizer security.TextSanitizer
	recorder  AttemptRecorder
	now       func() time.Time
}

// NewService はServiceを生成する。recorderがnilの場合は記録しない。
func NewService(
	users repository.UserRepository,
	hasher *PasswordHasher,
	tokens *TokenManager,
	google IDTokenVerifier,
	sanitizer security.TextSanitizer,
	recorder AttemptRecorder,
) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		tokens:    tokens,
		google:    google,
		sanitizer: sanitizer,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Register はメールアドレスとパスワードでユーザーを登録する。
// セッショントークンは発行しないため、呼び出し元は別途ログインする。
func (s *Service) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		s.recorder.RecordAuthAttempt(MethodRegister, OutcomeFailure)
		return nil, model.NewValidationError("メールアドレスとパスワードは必須です。")
	}
	if len(in.Password) > maxPasswordBytes {
		s.recorder.RecordAuthAttempt(MethodRegister, OutcomeFailure)
		return nil, model.NewValidationError("パスワードは72バイト以内で指定してください。")
	}

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		s.recorder.RecordAuthAttempt(MethodRegister, OutcomeFailure)
		return nil, model.NewEmailAlreadyRegisteredError()
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &model.User{
		ID:           uuid.New().String(),
		Name:         s.sanitizer.Clean(in.Name),
		Surname:      s.sanitizer.Clean(in.Surname),
		Email:        email,
		PasswordHash: &hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.recorder.RecordAuthAttempt(MethodRegister, OutcomeFailure)
			return nil, model.NewEmailAlreadyRegisteredError()
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.recorder.RecordAuthAttempt(MethodRegister, OutcomeSuccess)
	slog.Info("user registered", slog.String("user_id", user.ID))
	return user, nil
}

// Login はメールアドレスとパスワードを検証し、セッショントークンを発行する。
// ユーザーが存在しない場合、パスワード未設定の場合、不一致の場合はすべて同じエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		s.recorder.RecordAuthAttempt(MethodPassword, OutcomeFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil || !user.HasPassword() {
		s.recorder.RecordAuthAttempt(MethodPassword, OutcomeFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	ok, err := s.hasher.Compare(*user.PasswordHash, password)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.recorder.RecordAuthAttempt(MethodPassword, OutcomeFailure)
		return nil, model.NewInvalidCredentialsError()
	}

	return s.issueSession(user, MethodPassword)
}

// FederatedLogin はGoogle IDトークンを検証してログインする。
// 同じメールアドレスのユーザーがいなければ作成し、未連携のユーザーにはGoogle IDを紐付ける。
// 検証失敗の原因は呼び出し元に区別して返さない。
func (s *Service) FederatedLogin(ctx context.Context, providerToken string) (*Session, error) {
	if strings.TrimSpace(providerToken) == "" {
		s.recorder.RecordAuthAttempt(MethodFederated, OutcomeFailure)
		return nil, model.NewInvalidTokenError()
	}

	identity, err := s.google.Verify(ctx, providerToken)
	if err != nil {
		s.recorder.RecordAuthAttempt(MethodFederated, OutcomeFailure)
		slog.Warn("google id token verification failed", slog.String("error", err.Error()))
		return nil, model.NewInvalidTokenError()
	}

	user, err := s.users.FindByEmail(ctx, identity.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	switch {
	case user == nil:
		user, err = s.createFederatedUser(ctx, identity)
		if err != nil {
			return nil, err
		}
	case !user.HasGoogleID():
		if err := s.users.AttachGoogleID(ctx, user.ID, identity.Subject); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				s.recorder.RecordAuthAttempt(MethodFederated, OutcomeFailure)
				return nil, model.NewGoogleAccountInUseError()
			}
			return nil, fmt.Errorf("failed to link google account: %w", err)
		}
		subject := identity.Subject
		user.GoogleID = &subject
		slog.Info("google account linked", slog.String("user_id", user.ID))
	}

	return s.issueSession(user, MethodFederated)
}

// createFederatedUser はパスワードを持たないGoogle連携ユーザーを作成する。
// 同時作成で一意制約に違反した場合は、作成済みのユーザーを再取得する。
func (s *Service) createFederatedUser(ctx context.Context, identity *GoogleIdentity) (*model.User, error) {
	now := s.now()
	subject := identity.Subject
	user := &model.User{
		ID:        uuid.New().String(),
		Name:      s.sanitizer.Clean(identity.GivenName),
		Surname:   s.sanitizer.Clean(identity.FamilyName),
		Email:     identity.Email,
		GoogleID:  &subject,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.users.Create(ctx, user)
	if err == nil {
		slog.Info("user registered via google", slog.String("user_id", user.ID))
		return user, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, fmt.Errorf("failed to create federated user: %w", err)
	}

	existing, findErr := s.users.FindByEmail(ctx, identity.Email)
	if findErr != nil {
		return nil, fmt.Errorf("failed to reload user: %w", findErr)
	}
	if existing == nil {
		s.recorder.RecordAuthAttempt(MethodFederated, OutcomeFailure)
		return nil, model.NewGoogleAccountInUseError()
	}
	return existing, nil
}

func (s *Service) issueSession(user *model.User, method string) (*Session, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, err
	}
	s.recorder.RecordAuthAttempt(method, OutcomeSuccess)
	slog.Info("user logged in",
		slog.String("user_id", user.ID),
		slog.String("method", method),
	)
	return &Session{Token: token, User: user.Public()}, nil
}

// Authenticate はセッショントークンを検証し、現存するユーザーを返す。
// トークンが不正・期限切れの場合、またはユーザーが存在しない場合はUnauthorizedを返す。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		s.recorder.RecordAuthAttempt(MethodSession, OutcomeFailure)
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.users.FindByID(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find session user: %w", err)
	}
	if user == nil {
		s.recorder.RecordAuthAttempt(MethodSession, OutcomeFailure)
		return nil, model.NewUnauthorizedError()
	}
	return user, nil
}

// ResolveSelf は認証済みユーザー本人の情報を返す。
func (s *Service) ResolveSelf(ctx context.Context, userID string) (*model.Profile, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	profile := user.Profile()
	return &profile, nil
}
