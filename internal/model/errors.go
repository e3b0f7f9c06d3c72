// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, conflict, not_found, auth, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// エラーカテゴリ
const (
	CategoryValidation = "validation"
	CategoryConflict   = "conflict"
	CategoryNotFound   = "not_found"
	CategoryAuth       = "auth"
	CategorySystem     = "system"
)

// 定義済みエラーコード
const (
	ErrCodeInvalidRequest         = "INVALID_REQUEST"
	ErrCodeValidation             = "VALIDATION_ERROR"
	ErrCodeInvalidDate            = "INVALID_DATE"
	ErrCodeFutureDate             = "FUTURE_DATE"
	ErrCodeNegativeWage           = "NEGATIVE_WAGE"
	ErrCodeEmailAlreadyRegistered = "EMAIL_ALREADY_REGISTERED"
	ErrCodeWorkdayAlreadyExists   = "WORKDAY_ALREADY_EXISTS"
	ErrCodeGoogleAccountInUse     = "GOOGLE_ACCOUNT_IN_USE"
	ErrCodeInvalidCredentials     = "INVALID_CREDENTIALS"
	ErrCodeInvalidToken           = "INVALID_TOKEN"
	ErrCodeUnauthorized           = "UNAUTHORIZED"
	ErrCodeWorkplaceNotFound      = "WORKPLACE_NOT_FOUND"
	ErrCodeWorkdayNotFound        = "WORKDAY_NOT_FOUND"
	ErrCodeUserNotFound           = "USER_NOT_FOUND"
	ErrCodeInternal               = "INTERNAL_ERROR"
)

// NewInvalidRequestError はリクエストボディの解析失敗エラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: CategoryValidation,
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}

// NewValidationError は入力値の検証エラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: CategoryValidation,
		Action:   "入力内容を確認してください。",
	}
}

// NewInvalidDateError は日付形式が不正な場合のエラーを生成する。
func NewInvalidDateError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidDate,
		Message:  fmt.Sprintf("日付の形式が不正です: %s", raw),
		Category: CategoryValidation,
		Action:   "日付は YYYY-MM-DD 形式で指定してください。",
	}
}

// NewFutureDateError は未来日付の勤務記録を作成しようとした場合のエラーを生成する。
func NewFutureDateError() *APIError {
	return &APIError{
		Code:     ErrCodeFutureDate,
		Message:  "未来の日付には勤務記録を作成できません。",
		Category: CategoryValidation,
		Action:   "今日以前の日付を指定してください。",
	}
}

// NewNegativeWageError は日当が負の値の場合のエラーを生成する。
func NewNegativeWageError() *APIError {
	return &APIError{
		Code:     ErrCodeNegativeWage,
		Message:  "日当に0未満の値は指定できません。",
		Category: CategoryValidation,
		Action:   "0以上の金額を指定してください。",
	}
}

// NewEmailAlreadyRegisteredError はメールアドレスが登録済みの場合のエラーを生成する。
func NewEmailAlreadyRegisteredError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailAlreadyRegistered,
		Message:  "このメールアドレスは既に登録されています。",
		Category: CategoryConflict,
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewWorkdayAlreadyExistsError は同じ日付の勤務記録が既に存在する場合のエラーを生成する。
func NewWorkdayAlreadyExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeWorkdayAlreadyExists,
		Message:  "この日付の勤務記録は既に存在します。",
		Category: CategoryConflict,
		Action:   "既存の記録を編集してください。",
	}
}

// NewGoogleAccountInUseError はGoogleアカウントが別のユーザーに連携済みの場合のエラーを生成する。
func NewGoogleAccountInUseError() *APIError {
	return &APIError{
		Code:     ErrCodeGoogleAccountInUse,
		Message:  "このGoogleアカウントは別のユーザーに連携されています。",
		Category: CategoryConflict,
		Action:   "連携済みのアカウントでログインしてください。",
	}
}

// NewInvalidCredentialsError はメールアドレスまたはパスワードが一致しない場合のエラーを生成する。
// どちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: CategoryAuth,
		Action:   "入力内容を確認して再度ログインしてください。",
	}
}

// NewInvalidTokenError は外部IdPのトークン検証に失敗した場合のエラーを生成する。
// 失敗の原因（署名・audience・有効期限）はレスポンスに含めない。
func NewInvalidTokenError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidToken,
		Message:  "Googleログインに失敗しました。",
		Category: CategoryAuth,
		Action:   "もう一度Googleでログインしてください。",
	}
}

// NewUnauthorizedError は未認証リクエストのエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: CategoryAuth,
		Action:   "ログインしてください。",
	}
}

// NewWorkplaceNotFoundError は勤務先が見つからない場合のエラーを生成する。
func NewWorkplaceNotFoundError(workplaceID string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkplaceNotFound,
		Message:  fmt.Sprintf("指定された勤務先が見つかりません: %s", workplaceID),
		Category: CategoryNotFound,
		Action:   "勤務先IDを確認してください。",
	}
}

// NewWorkdayNotFoundError は勤務記録が見つからない場合のエラーを生成する。
func NewWorkdayNotFoundError(workdayID string) *APIError {
	return &APIError{
		Code:     ErrCodeWorkdayNotFound,
		Message:  fmt.Sprintf("指定された勤務記録が見つかりません: %s", workdayID),
		Category: CategoryNotFound,
		Action:   "勤務記録IDを確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: CategoryAuth,
		Action:   "ログインし直してください。",
	}
}

// NewInternalError は内部エラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: CategorySystem,
		Action:   "しばらく待ってから再度お試しください。",
	}
}
