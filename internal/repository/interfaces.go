// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/hitoshi/yevmiye/internal/model"
)

// ErrDuplicate は一意制約違反を表す。
// サービス層はこのエラーを用途に応じたConflictエラーに変換する。
var ErrDuplicate = errors.New("duplicate record")

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// メールアドレスは保存された値との完全一致で比較する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// emailまたはgoogle_idが重複する場合はErrDuplicateを返す。
	Create(ctx context.Context, user *model.User) error

	// AttachGoogleID は未連携のユーザーにGoogleのsubject IDを紐付ける。
	// 既に連携済みの場合は何もしない。
	AttachGoogleID(ctx context.Context, userID, googleID string) error
}

// WorkplaceRepository は勤務先データの永続化インターフェース。
// すべての操作は所有ユーザーIDで絞り込まれる。
type WorkplaceRepository interface {
	// FindByID は指定ユーザーが所有する勤務先を取得する。
	// 見つからない場合、または他ユーザーの勤務先の場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.Workplace, error)

	// ListByUserID はユーザーの勤務先一覧を返す。
	// activeOnlyがtrueの場合は有効な勤務先のみを作成日時の降順で返す。
	// falseの場合は有効なものを先に、その中で作成日時の降順で返す。
	ListByUserID(ctx context.Context, userID string, activeOnly bool) ([]*model.Workplace, error)

	// Create は勤務先を作成する。
	Create(ctx context.Context, workplace *model.Workplace) error

	// Update は勤務先の名前・日当・色・有効フラグを更新する。
	// 見つからない場合はfalseを返す。
	Update(ctx context.Context, workplace *model.Workplace) (bool, error)

	// Delete は指定ユーザーが所有する勤務先を削除する。
	// 参照している勤務記録は削除しない。見つからない場合はfalseを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)
}

// WorkdayRepository は勤務記録データの永続化インターフェース。
// すべての操作は所有ユーザーIDで絞り込まれる。
type WorkdayRepository interface {
	// FindByID は指定ユーザーが所有する勤務記録を勤務先概要付きで取得する。
	// 見つからない場合はnilを返す。
	FindByID(ctx context.Context, userID, id string) (*model.WorkdayWithWorkplace, error)

	// ListByUserID はユーザーの勤務記録を日付の降順で返す。
	// rngがnilでない場合は [Start, End] の閉区間で絞り込む。
	ListByUserID(ctx context.Context, userID string, rng *model.DateRange) ([]model.WorkdayWithWorkplace, error)

	// Create は勤務記録を作成する。
	// 同一ユーザー・同一日付の記録が既に存在する場合はErrDuplicateを返す。
	Create(ctx context.Context, workday *model.Workday) error

	// UpdateWorkplaceAndWage は勤務記録の勤務先と日当を更新する。日付は変更しない。
	// 見つからない場合はfalseを返す。
	UpdateWorkplaceAndWage(ctx context.Context, userID, id, workplaceID string, wage float64) (bool, error)

	// Delete は指定ユーザーが所有する勤務記録を削除する。見つからない場合はfalseを返す。
	Delete(ctx context.Context, userID, id string) (bool, error)
}
