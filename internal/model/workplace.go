// Package model はドメインモデルを定義する。
package model

import "time"

// DefaultWorkplaceColor は色が指定されなかった場合の表示色。
const DefaultWorkplaceColor = "#3B82F6"

// Workplace はユーザーが登録した勤務先を表す。
type Workplace struct {
	ID        string
	UserID    string
	Name      string
	DailyWage float64
	Color     string
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// WorkplacePatch は勤務先の部分更新内容を表す。
// nilのフィールドは「指定なし」として扱う。
type WorkplacePatch struct {
	Name      *string
	DailyWage *float64
	Color     *string
	IsActive  *bool
}
