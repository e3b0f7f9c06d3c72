// Package model はドメインモデルを定義する。
package model

import "time"

// Workday はある日付の勤務記録を表す。
// (UserID, Date) の組はユーザーごとに一意。
type Workday struct {
	ID          string
	UserID      string
	WorkplaceID string
	Date        time.Time // サーバーローカル時刻の0時に正規化された日付
	WageOnDay   float64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// WorkplaceSummary は勤務記録に展開する勤務先の概要。
type WorkplaceSummary struct {
	ID        string
	Name      string
	Color     string
	DailyWage float64
}

// WorkdayWithWorkplace は勤務記録と参照先の勤務先概要を結合したモデル。
// workplacesテーブルとLEFT JOINして取得される。
// 勤務先が削除済みの場合、Workplaceはnilになる。
type WorkdayWithWorkplace struct {
	Workday
	Workplace *WorkplaceSummary
}

// DateRange は日付の閉区間を表す。
type DateRange struct {
	Start time.Time
	End   time.Time
}
