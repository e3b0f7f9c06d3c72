package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hitoshi/yevmiye/internal/model"
)

// dateLayout はwork_date列の受け渡しに使う日付書式。
// DATE型にtime.Timeを直接渡すとセッションのタイムゾーンで日付が変わるため文字列で渡す。
const dateLayout = "2006-01-02"

// PostgresWorkdayRepo はPostgreSQLを使用した勤務記録リポジトリ。
type PostgresWorkdayRepo struct {
	db *sql.DB
}

// NewPostgresWorkdayRepo はPostgresWorkdayRepoを生成する。
func NewPostgresWorkdayRepo(db *sql.DB) *PostgresWorkdayRepo {
	return &PostgresWorkdayRepo{db: db}
}

// workdaySelect は勤務記録と勤務先概要を取得するSELECT句。
// 勤務先が削除されている場合に備えてLEFT JOINする。
const workdaySelect = `SELECT d.id, d.user_id, d.workplace_id, d.work_date, d.wage_on_that_day,
		d.created_at, d.updated_at,
		w.id, w.name, w.color, w.daily_wage
	 FROM workdays d
	 LEFT JOIN workplaces w ON w.id = d.workplace_id AND w.user_id = d.user_id`

// FindByID は指定ユーザーが所有する勤務記録を勤務先概要付きで取得する。
func (r *PostgresWorkdayRepo) FindByID(ctx context.Context, userID, id string) (*model.WorkdayWithWorkplace, error) {
	wd, err := scanWorkdayWithWorkplace(r.db.QueryRowContext(ctx,
		workdaySelect+` WHERE d.id = $1 AND d.user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("勤務記録の取得に失敗しました: %w", err)
	}
	return wd, nil
}

// ListByUserID はユーザーの勤務記録を日付の降順で返す。
func (r *PostgresWorkdayRepo) ListByUserID(ctx context.Context, userID string, rng *model.DateRange) ([]model.WorkdayWithWorkplace, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if rng != nil {
		rows, err = r.db.QueryContext(ctx,
			workdaySelect+` WHERE d.user_id = $1 AND d.work_date BETWEEN $2::date AND $3::date
			 ORDER BY d.work_date DESC`,
			userID, rng.Start.Format(dateLayout), rng.End.Format(dateLayout),
		)
	} else {
		rows, err = r.db.QueryContext(ctx,
			workdaySelect+` WHERE d.user_id = $1 ORDER BY d.work_date DESC`,
			userID,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("勤務記録一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	workdays := []model.WorkdayWithWorkplace{}
	for rows.Next() {
		wd, err := scanWorkdayWithWorkplace(rows)
		if err != nil {
			return nil, fmt.Errorf("勤務記録行の読み取りに失敗しました: %w", err)
		}
		workdays = append(workdays, *wd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("勤務記録一覧の走査に失敗しました: %w", err)
	}
	return workdays, nil
}

// Create は勤務記録を作成する。
// (user_id, work_date) の一意制約違反はErrDuplicateとして返す。
func (r *PostgresWorkdayRepo) Create(ctx context.Context, wd *model.Workday) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workdays (id, user_id, workplace_id, work_date, wage_on_that_day, created_at, updated_at)
		 VALUES ($1, $2, $3, $4::date, $5, $6, $7)`,
		wd.ID, wd.UserID, wd.WorkplaceID, wd.Date.Format(dateLayout), wd.WageOnDay, wd.CreatedAt, wd.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("勤務記録の作成に失敗しました: %w", err)
	}
	return nil
}

// UpdateWorkplaceAndWage は勤務記録の勤務先と日当を更新する。
func (r *PostgresWorkdayRepo) UpdateWorkplaceAndWage(ctx context.Context, userID, id, workplaceID string, wage float64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workdays SET workplace_id = $3, wage_on_that_day = $4, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2`,
		id, userID, workplaceID, wage,
	)
	if err != nil {
		return false, fmt.Errorf("勤務記録の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定ユーザーが所有する勤務記録を削除する。
func (r *PostgresWorkdayRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workdays WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("勤務記録の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

func scanWorkdayWithWorkplace(row rowScanner) (*model.WorkdayWithWorkplace, error) {
	wd := &model.WorkdayWithWorkplace{}
	var (
		workDate time.Time
		wpID     sql.NullString
		wpName   sql.NullString
		wpColor  sql.NullString
		wpWage   sql.NullFloat64
	)
	err := row.Scan(
		&wd.ID, &wd.UserID, &wd.WorkplaceID, &workDate, &wd.WageOnDay,
		&wd.CreatedAt, &wd.UpdatedAt,
		&wpID, &wpName, &wpColor, &wpWage,
	)
	if err != nil {
		return nil, err
	}
	wd.Date = LocalDate(workDate)
	if wpID.Valid {
		wd.Workplace = &model.WorkplaceSummary{
			ID:        wpID.String,
			Name:      wpName.String,
			Color:     wpColor.String,
			DailyWage: wpWage.Float64,
		}
	}
	return wd, nil
}

// LocalDate はDATE列から読み取った値をサーバーローカル時刻の0時に正規化する。
// DATE型はタイムゾーンを持たないため年月日のみを使用する。
func LocalDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// compile-time interface check
var _ WorkdayRepository = (*PostgresWorkdayRepo)(nil)
