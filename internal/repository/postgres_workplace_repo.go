package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/yevmiye/internal/model"
)

// PostgresWorkplaceRepo はPostgreSQLを使用した勤務先リポジトリ。
type PostgresWorkplaceRepo struct {
	db *sql.DB
}

// NewPostgresWorkplaceRepo はPostgresWorkplaceRepoを生成する。
func NewPostgresWorkplaceRepo(db *sql.DB) *PostgresWorkplaceRepo {
	return &PostgresWorkplaceRepo{db: db}
}

const workplaceColumns = `id, user_id, name, daily_wage, color, is_active, created_at, updated_at`

// FindByID は指定ユーザーが所有する勤務先を取得する。見つからない場合はnilを返す。
func (r *PostgresWorkplaceRepo) FindByID(ctx context.Context, userID, id string) (*model.Workplace, error) {
	wp, err := scanWorkplace(r.db.QueryRowContext(ctx,
		`SELECT `+workplaceColumns+` FROM workplaces WHERE id = $1 AND user_id = $2`,
		id, userID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("勤務先の取得に失敗しました: %w", err)
	}
	return wp, nil
}

// ListByUserID はユーザーの勤務先一覧を返す。
func (r *PostgresWorkplaceRepo) ListByUserID(ctx context.Context, userID string, activeOnly bool) ([]*model.Workplace, error) {
	query := `SELECT ` + workplaceColumns + ` FROM workplaces
		 WHERE user_id = $1 ORDER BY is_active DESC, created_at DESC`
	if activeOnly {
		query = `SELECT ` + workplaceColumns + ` FROM workplaces
		 WHERE user_id = $1 AND is_active = TRUE ORDER BY created_at DESC`
	}

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("勤務先一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	workplaces := []*model.Workplace{}
	for rows.Next() {
		wp, err := scanWorkplace(rows)
		if err != nil {
			return nil, fmt.Errorf("勤務先行の読み取りに失敗しました: %w", err)
		}
		workplaces = append(workplaces, wp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("勤務先一覧の走査に失敗しました: %w", err)
	}
	return workplaces, nil
}

// Create は勤務先を作成する。
func (r *PostgresWorkplaceRepo) Create(ctx context.Context, wp *model.Workplace) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO workplaces (id, user_id, name, daily_wage, color, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		wp.ID, wp.UserID, wp.Name, wp.DailyWage, wp.Color, wp.IsActive, wp.CreatedAt, wp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("勤務先の作成に失敗しました: %w", err)
	}
	return nil
}

// Update は勤務先の名前・日当・色・有効フラグを更新する。
// 所有ユーザーが一致しない場合は更新せずfalseを返す。
func (r *PostgresWorkplaceRepo) Update(ctx context.Context, wp *model.Workplace) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`UPDATE workplaces
		 SET name = $3, daily_wage = $4, color = $5, is_active = $6, updated_at = $7
		 WHERE id = $1 AND user_id = $2`,
		wp.ID, wp.UserID, wp.Name, wp.DailyWage, wp.Color, wp.IsActive, wp.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("勤務先の更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("更新結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete は指定ユーザーが所有する勤務先を削除する。
func (r *PostgresWorkplaceRepo) Delete(ctx context.Context, userID, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM workplaces WHERE id = $1 AND user_id = $2`,
		id, userID,
	)
	if err != nil {
		return false, fmt.Errorf("勤務先の削除に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}
	return rowsAffected > 0, nil
}

func scanWorkplace(row rowScanner) (*model.Workplace, error) {
	wp := &model.Workplace{}
	err := row.Scan(
		&wp.ID, &wp.UserID, &wp.Name, &wp.DailyWage, &wp.Color, &wp.IsActive,
		&wp.CreatedAt, &wp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return wp, nil
}

// compile-time interface check
var _ WorkplaceRepository = (*PostgresWorkplaceRepo)(nil)
