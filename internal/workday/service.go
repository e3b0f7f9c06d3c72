// Package workday は日ごとの勤務記録（台帳）のドメインロジックを提供する。
package workday

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/yevmiye/internal/metrics"
	"github.com/hitoshi/yevmiye/internal/model"
	"github.com/hitoshi/yevmiye/internal/repository"
)

// EventRecorder は勤務記録操作のイベントを記録する。
type EventRecorder interface {
	RecordLedgerEvent(event string)
}

type noopRecorder struct{}

func (noopRecorder) RecordLedgerEvent(string) {}

// CreateInput は勤務記録作成の入力値。
// WageOnDayがnilの場合は勤務先の現在の日当を使用する。
type CreateInput struct {
	WorkplaceID string
	Date        string
	WageOnDay   *float64
}

// UpdateInput は勤務記録更新の入力値。日付は変更できない。
type UpdateInput struct {
	WorkplaceID string
	WageOnDay   *float64
}

// ListInput は勤務記録一覧の絞り込み条件。
// 開始日と終了日の両方が指定された場合のみ期間で絞り込む。
type ListInput struct {
	StartDate string
	EndDate   string
}

// MonthStats は今月の勤務記録と集計値。
type MonthStats struct {
	Workdays  []model.WorkdayWithWorkplace
	Month     int
	Year      int
	TotalWage float64
	DayCount  int
}

// Service は勤務記録のサービス層。
// すべての操作は呼び出しユーザーの所有する記録に限定される。
type Service struct {
	workdays   repository.WorkdayRepository
	workplaces repository.WorkplaceRepository
	recorder   EventRecorder
	now        func() time.Time
}

// NewService はServiceを生成する。recorderがnilの場合は記録しない。
func NewService(
	workdays repository.WorkdayRepository,
	workplaces repository.WorkplaceRepository,
	recorder EventRecorder,
) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		workdays:   workdays,
		workplaces: workplaces,
		recorder:   recorder,
		now:        time.Now,
	}
}

// List は勤務記録を日付の新しい順で返す。
func (s *Service) List(ctx context.Context, userID string, in ListInput) ([]model.WorkdayWithWorkplace, error) {
	var rng *model.DateRange
	if strings.TrimSpace(in.StartDate) != "" && strings.TrimSpace(in.EndDate) != "" {
		start, err := ParseDate(in.StartDate)
		if err != nil {
			return nil, model.NewInvalidDateError(in.StartDate)
		}
		end, err := ParseDate(in.EndDate)
		if err != nil {
			return nil, model.NewInvalidDateError(in.EndDate)
		}
		rng = &model.DateRange{Start: start, End: end}
	}

	workdays, err := s.workdays.ListByUserID(ctx, userID, rng)
	if err != nil {
		return nil, fmt.Errorf("勤務記録一覧の取得に失敗しました: %w", err)
	}
	return workdays, nil
}

// Create は勤務記録を作成する。
// 同じ日付の記録が既に存在する場合はWORKDAY_ALREADY_EXISTSを返す。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.WorkdayWithWorkplace, error) {
	if strings.TrimSpace(in.WorkplaceID) == "" || strings.TrimSpace(in.Date) == "" {
		return nil, model.NewValidationError("勤務先と日付は必須です。")
	}

	wp, err := s.findWorkplace(ctx, userID, in.WorkplaceID)
	if err != nil {
		return nil, err
	}

	day, err := ParseDate(in.Date)
	if err != nil {
		return nil, model.NewInvalidDateError(in.Date)
	}
	now := s.now()
	if isFutureDate(day, now) {
		return nil, model.NewFutureDateError()
	}

	wage, err := resolveWage(in.WageOnDay, wp)
	if err != nil {
		return nil, err
	}

	wd := model.Workday{
		ID:          uuid.New().String(),
		UserID:      userID,
		WorkplaceID: wp.ID,
		Date:        day,
		WageOnDay:   wage,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.workdays.Create(ctx, &wd); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			s.recorder.RecordLedgerEvent(metrics.EventWorkdayConflict)
			return nil, model.NewWorkdayAlreadyExistsError()
		}
		return nil, fmt.Errorf("勤務記録の作成に失敗しました: %w", err)
	}

	s.recorder.RecordLedgerEvent(metrics.EventWorkdayCreated)
	slog.Info("workday created",
		slog.String("user_id", userID),
		slog.String("workday_id", wd.ID),
		slog.String("date", day.Format(dateOnlyLayout)),
	)
	return &model.WorkdayWithWorkplace{Workday: wd, Workplace: summarize(wp)}, nil
}

// Update は勤務記録の勤務先と日当を更新する。
// 日付と未来日付の検証は行わない。
func (s *Service) Update(ctx context.Context, userID, workdayID string, in UpdateInput) (*model.WorkdayWithWorkplace, error) {
	if strings.TrimSpace(in.WorkplaceID) == "" {
		return nil, model.NewValidationError("勤務先は必須です。")
	}

	if _, err := s.findWorkday(ctx, userID, workdayID); err != nil {
		return nil, err
	}

	wp, err := s.findWorkplace(ctx, userID, in.WorkplaceID)
	if err != nil {
		return nil, err
	}

	wage, err := resolveWage(in.WageOnDay, wp)
	if err != nil {
		return nil, err
	}

	updated, err := s.workdays.UpdateWorkplaceAndWage(ctx, userID, workdayID, wp.ID, wage)
	if err != nil {
		return nil, fmt.Errorf("勤務記録の更新に失敗しました: %w", err)
	}
	if !updated {
		return nil, model.NewWorkdayNotFoundError(workdayID)
	}

	return s.findWorkday(ctx, userID, workdayID)
}

// Delete は勤務記録を削除する。
func (s *Service) Delete(ctx context.Context, userID, workdayID string) error {
	if _, err := uuid.Parse(workdayID); err != nil {
		return model.NewWorkdayNotFoundError(workdayID)
	}

	deleted, err := s.workdays.Delete(ctx, userID, workdayID)
	if err != nil {
		return fmt.Errorf("勤務記録の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewWorkdayNotFoundError(workdayID)
	}

	s.recorder.RecordLedgerEvent(metrics.EventWorkdayDeleted)
	slog.Info("workday deleted",
		slog.String("user_id", userID),
		slog.String("workday_id", workdayID),
	)
	return nil
}

// ThisMonthStats はサーバーローカル時刻で今月に属する勤務記録と集計値を返す。
func (s *Service) ThisMonthStats(ctx context.Context, userID string) (*MonthStats, error) {
	now := s.now().In(time.Local)
	first, last := monthRange(now)

	workdays, err := s.workdays.ListByUserID(ctx, userID, &model.DateRange{Start: first, End: last})
	if err != nil {
		return nil, fmt.Errorf("今月の勤務記録の取得に失敗しました: %w", err)
	}

	stats := &MonthStats{
		Workdays: workdays,
		Month:    int(now.Month()),
		Year:     now.Year(),
		DayCount: len(workdays),
	}
	for _, wd := range workdays {
		stats.TotalWage += wd.WageOnDay
	}
	return stats, nil
}

// findWorkplace は呼び出しユーザーが所有する勤務先を取得する。
func (s *Service) findWorkplace(ctx context.Context, userID, workplaceID string) (*model.Workplace, error) {
	if _, err := uuid.Parse(workplaceID); err != nil {
		return nil, model.NewWorkplaceNotFoundError(workplaceID)
	}
	wp, err := s.workplaces.FindByID(ctx, userID, workplaceID)
	if err != nil {
		return nil, fmt.Errorf("勤務先の取得に失敗しました: %w", err)
	}
	if wp == nil {
		return nil, model.NewWorkplaceNotFoundError(workplaceID)
	}
	return wp, nil
}

// findWorkday は呼び出しユーザーが所有する勤務記録を取得する。
func (s *Service) findWorkday(ctx context.Context, userID, workdayID string) (*model.WorkdayWithWorkplace, error) {
	if _, err := uuid.Parse(workdayID); err != nil {
		return nil, model.NewWorkdayNotFoundError(workdayID)
	}
	wd, err := s.workdays.FindByID(ctx, userID, workdayID)
	if err != nil {
		return nil, fmt.Errorf("勤務記録の取得に失敗しました: %w", err)
	}
	if wd == nil {
		return nil, model.NewWorkdayNotFoundError(workdayID)
	}
	return wd, nil
}

// resolveWage は指定された日当、未指定の場合は勤務先の現在の日当を返す。
func resolveWage(override *float64, wp *model.Workplace) (float64, error) {
	wage := wp.DailyWage
	if override != nil {
		wage = *override
	}
	if wage < 0 {
		return 0, model.NewNegativeWageError()
	}
	return wage, nil
}

func summarize(wp *model.Workplace) *model.WorkplaceSummary {
	return &model.WorkplaceSummary{
		ID:        wp.ID,
		Name:      wp.Name,
		Color:     wp.Color,
		DailyWage: wp.DailyWage,
	}
}
