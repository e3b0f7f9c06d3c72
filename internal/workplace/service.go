// Package workplace は勤務先の登録・更新・有効状態管理のドメインロジックを提供する。
package workplace

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/yevmiye/internal/metrics"
	"github.com/hitoshi/yevmiye/internal/model"
	"github.com/hitoshi/yevmiye/internal/repository"
	"github.com/hitoshi/yevmiye/internal/security"
)

// EventRecorder は勤務先操作のイベントを記録する。
type EventRecorder interface {
	RecordLedgerEvent(event string)
}

type noopRecorder struct{}

func (noopRecorder) RecordLedgerEvent(string) {}

// CreateInput は勤務先作成の入力値。
// DailyWageは未指定とゼロを区別するためポインタで受け取る。
type CreateInput struct {
	Name      string
	DailyWage *float64
	Color     string
}

// Service は勤務先のサービス層。
// すべての操作は呼び出しユーザーの所有する勤務先に限定される。
type Service struct {
	repo      repository.WorkplaceRepository
	sanitizer security.TextSanitizer
	recorder  EventRecorder
	now       func() time.Time
}

// NewService はServiceを生成する。recorderがnilの場合は記録しない。
func NewService(repo repository.WorkplaceRepository, sanitizer security.TextSanitizer, recorder EventRecorder) *Service {
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Create は勤務先を作成する。
// 名前が空、日当が未指定または負の場合は検証エラーを返す。日当0は許可する。
func (s *Service) Create(ctx context.Context, userID string, in CreateInput) (*model.Workplace, error) {
	name := s.sanitizer.Clean(in.Name)
	if name == "" || in.DailyWage == nil {
		return nil, model.NewValidationError("勤務先名と日当は必須です。")
	}
	if *in.DailyWage < 0 {
		return nil, model.NewNegativeWageError()
	}

	color := s.sanitizer.Clean(in.Color)
	if color == "" {
		color = model.DefaultWorkplaceColor
	}

	now := s.now()
	wp := &model.Workplace{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		DailyWage: *in.DailyWage,
		Color:     color,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, wp); err != nil {
		return nil, fmt.Errorf("勤務先の作成に失敗しました: %w", err)
	}

	s.recorder.RecordLedgerEvent(metrics.EventWorkplaceCreated)
	slog.Info("workplace created",
		slog.String("user_id", userID),
		slog.String("workplace_id", wp.ID),
	)
	return wp, nil
}

// ListActive は有効な勤務先を作成日時の新しい順で返す。
func (s *Service) ListActive(ctx context.Context, userID string) ([]*model.Workplace, error) {
	workplaces, err := s.repo.ListByUserID(ctx, userID, true)
	if err != nil {
		return nil, fmt.Errorf("勤務先一覧の取得に失敗しました: %w", err)
	}
	return workplaces, nil
}

// ListAll はすべての勤務先を有効なものを先に、作成日時の新しい順で返す。
func (s *Service) ListAll(ctx context.Context, userID string) ([]*model.Workplace, error) {
	workplaces, err := s.repo.ListByUserID(ctx, userID, false)
	if err != nil {
		return nil, fmt.Errorf("勤務先一覧の取得に失敗しました: %w", err)
	}
	return workplaces, nil
}

// Update は指定されたフィールドのみを更新する。
// 名前・日当・色は空文字や0の場合も未指定として扱う。IsActiveはfalseも適用する。
func (s *Service) Update(ctx context.Context, userID, workplaceID string, patch model.WorkplacePatch) (*model.Workplace, error) {
	wp, err := s.find(ctx, userID, workplaceID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		if name := s.sanitizer.Clean(*patch.Name); name != "" {
			wp.Name = name
		}
	}
	if patch.DailyWage != nil && *patch.DailyWage != 0 {
		if *patch.DailyWage < 0 {
			return nil, model.NewNegativeWageError()
		}
		wp.DailyWage = *patch.DailyWage
	}
	if patch.Color != nil {
		if color := s.sanitizer.Clean(*patch.Color); color != "" {
			wp.Color = color
		}
	}
	if patch.IsActive != nil {
		wp.IsActive = *patch.IsActive
	}

	return s.save(ctx, wp)
}

// Delete は勤務先を削除する。参照している勤務記録は削除しない。
func (s *Service) Delete(ctx context.Context, userID, workplaceID string) error {
	if _, err := uuid.Parse(workplaceID); err != nil {
		return model.NewWorkplaceNotFoundError(workplaceID)
	}

	deleted, err := s.repo.Delete(ctx, userID, workplaceID)
	if err != nil {
		return fmt.Errorf("勤務先の削除に失敗しました: %w", err)
	}
	if !deleted {
		return model.NewWorkplaceNotFoundError(workplaceID)
	}

	s.recorder.RecordLedgerEvent(metrics.EventWorkplaceDeleted)
	slog.Info("workplace deleted",
		slog.String("user_id", userID),
		slog.String("workplace_id", workplaceID),
	)
	return nil
}

// ToggleActive は勤務先の有効フラグを反転する。
func (s *Service) ToggleActive(ctx context.Context, userID, workplaceID string) (*model.Workplace, error) {
	wp, err := s.find(ctx, userID, workplaceID)
	if err != nil {
		return nil, err
	}
	wp.IsActive = !wp.IsActive
	return s.save(ctx, wp)
}

// find は呼び出しユーザーが所有する勤務先を取得する。
// UUIDとして不正なIDや他ユーザーの勤務先は存在しないものとして扱う。
func (s *Service) find(ctx context.Context, userID, workplaceID string) (*model.Workplace, error) {
	if _, err := uuid.Parse(workplaceID); err != nil {
		return nil, model.NewWorkplaceNotFoundError(workplaceID)
	}

	wp, err := s.repo.FindByID(ctx, userID, workplaceID)
	if err != nil {
		return nil, fmt.Errorf("勤務先の取得に失敗しました: %w", err)
	}
	if wp == nil {
		return nil, model.NewWorkplaceNotFoundError(workplaceID)
	}
	return wp, nil
}

func (s *Service) save(ctx context.Context, wp *model.Workplace) (*model.Workplace, error) {
	wp.UpdatedAt = s.now()
	updated, err := s.repo.Update(ctx, wp)
	if err != nil {
		return nil, fmt.Errorf("勤務先の更新に失敗しました: %w", err)
	}
	// 取得から更新までの間に削除された場合
	if !updated {
		return nil, model.NewWorkplaceNotFoundError(wp.ID)
	}
	return wp, nil
}
