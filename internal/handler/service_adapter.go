package handler

import (
	"context"

	"github.com/hitoshi/yevmiye/internal/model"
	"github.com/hitoshi/yevmiye/internal/workday"
	"github.com/hitoshi/yevmiye/internal/workplace"
)

// dateLayout は勤務日のレスポンス書式。
const dateLayout = "2006-01-02"

// WorkplaceServiceAdapter は workplace.Service を WorkplaceServiceInterface に適合させるアダプタ。
type WorkplaceServiceAdapter struct {
	svc *workplace.Service
}

// NewWorkplaceServiceAdapter はWorkplaceServiceAdapterを生成する。
func NewWorkplaceServiceAdapter(svc *workplace.Service) *WorkplaceServiceAdapter {
	return &WorkplaceServiceAdapter{svc: svc}
}

// Create は勤務先を作成しhandlerレスポンス型で返す。
func (a *WorkplaceServiceAdapter) Create(ctx context.Context, userID string, in workplace.CreateInput) (*workplaceResponse, error) {
	wp, err := a.svc.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	resp := toWorkplaceResponse(wp)
	return &resp, nil
}

// ListActive は有効な勤務先の一覧をhandlerレスポンス型で返す。
func (a *WorkplaceServiceAdapter) ListActive(ctx context.Context, userID string) ([]workplaceResponse, error) {
	workplaces, err := a.svc.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toWorkplaceResponses(workplaces), nil
}

// ListAll はすべての勤務先をhandlerレスポンス型で返す。
func (a *WorkplaceServiceAdapter) ListAll(ctx context.Context, userID string) ([]workplaceResponse, error) {
	workplaces, err := a.svc.ListAll(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toWorkplaceResponses(workplaces), nil
}

// Update は勤務先を部分更新しhandlerレスポンス型で返す。
func (a *WorkplaceServiceAdapter) Update(ctx context.Context, userID, workplaceID string, patch model.WorkplacePatch) (*workplaceResponse, error) {
	wp, err := a.svc.Update(ctx, userID, workplaceID, patch)
	if err != nil {
		return nil, err
	}
	resp := toWorkplaceResponse(wp)
	return &resp, nil
}

// Delete は勤務先を削除する。
func (a *WorkplaceServiceAdapter) Delete(ctx context.Context, userID, workplaceID string) error {
	return a.svc.Delete(ctx, userID, workplaceID)
}

// ToggleActive は勤務先の有効フラグを反転しhandlerレスポンス型で返す。
func (a *WorkplaceServiceAdapter) ToggleActive(ctx context.Context, userID, workplaceID string) (*workplaceResponse, error) {
	wp, err := a.svc.ToggleActive(ctx, userID, workplaceID)
	if err != nil {
		return nil, err
	}
	resp := toWorkplaceResponse(wp)
	return &resp, nil
}

// WorkdayServiceAdapter は workday.Service を WorkdayServiceInterface に適合させるアダプタ。
type WorkdayServiceAdapter struct {
	svc *workday.Service
}

// NewWorkdayServiceAdapter はWorkdayServiceAdapterを生成する。
func NewWorkdayServiceAdapter(svc *workday.Service) *WorkdayServiceAdapter {
	return &WorkdayServiceAdapter{svc: svc}
}

// List は勤務記録の一覧をhandlerレスポンス型で返す。
func (a *WorkdayServiceAdapter) List(ctx context.Context, userID string, in workday.ListInput) ([]workdayResponse, error) {
	workdays, err := a.svc.List(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	return toWorkdayResponses(workdays), nil
}

// Create は勤務記録を作成しhandlerレスポンス型で返す。
func (a *WorkdayServiceAdapter) Create(ctx context.Context, userID string, in workday.CreateInput) (*workdayResponse, error) {
	wd, err := a.svc.Create(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	resp := toWorkdayResponse(*wd)
	return &resp, nil
}

// Update は勤務記録を更新しhandlerレスポンス型で返す。
func (a *WorkdayServiceAdapter) Update(ctx context.Context, userID, workdayID string, in workday.UpdateInput) (*workdayResponse, error) {
	wd, err := a.svc.Update(ctx, userID, workdayID, in)
	if err != nil {
		return nil, err
	}
	resp := toWorkdayResponse(*wd)
	return &resp, nil
}

// Delete は勤務記録を削除する。
func (a *WorkdayServiceAdapter) Delete(ctx context.Context, userID, workdayID string) error {
	return a.svc.Delete(ctx, userID, workdayID)
}

// ThisMonthStats は今月の勤務記録と集計値をhandlerレスポンス型で返す。
func (a *WorkdayServiceAdapter) ThisMonthStats(ctx context.Context, userID string) (*monthStatsResponse, error) {
	stats, err := a.svc.ThisMonthStats(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &monthStatsResponse{
		Workdays:  toWorkdayResponses(stats.Workdays),
		Month:     stats.Month,
		Year:      stats.Year,
		TotalWage: stats.TotalWage,
		DayCount:  stats.DayCount,
	}, nil
}

func toWorkplaceResponse(wp *model.Workplace) workplaceResponse {
	return workplaceResponse{
		ID:        wp.ID,
		UserID:    wp.UserID,
		Name:      wp.Name,
		DailyWage: wp.DailyWage,
		Color:     wp.Color,
		IsActive:  wp.IsActive,
		CreatedAt: wp.CreatedAt,
		UpdatedAt: wp.UpdatedAt,
	}
}

func toWorkplaceResponses(workplaces []*model.Workplace) []workplaceResponse {
	results := make([]workplaceResponse, len(workplaces))
	for i, wp := range workplaces {
		results[i] = toWorkplaceResponse(wp)
	}
	return results
}

func toWorkdayResponse(wd model.WorkdayWithWorkplace) workdayResponse {
	resp := workdayResponse{
		ID:            wd.ID,
		UserID:        wd.UserID,
		WorkplaceID:   wd.WorkplaceID,
		Date:          wd.Date.Format(dateLayout),
		WageOnThatDay: wd.WageOnDay,
		CreatedAt:     wd.CreatedAt,
		UpdatedAt:     wd.UpdatedAt,
	}
	if wd.Workplace != nil {
		resp.Workplace = &workplaceSummaryResponse{
			ID:        wd.Workplace.ID,
			Name:      wd.Workplace.Name,
			Color:     wd.Workplace.Color,
			DailyWage: wd.Workplace.DailyWage,
		}
	}
	return resp
}

func toWorkdayResponses(workdays []model.WorkdayWithWorkplace) []workdayResponse {
	results := make([]workdayResponse, len(workdays))
	for i, wd := range workdays {
		results[i] = toWorkdayResponse(wd)
	}
	return results
}

// --- compile-time interface checks ---

var _ WorkplaceServiceInterface = (*WorkplaceServiceAdapter)(nil)
var _ WorkdayServiceInterface = (*WorkdayServiceAdapter)(nil)
