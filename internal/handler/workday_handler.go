package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/yevmiye/internal/workday"
)

// WorkdayServiceInterface は勤務記録ハンドラーが必要とするサービスインターフェース。
type WorkdayServiceInterface interface {
	List(ctx context.Context, userID string, in workday.ListInput) ([]workdayResponse, error)
	Create(ctx context.Context, userID string, in workday.CreateInput) (*workdayResponse, error)
	Update(ctx context.Context, userID, workdayID string, in workday.UpdateInput) (*workdayResponse, error)
	Delete(ctx context.Context, userID, workdayID string) error
	ThisMonthStats(ctx context.Context, userID string) (*monthStatsResponse, error)
}

// WorkdayHandler は勤務記録のHTTPハンドラー。
type WorkdayHandler struct {
	service WorkdayServiceInterface
}

// NewWorkdayHandler はWorkdayHandlerを生成する。
func NewWorkdayHandler(service WorkdayServiceInterface) *WorkdayHandler {
	return &WorkdayHandler{service: service}
}

// workplaceSummaryResponse は勤務記録に展開する勤務先の概要。
type workplaceSummaryResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	DailyWage float64 `json:"dailyWage"`
}

// workdayResponse は勤務記録のAPIレスポンス。
// 参照先の勤務先が削除済みの場合、workplaceはnullになる。
type workdayResponse struct {
	ID            string                    `json:"id"`
	UserID        string                    `json:"userId"`
	WorkplaceID   string                    `json:"workplaceId"`
	Workplace     *workplaceSummaryResponse `json:"workplace"`
	Date          string                    `json:"date"`
	WageOnThatDay float64                   `json:"wageOnThatDay"`
	CreatedAt     time.Time                 `json:"createdAt"`
	UpdatedAt     time.Time                 `json:"updatedAt"`
}

type workdayEnvelope struct {
	Message string           `json:"message"`
	Workday *workdayResponse `json:"workday"`
}

// monthStatsResponse は GET /workdays/stats/this-month のレスポンス。
type monthStatsResponse struct {
	Workdays  []workdayResponse `json:"workdays"`
	Month     int               `json:"month"`
	Year      int               `json:"year"`
	TotalWage float64           `json:"totalWage"`
	DayCount  int               `json:"dayCount"`
}

type createWorkdayRequest struct {
	WorkplaceID   string   `json:"workplaceId"`
	Date          string   `json:"date"`
	WageOnThatDay *float64 `json:"wageOnThatDay"`
}

type updateWorkdayRequest struct {
	WorkplaceID   string   `json:"workplaceId"`
	WageOnThatDay *float64 `json:"wageOnThatDay"`
}

// List は勤務記録の一覧を返す。startDateとendDateの両方を指定すると期間で絞り込む。
// GET /workdays
func (h *WorkdayHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	workdays, err := h.service.List(r.Context(), userID, workday.ListInput{
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workdays)
}

// ThisMonthStats は今月の勤務記録と集計値を返す。
// GET /workdays/stats/this-month
func (h *WorkdayHandler) ThisMonthStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.ThisMonthStats(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Create は勤務記録を作成する。
// POST /workdays
func (h *WorkdayHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createWorkdayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wd, err := h.service.Create(r.Context(), userID, workday.CreateInput{
		WorkplaceID: req.WorkplaceID,
		Date:        req.Date,
		WageOnDay:   req.WageOnThatDay,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, workdayEnvelope{Message: "勤務記録を作成しました。", Workday: wd})
}

// Update は勤務記録の勤務先と日当を更新する。
// PUT /workdays/:id
func (h *WorkdayHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateWorkdayRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wd, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), workday.UpdateInput{
		WorkplaceID: req.WorkplaceID,
		WageOnDay:   req.WageOnThatDay,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workdayEnvelope{Message: "勤務記録を更新しました。", Workday: wd})
}

// Delete は勤務記録を削除する。
// DELETE /workdays/:id
func (h *WorkdayHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "勤務記録を削除しました。"})
}
