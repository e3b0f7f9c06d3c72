package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/yevmiye/internal/model"
	"github.com/hitoshi/yevmiye/internal/workplace"
)

// WorkplaceServiceInterface は勤務先ハンドラーが必要とするサービスインターフェース。
type WorkplaceServiceInterface interface {
	Create(ctx context.Context, userID string, in workplace.CreateInput) (*workplaceResponse, error)
	ListActive(ctx context.Context, userID string) ([]workplaceResponse, error)
	ListAll(ctx context.Context, userID string) ([]workplaceResponse, error)
	Update(ctx context.Context, userID, workplaceID string, patch model.WorkplacePatch) (*workplaceResponse, error)
	Delete(ctx context.Context, userID, workplaceID string) error
	ToggleActive(ctx context.Context, userID, workplaceID string) (*workplaceResponse, error)
}

// WorkplaceHandler は勤務先管理のHTTPハンドラー。
type WorkplaceHandler struct {
	service WorkplaceServiceInterface
}

// NewWorkplaceHandler はWorkplaceHandlerを生成する。
func NewWorkplaceHandler(service WorkplaceServiceInterface) *WorkplaceHandler {
	return &WorkplaceHandler{service: service}
}

// workplaceResponse は勤務先のAPIレスポンス。
type workplaceResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Name      string    `json:"name"`
	DailyWage float64   `json:"dailyWage"`
	Color     string    `json:"color"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type workplaceEnvelope struct {
	Message   string             `json:"message"`
	Workplace *workplaceResponse `json:"workplace"`
}

type createWorkplaceRequest struct {
	Name      string   `json:"name"`
	DailyWage *float64 `json:"dailyWage"`
	Color     string   `json:"color"`
}

// updateWorkplaceRequest は部分更新リクエスト。省略したフィールドは変更しない。
type updateWorkplaceRequest struct {
	Name      *string  `json:"name"`
	DailyWage *float64 `json:"dailyWage"`
	Color     *string  `json:"color"`
	IsActive  *bool    `json:"isActive"`
}

// Create は勤務先を作成する。
// POST /workplaces
func (h *WorkplaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req createWorkplaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wp, err := h.service.Create(r.Context(), userID, workplace.CreateInput{
		Name:      req.Name,
		DailyWage: req.DailyWage,
		Color:     req.Color,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, workplaceEnvelope{Message: "勤務先を作成しました。", Workplace: wp})
}

// ListActive は有効な勤務先の一覧を返す。
// GET /workplaces
func (h *WorkplaceHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	workplaces, err := h.service.ListActive(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workplaces)
}

// ListAll は無効なものを含むすべての勤務先を返す。
// GET /workplaces/all
func (h *WorkplaceHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	workplaces, err := h.service.ListAll(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workplaces)
}

// Update は勤務先を部分更新する。
// PUT /workplaces/:id
func (h *WorkplaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req updateWorkplaceRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	wp, err := h.service.Update(r.Context(), userID, chi.URLParam(r, "id"), model.WorkplacePatch{
		Name:      req.Name,
		DailyWage: req.DailyWage,
		Color:     req.Color,
		IsActive:  req.IsActive,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, workplaceEnvelope{Message: "勤務先を更新しました。", Workplace: wp})
}

// Delete は勤務先を削除する。
// DELETE /workplaces/:id
func (h *WorkplaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), userID, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "勤務先を削除しました。"})
}

// ToggleActive は勤務先の有効・無効を切り替える。
// PATCH /workplaces/:id/toggle
func (h *WorkplaceHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	wp, err := h.service.ToggleActive(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	status := "無効"
	if wp.IsActive {
		status = "有効"
	}
	writeJSON(w, http.StatusOK, workplaceEnvelope{
		Message:   "勤務先の状態を更新しました。新しい状態: " + status,
		Workplace: wp,
	})
}
