package workplace

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/hitoshi/yevmiye/internal/metrics"
	"github.com/hitoshi/yevmiye/internal/model"
	"github.com/hitoshi/yevmiye/internal/repository"
	"github.com/hitoshi/yevmiye/internal/security"
)

// --- モック ---

// memoryWorkplaceRepo は所有ユーザーで絞り込むインメモリのWorkplaceRepository。
type memoryWorkplaceRepo struct {
	mu         sync.Mutex
	workplaces map[string]model.Workplace
	createErr  error
}

func newMemoryWorkplaceRepo() *memoryWorkplaceRepo {
	return &memoryWorkplaceRepo{workplaces: map[string]model.Workplace{}}
}

func (m *memoryWorkplaceRepo) FindByID(_ context.Context, userID, id string) (*model.Workplace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wp, ok := m.workplaces[id]
	if !ok || wp.UserID != userID {
		return nil, nil
	}
	return &wp, nil
}

func (m *memoryWorkplaceRepo) ListByUserID(_ context.Context, userID string, activeOnly bool) ([]*model.Workplace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*model.Workplace{}
	for _, wp := range m.workplaces {
		if wp.UserID != userID || (activeOnly && !wp.IsActive) {
			continue
		}
		wp := wp
		result = append(result, &wp)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].IsActive != result[j].IsActive {
			return result[i].IsActive
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *memoryWorkplaceRepo) Create(_ context.Context, wp *model.Workplace) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.workplaces[wp.ID] = *wp
	return nil
}

func (m *memoryWorkplaceRepo) Update(_ context.Context, wp *model.Workplace) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.workplaces[wp.ID]
	if !ok || existing.UserID != wp.UserID {
		return false, nil
	}
	m.workplaces[wp.ID] = *wp
	return true, nil
}

func (m *memoryWorkplaceRepo) Delete(_ context.Context, userID, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.workplaces[id]
	if !ok || existing.UserID != userID {
		return false, nil
	}
	delete(m.workplaces, id)
	return true, nil
}

var _ repository.WorkplaceRepository = (*memoryWorkplaceRepo)(nil)

type mockRecorder struct {
	events []string
}

func (m *mockRecorder) RecordLedgerEvent(event string) {
	m.events = append(m.events, event)
}

// --- ヘルパー ---

func float64Ptr(v float64) *float64 { return &v }
func stringPtr(v string) *string    { return &v }
func boolPtr(v bool) *bool          { return &v }

func newTestService() (*Service, *memoryWorkplaceRepo, *mockRecorder) {
	repo := newMemoryWorkplaceRepo()
	rec := &mockRecorder{}
	svc := NewService(repo, security.NewTextSanitizer(), rec)
	// 作成順が一意になるよう呼び出しごとに1秒進める
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)
	calls := 0
	svc.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Second)
	}
	return svc, repo, rec
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T (%v)", err, err)
	}
	if apiErr.Code != code {
		t.Errorf("code = %q, want %q", apiErr.Code, code)
	}
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	svc, _, rec := newTestService()

	wp, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:      "  Cafe Moda  ",
		DailyWage: float64Ptr(850),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wp.Name != "Cafe Moda" {
		t.Errorf("Name = %q, want trimmed", wp.Name)
	}
	if wp.Color != model.DefaultWorkplaceColor {
		t.Errorf("Color = %q, want default", wp.Color)
	}
	if !wp.IsActive {
		t.Error("新規作成時は有効であるべき")
	}
	if wp.UserID != "user-1" || wp.ID == "" {
		t.Errorf("UserID/ID = %q/%q", wp.UserID, wp.ID)
	}
	if len(rec.events) != 1 || rec.events[0] != metrics.EventWorkplaceCreated {
		t.Errorf("events = %v", rec.events)
	}
}

func TestCreate_ZeroWageAccepted(t *testing.T) {
	svc, _, _ := newTestService()

	wp, err := svc.Create(context.Background(), "user-1", CreateInput{Name: "Volunteer", DailyWage: float64Ptr(0)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wp.DailyWage != 0 {
		t.Errorf("DailyWage = %v, want 0", wp.DailyWage)
	}
}

func TestCreate_SanitizesMarkup(t *testing.T) {
	svc, _, _ := newTestService()

	wp, err := svc.Create(context.Background(), "user-1", CreateInput{
		Name:      `<b>Bakery</b><script>alert(1)</script>`,
		DailyWage: float64Ptr(100),
		Color:     `<i>#FF0000</i>`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wp.Name != "Bakery" {
		t.Errorf("Name = %q, want %q", wp.Name, "Bakery")
	}
	if wp.Color != "#FF0000" {
		t.Errorf("Color = %q, want %q", wp.Color, "#FF0000")
	}
}

func TestCreate_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		in   CreateInput
		code string
	}{
		{"名前なし", CreateInput{DailyWage: float64Ptr(100)}, model.ErrCodeValidation},
		{"空白のみの名前", CreateInput{Name: "   ", DailyWage: float64Ptr(100)}, model.ErrCodeValidation},
		{"タグのみの名前", CreateInput{Name: "<br>", DailyWage: float64Ptr(100)}, model.ErrCodeValidation},
		{"日当なし", CreateInput{Name: "Cafe"}, model.ErrCodeValidation},
		{"負の日当", CreateInput{Name: "Cafe", DailyWage: float64Ptr(-1)}, model.ErrCodeNegativeWage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _ := newTestService()
			_, err := svc.Create(context.Background(), "user-1", tt.in)
			assertAPIErrorCode(t, err, tt.code)
			if len(repo.workplaces) != 0 {
				t.Error("検証エラー時は保存しないべき")
			}
		})
	}
}

func TestCreate_RepositoryError(t *testing.T) {
	svc, repo, rec := newTestService()
	repo.createErr = errors.New("connection refused")

	_, err := svc.Create(context.Background(), "user-1", CreateInput{Name: "Cafe", DailyWage: float64Ptr(1)})
	if err == nil {
		t.Fatal("expected error")
	}
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		t.Errorf("リポジトリエラーはAPIErrorにすべきではない: %v", apiErr)
	}
	if len(rec.events) != 0 {
		t.Errorf("失敗時はイベントを記録しないべき: %v", rec.events)
	}
}

// --- List ---

func TestListActiveAndAll_Ordering(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	first, _ := svc.Create(ctx, "user-1", CreateInput{Name: "First", DailyWage: float64Ptr(1)})
	second, _ := svc.Create(ctx, "user-1", CreateInput{Name: "Second", DailyWage: float64Ptr(1)})
	third, _ := svc.Create(ctx, "user-1", CreateInput{Name: "Third", DailyWage: float64Ptr(1)})
	if _, err := svc.ToggleActive(ctx, "user-1", third.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	active, err := svc.ListActive(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 2 || active[0].ID != second.ID || active[1].ID != first.ID {
		t.Errorf("ListActive order = %v", names(active))
	}

	all, err := svc.ListAll(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	want := []string{"Second", "First", "Third"}
	if got := names(all); !equalStrings(got, want) {
		t.Errorf("ListAll order = %v, want %v", got, want)
	}
}

func names(wps []*model.Workplace) []string {
	out := make([]string, len(wps))
	for i, wp := range wps {
		out[i] = wp.Name
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Update ---

func TestUpdate_AppliesSuppliedFields(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	wp, _ := svc.Create(ctx, "user-1", CreateInput{Name: "Cafe", DailyWage: float64Ptr(500), Color: "#111111"})

	updated, err := svc.Update(ctx, "user-1", wp.ID, model.WorkplacePatch{
		Name:      stringPtr(" Cafe Nova "),
		DailyWage: float64Ptr(650),
		IsActive:  boolPtr(false),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Cafe Nova" || updated.DailyWage != 650 || updated.IsActive {
		t.Errorf("updated = %+v", updated)
	}
	if updated.Color != "#111111" {
		t.Errorf("未指定の色は変更しないべき: %q", updated.Color)
	}
	if !updated.UpdatedAt.After(wp.UpdatedAt) {
		t.Error("UpdatedAtが更新されていない")
	}
}

// TestUpdate_ZeroAndEmptyAreIgnored はゼロ値・空文字が未指定として扱われることを検証する。
func TestUpdate_ZeroAndEmptyAreIgnored(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	wp, _ := svc.Create(ctx, "user-1", CreateInput{Name: "Cafe", DailyWage: float64Ptr(500), Color: "#111111"})

	updated, err := svc.Update(ctx, "user-1", wp.ID, model.WorkplacePatch{
		Name:      stringPtr(""),
		DailyWage: float64Ptr(0),
		Color:     stringPtr(""),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Name != "Cafe" || updated.DailyWage != 500 || updated.Color != "#111111" {
		t.Errorf("updated = %+v, want unchanged", updated)
	}
	if !updated.IsActive {
		t.Error("IsActive未指定時は変更しないべき")
	}
}

func TestUpdate_NegativeWage(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	wp, _ := svc.Create(ctx, "user-1", CreateInput{Name: "Cafe", DailyWage: float64Ptr(500)})

	_, err := svc.Update(ctx, "user-1", wp.ID, model.WorkplacePatch{DailyWage: float64Ptr(-10)})
	assertAPIErrorCode(t, err, model.ErrCodeNegativeWage)
	if repo.workplaces[wp.ID].DailyWage != 500 {
		t.Error("検証エラー時は保存しないべき")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name string
		id   string
	}{
		{"存在しないID", "7f9c24e8-3b12-4fef-91e1-2a1b3c4d5e6f"},
		{"UUIDでないID", "not-a-uuid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), "user-1", tt.id, model.WorkplacePatch{Name: stringPtr("x")})
			assertAPIErrorCode(t, err, model.ErrCodeWorkplaceNotFound)
		})
	}
}

// --- Delete ---

func TestDelete(t *testing.T) {
	svc, repo, rec := newTestService()
	ctx := context.Background()
	wp, _ := svc.Create(ctx, "user-1", CreateInput{Name: "Cafe", DailyWage: float64Ptr(500)})

	if err := svc.Delete(ctx, "user-1", wp.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.workplaces[wp.ID]; ok {
		t.Error("勤務先が削除されていない")
	}
	if rec.events[len(rec.events)-1] != metrics.EventWorkplaceDeleted {
		t.Errorf("events = %v", rec.events)
	}

	err := svc.Delete(ctx, "user-1", wp.ID)
	assertAPIErrorCode(t, err, model.ErrCodeWorkplaceNotFound)
}

// --- ToggleActive ---

func TestToggleActive_IsItsOwnInverse(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	wp, _ := svc.Create(ctx, "user-1", CreateInput{Name: "Cafe", DailyWage: float64Ptr(500)})

	once, err := svc.ToggleActive(ctx, "user-1", wp.ID)
	if err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if once.IsActive {
		t.Error("1回目の切り替えで無効になるべき")
	}

	twice, err := svc.ToggleActive(ctx, "user-1", wp.ID)
	if err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if twice.IsActive != wp.IsActive {
		t.Errorf("2回切り替えると元の状態に戻るべき: got %v", twice.IsActive)
	}
}

// --- 所有者の分離 ---

func TestOwnershipIsolation(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	wp, _ := svc.Create(ctx, "owner", CreateInput{Name: "Cafe", DailyWage: float64Ptr(500)})

	if list, _ := svc.ListAll(ctx, "intruder"); len(list) != 0 {
		t.Errorf("他ユーザーの勤務先が見えている: %v", names(list))
	}

	_, err := svc.Update(ctx, "intruder", wp.ID, model.WorkplacePatch{Name: stringPtr("Hacked")})
	assertAPIErrorCode(t, err, model.ErrCodeWorkplaceNotFound)

	_, err = svc.ToggleActive(ctx, "intruder", wp.ID)
	assertAPIErrorCode(t, err, model.ErrCodeWorkplaceNotFound)

	err = svc.Delete(ctx, "intruder", wp.ID)
	assertAPIErrorCode(t, err, model.ErrCodeWorkplaceNotFound)

	got := repo.workplaces[wp.ID]
	if got.Name != "Cafe" || !got.IsActive {
		t.Errorf("所有者の勤務先が変更された: %+v", got)
	}
}
