package workday

import (
	"fmt"
	"strings"
	"time"
)

// dateOnlyLayout はカレンダー日付のみの入力書式。
const dateOnlyLayout = "2006-01-02"

// ParseDate は勤務日の入力値をサーバーローカル時刻の0時に正規化して返す。
// YYYY-MM-DD はローカルのカレンダー日付として解釈する。
// RFC 3339 の日時はローカル時刻に変換してから日付部分を取り出す。
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.ParseInLocation(dateOnlyLayout, raw, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported date format %q: %w", raw, err)
	}
	return startOfDay(t.In(time.Local)), nil
}

// startOfDay はtと同じローカル日付の0時を返す。
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

// isFutureDate はdayがnowの属する日より後の日付かを判定する。
func isFutureDate(day, now time.Time) bool {
	return day.After(startOfDay(now.In(time.Local)))
}

// monthRange はnowが属する月の初日と末日を返す。
func monthRange(now time.Time) (time.Time, time.Time) {
	now = now.In(time.Local)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.Local)
	last := first.AddDate(0, 1, -1)
	return first, last
}
