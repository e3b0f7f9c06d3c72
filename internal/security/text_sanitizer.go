package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は利用者が入力する表示用テキスト（氏名、勤務先名、色）から
// マークアップを取り除く。
type TextSanitizer interface {
	// Clean はHTMLタグを除去し、前後の空白を取り除いたプレーンテキストを返す。
	Clean(s string) string
}

type textSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はbluemondayのStrictPolicyでタグをすべて除去するTextSanitizerを生成する。
func NewTextSanitizer() *textSanitizer {
	return &textSanitizer{policy: bluemonday.StrictPolicy()}
}

// Clean はHTMLタグを除去したプレーンテキストを返す。
// StrictPolicyはエスケープ済みHTMLを返すため、保存用にアンエスケープする。
func (s *textSanitizer) Clean(raw string) string {
	if raw == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(s.policy.Sanitize(raw)))
}

// compile-time interface check
var _ TextSanitizer = (*textSanitizer)(nil)
