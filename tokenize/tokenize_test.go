package tokenize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokensFilters(t *testing.T) {
	got := Tokens("삼성화재 해외여행보험, 치료비 한도는 1000 입니다! the")
	assert.Equal(t, []string{"삼성화재", "해외여행보험", "치료비", "한도는", "입니다"}, got)
}

func TestTokensDropsShortAndLong(t *testing.T) {
	long := "아주아주아주아주아주아주아주길다길다"
	got := Tokens("값 " + long + " 보장")
	assert.Equal(t, []string{"보장"}, got)
}

func TestDomainKeywordsPriority(t *testing.T) {
	text := "제주 제주 제주 여행 준비물 안내 보장 내용"
	got := DomainKeywords(text, 3)
	// Domain terms come first regardless of frequency.
	assert.Equal(t, []string{"여행", "보장", "제주"}, got)
}

func TestDomainKeywordsMax(t *testing.T) {
	got := DomainKeywords("보험 보장 특약 면책 약관", 3)
	assert.Len(t, got, 3)
}

func TestJaccard(t *testing.T) {
	assert.InDelta(t, 1.0, Jaccard("여행 보험 보장", "보장 여행 보험"), 1e-9)
	assert.InDelta(t, 0.0, Jaccard("여행 보험", "항공 수하물"), 1e-9)

	mid := Jaccard("여행 보험 보장", "여행 보험 면책")
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 1.0)
}

func TestOverlap(t *testing.T) {
	assert.InDelta(t, 1.0, Overlap("치료비 한도", "해외 치료비 지급 한도 안내"), 1e-9)
	assert.InDelta(t, 0.5, Overlap("치료비 면책", "치료비 보장"), 1e-9)
	assert.InDelta(t, 0.0, Overlap("", "치료비"), 1e-9)
}
