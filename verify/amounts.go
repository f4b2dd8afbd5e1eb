package verify

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/inscope-ai/ragcore/schema"
)

// amountPattern matches Korean monetary mentions like "1억원", "5천만원",
// "300만원", "1억 5천만원". Magnitude units compose left to right within one
// mention terminated by 원.
var amountPattern = regexp.MustCompile(`(?:\d+(?:[.,]\d+)?\s*(?:억|천만|백만|십만|만|천)?\s*)+원`)

// groupPattern splits one mention into its number+unit groups.
var groupPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s*(억|천만|백만|십만|만|천)?`)

var unitMultiplier = map[string]int64{
	"":   1,
	"천":  1_000,
	"만":  10_000,
	"십만": 100_000,
	"백만": 1_000_000,
	"천만": 10_000_000,
	"억":  100_000_000,
}

// ExtractAmounts returns all monetary mentions in text, normalized to won.
// Unit groups within one mention ("1억 5천만원") are summed.
func ExtractAmounts(text string) []int64 {
	mentions := amountPattern.FindAllString(text, -1)
	if len(mentions) == 0 {
		return nil
	}
	out := make([]int64, 0, len(mentions))
	for _, mention := range mentions {
		var total int64
		valid := false
		for _, g := range groupPattern.FindAllStringSubmatch(mention, -1) {
			numStr := strings.ReplaceAll(g[1], ",", "")
			num, err := strconv.ParseFloat(numStr, 64)
			if err != nil {
				continue
			}
			total += int64(num * float64(unitMultiplier[g[2]]))
			valid = true
		}
		if valid {
			out = append(out, total)
		}
	}
	return out
}

// Conflict describes insurers disagreeing on normalized amounts.
type Conflict struct {
	Insurers []string
	Amounts  map[string][]int64
}

// DetectConflicts groups amount mentions by insurer and reports a conflict
// when at least two insurers state different normalized amount sets for
// comparable claims. Passages without insurer or without amounts are ignored.
func DetectConflicts(passages []schema.Passage) *Conflict {
	byInsurer := map[string][]int64{}
	var order []string
	for _, p := range passages {
		if p.Insurer == "" {
			continue
		}
		amounts := ExtractAmounts(p.Text)
		if len(amounts) == 0 {
			continue
		}
		if _, seen := byInsurer[p.Insurer]; !seen {
			order = append(order, p.Insurer)
		}
		byInsurer[p.Insurer] = append(byInsurer[p.Insurer], amounts...)
	}
	if len(byInsurer) < 2 {
		return nil
	}
	base := amountSet(byInsurer[order[0]])
	conflicting := false
	for _, insurer := range order[1:] {
		if !sameSet(base, amountSet(byInsurer[insurer])) {
			conflicting = true
			break
		}
	}
	if !conflicting {
		return nil
	}
	return &Conflict{Insurers: order, Amounts: byInsurer}
}

func amountSet(vals []int64) map[int64]struct{} {
	set := make(map[int64]struct{}, len(vals))
	for _, v := range vals {
		set[v] = struct{}{}
	}
	return set
}

func sameSet(a, b map[int64]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if _, ok := b[v]; !ok {
			return false
		}
	}
	return true
}
