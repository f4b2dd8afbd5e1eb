package cache

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyNamespaceAndLength(t *testing.T) {
	k := Key(KindSearch, "여행보험 보장", nil)
	assert.True(t, strings.HasPrefix(k, "search:"))
	assert.Len(t, strings.TrimPrefix(k, "search:"), 16)
}

func TestKeyExtraParamOrderIrrelevant(t *testing.T) {
	a := Key(KindSearch, "q", map[string]string{"k": "5", "alpha": "0.6"})
	b := Key(KindSearch, "q", map[string]string{"alpha": "0.6", "k": "5"})
	assert.Equal(t, a, b)
}

func TestKeySeparatesNamespaces(t *testing.T) {
	assert.NotEqual(t, Key(KindSearch, "q", nil), Key(KindLLM, "q", nil))
}

func TestKeyExtraParamsChangeKey(t *testing.T) {
	a := Key(KindSearch, "q", map[string]string{"k": "5"})
	b := Key(KindSearch, "q", map[string]string{"k": "8"})
	assert.NotEqual(t, a, b)
}
