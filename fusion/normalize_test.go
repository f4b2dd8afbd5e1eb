package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinMax(t *testing.T) {
	got := MinMax{}.Normalize([]float64{2, 4, 6})
	assert.Equal(t, []float64{0, 0.5, 1}, got)
}

func TestMinMaxConstant(t *testing.T) {
	got := MinMax{}.Normalize([]float64{3, 3, 3})
	assert.Equal(t, []float64{0.5, 0.5, 0.5}, got)
}

func TestZScoreBounds(t *testing.T) {
	got := ZScore{}.Normalize([]float64{1, 2, 3, 4, 100})
	for _, v := range got {
		assert.Greater(t, v, 0.0)
		assert.Less(t, v, 1.0)
	}
	assert.Greater(t, got[4], got[0])
}

func TestZScoreConstant(t *testing.T) {
	got := ZScore{}.Normalize([]float64{7, 7})
	assert.Equal(t, []float64{0.5, 0.5}, got)
}

func TestRobustClampsOutliers(t *testing.T) {
	got := Robust{}.Normalize([]float64{1, 2, 3, 4, 1000})
	assert.Equal(t, 1.0, got[4])
	for _, v := range got {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"", "minmax", "zscore", "robust"} {
		n, err := ByName(name)
		require.NoError(t, err, name)
		require.NotNil(t, n)
	}
	_, err := ByName("softmax")
	assert.Error(t, err)
}

func TestNormalizeEmptyInput(t *testing.T) {
	assert.Nil(t, MinMax{}.Normalize(nil))
	assert.Nil(t, ZScore{}.Normalize(nil))
	assert.Nil(t, Robust{}.Normalize(nil))
}
