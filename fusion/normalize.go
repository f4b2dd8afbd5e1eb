// Package fusion merges vector, keyword, and web candidate lists into one
// ranked candidate set on a shared score scale.
package fusion

import (
	"fmt"
	"math"
	"sort"
)

// Normalizer maps a raw score list onto [0,1] so lists from different
// backends become comparable.
type Normalizer interface {
	Name() string
	Normalize(scores []float64) []float64
}

// ByName resolves a configured normalizer. Unknown names fall back to minmax.
func ByName(name string) (Normalizer, error) {
	switch name {
	case "", "minmax":
		return MinMax{}, nil
	case "zscore":
		return ZScore{}, nil
	case "robust":
		return Robust{}, nil
	default:
		return MinMax{}, fmt.Errorf("unknown normalizer %q", name)
	}
}

// MinMax rescales linearly to [0,1]. A constant list maps to all 0.5.
type MinMax struct{}

func (MinMax) Name() string { return "minmax" }

func (MinMax) Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	lo, hi := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}
	out := make([]float64, len(scores))
	if hi == lo {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, s := range scores {
		out[i] = (s - lo) / (hi - lo)
	}
	return out
}

// ZScore standardizes then squashes through a sigmoid into (0,1).
type ZScore struct{}

func (ZScore) Name() string { return "zscore" }

func (ZScore) Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	mean := sum / float64(len(scores))
	var variance float64
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	std := math.Sqrt(variance / float64(len(scores)))
	out := make([]float64, len(scores))
	if std == 0 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, s := range scores {
		z := (s - mean) / std
		out[i] = 1 / (1 + math.Exp(-z))
	}
	return out
}

// Robust rescales on the interquartile range, clamping outliers to [0,1].
type Robust struct{}

func (Robust) Name() string { return "robust" }

func (Robust) Normalize(scores []float64) []float64 {
	if len(scores) == 0 {
		return nil
	}
	sorted := append([]float64(nil), scores...)
	sort.Float64s(sorted)
	q1 := quantile(sorted, 0.25)
	q3 := quantile(sorted, 0.75)
	iqr := q3 - q1
	out := make([]float64, len(scores))
	if iqr == 0 {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, s := range scores {
		v := (s - q1) / iqr
		out[i] = math.Max(0, math.Min(1, v))
	}
	return out
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
