package util

import (
	"math"
	"testing"
)

func TestSummarizeEmpty(t *testing.T) {
	if s := Summarize(nil); s != (Summary{}) {
		t.Errorf("Expected zero summary, got %+v", s)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})

	if s.Count != 8 || s.Sum != 40 {
		t.Errorf("Unexpected count/sum: %+v", s)
	}
	if s.Min != 2 || s.Max != 9 {
		t.Errorf("Expected min 2 and max 9, got %v and %v", s.Min, s.Max)
	}
	if s.Mean != 5 {
		t.Errorf("Expected mean 5, got %v", s.Mean)
	}
	if s.StdDeviation != 2 {
		t.Errorf("Expected standard deviation 2, got %v", s.StdDeviation)
	}
	if math.Abs(s.MinMaxRatio-2.0/9.0) > 1e-9 {
		t.Errorf("Expected min/max ratio 2/9, got %v", s.MinMaxRatio)
	}
}

func TestFairness(t *testing.T) {
	even := NewFairness([]float64{100, 100, 100})
	if even.Score != 1 {
		t.Errorf("Even distribution should score 1, got %v", even.Score)
	}

	skewed := NewFairness([]float64{1, 100, 1000})
	if skewed.Score >= even.Score {
		t.Errorf("Skewed distribution should score below %v, got %v", even.Score, skewed.Score)
	}

	idle := NewFairness([]float64{0, 0})
	if idle.Score != 1 {
		t.Errorf("All-zero distribution has no skew and should score 1, got %v", idle.Score)
	}
}
