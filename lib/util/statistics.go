// Package util
//
// This file provides summary statistics over a series of samples. The perf
// tool uses them to judge how evenly the operations were spread over its
// workers while they contended for the same list.
package util

import (
	"math"
)

// ----------------------------------------------------------------------------
// Summary
// ----------------------------------------------------------------------------

// Summary describes a series of samples.
type Summary struct {
	Count        int     `json:"count"`
	Sum          float64 `json:"sum"`
	Min          float64 `json:"min"`
	Max          float64 `json:"max"`
	Mean         float64 `json:"mean"`
	StdDeviation float64 `json:"std_deviation"`
	MinMaxRatio  float64 `json:"min_max_ratio"`
}

// Summarize computes the summary of samples. An empty input yields the zero Summary.
func Summarize(samples []float64) Summary {
	if len(samples) == 0 {
		return Summary{}
	}

	s := Summary{
		Count: len(samples),
		Min:   samples[0],
		Max:   samples[0],
	}
	for _, v := range samples {
		s.Sum += v
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = s.Sum / float64(s.Count)

	// population standard deviation
	var squared float64
	for _, v := range samples {
		d := v - s.Mean
		squared += d * d
	}
	s.StdDeviation = math.Sqrt(squared / float64(s.Count))

	s.MinMaxRatio = 1.0
	if s.Max > 0 {
		s.MinMaxRatio = s.Min / s.Max
	}
	return s
}

// ----------------------------------------------------------------------------
// Fairness
// ----------------------------------------------------------------------------

// Fairness extends Summary with a score in [0, 1] that is 1 when every
// worker completed the same amount of work.
type Fairness struct {
	Summary
	Score float64 `json:"score"`
}

// NewFairness rates the per-worker operation counts of a concurrent run.
// The score averages (1 - coefficient of variation) and the min/max ratio.
func NewFairness(perWorker []float64) Fairness {
	s := Summarize(perWorker)

	var cv float64
	if s.Mean > 0 {
		cv = s.StdDeviation / s.Mean
	}

	return Fairness{
		Summary: s,
		Score:   (1.0-math.Min(1.0, cv))*0.5 + s.MinMaxRatio*0.5,
	}
}
