package bci

import (
	"math"
	"time"
)

// Scoring thresholds.
const (
	ShortDurationMinutes  = 15
	MediumDurationMinutes = 30
	RecentPublishYears    = 2
	HighLikeRatio         = 0.9
	MediumLikeRatio       = 0.8
	MaxScore              = 100
)

// Calculate scores f against w as of the current time.
func Calculate(f Factors, w Weights) int {
	return CalculateAt(f, w, time.Now())
}

// CalculateAt scores f against w, evaluating recency relative to now.
//
// Each factor contributes independently; partial credit is half the weight.
// The sum is capped at MaxScore and rounded half away from zero. Weights are
// validated on write, so the sum is never negative.
func CalculateAt(f Factors, w Weights, now time.Time) int {
	var score float64

	switch {
	case f.DurationMinutes <= ShortDurationMinutes:
		score += w.ShortDuration
	case f.DurationMinutes <= MediumDurationMinutes:
		score += w.ShortDuration * 0.5
	}

	if f.HasClosedCaptions {
		score += w.ClosedCaptions
	}

	if f.HasChapterMarkers {
		score += w.ChapterMarkers
	}

	switch f.Difficulty {
	case DifficultyEasy:
		score += w.EasyDifficulty
	case DifficultyNormal:
		score += w.EasyDifficulty * 0.5
	}

	if !f.PublishedAt.Before(now.AddDate(-RecentPublishYears, 0, 0)) {
		score += w.RecentPublish
	}

	if f.HasSampleCode {
		score += w.SampleCode
	}

	switch {
	case f.LikeRatio >= HighLikeRatio:
		score += w.HealthyLikeRatio
	case f.LikeRatio >= MediumLikeRatio:
		score += w.HealthyLikeRatio * 0.5
	}

	return int(math.Round(math.Min(MaxScore, score)))
}
