// Package bci implements the Beginner Comfort Index: a deterministic weighted
// score (0-100) describing how approachable a video is for a beginner, the
// administrator-editable weight set it is computed with, and the label
// thresholds used when presenting a score.
package bci

import (
	"fmt"
	"time"
)

// Difficulty is the editorial difficulty of a video.
type Difficulty string

// Difficulty values.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyNormal Difficulty = "normal"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty converts a stored or submitted string into a Difficulty.
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(s); d {
	case DifficultyEasy, DifficultyNormal, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("invalid difficulty %q: must be one of easy, normal, hard", s)
	}
}

// Valid reports whether d is one of the known difficulty values.
func (d Difficulty) Valid() bool {
	_, err := ParseDifficulty(string(d))
	return err == nil
}

// Factors is the complete set of video attributes the index is computed from.
// Callers must supply a fully merged snapshot; there is no notion of a
// partially known factor.
type Factors struct {
	DurationMinutes   int
	HasClosedCaptions bool
	HasChapterMarkers bool
	Difficulty        Difficulty
	PublishedAt       time.Time
	HasSampleCode     bool
	LikeRatio         float64 // fraction of positive reactions, 0-1
}
