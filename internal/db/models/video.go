package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
)

// GlossaryItem is one term explained by a video summary.
type GlossaryItem struct {
	Term    string `json:"term"`
	Explain string `json:"explain"`
}

// Video is a catalog entry together with the factors its BCI is computed from.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Video struct {
	ID                uuid.UUID      `db:"id" json:"id"`
	URL               string         `db:"url" json:"url"`
	Title             string         `db:"title" json:"title"`
	Channel           string         `db:"channel" json:"channel"`
	Language          string         `db:"language" json:"language"`
	DurationMinutes   int            `db:"duration_min" json:"durationMin"`
	PublishedAt       time.Time      `db:"published_at" json:"publishedAt"`
	Tags              []string       `db:"tags" json:"tags"`
	HasClosedCaptions bool           `db:"has_cc" json:"hasCc"`
	HasChapterMarkers bool           `db:"has_chapters" json:"hasChapters"`
	SourceNotes       *string        `db:"source_notes" json:"sourceNotes"`
	QualityScore      float64        `db:"quality_score" json:"qualityScore"`
	BCIScore          int            `db:"bci_score" json:"beginnerComfortIndex"`
	TranscriptSummary *string        `db:"transcript_summary" json:"transcriptSummary"`
	Glossary          []GlossaryItem `db:"glossary" json:"glossary"`
	DeprecatedFlags   []string       `db:"deprecated_flags" json:"deprecatedFlags"`
	Prerequisites     *string        `db:"prerequisites" json:"prerequisites"`
	Learnings         []string       `db:"learnings" json:"learnings"`
	Difficulty        bci.Difficulty `db:"difficulty" json:"difficulty"`
	HasSampleCode     bool           `db:"has_sample_code" json:"hasSampleCode"`
	LikeRatio         float64        `db:"like_ratio" json:"likeRatio"`
	IsPublished       bool           `db:"is_published" json:"isPublished"`
	CreatedAt         time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updatedAt"`
}

// NewVideo creates a published Video with a fresh ID and empty collections.
func NewVideo(url, title string, publishedAt time.Time) *Video {
	now := time.Now()
	return &Video{
		ID:              uuid.New(),
		URL:             url,
		Title:           title,
		Language:        "ja",
		PublishedAt:     publishedAt,
		Tags:            []string{},
		Glossary:        []GlossaryItem{},
		DeprecatedFlags: []string{},
		Learnings:       []string{},
		Difficulty:      bci.DifficultyNormal,
		IsPublished:     true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Factors returns the scoring snapshot of the video's current state.
func (v *Video) Factors() bci.Factors {
	return bci.Factors{
		DurationMinutes:   v.DurationMinutes,
		HasClosedCaptions: v.HasClosedCaptions,
		HasChapterMarkers: v.HasChapterMarkers,
		Difficulty:        v.Difficulty,
		PublishedAt:       v.PublishedAt,
		HasSampleCode:     v.HasSampleCode,
		LikeRatio:         v.LikeRatio,
	}
}

// Rescore recomputes BCIScore from the video's own factors and reports
// whether the stored score changed.
func (v *Video) Rescore(w bci.Weights, now time.Time) bool {
	score := bci.CalculateAt(v.Factors(), w, now)
	changed := score != v.BCIScore
	v.BCIScore = score
	return changed
}

// ScoringInput is the minimal projection read by a bulk recalculation.
type ScoringInput struct {
	ID      uuid.UUID
	Factors bci.Factors
	Score   int
}

// ScoreUpdate is a new score for one video.
type ScoreUpdate struct {
	ID    uuid.UUID
	Score int
}

// TagCount is a normalized tag and the number of published videos carrying it.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
