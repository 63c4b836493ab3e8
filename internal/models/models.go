// Package models contains the request and response DTOs of the catalog API.
package models

import (
	"time"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
)

// ErrorResponse represents an error response.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ErrorResponse struct {
	Timestamp time.Time        `json:"timestamp"`
	Status    int              `json:"status"`
	Error     string           `json:"error"`
	Message   string           `json:"message"`
	Path      string           `json:"path"`
	Fields    []bci.FieldError `json:"fields,omitempty"`
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// NewPagination computes TotalPages from total and limit.
func NewPagination(page, limit, total int) Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: totalPages}
}

// VideoView is a video as presented to clients, with its BCI label resolved.
type VideoView struct {
	*dbmodels.Video
	Label *bci.Label `json:"bciLabel"`
}

// NewVideoView attaches the label for the video's stored score. Scores below
// the lowest threshold carry a null label.
func NewVideoView(v *dbmodels.Video) VideoView {
	view := VideoView{Video: v}
	if l := bci.LabelFor(v.BCIScore); !l.Empty() {
		view.Label = &l
	}
	return view
}

// NewVideoViews converts a slice of videos.
func NewVideoViews(videos []*dbmodels.Video) []VideoView {
	views := make([]VideoView, 0, len(videos))
	for _, v := range videos {
		views = append(views, NewVideoView(v))
	}
	return views
}

// VideoListResponse is a page of videos.
type VideoListResponse struct {
	Videos     []VideoView `json:"videos"`
	Pagination Pagination  `json:"pagination"`
}

// VideoDetailResponse is a single video with related videos.
type VideoDetailResponse struct {
	Video         VideoView   `json:"video"`
	RelatedVideos []VideoView `json:"relatedVideos"`
}

// VideoResponse wraps a single video.
type VideoResponse struct {
	Video VideoView `json:"video"`
}

// DeleteResponse acknowledges a deletion.
type DeleteResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
}

// RecalculationResult reports the outcome of a bulk recalculation.
type RecalculationResult struct {
	TotalVideosExamined int `json:"total"`
	VideosUpdated       int `json:"updated"`
}

// CatalogQuery holds the public listing parameters after parsing.
type CatalogQuery struct {
	Level     string
	Durations []string
	Language  string
	Tags      []string
	Query     string
	Sort      string
	Page      int
	Limit     int
}

// Catalog query vocabulary.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
)

// CreateVideoRequest is the body of an administrator video creation.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type CreateVideoRequest struct {
	URL               string     `json:"url" binding:"required,max=2048"`
	Title             string     `json:"title" binding:"required,max=500"`
	Channel           string     `json:"channel" binding:"max=200"`
	Language          string     `json:"language" binding:"max=10"`
	DurationMinutes   int        `json:"durationMin" binding:"min=0"`
	PublishedAt       *time.Time `json:"publishedAt"`
	Tags              []string   `json:"tags"`
	HasClosedCaptions bool       `json:"hasCc"`
	HasChapterMarkers bool       `json:"hasChapters"`
	SourceNotes       *string    `json:"sourceNotes" binding:"omitempty,max=2000"`
	QualityScore      float64    `json:"qualityScore" binding:"min=0,max=1"`
	Difficulty        string     `json:"difficulty" binding:"omitempty,oneof=easy normal hard"`
	HasSampleCode     bool       `json:"hasSampleCode"`
	LikeRatio         float64    `json:"likeRatio" binding:"min=0,max=1"`
	IsPublished       *bool      `json:"isPublished"`
}

// UpdateVideoRequest is a partial update. Nil fields are left unchanged.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type UpdateVideoRequest struct {
	Title             *string                 `json:"title" binding:"omitempty,min=1,max=500"`
	Channel           *string                 `json:"channel" binding:"omitempty,max=200"`
	Language          *string                 `json:"language" binding:"omitempty,max=10"`
	DurationMinutes   *int                    `json:"durationMin" binding:"omitempty,min=0"`
	PublishedAt       *time.Time              `json:"publishedAt"`
	Tags              []string                `json:"tags"`
	HasClosedCaptions *bool                   `json:"hasCc"`
	HasChapterMarkers *bool                   `json:"hasChapters"`
	SourceNotes       *string                 `json:"sourceNotes" binding:"omitempty,max=2000"`
	QualityScore      *float64                `json:"qualityScore" binding:"omitempty,min=0,max=1"`
	TranscriptSummary *string                 `json:"transcriptSummary"`
	Glossary          []dbmodels.GlossaryItem `json:"glossary"`
	DeprecatedFlags   []string                `json:"deprecatedFlags"`
	Prerequisites     *string                 `json:"prerequisites"`
	Learnings         []string                `json:"learnings"`
	Difficulty        *string                 `json:"difficulty" binding:"omitempty,oneof=easy normal hard"`
	HasSampleCode     *bool                   `json:"hasSampleCode"`
	LikeRatio         *float64                `json:"likeRatio" binding:"omitempty,min=0,max=1"`
	IsPublished       *bool                   `json:"isPublished"`
}

// ImportEntry is one video in a bulk import.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type ImportEntry struct {
	URL             string   `json:"url" binding:"required"`
	Title           string   `json:"title"`
	Channel         string   `json:"channel"`
	Language        string   `json:"language"`
	DurationMinutes *int     `json:"durationMin" binding:"omitempty,min=0"`
	PublishedAt     string   `json:"publishedAt"`
	Tags            []string `json:"tags"`
	Memo            string   `json:"memo" binding:"max=2000"`
	Rating          *float64 `json:"rating" binding:"omitempty,min=1,max=5"`
}

// ImportRequest is the object form of an import body.
type ImportRequest struct {
	Videos []ImportEntry `json:"videos" binding:"required,dive"`
}

// ImportResult summarizes a bulk import.
type ImportResult struct {
	Created int `json:"created"`
	Updated int `json:"updated"`
	Skipped int `json:"skipped"`
	Total   int `json:"total"`
}

// LookupRequest asks for YouTube metadata of a URL.
type LookupRequest struct {
	URL string `json:"url" binding:"required"`
}

// VideoMeta is metadata fetched from YouTube.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type VideoMeta struct {
	VideoID           string    `json:"videoId"`
	Title             string    `json:"title"`
	Channel           string    `json:"channel"`
	Language          string    `json:"language"`
	DurationMinutes   int       `json:"durationMin"`
	PublishedAt       time.Time `json:"publishedAt"`
	Tags              []string  `json:"tags"`
	HasClosedCaptions bool      `json:"hasCc"`
	HasChapterMarkers bool      `json:"hasChapters"`
	LikeRatio         *float64  `json:"likeRatio,omitempty"`
}

// SummarizeRequest carries the transcript to summarize.
type SummarizeRequest struct {
	Transcript string `json:"transcript" binding:"required,max=200000"`
}

// SummarizeAccepted acknowledges an enqueued summarization.
type SummarizeAccepted struct {
	VideoID string `json:"videoId"`
	TaskID  string `json:"taskId"`
	Status  string `json:"status"`
}

// VideoSummary is the structured result of summarizing a transcript.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type VideoSummary struct {
	TranscriptSummary string                  `json:"transcriptSummary"`
	Glossary          []dbmodels.GlossaryItem `json:"glossary"`
	Difficulty        bci.Difficulty          `json:"difficulty"`
	DeprecatedFlags   []string                `json:"deprecatedFlags"`
	Prerequisites     string                  `json:"prerequisites"`
	Learnings         []string                `json:"learnings"`
}

// HealthResponse reports dependency status.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
	Time   time.Time         `json:"time"`
}

// PathStepInput is one step of a path as submitted by an administrator.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type PathStepInput struct {
	VideoID            string `json:"videoId" binding:"required,uuid"`
	Order              *int   `json:"order" binding:"required"`
	WhyThis            string `json:"whyThis" binding:"required,max=2000"`
	CheckpointQuestion string `json:"checkpointQuestion" binding:"required,max=2000"`
}

// CreatePathRequest is the body of a path creation. At least one step is required.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type CreatePathRequest struct {
	Title             string          `json:"title" binding:"required,max=500"`
	TargetAudience    string          `json:"targetAudience" binding:"required,max=500"`
	Goal              string          `json:"goal" binding:"required,max=2000"`
	TotalTimeEstimate *int            `json:"totalTimeEstimate" binding:"required,min=0"`
	IsPublished       *bool           `json:"isPublished"`
	Steps             []PathStepInput `json:"steps" binding:"required,min=1,dive"`
}

// UpdatePathRequest is a partial path update. A non-nil Steps replaces every
// stored step.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type UpdatePathRequest struct {
	Title             *string         `json:"title" binding:"omitempty,min=1,max=500"`
	TargetAudience    *string         `json:"targetAudience" binding:"omitempty,min=1,max=500"`
	Goal              *string         `json:"goal" binding:"omitempty,min=1,max=2000"`
	TotalTimeEstimate *int            `json:"totalTimeEstimate" binding:"omitempty,min=0"`
	IsPublished       *bool           `json:"isPublished"`
	Steps             []PathStepInput `json:"steps" binding:"omitempty,dive"`
}

// PathStepView is a step with its video presented like any catalog video.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type PathStepView struct {
	dbmodels.PathStep
	Video *VideoView `json:"video"`
}

// PathView is a path with its steps. Steps is omitted in listings.
type PathView struct {
	*dbmodels.Path
	Steps []PathStepView `json:"steps,omitempty"`
}

// NewPathView converts a path and, when loaded, its steps.
func NewPathView(p *dbmodels.Path) PathView {
	view := PathView{Path: p}
	if p.Steps != nil {
		view.Steps = make([]PathStepView, 0, len(p.Steps))
		for _, s := range p.Steps {
			step := PathStepView{PathStep: s}
			if s.Video != nil {
				v := NewVideoView(s.Video)
				step.Video = &v
			}
			view.Steps = append(view.Steps, step)
		}
	}
	return view
}

// PathListResponse is a page of paths.
type PathListResponse struct {
	Paths      []PathView `json:"paths"`
	Pagination Pagination `json:"pagination"`
}

// PathResponse wraps a single path.
type PathResponse struct {
	Path PathView `json:"path"`
}

// TagListResponse lists the tags of published videos, most used first.
type TagListResponse struct {
	Tags []dbmodels.TagCount `json:"tags"`
}
