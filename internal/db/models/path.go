package models

import (
	"time"

	"github.com/google/uuid"
)

// Path is a curated learning path: an ordered sequence of videos aimed at one
// audience and goal.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Path struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Title             string     `db:"title" json:"title"`
	TargetAudience    string     `db:"target_audience" json:"targetAudience"`
	Goal              string     `db:"goal" json:"goal"`
	TotalTimeEstimate int        `db:"total_time_estimate" json:"totalTimeEstimate"`
	IsPublished       bool       `db:"is_published" json:"isPublished"`
	StepCount         int        `db:"step_count" json:"stepCount"`
	Steps             []PathStep `json:"-"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
}

// PathStep places one video at a position of a path. Video is populated
// when the step is read with its path.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type PathStep struct {
	ID                 uuid.UUID `db:"id" json:"id"`
	PathID             uuid.UUID `db:"path_id" json:"pathId"`
	VideoID            uuid.UUID `db:"video_id" json:"videoId"`
	Order              int       `db:"step_order" json:"order"`
	WhyThis            string    `db:"why_this" json:"whyThis"`
	CheckpointQuestion string    `db:"checkpoint_question" json:"checkpointQuestion"`
	Video              *Video    `json:"-"`
}

// NewPath creates a published Path with a fresh ID.
func NewPath(title, targetAudience, goal string, totalTimeEstimate int) *Path {
	now := time.Now()
	return &Path{
		ID:                uuid.New(),
		Title:             title,
		TargetAudience:    targetAudience,
		Goal:              goal,
		TotalTimeEstimate: totalTimeEstimate,
		IsPublished:       true,
		Steps:             []PathStep{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// SetSteps replaces the steps, assigning IDs and the owning path.
func (p *Path) SetSteps(steps []PathStep) {
	p.Steps = make([]PathStep, 0, len(steps))
	for _, s := range steps {
		if s.ID == uuid.Nil {
			s.ID = uuid.New()
		}
		s.PathID = p.ID
		p.Steps = append(p.Steps, s)
	}
	p.StepCount = len(p.Steps)
}
