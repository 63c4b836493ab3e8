package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
)

func TestNewVideo(t *testing.T) {
	published := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	v := NewVideo("https://www.youtube.com/watch?v=abc", "Intro to Go", published)

	assert.NotEqual(t, uuid.Nil, v.ID)
	assert.Equal(t, "ja", v.Language)
	assert.Equal(t, bci.DifficultyNormal, v.Difficulty)
	assert.True(t, v.IsPublished)
	assert.NotNil(t, v.Tags)
	assert.NotNil(t, v.Glossary)
	assert.Equal(t, published, v.PublishedAt)
}

func TestVideo_Factors(t *testing.T) {
	v := &Video{
		DurationMinutes:   12,
		HasClosedCaptions: true,
		HasChapterMarkers: false,
		Difficulty:        bci.DifficultyEasy,
		PublishedAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		HasSampleCode:     true,
		LikeRatio:         0.85,
	}

	assert.Equal(t, bci.Factors{
		DurationMinutes:   12,
		HasClosedCaptions: true,
		Difficulty:        bci.DifficultyEasy,
		PublishedAt:       time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		HasSampleCode:     true,
		LikeRatio:         0.85,
	}, v.Factors())
}

func TestVideo_Rescore(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	v := &Video{
		DurationMinutes: 10,
		Difficulty:      bci.DifficultyEasy,
		PublishedAt:     now,
		BCIScore:        0,
	}

	assert.True(t, v.Rescore(bci.DefaultWeights(), now))
	assert.Equal(t, 50, v.BCIScore)
	assert.False(t, v.Rescore(bci.DefaultWeights(), now))
}
