package bci

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var evalTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func perfectFactors() Factors {
	return Factors{
		DurationMinutes:   10,
		HasClosedCaptions: true,
		HasChapterMarkers: true,
		Difficulty:        DifficultyEasy,
		PublishedAt:       evalTime,
		HasSampleCode:     true,
		LikeRatio:         0.95,
	}
}

func worstFactors() Factors {
	return Factors{
		DurationMinutes:   60,
		HasClosedCaptions: false,
		HasChapterMarkers: false,
		Difficulty:        DifficultyHard,
		PublishedAt:       evalTime.AddDate(-3, 0, 0),
		HasSampleCode:     false,
		LikeRatio:         0.3,
	}
}

func TestCalculateAt_DefaultWeights(t *testing.T) {
	tests := []struct {
		name   string
		modify func(f *Factors)
		want   int
	}{
		{name: "perfect video", modify: func(f *Factors) {}, want: 100},
		{name: "duration exactly 15 is full credit", modify: func(f *Factors) { f.DurationMinutes = 15 }, want: 100},
		{name: "duration 20 is half credit", modify: func(f *Factors) { f.DurationMinutes = 20 }, want: 90},
		{name: "duration exactly 30 is half credit", modify: func(f *Factors) { f.DurationMinutes = 30 }, want: 90},
		{name: "duration over 30 gets nothing", modify: func(f *Factors) { f.DurationMinutes = 31 }, want: 80},
		{name: "zero duration is full credit", modify: func(f *Factors) { f.DurationMinutes = 0 }, want: 100},
		{name: "no captions", modify: func(f *Factors) { f.HasClosedCaptions = false }, want: 85},
		{name: "no chapters", modify: func(f *Factors) { f.HasChapterMarkers = false }, want: 85},
		{name: "normal difficulty", modify: func(f *Factors) { f.Difficulty = DifficultyNormal }, want: 90},
		{name: "hard difficulty", modify: func(f *Factors) { f.Difficulty = DifficultyHard }, want: 80},
		{name: "published exactly two years ago", modify: func(f *Factors) { f.PublishedAt = evalTime.AddDate(-2, 0, 0) }, want: 100},
		{name: "published just over two years ago", modify: func(f *Factors) { f.PublishedAt = evalTime.AddDate(-2, 0, 0).Add(-time.Second) }, want: 90},
		{name: "published three years ago", modify: func(f *Factors) { f.PublishedAt = evalTime.AddDate(-3, 0, 0) }, want: 90},
		{name: "no sample code", modify: func(f *Factors) { f.HasSampleCode = false }, want: 90},
		{name: "like ratio exactly 0.9", modify: func(f *Factors) { f.LikeRatio = 0.9 }, want: 100},
		{name: "like ratio 0.85 is half credit", modify: func(f *Factors) { f.LikeRatio = 0.85 }, want: 95},
		{name: "like ratio exactly 0.8 is half credit", modify: func(f *Factors) { f.LikeRatio = 0.8 }, want: 95},
		{name: "like ratio below 0.8", modify: func(f *Factors) { f.LikeRatio = 0.79 }, want: 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := perfectFactors()
			tt.modify(&f)
			assert.Equal(t, tt.want, CalculateAt(f, DefaultWeights(), evalTime))
		})
	}
}

func TestCalculateAt_WorstVideo(t *testing.T) {
	assert.Equal(t, 0, CalculateAt(worstFactors(), DefaultWeights(), evalTime))
}

func TestCalculate_UsesCurrentTime(t *testing.T) {
	f := perfectFactors()
	f.PublishedAt = time.Now()
	assert.Equal(t, 100, Calculate(f, DefaultWeights()))

	f.PublishedAt = time.Now().AddDate(-3, 0, 0)
	assert.Equal(t, 90, Calculate(f, DefaultWeights()))
}

func TestCalculateAt_CustomWeights(t *testing.T) {
	t.Run("all weights at maximum are capped at 100", func(t *testing.T) {
		w := Weights{30, 30, 30, 30, 30, 30, 30}
		assert.Equal(t, 100, CalculateAt(perfectFactors(), w, evalTime))
	})

	t.Run("all weights zero score zero", func(t *testing.T) {
		assert.Equal(t, 0, CalculateAt(perfectFactors(), Weights{}, evalTime))
	})

	t.Run("total below 100 is not rescaled", func(t *testing.T) {
		w := Weights{10, 5, 5, 10, 5, 5, 5}
		assert.Equal(t, 45, CalculateAt(perfectFactors(), w, evalTime))
	})

	t.Run("half credit of an odd weight rounds half up", func(t *testing.T) {
		w := Weights{ShortDuration: 1}
		f := perfectFactors()
		f.DurationMinutes = 20
		assert.Equal(t, 1, CalculateAt(f, w, evalTime))
	})

	t.Run("fractional sums round to nearest", func(t *testing.T) {
		w := Weights{ShortDuration: 10.4, ClosedCaptions: 10.4}
		assert.Equal(t, 21, CalculateAt(perfectFactors(), w, evalTime))
	})
}

func TestCalculateAt_MonotonicInEachFactor(t *testing.T) {
	improvements := []struct {
		name   string
		worse  func(f *Factors)
		better func(f *Factors)
	}{
		{"duration", func(f *Factors) { f.DurationMinutes = 45 }, func(f *Factors) { f.DurationMinutes = 25 }},
		{"duration to short", func(f *Factors) { f.DurationMinutes = 25 }, func(f *Factors) { f.DurationMinutes = 5 }},
		{"captions", func(f *Factors) { f.HasClosedCaptions = false }, func(f *Factors) { f.HasClosedCaptions = true }},
		{"chapters", func(f *Factors) { f.HasChapterMarkers = false }, func(f *Factors) { f.HasChapterMarkers = true }},
		{"difficulty hard to normal", func(f *Factors) { f.Difficulty = DifficultyHard }, func(f *Factors) { f.Difficulty = DifficultyNormal }},
		{"difficulty normal to easy", func(f *Factors) { f.Difficulty = DifficultyNormal }, func(f *Factors) { f.Difficulty = DifficultyEasy }},
		{"recency", func(f *Factors) { f.PublishedAt = evalTime.AddDate(-5, 0, 0) }, func(f *Factors) { f.PublishedAt = evalTime.AddDate(0, -1, 0) }},
		{"sample code", func(f *Factors) { f.HasSampleCode = false }, func(f *Factors) { f.HasSampleCode = true }},
		{"like ratio", func(f *Factors) { f.LikeRatio = 0.5 }, func(f *Factors) { f.LikeRatio = 0.82 }},
		{"like ratio to high", func(f *Factors) { f.LikeRatio = 0.82 }, func(f *Factors) { f.LikeRatio = 0.99 }},
	}

	bases := []Factors{perfectFactors(), worstFactors()}
	weightSets := []Weights{DefaultWeights(), {30, 30, 30, 30, 30, 30, 30}, {1, 2, 3, 4, 5, 6, 7}}

	for _, imp := range improvements {
		for _, base := range bases {
			for _, w := range weightSets {
				worse, better := base, base
				imp.worse(&worse)
				imp.better(&better)
				assert.GreaterOrEqual(t,
					CalculateAt(better, w, evalTime),
					CalculateAt(worse, w, evalTime),
					"improving %s must not lower the score", imp.name)
			}
		}
	}
}

func TestCalculateAt_AlwaysWithinRange(t *testing.T) {
	values := []float64{0, 0.5, 7.5, 15, 29.9, 30}
	factorSets := []Factors{perfectFactors(), worstFactors()}

	for _, v := range values {
		for _, f := range factorSets {
			w := Weights{v, v, v, v, v, v, v}
			score := CalculateAt(f, w, evalTime)
			assert.GreaterOrEqual(t, score, 0)
			assert.LessOrEqual(t, score, 100)
		}
	}
}

func TestParseDifficulty(t *testing.T) {
	for _, s := range []string{"easy", "normal", "hard"} {
		d, err := ParseDifficulty(s)
		assert.NoError(t, err)
		assert.Equal(t, Difficulty(s), d)
		assert.True(t, d.Valid())
	}

	_, err := ParseDifficulty("expert")
	assert.Error(t, err)
	assert.False(t, Difficulty("").Valid())
}
