package bci

import (
	"encoding/json"
	"fmt"
	"math"
)

// Weight bounds accepted on write.
const (
	MinWeight = 0.0
	MaxWeight = 30.0
)

// Weight keys as they appear in the persisted configuration and the API.
const (
	KeyShortDuration    = "shortDuration"
	KeyClosedCaptions   = "closedCaptions"
	KeyChapterMarkers   = "chapterMarkers"
	KeyEasyDifficulty   = "easyDifficulty"
	KeyRecentPublish    = "recentPublish"
	KeySampleCode       = "sampleCode"
	KeyHealthyLikeRatio = "healthyLikeRatio"
)

// WeightKeys lists every key a complete weight set must carry, in display order.
var WeightKeys = []string{
	KeyShortDuration,
	KeyClosedCaptions,
	KeyChapterMarkers,
	KeyEasyDifficulty,
	KeyRecentPublish,
	KeySampleCode,
	KeyHealthyLikeRatio,
}

// legacyKeys maps key names used by earlier stored configurations onto the
// current names.
var legacyKeys = map[string]string{
	"hasCc":         KeyClosedCaptions,
	"hasChapters":   KeyChapterMarkers,
	"hasSampleCode": KeySampleCode,
}

// Weights holds the points each factor contributes at full credit.
type Weights struct {
	ShortDuration    float64 `json:"shortDuration"`
	ClosedCaptions   float64 `json:"closedCaptions"`
	ChapterMarkers   float64 `json:"chapterMarkers"`
	EasyDifficulty   float64 `json:"easyDifficulty"`
	RecentPublish    float64 `json:"recentPublish"`
	SampleCode       float64 `json:"sampleCode"`
	HealthyLikeRatio float64 `json:"healthyLikeRatio"`
}

// DefaultWeights returns the built-in weight set. Its values sum to 100 so a
// video that satisfies every factor scores exactly 100.
func DefaultWeights() Weights {
	return Weights{
		ShortDuration:    20,
		ClosedCaptions:   15,
		ChapterMarkers:   15,
		EasyDifficulty:   20,
		RecentPublish:    10,
		SampleCode:       10,
		HealthyLikeRatio: 10,
	}
}

// Sum returns the total of all weights. It is informational only; any total is allowed.
func (w Weights) Sum() float64 {
	return w.ShortDuration + w.ClosedCaptions + w.ChapterMarkers + w.EasyDifficulty +
		w.RecentPublish + w.SampleCode + w.HealthyLikeRatio
}

func (w *Weights) field(key string) *float64 {
	switch key {
	case KeyShortDuration:
		return &w.ShortDuration
	case KeyClosedCaptions:
		return &w.ClosedCaptions
	case KeyChapterMarkers:
		return &w.ChapterMarkers
	case KeyEasyDifficulty:
		return &w.EasyDifficulty
	case KeyRecentPublish:
		return &w.RecentPublish
	case KeySampleCode:
		return &w.SampleCode
	case KeyHealthyLikeRatio:
		return &w.HealthyLikeRatio
	}
	return nil
}

// Get returns the value stored under key and whether the key is known.
func (w Weights) Get(key string) (float64, bool) {
	p := w.field(key)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Validate checks every weight lies within [MinWeight, MaxWeight].
func (w Weights) Validate() error {
	var fields []FieldError
	for _, key := range WeightKeys {
		v, _ := w.Get(key)
		if !inRange(v) {
			fields = append(fields, FieldError{Field: key, Reason: ReasonOutOfRange})
		}
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// DecodeWeights validates a submitted weight document and converts it into
// Weights. All seven keys must be present and hold a number within range;
// every violation is reported. Unknown keys are ignored.
func DecodeWeights(raw map[string]any) (Weights, error) {
	var w Weights
	var fields []FieldError

	for _, key := range WeightKeys {
		value, ok := raw[key]
		if !ok || value == nil {
			fields = append(fields, FieldError{Field: key, Reason: ReasonMissing})
			continue
		}

		n, ok := toNumber(value)
		if !ok {
			fields = append(fields, FieldError{Field: key, Reason: ReasonNotANumber})
			continue
		}
		if !inRange(n) {
			fields = append(fields, FieldError{Field: key, Reason: ReasonOutOfRange})
			continue
		}

		*w.field(key) = n
	}

	if len(fields) > 0 {
		return Weights{}, &ValidationError{Fields: fields}
	}
	return w, nil
}

// MergeWithDefaults overlays a stored configuration onto DefaultWeights.
// Stored configurations written before a key existed simply lack that key, so
// missing or non-numeric entries keep their default. Legacy key names are
// honoured unless the current name is also present.
func MergeWithDefaults(stored map[string]any) Weights {
	w := DefaultWeights()

	for legacy, current := range legacyKeys {
		if _, ok := stored[current]; ok {
			continue
		}
		if n, ok := toNumber(stored[legacy]); ok {
			*w.field(current) = n
		}
	}

	for _, key := range WeightKeys {
		if n, ok := toNumber(stored[key]); ok {
			*w.field(key) = n
		}
	}

	return w
}

// UnmarshalStored parses a persisted configuration value and merges it with
// the defaults.
func UnmarshalStored(value []byte) (Weights, error) {
	var stored map[string]any
	if err := json.Unmarshal(value, &stored); err != nil {
		return DefaultWeights(), fmt.Errorf("parse stored weights: %w", err)
	}
	return MergeWithDefaults(stored), nil
}

func toNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return toNumber(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return toNumber(f)
	default:
		return 0, false
	}
}

func inRange(v float64) bool {
	return v >= MinWeight && v <= MaxWeight
}
