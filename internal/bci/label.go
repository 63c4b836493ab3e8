package bci

// Label thresholds.
const (
	ExcellentThreshold = 70
	SuitableThreshold  = 50
)

// Tier is the beginner-friendliness bucket a score falls into.
type Tier string

// Tier values. TierNone means no badge should be shown.
const (
	TierExcellent Tier = "excellent"
	TierSuitable  Tier = "suitable"
	TierNone      Tier = ""
)

// Label is the presentation of a score.
type Label struct {
	Tier     Tier   `json:"tier"`
	Text     string `json:"label"`
	StyleKey string `json:"styleKey"`
}

// Empty reports whether the label should be suppressed.
func (l Label) Empty() bool {
	return l.Tier == TierNone
}

// LabelFor maps a score onto its label. It is presentation only and is not
// used by catalog filters, which filter on Difficulty instead.
func LabelFor(score int) Label {
	switch {
	case score >= ExcellentThreshold:
		return Label{Tier: TierExcellent, Text: "Best for absolute beginners", StyleKey: "badge-beginner"}
	case score >= SuitableThreshold:
		return Label{Tier: TierSuitable, Text: "OK for an introduction", StyleKey: "badge-intro"}
	default:
		return Label{}
	}
}
