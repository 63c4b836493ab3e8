package queue

import (
	"encoding/json"
	"fmt"
)

// Task types
const (
	TypeSummarizeVideo = "video:summarize"
)

// SummarizePayload is the payload for transcript summarization tasks
type SummarizePayload struct {
	VideoID    string                 `json:"video_id"`
	Transcript string                 `json:"transcript"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// NewSummarizeTask creates a new summarization task payload
func NewSummarizeTask(videoID, transcript string, metadata map[string]interface{}) (*SummarizePayload, error) {
	if videoID == "" {
		return nil, fmt.Errorf("video ID is required")
	}
	if transcript == "" {
		return nil, fmt.Errorf("transcript is required")
	}

	if metadata == nil {
		metadata = make(map[string]interface{})
	}

	return &SummarizePayload{
		VideoID:    videoID,
		Transcript: transcript,
		Metadata:   metadata,
	}, nil
}

// Marshal serializes the payload to JSON
func (p *SummarizePayload) Marshal() ([]byte, error) {
	return json.Marshal(p)
}

// UnmarshalSummarizePayload deserializes JSON to payload
func UnmarshalSummarizePayload(data []byte) (*SummarizePayload, error) {
	var payload SummarizePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if payload.VideoID == "" || payload.Transcript == "" {
		return nil, fmt.Errorf("payload is missing video ID or transcript")
	}
	return &payload, nil
}
