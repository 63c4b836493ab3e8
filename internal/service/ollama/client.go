// Package ollama summarizes video transcripts with an Ollama LLM server.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/beginner-catalog/catalog-service-go/internal/bci"
	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
)

// DefaultPrerequisites is stored when the model names no prerequisites.
const DefaultPrerequisites = "none"

// Client is a client for interacting with an Ollama LLM server
type Client struct {
	baseURL    string
	model      string
	apiKey     string
	httpClient *http.Client
}

// Config holds the configuration for the Ollama client
type Config struct {
	BaseURL string        // e.g., "http://ollama.example.com:11434"
	Model   string        // e.g., "llama3.1"
	APIKey  string        // Optional API key for authentication
	Timeout time.Duration // Request timeout (default: 60 seconds)
}

// NewClient creates a new Ollama client
func NewClient(config Config) *Client {
	if config.Timeout == 0 {
		config.Timeout = 60 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(config.BaseURL, "/"),
		model:   config.Model,
		apiKey:  config.APIKey,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Format string `json:"format"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Model    string `json:"model"`
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// rawSummary accepts any JSON shape for each field so a partially wrong
// answer still yields the fields that are usable.
type rawSummary struct {
	TranscriptSummary json.RawMessage `json:"transcriptSummary"`
	Glossary          json.RawMessage `json:"glossary"`
	Difficulty        json.RawMessage `json:"difficulty"`
	DeprecatedFlags   json.RawMessage `json:"deprecatedFlags"`
	Prerequisites     json.RawMessage `json:"prerequisites"`
	Learnings         json.RawMessage `json:"learnings"`
}

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// Summarize asks the model for a beginner-oriented summary of transcript.
// Transport failures and answers that are not a JSON object are returned as
// errors; individual fields that are missing or malformed are replaced by
// defaults.
func (c *Client) Summarize(ctx context.Context, title, transcript string) (*models.VideoSummary, error) {
	reqBody, err := json.Marshal(generateRequest{
		Model:  c.model,
		Prompt: BuildSummaryPrompt(title, transcript),
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request to Ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama API returned status %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return nil, fmt.Errorf("parse Ollama response: %w", err)
	}

	return ParseSummary(genResp.Response, title)
}

// ParseSummary decodes a model answer and applies defaults to every field
// that is absent or malformed. fallbackTitle stands in for a missing summary.
func ParseSummary(answer, fallbackTitle string) (*models.VideoSummary, error) {
	text := strings.TrimSpace(answer)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	var raw rawSummary
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("parse LLM JSON response: %w", err)
	}

	summary := &models.VideoSummary{
		TranscriptSummary: fallbackTitle,
		Glossary:          []dbmodels.GlossaryItem{},
		Difficulty:        bci.DifficultyNormal,
		DeprecatedFlags:   []string{},
		Prerequisites:     DefaultPrerequisites,
		Learnings:         []string{},
	}

	if s, ok := decodeString(raw.TranscriptSummary); ok {
		summary.TranscriptSummary = s
	}
	if s, ok := decodeString(raw.Prerequisites); ok {
		summary.Prerequisites = s
	}
	if s, ok := decodeString(raw.Difficulty); ok {
		if d, err := bci.ParseDifficulty(strings.ToLower(s)); err == nil {
			summary.Difficulty = d
		}
	}
	if items, ok := decodeGlossary(raw.Glossary); ok {
		summary.Glossary = items
	}
	if list, ok := decodeStrings(raw.DeprecatedFlags); ok {
		summary.DeprecatedFlags = list
	}
	if list, ok := decodeStrings(raw.Learnings); ok {
		summary.Learnings = list
	}

	return summary, nil
}

func decodeString(raw json.RawMessage) (string, bool) {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func decodeStrings(raw json.RawMessage) ([]string, bool) {
	var values []interface{}
	if len(raw) == 0 || json.Unmarshal(raw, &values) != nil || values == nil {
		return nil, false
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out, true
}

func decodeGlossary(raw json.RawMessage) ([]dbmodels.GlossaryItem, bool) {
	var values []json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &values) != nil || values == nil {
		return nil, false
	}
	out := make([]dbmodels.GlossaryItem, 0, len(values))
	for _, v := range values {
		var item dbmodels.GlossaryItem
		if json.Unmarshal(v, &item) == nil && item.Term != "" {
			out = append(out, item)
		}
	}
	return out, true
}

// BuildSummaryPrompt constructs the prompt sent for a transcript.
func BuildSummaryPrompt(title, transcript string) string {
	return fmt.Sprintf(`You are an education editor. Summarize the following YouTube video transcript for absolute beginners.

Video Title: %s

Transcript:
%s

Return your response as JSON in this exact format:
{
  "transcriptSummary": "summary in at most 5 sentences",
  "prerequisites": "required prior knowledge, or \"none\"",
  "learnings": ["what the viewer gains 1", "what the viewer gains 2", "what the viewer gains 3"],
  "difficulty": "easy | normal | hard",
  "deprecatedFlags": ["pitfalls such as fast speech, environment-specific steps or outdated APIs"],
  "glossary": [{"term": "term", "explain": "plain explanation"}]
}

Guidelines:
- difficulty: easy = no jargon and many concrete examples, normal = some jargon, hard = assumes expert knowledge
- glossary: at most 5 terms a beginner would find difficult
- deprecatedFlags: only when applicable
- the summary should let a beginner decide whether to watch the video

Only return the JSON, no additional text or explanation.`, title, transcript)
}
