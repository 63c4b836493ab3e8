// Package youtube looks up video metadata through the YouTube Data API v3.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/internal/service/quota"
	"github.com/beginner-catalog/catalog-service-go/pkg/logger"
)

const fallbackLanguage = "ja"

var (
	// ErrInvalidURL is returned for URLs that do not identify a YouTube video.
	ErrInvalidURL = errors.New("not a youtube video url")

	// ErrVideoNotFound is returned when the API knows no video with the ID.
	ErrVideoNotFound = errors.New("youtube video not found")
)

// chapterPattern matches a line that starts with a timestamp such as 0:00 or 1:02:03.
var (
	chapterPattern = regexp.MustCompile(`(?m)^(\d{1,2}:)?\d{1,2}:\d{2}\s`)
	videoIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
)

// QuotaTracker budgets API calls. quota.Manager implements it.
type QuotaTracker interface {
	Reserve(ctx context.Context, cost int) error
	Record(ctx context.Context, cost int, operation string) error
}

// Client wraps the YouTube Data API v3 client.
type Client struct {
	service *youtube.Service
	quota   QuotaTracker
	log     *zap.Logger
}

// NewClient creates a new YouTube API client. Extra options are appended
// after the API key.
func NewClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	service, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Client{
		service: service,
		log:     logger.Named("youtube"),
	}, nil
}

// WithQuota makes every API call reserve and record its cost on q.
func (c *Client) WithQuota(q QuotaTracker) *Client {
	c.quota = q
	return c
}

// FetchVideoMetaByURL extracts the video ID from rawURL and fetches its metadata.
func (c *Client) FetchVideoMetaByURL(ctx context.Context, rawURL string) (*models.VideoMeta, error) {
	id, ok := ExtractVideoID(rawURL)
	if !ok {
		return nil, ErrInvalidURL
	}
	return c.FetchVideoMeta(ctx, id)
}

// FetchVideoMeta retrieves the metadata the catalog scores with.
func (c *Client) FetchVideoMeta(ctx context.Context, videoID string) (*models.VideoMeta, error) {
	if err := c.reserve(ctx, quota.CostVideosList); err != nil {
		return nil, err
	}

	response, err := c.service.Videos.
		List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	c.record(ctx, quota.CostVideosList, dbmodels.OperationVideosList)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video from YouTube API: %w", err)
	}
	if len(response.Items) == 0 {
		return nil, ErrVideoNotFound
	}

	meta := mapVideoToMeta(response.Items[0])
	if !meta.HasClosedCaptions {
		meta.HasClosedCaptions = c.hasCaptionTracks(ctx, videoID)
	}

	c.log.Debug("Fetched video metadata",
		zap.String("videoId", videoID),
		zap.Int("durationMin", meta.DurationMinutes),
	)
	return meta, nil
}

// hasCaptionTracks lists caption tracks. The lookup is best effort: any
// failure, including an exhausted quota, reports no captions.
func (c *Client) hasCaptionTracks(ctx context.Context, videoID string) bool {
	if err := c.reserve(ctx, quota.CostCaptionsList); err != nil {
		c.log.Debug("Skipping caption lookup", zap.String("videoId", videoID), zap.Error(err))
		return false
	}

	response, err := c.service.Captions.List([]string{"snippet"}, videoID).Context(ctx).Do()
	c.record(ctx, quota.CostCaptionsList, dbmodels.OperationCaptionsList)
	if err != nil {
		c.log.Warn("Failed to fetch captions info", zap.String("videoId", videoID), zap.Error(err))
		return false
	}
	return len(response.Items) > 0
}

func (c *Client) reserve(ctx context.Context, cost int) error {
	if c.quota == nil {
		return nil
	}
	return c.quota.Reserve(ctx, cost)
}

func (c *Client) record(ctx context.Context, cost int, operation string) {
	if c.quota == nil {
		return
	}
	if err := c.quota.Record(ctx, cost, operation); err != nil {
		c.log.Warn("Failed to record quota usage", zap.String("operation", operation), zap.Error(err))
	}
}

func mapVideoToMeta(video *youtube.Video) *models.VideoMeta {
	meta := &models.VideoMeta{
		VideoID:  video.Id,
		Language: fallbackLanguage,
		Tags:     []string{},
	}

	if s := video.Snippet; s != nil {
		meta.Title = s.Title
		meta.Channel = s.ChannelTitle
		if s.DefaultLanguage != "" {
			meta.Language = s.DefaultLanguage
		} else if s.DefaultAudioLanguage != "" {
			meta.Language = s.DefaultAudioLanguage
		}
		if s.Tags != nil {
			meta.Tags = s.Tags
		}
		meta.HasChapterMarkers = HasChapterTimestamps(s.Description)
		if t, err := time.Parse(time.RFC3339, s.PublishedAt); err == nil {
			meta.PublishedAt = t
		}
	}

	if cd := video.ContentDetails; cd != nil {
		meta.DurationMinutes = DurationMinutes(cd.Duration)
		meta.HasClosedCaptions = cd.Caption == "true"
	}

	// Dislike counts are only returned to the video owner; without them no
	// ratio can be derived.
	if st := video.Statistics; st != nil && st.DislikeCount > 0 {
		ratio := float64(st.LikeCount) / float64(st.LikeCount+st.DislikeCount)
		meta.LikeRatio = &ratio
	}

	return meta
}

// ExtractVideoID returns the video ID of a watch, short-link or embed URL.
func ExtractVideoID(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return "", false
	}

	var id string
	switch u.Hostname() {
	case "www.youtube.com", "youtube.com", "m.youtube.com":
		switch {
		case u.Path == "/watch":
			id = u.Query().Get("v")
		case strings.HasPrefix(u.Path, "/embed/"):
			id = strings.TrimPrefix(u.Path, "/embed/")
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		}
	case "youtu.be":
		id = strings.TrimPrefix(u.Path, "/")
	}

	id = strings.TrimSuffix(id, "/")
	if !videoIDPattern.MatchString(id) {
		return "", false
	}
	return id, true
}

// HasChapterTimestamps reports whether a description lists chapters.
func HasChapterTimestamps(description string) bool {
	return chapterPattern.MatchString(description)
}

// DurationMinutes converts an ISO 8601 duration to whole minutes, rounded
// to nearest. Unparseable durations yield 0.
func DurationMinutes(duration string) int {
	seconds, err := ParseVideoDuration(duration)
	if err != nil {
		return 0
	}
	return int(math.Round(float64(seconds) / 60))
}

// ParseVideoDuration converts ISO 8601 duration to seconds.
// Example: "PT4M13S" -> 253 seconds
func ParseVideoDuration(duration string) (int, error) {
	if !strings.HasPrefix(duration, "PT") {
		return 0, fmt.Errorf("invalid duration format: %s", duration)
	}

	duration = strings.TrimPrefix(duration, "PT")

	var hours, minutes, seconds int

	if hIdx := strings.Index(duration, "H"); hIdx != -1 {
		h, err := strconv.Atoi(duration[:hIdx])
		if err != nil {
			return 0, err
		}
		hours = h
		duration = duration[hIdx+1:]
	}

	if mIdx := strings.Index(duration, "M"); mIdx != -1 {
		m, err := strconv.Atoi(duration[:mIdx])
		if err != nil {
			return 0, err
		}
		minutes = m
		duration = duration[mIdx+1:]
	}

	if sIdx := strings.Index(duration, "S"); sIdx != -1 {
		s, err := strconv.Atoi(duration[:sIdx])
		if err != nil {
			return 0, err
		}
		seconds = s
	}

	return hours*3600 + minutes*60 + seconds, nil
}
