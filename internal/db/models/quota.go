package models

import "time"

// Quota operation types.
const (
	OperationVideosList   = "videos.list"
	OperationCaptionsList = "captions.list"
	OperationOther        = "other"
)

// APIQuotaUsage is one day of YouTube Data API consumption.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type APIQuotaUsage struct {
	Date              time.Time `db:"date" json:"date"`
	QuotaUsed         int       `db:"quota_used" json:"quotaUsed"`
	OperationsCount   int       `db:"operations_count" json:"operationsCount"`
	VideosListCalls   int       `db:"videos_list_calls" json:"videosListCalls"`
	CaptionsListCalls int       `db:"captions_list_calls" json:"captionsListCalls"`
	OtherCalls        int       `db:"other_calls" json:"otherCalls"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"updatedAt"`
}
