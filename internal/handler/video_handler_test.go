package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	dbmodels "github.com/beginner-catalog/catalog-service-go/internal/db/models"
	"github.com/beginner-catalog/catalog-service-go/internal/models"
	"github.com/beginner-catalog/catalog-service-go/internal/service"
)

func TestVideoHandler_ListCatalogParsesQuery(t *testing.T) {
	api := newTestAPI()
	want := models.CatalogQuery{
		Level:     "beginner",
		Durations: []string{"short", "long"},
		Language:  "ja",
		Tags:      []string{"go", "web"},
		Query:     "go",
		Sort:      "newest",
		Page:      2,
		Limit:     10,
	}
	resp := &models.VideoListResponse{
		Videos:     models.NewVideoViews([]*dbmodels.Video{sampleVideo(85)}),
		Pagination: models.NewPagination(2, 10, 11),
	}
	api.videos.On("ListCatalog", mock.Anything, want).Return(resp, nil)

	w := api.do(http.MethodGet, "/api/v1/videos?level=beginner&duration=short,%20long,&language=ja&tags=go,web&q=%20go%20&sort=newest&page=2&limit=10", "")

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Videos []struct {
			Title string `json:"title"`
			Label *struct {
				Tier string `json:"tier"`
			} `json:"bciLabel"`
		} `json:"videos"`
		Pagination models.Pagination `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Videos, 1)
	require.NotNil(t, body.Videos[0].Label)
	assert.Equal(t, "excellent", body.Videos[0].Label.Tier)
	assert.Equal(t, 2, body.Pagination.TotalPages)
	api.videos.AssertExpectations(t)
}

func TestVideoHandler_ListCatalogRejectsBadPage(t *testing.T) {
	api := newTestAPI()

	w := api.do(http.MethodGet, "/api/v1/videos?page=two", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	api.videos.AssertNotCalled(t, "ListCatalog", mock.Anything, mock.Anything)
}

func TestVideoHandler_ListCatalogValidationError(t *testing.T) {
	api := newTestAPI()
	api.videos.On("ListCatalog", mock.Anything, mock.Anything).
		Return(nil, &service.ValidationError{Message: "invalid level: expert"})

	w := api.do(http.MethodGet, "/api/v1/videos?level=expert", "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "invalid level: expert", resp.Message)
	assert.Equal(t, "/api/v1/videos", resp.Path)
}

func TestVideoHandler_GetCatalogVideo(t *testing.T) {
	api := newTestAPI()
	video := sampleVideo(60)
	api.videos.On("GetCatalogVideo", mock.Anything, video.ID).
		Return(&models.VideoDetailResponse{Video: models.NewVideoView(video), RelatedVideos: []models.VideoView{}}, nil)

	w := api.do(http.MethodGet, "/api/v1/videos/"+video.ID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"badge-intro"`)
}

func TestVideoHandler_GetCatalogVideoErrors(t *testing.T) {
	api := newTestAPI()
	missing := uuid.New()
	api.videos.On("GetCatalogVideo", mock.Anything, missing).Return(nil, service.ErrVideoNotFound)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/videos/not-a-uuid", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/api/v1/videos/"+missing.String(), "").Code)
}

func TestVideoHandler_ListAdmin(t *testing.T) {
	api := newTestAPI()
	api.videos.On("ListAdmin", mock.Anything, "rust", 0, 0).
		Return(&models.VideoListResponse{Videos: []models.VideoView{}, Pagination: models.NewPagination(1, 50, 0)}, nil)

	w := api.do(http.MethodGet, "/api/v1/admin/videos?q=rust", "")

	assert.Equal(t, http.StatusOK, w.Code)
	api.videos.AssertExpectations(t)
}

func TestVideoHandler_GetAdmin(t *testing.T) {
	api := newTestAPI()
	video := sampleVideo(40)
	video.IsPublished = false
	api.videos.On("Get", mock.Anything, video.ID).Return(video, nil)

	w := api.do(http.MethodGet, "/api/v1/admin/videos/"+video.ID.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bciLabel":null`)
}

func TestVideoHandler_Create(t *testing.T) {
	api := newTestAPI()
	video := sampleVideo(90)
	api.videos.On("Create", mock.Anything, mock.MatchedBy(func(req *models.CreateVideoRequest) bool {
		return req.Title == "Go for beginners" && req.DurationMinutes == 12
	})).Return(video, nil)

	w := api.do(http.MethodPost, "/api/v1/admin/videos",
		`{"url":"https://www.youtube.com/watch?v=abc","title":"Go for beginners","durationMin":12}`)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"beginnerComfortIndex":90`)
}

func TestVideoHandler_CreateErrors(t *testing.T) {
	api := newTestAPI()
	api.videos.On("Create", mock.Anything, mock.Anything).Return(nil, service.ErrDuplicateVideo)

	missingTitle := api.do(http.MethodPost, "/api/v1/admin/videos", `{"url":"https://youtu.be/abc"}`)
	assert.Equal(t, http.StatusBadRequest, missingTitle.Code)

	badDifficulty := api.do(http.MethodPost, "/api/v1/admin/videos", `{"url":"u","title":"t","difficulty":"expert"}`)
	assert.Equal(t, http.StatusBadRequest, badDifficulty.Code)

	duplicate := api.do(http.MethodPost, "/api/v1/admin/videos", `{"url":"u","title":"t"}`)
	assert.Equal(t, http.StatusConflict, duplicate.Code)
}

func TestVideoHandler_Update(t *testing.T) {
	api := newTestAPI()
	video := sampleVideo(80)
	api.videos.On("Update", mock.Anything, video.ID, mock.MatchedBy(func(req *models.UpdateVideoRequest) bool {
		return req.HasSampleCode != nil && *req.HasSampleCode && req.Title == nil
	})).Return(video, nil)

	w := api.do(http.MethodPatch, "/api/v1/admin/videos/"+video.ID.String(), `{"hasSampleCode":true}`)

	assert.Equal(t, http.StatusOK, w.Code)
	api.videos.AssertExpectations(t)
}

func TestVideoHandler_UpdateErrors(t *testing.T) {
	api := newTestAPI()
	missing := uuid.New()
	invalid := uuid.New()
	api.videos.On("Update", mock.Anything, missing, mock.Anything).Return(nil, service.ErrVideoNotFound)
	api.videos.On("Update", mock.Anything, invalid, mock.Anything).
		Return(nil, &service.ValidationError{Message: "title must not be empty"})

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, "/api/v1/admin/videos/"+missing.String(), `{}`).Code)

	w := api.do(http.MethodPatch, "/api/v1/admin/videos/"+invalid.String(), `{"title":" "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "title must not be empty", decodeError(t, w).Message)
}

func TestVideoHandler_Delete(t *testing.T) {
	api := newTestAPI()
	id := uuid.New()
	api.videos.On("Delete", mock.Anything, id).Return(nil)

	w := api.do(http.MethodDelete, "/api/v1/admin/videos/"+id.String(), "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.DeleteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, id.String(), resp.ID)
}

func TestVideoHandler_DeleteUnexpectedError(t *testing.T) {
	api := newTestAPI()
	id := uuid.New()
	api.videos.On("Delete", mock.Anything, id).Return(errors.New("connection reset"))

	w := api.do(http.MethodDelete, "/api/v1/admin/videos/"+id.String(), "")

	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestVideoHandler_Summarize(t *testing.T) {
	api := newTestAPI()
	video := sampleVideo(50)
	api.videos.On("Get", mock.Anything, video.ID).Return(video, nil)
	api.queue.On("EnqueueSummarize", mock.Anything, video.ID.String(), "full transcript").Return("task-1", nil)

	w := api.do(http.MethodPost, "/api/v1/admin/videos/"+video.ID.String()+"/summarize", `{"transcript":"full transcript"}`)

	require.Equal(t, http.StatusAccepted, w.Code)
	var resp models.SummarizeAccepted
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "task-1", resp.TaskID)
	assert.Equal(t, "queued", resp.Status)
}

func TestVideoHandler_SummarizeErrors(t *testing.T) {
	api := newTestAPI()
	missing := uuid.New()
	api.videos.On("Get", mock.Anything, missing).Return(nil, service.ErrVideoNotFound)

	blank := api.do(http.MethodPost, "/api/v1/admin/videos/"+missing.String()+"/summarize", `{"transcript":"   "}`)
	assert.Equal(t, http.StatusBadRequest, blank.Code)

	unknown := api.do(http.MethodPost, "/api/v1/admin/videos/"+missing.String()+"/summarize", `{"transcript":"text"}`)
	assert.Equal(t, http.StatusNotFound, unknown.Code)
	api.queue.AssertNotCalled(t, "EnqueueSummarize", mock.Anything, mock.Anything, mock.Anything)
}

func TestVideoHandler_SummarizeWithoutQueue(t *testing.T) {
	r := gin.New()
	h := NewVideoHandler(&mockVideoService{}, nil)
	r.POST("/videos/:id/summarize", h.Summarize)

	api := &testAPI{engine: r}
	w := api.do(http.MethodPost, "/videos/"+uuid.New().String()+"/summarize", `{"transcript":"text"}`)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
