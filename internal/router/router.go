// Package router assembles the gin engine of the catalog API.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/beginner-catalog/catalog-service-go/internal/handler"
	"github.com/beginner-catalog/catalog-service-go/internal/metrics"
	"github.com/beginner-catalog/catalog-service-go/internal/middleware"
)

// Deps holds everything the routes are served by.
type Deps struct {
	Health  *handler.HealthHandler
	Videos  *handler.VideoHandler
	BCI     *handler.BCIHandler
	Import  *handler.ImportHandler
	Paths   *handler.PathHandler
	APIKeys []string

	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	MetricsPath string
}

// New builds the engine. Admin routes sit behind API key authentication;
// the metrics endpoint is mounted only when a Gatherer is supplied.
func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if d.Logger != nil {
		r.Use(middleware.RequestLogger(d.Logger))
	}
	if d.Metrics != nil {
		r.Use(middleware.Metrics(d.Metrics))
	}

	r.GET("/health/live", d.Health.LivenessProbe)
	r.GET("/health/ready", d.Health.ReadinessProbe)

	if d.Gatherer != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api/v1")
	api.GET("/videos", d.Videos.ListCatalog)
	api.GET("/videos/:id", d.Videos.GetCatalogVideo)
	api.GET("/tags", d.Videos.ListTags)
	api.GET("/paths", d.Paths.List)
	api.GET("/paths/:id", d.Paths.Get)

	admin := api.Group("/admin", middleware.NewAPIKeyAuth(d.APIKeys).Handler())
	admin.GET("/videos", d.Videos.ListAdmin)
	admin.POST("/videos", d.Videos.Create)
	admin.GET("/videos/:id", d.Videos.GetAdmin)
	admin.PATCH("/videos/:id", d.Videos.Update)
	admin.DELETE("/videos/:id", d.Videos.Delete)
	admin.POST("/videos/:id/summarize", d.Videos.Summarize)

	admin.GET("/paths", d.Paths.ListAdmin)
	admin.POST("/paths", d.Paths.Create)
	admin.GET("/paths/:id", d.Paths.GetAdmin)
	admin.PATCH("/paths/:id", d.Paths.Update)
	admin.DELETE("/paths/:id", d.Paths.Delete)

	admin.GET("/bci/weights", d.BCI.GetWeights)
	admin.PUT("/bci/weights", d.BCI.PutWeights)
	admin.POST("/bci/recalculate", d.BCI.Recalculate)

	admin.POST("/import", d.Import.Import)
	admin.POST("/youtube-lookup", d.Import.LookupYouTube)

	return r
}
