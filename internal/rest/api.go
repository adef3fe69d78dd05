package rest

import (
	"context"
	"io"
	"time"

	"github.com/dfryer1193/samplestore/samples/application"
	"github.com/dfryer1193/samplestore/samples/filestore"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// FileServer opens stored files for download.
type FileServer interface {
	Open(kind filestore.Kind, filename string) (io.ReadSeekCloser, time.Time, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

type Dependencies struct {
	Samples        *application.SampleService
	Files          FileServer
	Database       Pinger
	MaxUploadBytes int64
}

func NewApi(router *gin.Engine, deps Dependencies) {
	samples := &SamplesHandler{
		service:        deps.Samples,
		maxUploadBytes: deps.MaxUploadBytes,
	}
	uploads := &UploadsHandler{files: deps.Files}

	uploadsGroup := router.Group("uploads")
	{
		uploadsGroup.GET("/images/:filename", uploads.Serve(filestore.KindImage))
		uploadsGroup.GET("/labels/:filename", uploads.Serve(filestore.KindLabel))
	}

	samplesGroup := router.Group("samples")
	{
		samplesGroup.POST("", samples.AddSample)
		samplesGroup.GET("", samples.ListSamples)
		samplesGroup.GET("/:id", samples.GetSample)
		samplesGroup.PUT("/:id", samples.UpdateLabel)
		samplesGroup.DELETE("/:id", samples.DeleteSample)
	}

	router.GET("/health", Health(deps.Database))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
