package rest

import (
	"errors"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"time"

	"github.com/dfryer1193/samplestore/api"
	"github.com/dfryer1193/samplestore/samples/application"
	"github.com/dfryer1193/samplestore/samples/domain"
	"github.com/gin-gonic/gin"
)

type SamplesHandler struct {
	service        *application.SampleService
	maxUploadBytes int64
}

type listSamplesQuery struct {
	Page *int `form:"page" binding:"omitempty,min=0"`
	Size *int `form:"size" binding:"omitempty,min=1"`
}

func (h *SamplesHandler) AddSample(c *gin.Context) {
	h.limitBody(c)

	image, closeImage, err := formFile(c, "image")
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeImage()

	label, closeLabel, err := formFile(c, "label")
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeLabel()

	sample, err := h.service.AddSample(c.Request.Context(), image, label)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, api.SampleCreated{
		Message:  "Sample added successfully",
		SampleID: sample.ID,
	})
}

func (h *SamplesHandler) ListSamples(c *gin.Context) {
	var q listSamplesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, domain.NewValidationError("query", "page must be an integer >= 0 and size an integer >= 1"))
		return
	}

	page, size := 0, h.service.DefaultPageSize()
	if q.Page != nil {
		page = *q.Page
	}
	if q.Size != nil {
		size = *q.Size
	}

	result, err := h.service.ListSamples(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, err)
		return
	}

	samples := make([]api.Sample, 0, len(result.Samples))
	for _, s := range result.Samples {
		samples = append(samples, toAPISample(s))
	}

	c.JSON(http.StatusOK, api.SampleList{
		Page:         result.Page,
		Size:         result.Size,
		TotalSamples: result.TotalSamples,
		TotalPages:   result.TotalPages,
		Samples:      samples,
	})
}

func (h *SamplesHandler) GetSample(c *gin.Context) {
	id, err := sampleID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	details, err := h.service.GetSampleDetails(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	labels := make([]api.Label, 0, len(details.Labels))
	for _, l := range details.Labels {
		labels = append(labels, toAPILabel(l))
	}

	c.JSON(http.StatusOK, api.SampleDetail{
		Sample: toAPISample(details.Sample),
		Labels: labels,
	})
}

func (h *SamplesHandler) UpdateLabel(c *gin.Context) {
	id, err := sampleID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	h.limitBody(c)

	label, closeLabel, err := formFile(c, "label")
	if err != nil {
		respondError(c, err)
		return
	}
	defer closeLabel()

	if err := h.service.UpdateLabel(c.Request.Context(), id, label); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.Message{Message: "Sample label updated successfully"})
}

func (h *SamplesHandler) DeleteSample(c *gin.Context) {
	id, err := sampleID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.service.DeleteSample(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.Message{Message: "Sample deleted successfully"})
}

func (h *SamplesHandler) limitBody(c *gin.Context) {
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	}
}

// sampleID parses the :id segment. Only integer ids name a sample, so anything
// else is reported as not found.
func sampleID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("sample %q: %w", c.Param("id"), domain.ErrSampleNotFound)
	}
	return id, nil
}

// formFile returns the named multipart part. A missing part, or a body that is
// not multipart at all, yields an empty UploadFile so the service reports it.
func formFile(c *gin.Context, field string) (application.UploadFile, func(), error) {
	noop := func() {}

	header, err := c.FormFile(field)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return application.UploadFile{}, noop, err
		}
		return application.UploadFile{}, noop, nil
	}

	f, err := header.Open()
	if err != nil {
		return application.UploadFile{}, noop, err
	}

	upload := application.UploadFile{
		Filename: header.Filename,
		Size:     header.Size,
		Content:  f,
	}
	return upload, func() { f.Close() }, nil
}

func toAPISample(s *domain.Sample) api.Sample {
	return api.Sample{
		ID:        s.ID,
		BaseName:  s.BaseName,
		ImagePath: s.ImagePath,
		LabelPath: s.LabelPath,
		ImageURL:  "/uploads/images/" + path.Base(s.ImagePath),
		LabelURL:  "/uploads/labels/" + path.Base(s.LabelPath),
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func toAPILabel(l domain.Label) api.Label {
	polygon := make([][2]float64, 0, len(l.Polygon))
	for _, p := range l.Polygon {
		polygon = append(polygon, [2]float64{p.X, p.Y})
	}
	return api.Label{ClassID: l.ClassID, Polygon: polygon}
}
