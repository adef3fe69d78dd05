package application

import (
	"context"
	"fmt"
	"io"

	"github.com/dfryer1193/samplestore/internal/metrics"
	"github.com/dfryer1193/samplestore/samples/domain"
	"github.com/dfryer1193/samplestore/shared/db"
	"github.com/rs/zerolog"
)

const (
	DefaultPageSize = 10
	DefaultMaxPage  = 1000
)

// UploadFile is one file part of an incoming request.
type UploadFile struct {
	Filename string
	Size     int64
	Content  io.Reader
}

type Options struct {
	DefaultPageSize int
	MaxPageSize     int
	// DeleteFiles removes the image and label along with the row.
	DeleteFiles bool
}

// SamplePage is one window of the sample listing.
type SamplePage struct {
	Page         int
	Size         int
	TotalSamples int64
	TotalPages   int64
	Samples      []*domain.Sample
}

type SampleDetails struct {
	Sample *domain.Sample
	Labels []domain.Label
}

type SampleService struct {
	repo  domain.SampleRepository
	files domain.FileStore
	tx    db.Transactor
	opts  Options
}

func NewSampleService(repo domain.SampleRepository, files domain.FileStore, tx db.Transactor, opts Options) *SampleService {
	if opts.DefaultPageSize < 1 {
		opts.DefaultPageSize = DefaultPageSize
	}
	if opts.MaxPageSize < 1 {
		opts.MaxPageSize = DefaultMaxPage
	}
	if opts.DefaultPageSize > opts.MaxPageSize {
		opts.DefaultPageSize = opts.MaxPageSize
	}

	return &SampleService{
		repo:  repo,
		files: files,
		tx:    tx,
		opts:  opts,
	}
}

func (s *SampleService) DefaultPageSize() int {
	return s.opts.DefaultPageSize
}

func validateUpload(field string, f UploadFile) error {
	if f.Content == nil || f.Filename == "" {
		return domain.NewValidationError(field, "no %s file provided", field)
	}
	if f.Size <= 0 {
		return domain.NewValidationError(field, "%s file is empty", field)
	}
	return nil
}

// AddSample stores an image/label pair under one generated base name and
// records it. Files written before a failure are removed and the row insert is
// rolled back, so either all three exist or none do.
func (s *SampleService) AddSample(ctx context.Context, image, label UploadFile) (*domain.Sample, error) {
	if err := validateUpload("image", image); err != nil {
		return nil, err
	}
	if err := validateUpload("label", label); err != nil {
		return nil, err
	}

	baseName := s.files.NewBaseName()
	var written []string
	var sample *domain.Sample

	err := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		imagePath, err := s.files.SaveImage(txCtx, baseName, image.Filename, image.Content)
		if err != nil {
			return fmt.Errorf("failed to save image: %w", err)
		}
		written = append(written, imagePath)

		labelPath, err := s.files.SaveLabel(txCtx, baseName, label.Filename, label.Content)
		if err != nil {
			return fmt.Errorf("failed to save label: %w", err)
		}
		written = append(written, labelPath)

		sample, err = s.repo.Insert(txCtx, baseName, imagePath, labelPath)
		return err
	})
	if err != nil {
		s.removeFiles(ctx, written)
		return nil, err
	}

	metrics.SamplesCreated.Inc()
	metrics.RecordUpload("image", image.Size)
	metrics.RecordUpload("label", label.Size)

	zerolog.Ctx(ctx).Info().
		Int64("sample_id", sample.ID).
		Str("base_name", baseName).
		Msg("Sample added")

	return sample, nil
}

// removeFiles deletes files no row refers to any more. It runs detached from
// ctx cancellation so an aborted request still cleans up.
func (s *SampleService) removeFiles(ctx context.Context, paths []string) {
	cleanupCtx := context.WithoutCancel(ctx)
	for _, p := range paths {
		if err := s.files.Remove(cleanupCtx, p); err != nil {
			metrics.CompensationFailures.Inc()
			zerolog.Ctx(ctx).Error().Err(err).Str("path", p).Msg("Failed to remove unreferenced file")
		}
	}
}

// ListSamples returns page number page (zero based) of size items.
func (s *SampleService) ListSamples(ctx context.Context, page, size int) (*SamplePage, error) {
	if page < 0 {
		return nil, domain.NewValidationError("page", "must be >= 0")
	}
	if size < 1 {
		return nil, domain.NewValidationError("size", "must be >= 1")
	}
	if size > s.opts.MaxPageSize {
		return nil, domain.NewValidationError("size", "must be <= %d", s.opts.MaxPageSize)
	}

	samples, total, err := s.repo.List(ctx, page, size)
	if err != nil {
		return nil, fmt.Errorf("failed to list samples: %w", err)
	}

	return &SamplePage{
		Page:         page,
		Size:         size,
		TotalSamples: total,
		TotalPages:   TotalPages(total, size),
		Samples:      samples,
	}, nil
}

// TotalPages is the ceiling of total/size. size must be positive.
func TotalPages(total int64, size int) int64 {
	n := total / int64(size)
	if total%int64(size) != 0 {
		n++
	}
	return n
}

func (s *SampleService) GetSampleDetails(ctx context.Context, id int64) (*SampleDetails, error) {
	sample, err := s.getSample(ctx, id)
	if err != nil {
		return nil, err
	}

	content, err := s.files.ReadFile(ctx, sample.LabelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLabelUnreadable, err)
	}

	labels, err := ParseLabels(content)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrLabelUnreadable, err)
	}

	return &SampleDetails{Sample: sample, Labels: labels}, nil
}

// UpdateLabel replaces the label content of an existing sample. The stored
// path does not change.
func (s *SampleService) UpdateLabel(ctx context.Context, id int64, label UploadFile) error {
	sample, err := s.getSample(ctx, id)
	if err != nil {
		return err
	}

	if err := validateUpload("label", label); err != nil {
		return err
	}

	if err := s.files.OverwriteLabel(ctx, sample.LabelPath, label.Content); err != nil {
		return fmt.Errorf("failed to overwrite label: %w", err)
	}

	metrics.LabelUpdates.Inc()
	metrics.RecordUpload("label", label.Size)

	zerolog.Ctx(ctx).Info().Int64("sample_id", id).Msg("Sample label updated")
	return nil
}

// DeleteSample removes the sample row, and its files when DeleteFiles is set.
// Files are only touched once the row delete has committed; a file that
// cannot be removed is logged and left behind.
func (s *SampleService) DeleteSample(ctx context.Context, id int64) error {
	err := s.tx.RunInTransaction(ctx, func(txCtx context.Context) error {
		var sample *domain.Sample
		if s.opts.DeleteFiles {
			var err error
			if sample, err = s.getSample(txCtx, id); err != nil {
				return err
			}
		}

		removed, err := s.repo.Delete(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to delete sample: %w", err)
		}
		if !removed {
			return fmt.Errorf("sample %d: %w", id, domain.ErrSampleNotFound)
		}

		if sample != nil {
			db.AfterCommit(txCtx, func(ctx context.Context) {
				s.removeFiles(ctx, []string{sample.ImagePath, sample.LabelPath})
			})
		}
		return nil
	})
	if err != nil {
		return err
	}

	metrics.SamplesDeleted.Inc()
	zerolog.Ctx(ctx).Info().
		Int64("sample_id", id).
		Bool("files_removed", s.opts.DeleteFiles).
		Msg("Sample deleted")
	return nil
}

func (s *SampleService) getSample(ctx context.Context, id int64) (*domain.Sample, error) {
	sample, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sample %d: %w", id, err)
	}
	if sample == nil {
		return nil, fmt.Errorf("sample %d: %w", id, domain.ErrSampleNotFound)
	}
	return sample, nil
}
