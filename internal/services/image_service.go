package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/scenariolabs/imagevault/internal/metrics"
	"github.com/scenariolabs/imagevault/internal/providers"
	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/pkg/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	ErrInvalidContentType = errors.New("unsupported content type")
	ErrFileTooLarge       = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile          = errors.New("file is empty")
	ErrNameRequired       = errors.New("image name is required")
)

type UploadRequest struct {
	EnvironmentID    int64
	ImageName        string
	OriginalFileName string
	ContentType      string
	Description      string
	Data             []byte
}

type ImageService interface {
	Upload(ctx context.Context, req UploadRequest) (*domain.Image, error)
	Get(ctx context.Context, id int64) (*domain.Image, error)
	GetByName(ctx context.Context, environmentID int64, imageName string) (*domain.Image, error)
	GetByFileName(ctx context.Context, fileName string) (*domain.Image, error)
	List(ctx context.Context, environmentID int64) ([]domain.Image, error)
	Rename(ctx context.Context, id int64, newName string) (*domain.Image, error)
	Delete(ctx context.Context, id int64) error
	DeleteAll(ctx context.Context, environmentID int64) (int, error)
	Count(ctx context.Context, environmentID int64) (int64, error)
	OpenFile(ctx context.Context, fileName string) (*domain.Image, io.ReadCloser, int64, error)
}

type imageService struct {
	repo        repository.ImageRepository
	store       providers.FileStore
	logger      *slog.Logger
	now         func() time.Time
	maxFileSize int64
}

func NewImageService(repo repository.ImageRepository, store providers.FileStore, logger *slog.Logger, now func() time.Time, maxFileSize int64) ImageService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &imageService{repo: repo, store: store, logger: logger, now: now, maxFileSize: maxFileSize}
}

func (s *imageService) Upload(ctx context.Context, req UploadRequest) (*domain.Image, error) {
	ctx, span := otel.Tracer("imagevault/images").Start(ctx, "imagevault.image.upload",
		trace.WithAttributes(
			attribute.Int64("imagevault.environment_id", req.EnvironmentID),
			attribute.String("imagevault.image_name", req.ImageName),
			attribute.String("imagevault.content_type", req.ContentType),
			attribute.Int("imagevault.file_size", len(req.Data)),
		),
	)
	defer span.End()

	if strings.TrimSpace(req.ImageName) == "" {
		span.SetStatus(codes.Error, "name required")
		return nil, ErrNameRequired
	}
	if len(req.Data) == 0 {
		span.SetStatus(codes.Error, "empty file")
		return nil, ErrEmptyFile
	}
	if s.maxFileSize > 0 && int64(len(req.Data)) > s.maxFileSize {
		span.SetStatus(codes.Error, "file too large")
		return nil, ErrFileTooLarge
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = domain.ContentTypeForFile(req.OriginalFileName)
	}
	if !domain.ContentTypeAllowed(contentType) {
		span.SetStatus(codes.Error, "unsupported content type")
		return nil, ErrInvalidContentType
	}

	fileName, err := s.uniqueFileName(ctx, req.OriginalFileName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	path, err := s.store.Save(ctx, fileName, req.Data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("store file: %w", err)
	}

	img := &domain.Image{
		EnvironmentID: req.EnvironmentID,
		ImageName:     strings.TrimSpace(req.ImageName),
		FileName:      fileName,
		FilePath:      path,
		ContentType:   contentType,
		FileSize:      int64(len(req.Data)),
		Description:   req.Description,
	}
	if err := s.repo.Save(ctx, img); err != nil {
		// Do not leave a file behind when the record was rejected.
		if derr := s.store.Delete(ctx, fileName); derr != nil {
			s.logger.Warn("orphan file cleanup failed", "fileName", fileName, "err", derr)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	metrics.ImagesUploadedTotal.WithLabelValues(contentType).Inc()
	metrics.UploadSizeBytes.Observe(float64(len(req.Data)))
	s.logger.Info("image uploaded",
		"environmentId", req.EnvironmentID,
		"imageName", img.ImageName,
		"fileName", img.FileName,
		"size", img.FileSize,
	)
	return img, nil
}

func (s *imageService) Get(ctx context.Context, id int64) (*domain.Image, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *imageService) GetByName(ctx context.Context, environmentID int64, imageName string) (*domain.Image, error) {
	return s.repo.GetByEnvAndName(ctx, environmentID, imageName)
}

func (s *imageService) GetByFileName(ctx context.Context, fileName string) (*domain.Image, error) {
	return s.repo.GetByFileName(ctx, fileName)
}

func (s *imageService) List(ctx context.Context, environmentID int64) ([]domain.Image, error) {
	return s.repo.ListByEnvironment(ctx, environmentID)
}

func (s *imageService) Rename(ctx context.Context, id int64, newName string) (*domain.Image, error) {
	if strings.TrimSpace(newName) == "" {
		return nil, ErrNameRequired
	}
	return s.repo.UpdateName(ctx, id, strings.TrimSpace(newName))
}

func (s *imageService) Delete(ctx context.Context, id int64) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, deleted.FileName); err != nil {
		s.logger.Warn("file removal failed", "fileName", deleted.FileName, "err", err)
	}
	s.logger.Info("image deleted", "environmentId", deleted.EnvironmentID, "id", id, "fileName", deleted.FileName)
	return nil
}

func (s *imageService) DeleteAll(ctx context.Context, environmentID int64) (int, error) {
	deleted, err := s.repo.DeleteAllByEnvironment(ctx, environmentID)
	if err != nil {
		return 0, err
	}
	for _, img := range deleted {
		if err := s.store.Delete(ctx, img.FileName); err != nil {
			s.logger.Warn("file removal failed", "fileName", img.FileName, "err", err)
		}
	}
	if len(deleted) > 0 {
		s.logger.Info("environment images deleted", "environmentId", environmentID, "count", len(deleted))
	}
	return len(deleted), nil
}

func (s *imageService) Count(ctx context.Context, environmentID int64) (int64, error) {
	return s.repo.CountByEnvironment(ctx, environmentID)
}

func (s *imageService) OpenFile(ctx context.Context, fileName string) (*domain.Image, io.ReadCloser, int64, error) {
	img, err := s.repo.GetByFileName(ctx, fileName)
	if err != nil {
		return nil, nil, 0, err
	}
	rc, size, err := s.store.Open(ctx, img.FileName)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("open file %s: %w", img.FileName, err)
	}
	return img, rc, size, nil
}

// uniqueFileName builds a stored name of the form <millis>_<uuid8><ext> and
// retries on the unlikely collision.
func (s *imageService) uniqueFileName(ctx context.Context, originalName string) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" {
		ext = ".png"
	}
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("%d_%s%s", s.now().UnixMilli(), uuid.NewString()[:8], ext)
		exists, err := s.repo.ExistsByFileName(ctx, name)
		if err != nil {
			return "", err
		}
		if !exists {
			return name, nil
		}
	}
	return "", fmt.Errorf("could not allocate unique file name")
}
