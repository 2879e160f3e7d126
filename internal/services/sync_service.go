package services

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/scenariolabs/imagevault/internal/providers"
	"github.com/scenariolabs/imagevault/internal/repository"
	"github.com/scenariolabs/imagevault/pkg/domain"
)

// DefaultOrphanEnvironmentID is where records for files found on disk
// without a matching record are registered.
const DefaultOrphanEnvironmentID int64 = 1

// SyncReport summarizes a reconciliation run between the file store and
// the image records.
type SyncReport struct {
	RecordsChecked  int
	RecordsRemoved  int
	FilesChecked    int
	FilesRegistered int
}

// SyncService reconciles image records with the files actually present on
// disk at startup. Records whose file is gone are removed; files with no
// record are registered under the orphan environment.
type SyncService interface {
	Run(ctx context.Context) (*SyncReport, error)
}

type syncService struct {
	repo   repository.ImageRepository
	store  providers.FileStore
	logger *slog.Logger
	now    func() time.Time
}

func NewSyncService(repo repository.ImageRepository, store providers.FileStore, logger *slog.Logger, now func() time.Time) SyncService {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &syncService{repo: repo, store: store, logger: logger, now: now}
}

func (s *syncService) Run(ctx context.Context) (*SyncReport, error) {
	report := &SyncReport{}

	records, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	report.RecordsChecked = len(records)
	for _, img := range records {
		if _, statErr := os.Stat(s.store.Path(img.FileName)); statErr == nil {
			continue
		} else if !os.IsNotExist(statErr) {
			s.logger.Warn("sync stat failed", "fileName", img.FileName, "err", statErr)
			continue
		}
		if _, err := s.repo.Delete(ctx, img.ID); err != nil {
			s.logger.Warn("sync record removal failed", "id", img.ID, "err", err)
			continue
		}
		report.RecordsRemoved++
		s.logger.Info("removed record for missing file", "id", img.ID, "fileName", img.FileName)
	}

	files, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	report.FilesChecked = len(files)
	for _, fileName := range files {
		exists, err := s.repo.ExistsByFileName(ctx, fileName)
		if err != nil {
			return nil, err
		}
		if exists {
			continue
		}
		img, err := s.registerOrphan(ctx, fileName)
		if err != nil {
			s.logger.Warn("sync orphan registration failed", "fileName", fileName, "err", err)
			continue
		}
		report.FilesRegistered++
		s.logger.Info("registered orphan file", "fileName", fileName, "environmentId", img.EnvironmentID)
	}

	s.logger.Info("image sync finished",
		"recordsChecked", report.RecordsChecked,
		"recordsRemoved", report.RecordsRemoved,
		"filesChecked", report.FilesChecked,
		"filesRegistered", report.FilesRegistered,
	)
	return report, nil
}

func (s *syncService) registerOrphan(ctx context.Context, fileName string) (*domain.Image, error) {
	info, err := os.Stat(s.store.Path(fileName))
	if err != nil {
		return nil, err
	}
	img := &domain.Image{
		EnvironmentID: DefaultOrphanEnvironmentID,
		ImageName:     fileName,
		FileName:      fileName,
		FilePath:      s.store.Path(fileName),
		ContentType:   domain.ContentTypeForFile(fileName),
		FileSize:      info.Size(),
	}
	if err := s.repo.Save(ctx, img); err != nil {
		return nil, err
	}
	return img, nil
}
