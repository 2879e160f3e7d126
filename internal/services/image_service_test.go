package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/scenariolabs/imagevault/internal/providers"
	"github.com/scenariolabs/imagevault/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
)

func setupImageService(t *testing.T) (context.Context, ImageService, repository.ImageRepository, providers.FileStore) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	repo := repository.NewImageRepository(rdb, time.Now)
	store := providers.NewLocalFileStore(t.TempDir())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewImageService(repo, store, logger, time.Now, 5*1024*1024)
	return context.Background(), svc, repo, store
}

func uploadReq(envID int64, name string) UploadRequest {
	return UploadRequest{
		EnvironmentID:    envID,
		ImageName:        name,
		OriginalFileName: name + ".png",
		ContentType:      "image/png",
		Data:             []byte("png-bytes"),
	}
}

func TestUploadStoresFileAndRecord(t *testing.T) {
	ctx, svc, _, store := setupImageService(t)

	img, err := svc.Upload(ctx, uploadReq(1, "logo"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if img.ID == 0 {
		t.Error("expected assigned ID")
	}
	if !strings.HasSuffix(img.FileName, ".png") {
		t.Errorf("FileName = %s, want .png suffix", img.FileName)
	}
	if img.FileName == "logo.png" {
		t.Error("stored name must differ from the original name")
	}

	rc, size, err := store.Open(ctx, img.FileName)
	if err != nil {
		t.Fatalf("stored file missing: %v", err)
	}
	defer rc.Close()
	if size != int64(len("png-bytes")) {
		t.Errorf("stored size = %d", size)
	}
}

func TestUploadValidation(t *testing.T) {
	ctx, svc, _, _ := setupImageService(t)

	cases := []struct {
		name string
		req  UploadRequest
		want error
	}{
		{"empty name", UploadRequest{EnvironmentID: 1, OriginalFileName: "a.png", ContentType: "image/png", Data: []byte("x")}, ErrNameRequired},
		{"empty data", UploadRequest{EnvironmentID: 1, ImageName: "a", OriginalFileName: "a.png", ContentType: "image/png"}, ErrEmptyFile},
		{"bad content type", UploadRequest{EnvironmentID: 1, ImageName: "a", OriginalFileName: "a.pdf", ContentType: "application/pdf", Data: []byte("x")}, ErrInvalidContentType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Upload(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	ctx, svc, _, _ := setupImageService(t)

	req := uploadReq(1, "big")
	req.Data = make([]byte, 6*1024*1024)
	if _, err := svc.Upload(ctx, req); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("err = %v, want ErrFileTooLarge", err)
	}
}

func TestUploadInfersContentTypeFromExtension(t *testing.T) {
	ctx, svc, _, _ := setupImageService(t)

	req := uploadReq(1, "photo")
	req.OriginalFileName = "photo.webp"
	req.ContentType = ""
	img, err := svc.Upload(ctx, req)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if img.ContentType != "image/webp" {
		t.Errorf("ContentType = %s, want image/webp", img.ContentType)
	}
}

func TestUploadDuplicateNameCleansUpFile(t *testing.T) {
	ctx, svc, _, store := setupImageService(t)

	if _, err := svc.Upload(ctx, uploadReq(1, "logo")); err != nil {
		t.Fatalf("first Upload: %v", err)
	}
	if _, err := svc.Upload(ctx, uploadReq(1, "logo")); !errors.Is(err, repository.ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}

	// Only the first stored file remains.
	names, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(names) != 1 {
		t.Errorf("stored files = %v, want exactly one", names)
	}
}

func TestGetAndGetByName(t *testing.T) {
	ctx, svc, _, _ := setupImageService(t)

	img, err := svc.Upload(ctx, uploadReq(1, "logo"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}

	got, err := svc.Get(ctx, img.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.EnvironmentID != 1 {
		t.Errorf("EnvironmentID = %d", got.EnvironmentID)
	}

	if _, err := svc.GetByName(ctx, 1, "logo"); err != nil {
		t.Fatalf("GetByName: %v", err)
	}
	if _, err := svc.GetByName(ctx, 2, "logo"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetByName in other environment must fail, got %v", err)
	}
}

func TestRename(t *testing.T) {
	ctx, svc, _, _ := setupImageService(t)

	img, _ := svc.Upload(ctx, uploadReq(1, "old"))
	_, _ = svc.Upload(ctx, uploadReq(1, "taken"))

	if _, err := svc.Rename(ctx, img.ID, "taken"); !errors.Is(err, repository.ErrNameTaken) {
		t.Fatalf("err = %v, want ErrNameTaken", err)
	}
	if _, err := svc.Rename(ctx, img.ID, "  "); !errors.Is(err, ErrNameRequired) {
		t.Fatalf("err = %v, want ErrNameRequired", err)
	}
	updated, err := svc.Rename(ctx, img.ID, "fresh")
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if updated.ImageName != "fresh" {
		t.Errorf("ImageName = %s", updated.ImageName)
	}
	if _, err := svc.Rename(ctx, 9999, "other"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("renaming a missing id must fail, got %v", err)
	}
}

func TestDeleteRemovesFile(t *testing.T) {
	ctx, svc, _, store := setupImageService(t)

	img, _ := svc.Upload(ctx, uploadReq(1, "logo"))

	if err := svc.Delete(ctx, 9999); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("deleting a missing id must fail, got %v", err)
	}
	if err := svc.Delete(ctx, img.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, _, err := store.Open(ctx, img.FileName); err == nil {
		t.Fatal("file should be removed")
	}
	if _, err := svc.Get(ctx, img.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatal("record should be gone")
	}
}

func TestDeleteAll(t *testing.T) {
	ctx, svc, _, store := setupImageService(t)

	_, _ = svc.Upload(ctx, uploadReq(1, "a"))
	_, _ = svc.Upload(ctx, uploadReq(1, "b"))
	other, _ := svc.Upload(ctx, uploadReq(2, "c"))

	n, err := svc.DeleteAll(ctx, 1)
	if err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted %d, want 2", n)
	}
	if count, _ := svc.Count(ctx, 1); count != 0 {
		t.Errorf("env 1 count = %d", count)
	}
	if _, _, err := store.Open(ctx, other.FileName); err != nil {
		t.Errorf("env 2 file should survive: %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	ctx, svc, _, _ := setupImageService(t)

	img, _ := svc.Upload(ctx, uploadReq(1, "logo"))

	got, rc, size, err := svc.OpenFile(ctx, img.FileName)
	if err != nil {
		t.Fatalf("OpenFile: %v", err)
	}
	defer rc.Close()
	if got.ID != img.ID || size != img.FileSize {
		t.Errorf("record = %+v size = %d", got, size)
	}
	data, _ := io.ReadAll(rc)
	if string(data) != "png-bytes" {
		t.Errorf("content = %q", data)
	}

	if _, _, _, err := svc.OpenFile(ctx, "missing.png"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
