package domain

import (
	"path/filepath"
	"strings"
	"time"
)

// Image is the stored metadata for a binary asset owned by an environment.
// ImageName is the caller-facing display name, unique per environment;
// FileName is the unique stored name on disk and the identifier embedded in
// resource-scoped download tokens.
type Image struct {
	ID            int64     `json:"id"`
	EnvironmentID int64     `json:"environmentId"`
	ImageName     string    `json:"imageName"`
	FileName      string    `json:"fileName"`
	FilePath      string    `json:"filePath"`
	ContentType   string    `json:"contentType,omitempty"`
	FileSize      int64     `json:"fileSize,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AllowedContentTypes are the upload content types the service accepts.
var AllowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/jpg":  {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// ContentTypeAllowed reports whether ct is an accepted image content type.
func ContentTypeAllowed(ct string) bool {
	_, ok := AllowedContentTypes[ct]
	return ok
}

// ContentTypeForFile maps a file extension to the content type served on
// download; unknown extensions fall back to octet-stream.
func ContentTypeForFile(fileName string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return "application/octet-stream"
	}
}
