package model

import "errors"

// Supported image content types for upload validation
const (
	ContentTypeJPEG = "image/jpeg"
	ContentTypePNG  = "image/png"
	ContentTypeGIF  = "image/gif"
	ContentTypeWebP = "image/webp"
)

var allowedImageTypes = map[string]struct{}{
	ContentTypeJPEG: {},
	ContentTypePNG:  {},
	ContentTypeGIF:  {},
	ContentTypeWebP: {},
}

// Profile image normalization target
const (
	ProfileImageWidth  = 400
	ProfileImageHeight = 400
	ImageCacheControl  = "public, max-age=31536000" // 1 year
)

// Error codes for HTTP responses
const (
	CodeFileTooLarge     = "FILE_TOO_LARGE"
	CodeInvalidImageType = "INVALID_IMAGE_TYPE"
)

// Domain errors for media operations
var (
	ErrFileTooLarge     = errors.New("file too large")
	ErrInvalidImageType = errors.New("invalid image type")
	ErrInvalidDataURL   = errors.New("invalid data url")
)

// UploadResult represents the uploaded object location.
// URL is the public-facing URL; Key is the object key inside the bucket
// (kept so stale objects can be deleted later).
type UploadResult struct {
	URL string `json:"url"`
	Key string `json:"key"`
}

// CleanupImagesResponse is returned by the legacy image migration endpoint.
type CleanupImagesResponse struct {
	Message string `json:"message"`
	Queued  int    `json:"queued"`
}

// IsAllowedImageType reports if the provided content type is supported
func IsAllowedImageType(contentType string) bool {
	_, ok := allowedImageTypes[contentType]
	return ok
}
