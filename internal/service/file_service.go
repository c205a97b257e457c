// Package service contains the application's business logic.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log/slog"
	"mime"
	"net/http"
	"path"
	"strings"

	"inkwell/internal/config"
	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/storage"

	"github.com/chai2010/webp"
	"github.com/google/uuid"
	xdraw "golang.org/x/image/draw"
	"gorm.io/gorm"
)

const (
	DefaultMaxUploadSizeMB = 10
	PreviewMaxSize         = 640
	PreviewWebPQuality     = 70
)

type UploadFileInput struct {
	UserID      uint
	Filename    string
	ContentType string
	Content     []byte
}

type FileService struct {
	files              repository.FileRepository
	blobs              storage.BlobStore
	maxUploadSizeBytes int64
}

func NewFileService(files repository.FileRepository, blobs storage.BlobStore, cfg *config.Config) *FileService {
	maxUploadSizeMB := DefaultMaxUploadSizeMB
	if cfg != nil && cfg.FileMaxUploadSizeMB > 0 {
		maxUploadSizeMB = cfg.FileMaxUploadSizeMB
	}
	return &FileService{
		files:              files,
		blobs:              blobs,
		maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// MaxUploadSizeBytes returns the configured upload size cap.
func (s *FileService) MaxUploadSizeBytes() int64 {
	return s.maxUploadSizeBytes
}

// Upload validates the file before any storage interaction, then writes
// the blob and its preview and records the metadata row. Validation
// failures never leave partial state behind.
func (s *FileService) Upload(ctx context.Context, in UploadFileInput) (*models.StoredFile, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		observability.UploadRejections.WithLabelValues("too_large").Inc()
		return nil, models.NewUploadError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		observability.UploadRejections.WithLabelValues("type").Inc()
		return nil, models.NewUploadError("Invalid image type")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, detectedType) {
		observability.UploadRejections.WithLabelValues("type").Inc()
		return nil, models.NewUploadError("Image content type mismatch")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		observability.UploadRejections.WithLabelValues("decode").Inc()
		return nil, models.NewUploadError("Invalid image file")
	}
	if !isSupportedDecodedFormat(format) {
		observability.UploadRejections.WithLabelValues("type").Inc()
		return nil, models.NewUploadError("Unsupported image format")
	}
	mimeType := decodedFormatToMime(format)

	id := uuid.NewString()
	origKey := blobKey(id, "orig"+extensionForMime(mimeType))
	previewKey := blobKey(id, "preview.webp")

	if err := s.blobs.Put(ctx, origKey, in.Content, mimeType); err != nil {
		return nil, models.NewInternalError(err)
	}

	preview := resizeToFit(decoded, PreviewMaxSize, PreviewMaxSize)
	previewBytes, err := encodeWebP(preview, PreviewWebPQuality)
	if err != nil {
		_ = s.blobs.Delete(ctx, origKey)
		return nil, models.NewInternalError(err)
	}
	if err := s.blobs.Put(ctx, previewKey, previewBytes, "image/webp"); err != nil {
		_ = s.blobs.Delete(ctx, origKey)
		return nil, models.NewInternalError(err)
	}

	b := decoded.Bounds()
	record := &models.StoredFile{
		ID:        id,
		UserID:    in.UserID,
		Filename:  path.Base(in.Filename),
		MimeType:  mimeType,
		SizeBytes: int64(len(in.Content)),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}
	if err := s.files.Create(ctx, record); err != nil {
		_ = s.blobs.Delete(ctx, origKey)
		_ = s.blobs.Delete(ctx, previewKey)
		return nil, models.NewInternalError(err)
	}

	return record, nil
}

// Get returns the file metadata along with the original blob contents.
func (s *FileService) Get(ctx context.Context, id string) (*models.StoredFile, []byte, error) {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	data, err := s.blobs.Get(ctx, blobKey(id, "orig"+extensionForMime(record.MimeType)))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, models.NewNotFoundError("File", id)
		}
		return nil, nil, models.NewInternalError(err)
	}
	return record, data, nil
}

// GetPreview returns the WebP preview blob for the file.
func (s *FileService) GetPreview(ctx context.Context, id string) ([]byte, error) {
	if _, err := s.getRecord(ctx, id); err != nil {
		return nil, err
	}
	data, err := s.blobs.Get(ctx, blobKey(id, "preview.webp"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, models.NewNotFoundError("File", id)
		}
		return nil, models.NewInternalError(err)
	}
	return data, nil
}

// Delete removes the file's metadata and blobs. Only the owner may delete.
func (s *FileService) Delete(ctx context.Context, id string, userID uint) error {
	record, err := s.getRecord(ctx, id)
	if err != nil {
		return err
	}
	if record.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own files")
	}
	if err := s.files.Delete(ctx, id); err != nil {
		return models.NewInternalError(err)
	}
	s.deleteBlobs(ctx, record)
	return nil
}

// DeleteIfUnreferenced removes the file unless a post still points at it.
// Failures are logged and counted but never surfaced; stale files are an
// acceptable leak while a lost upload is not.
func (s *FileService) DeleteIfUnreferenced(ctx context.Context, id string) {
	if id == "" {
		return
	}

	record, err := s.files.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logCleanupFailure(ctx, id, err)
		}
		return
	}

	refs, err := s.files.CountPostReferences(ctx, id)
	if err != nil {
		s.logCleanupFailure(ctx, id, err)
		return
	}
	if refs > 0 {
		return
	}

	if err := s.files.Delete(ctx, id); err != nil {
		s.logCleanupFailure(ctx, id, err)
		return
	}
	s.deleteBlobs(ctx, record)
}

func (s *FileService) getRecord(ctx context.Context, id string) (*models.StoredFile, error) {
	if strings.TrimSpace(id) == "" {
		return nil, models.NewValidationError("Invalid file id")
	}
	record, err := s.files.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("File", id)
		}
		return nil, models.NewInternalError(err)
	}
	return record, nil
}

func (s *FileService) deleteBlobs(ctx context.Context, record *models.StoredFile) {
	if err := s.blobs.Delete(ctx, blobKey(record.ID, "orig"+extensionForMime(record.MimeType))); err != nil {
		s.logCleanupFailure(ctx, record.ID, err)
	}
	if err := s.blobs.Delete(ctx, blobKey(record.ID, "preview.webp")); err != nil {
		s.logCleanupFailure(ctx, record.ID, err)
	}
}

func (s *FileService) logCleanupFailure(ctx context.Context, id string, err error) {
	observability.StaleFileCleanupFailures.Inc()
	middleware.Logger.WarnContext(ctx, "stored file cleanup failed",
		slog.String("file_id", id),
		slog.String("error", err.Error()),
	)
}

func blobKey(id, name string) string {
	return id + "/" + name
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scaleW := float64(maxWidth) / float64(w)
	scaleH := float64(maxHeight) / float64(h)
	scale := scaleW
	if scaleH < scale {
		scale = scaleH
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func isSupportedDecodedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg", "png", "gif":
		return true
	default:
		return false
	}
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return ""
	}
}

func extensionForMime(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	default:
		return ".bin"
	}
}
