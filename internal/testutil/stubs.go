// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"image"
	"image/color/palette"
	"image/gif"
	"image/jpeg"
	"image/png"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/storage"

	"gorm.io/gorm"
)

// BlobStoreStub is an in-memory blob store for tests.
type BlobStoreStub struct {
	Blobs      map[string][]byte
	PutErr     error
	DeleteErr  error
	DeletedKey []string
}

// NewBlobStoreStub creates an empty in-memory blob store.
func NewBlobStoreStub() *BlobStoreStub {
	return &BlobStoreStub{Blobs: make(map[string][]byte)}
}

func (s *BlobStoreStub) Put(_ context.Context, key string, data []byte, _ string) error {
	if s.PutErr != nil {
		return s.PutErr
	}
	s.Blobs[key] = data
	return nil
}

func (s *BlobStoreStub) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := s.Blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return data, nil
}

func (s *BlobStoreStub) Delete(_ context.Context, key string) error {
	if s.DeleteErr != nil {
		return s.DeleteErr
	}
	s.DeletedKey = append(s.DeletedKey, key)
	delete(s.Blobs, key)
	return nil
}

// FileRepoStub is an in-memory stored-file metadata repository for tests.
type FileRepoStub struct {
	Items     map[string]*models.StoredFile
	RefCounts map[string]int64
	CreateErr error
}

// NewFileRepoStub creates an empty in-memory file repository stub.
func NewFileRepoStub() *FileRepoStub {
	return &FileRepoStub{
		Items:     make(map[string]*models.StoredFile),
		RefCounts: make(map[string]int64),
	}
}

func (s *FileRepoStub) Create(_ context.Context, file *models.StoredFile) error {
	if s.CreateErr != nil {
		return s.CreateErr
	}
	file.CreatedAt = time.Now().UTC()
	s.Items[file.ID] = file
	return nil
}

func (s *FileRepoStub) GetByID(_ context.Context, id string) (*models.StoredFile, error) {
	item, ok := s.Items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return item, nil
}

func (s *FileRepoStub) Delete(_ context.Context, id string) error {
	delete(s.Items, id)
	return nil
}

func (s *FileRepoStub) CountPostReferences(_ context.Context, id string) (int64, error) {
	return s.RefCounts[id], nil
}

// PostRepoStub is a function-field post repository stub. Unset fields
// panic so tests only wire what they exercise.
type PostRepoStub struct {
	CreateFn      func(ctx context.Context, post *models.Post) error
	GetByIDFn     func(ctx context.Context, id uint) (*models.Post, error)
	GetBySlugFn   func(ctx context.Context, slug string) (*models.Post, error)
	GetByUserIDFn func(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error)
	ListFn        func(ctx context.Context, limit, offset int) ([]*models.Post, error)
	SearchFn      func(ctx context.Context, query string, limit, offset int) ([]*models.Post, error)
	SlugExistsFn  func(ctx context.Context, slug string, excludeID uint) (bool, error)
	UpdateFn      func(ctx context.Context, post *models.Post) error
	DeleteFn      func(ctx context.Context, id uint) error
}

func (s *PostRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.CreateFn(ctx, post)
}

func (s *PostRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.GetByIDFn(ctx, id)
}

func (s *PostRepoStub) GetBySlug(ctx context.Context, slug string) (*models.Post, error) {
	return s.GetBySlugFn(ctx, slug)
}

func (s *PostRepoStub) GetByUserID(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	return s.GetByUserIDFn(ctx, userID, limit, offset)
}

func (s *PostRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.ListFn(ctx, limit, offset)
}

func (s *PostRepoStub) Search(ctx context.Context, query string, limit, offset int) ([]*models.Post, error) {
	return s.SearchFn(ctx, query, limit, offset)
}

func (s *PostRepoStub) SlugExists(ctx context.Context, slug string, excludeID uint) (bool, error) {
	if s.SlugExistsFn == nil {
		return false, nil
	}
	return s.SlugExistsFn(ctx, slug, excludeID)
}

func (s *PostRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.UpdateFn(ctx, post)
}

func (s *PostRepoStub) Delete(ctx context.Context, id uint) error {
	return s.DeleteFn(ctx, id)
}

type failer interface {
	Helper()
	Fatalf(string, ...any)
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t failer, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// TinyGIF returns an in-memory GIF byte slice with the requested dimensions.
func TinyGIF(t failer, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), palette.Plan9)
	buf := bytes.NewBuffer(nil)
	if err := gif.Encode(buf, img, nil); err != nil {
		t.Fatalf("encode gif: %v", err)
	}
	return buf.Bytes()
}

// TinyJPEG returns an in-memory JPEG byte slice with the requested dimensions.
func TinyJPEG(t failer, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := jpeg.Encode(buf, img, nil); err != nil {
		t.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}
