package repository

import (
	"context"

	"inkwell/internal/models"

	"gorm.io/gorm"
)

// FileRepository defines the interface for stored file metadata operations
type FileRepository interface {
	Create(ctx context.Context, file *models.StoredFile) error
	GetByID(ctx context.Context, id string) (*models.StoredFile, error)
	Delete(ctx context.Context, id string) error
	CountPostReferences(ctx context.Context, id string) (int64, error)
}

type fileRepository struct {
	db *gorm.DB
}

// NewFileRepository creates a new file metadata repository
func NewFileRepository(db *gorm.DB) FileRepository {
	return &fileRepository{db: db}
}

func (r *fileRepository) Create(ctx context.Context, file *models.StoredFile) error {
	return r.db.WithContext(ctx).Create(file).Error
}

func (r *fileRepository) GetByID(ctx context.Context, id string) (*models.StoredFile, error) {
	var file models.StoredFile
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&file).Error; err != nil {
		return nil, err
	}
	return &file, nil
}

func (r *fileRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.StoredFile{}).Error
}

func (r *fileRepository) CountPostReferences(ctx context.Context, id string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Post{}).
		Where("featured_file_id = ?", id).
		Count(&count).Error
	return count, err
}
