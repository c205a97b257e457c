package service

import (
	"context"
	"errors"
	"fmt"

	"inkwell/internal/models"
	"inkwell/internal/observability"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"gorm.io/gorm"
)

const (
	maxTitleLen   = 300
	maxContentLen = 50000
)

// FileAttacher is the slice of the file service the post workflow needs:
// uploading a featured image and cleaning up ones nothing points at.
type FileAttacher interface {
	Upload(ctx context.Context, in UploadFileInput) (*models.StoredFile, error)
	DeleteIfUnreferenced(ctx context.Context, id string)
}

type PostService struct {
	postRepo repository.PostRepository
	files    FileAttacher
}

// SubmitPostInput carries one post submission. PostID zero means create,
// anything else means update. Image nil means the submission carries no
// new featured image; an existing one is kept as is.
type SubmitPostInput struct {
	UserID  uint
	PostID  uint
	Title   string
	Content string
	Slug    string
	Status  string
	Image   *UploadFileInput
}

type ListPostsInput struct {
	Limit  int
	Offset int
	Query  string
}

func NewPostService(postRepo repository.PostRepository, files FileAttacher) *PostService {
	return &PostService{
		postRepo: postRepo,
		files:    files,
	}
}

// SubmitPost runs the full submission workflow: validate the image and
// upload it before anything is persisted, derive the slug, assemble the
// record and save it. A failed upload aborts the submission with no
// partial state; a replaced image is cleaned up best-effort afterwards.
func (s *PostService) SubmitPost(ctx context.Context, in SubmitPostInput) (*models.Post, error) {
	kind := "create"
	if in.PostID != 0 {
		kind = "update"
	}

	ctx, span := observability.StartSpan(ctx, "post.submit")
	defer span.End()

	post, err := s.submitPost(ctx, in)
	if err != nil {
		observability.RecordErrorInContext(ctx, err)
		observability.PostSubmissions.WithLabelValues(kind, "error").Inc()
		return nil, err
	}
	observability.PostSubmissions.WithLabelValues(kind, "ok").Inc()
	return post, nil
}

func (s *PostService) submitPost(ctx context.Context, in SubmitPostInput) (*models.Post, error) {
	if in.UserID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	if in.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	if len(in.Title) > maxTitleLen {
		return nil, models.NewValidationError("Title too long (max 300 characters)")
	}
	if len(in.Content) > maxContentLen {
		return nil, models.NewValidationError("Content too long (max 50000 characters)")
	}

	status := in.Status
	if status == "" {
		status = models.PostStatusActive
	}
	if !models.ValidPostStatus(status) {
		return nil, models.NewValidationError("Invalid status")
	}

	// The slug is always derived through the same transform, whether it
	// came from the title or was edited by hand. The latest submission
	// wins.
	slugSource := in.Slug
	if slugSource == "" {
		slugSource = in.Title
	}
	slug := validation.Slugify(slugSource)
	if slug == "" {
		return nil, models.NewValidationError("Slug cannot be empty")
	}

	var post *models.Post
	var staleFileID string

	if in.PostID == 0 {
		post = &models.Post{UserID: in.UserID}
	} else {
		existing, err := s.postRepo.GetByID(ctx, in.PostID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, models.NewNotFoundError("Post", fmt.Sprintf("%d", in.PostID))
			}
			return nil, models.NewInternalError(err)
		}
		if existing.UserID != in.UserID {
			return nil, models.NewUnauthorizedError("You can only update your own posts")
		}
		post = existing
	}

	taken, err := s.postRepo.SlugExists(ctx, slug, in.PostID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if taken {
		return nil, models.NewValidationError("Slug already in use")
	}

	// Upload first. If this fails nothing has been written and the
	// submission stops here. An edit without a new image keeps the
	// existing one.
	if in.Image != nil {
		in.Image.UserID = in.UserID
		stored, err := s.files.Upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		if post.FeaturedFileID != "" && post.FeaturedFileID != stored.ID {
			staleFileID = post.FeaturedFileID
		}
		post.FeaturedFileID = stored.ID
	}
	if in.PostID == 0 && post.FeaturedFileID == "" {
		return nil, models.NewValidationError("Featured image is required")
	}

	post.Title = in.Title
	post.Content = in.Content
	post.Slug = slug
	post.Status = status

	if in.PostID == 0 {
		err = s.postRepo.Create(ctx, post)
	} else {
		err = s.postRepo.Update(ctx, post)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if post.ID == 0 {
		return nil, models.NewInternalError(errors.New("post was saved without an id"))
	}

	// The new image is already referenced by the saved post, so losing
	// this cleanup only leaks the old blob.
	if staleFileID != "" && s.files != nil {
		s.files.DeleteIfUnreferenced(ctx, staleFileID)
	}

	return post, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", fmt.Sprintf("%d", id))
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

func (s *PostService) GetPostBySlug(ctx context.Context, slug string) (*models.Post, error) {
	if err := validation.ValidateSlug(slug); err != nil {
		return nil, models.NewValidationError("Invalid slug")
	}
	post, err := s.postRepo.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Post", slug)
		}
		return nil, models.NewInternalError(err)
	}
	return post, nil
}

func (s *PostService) ListPosts(ctx context.Context, in ListPostsInput) ([]*models.Post, error) {
	var posts []*models.Post
	var err error
	if in.Query != "" {
		posts, err = s.postRepo.Search(ctx, in.Query, in.Limit, in.Offset)
	} else {
		posts, err = s.postRepo.List(ctx, in.Limit, in.Offset)
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (s *PostService) GetUserPosts(ctx context.Context, userID uint, limit, offset int) ([]*models.Post, error) {
	posts, err := s.postRepo.GetByUserID(ctx, userID, limit, offset)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// DeletePost removes the post and then cleans up its featured file if no
// other post references it. The cleanup is best-effort; the post delete
// itself is authoritative.
func (s *PostService) DeletePost(ctx context.Context, userID, postID uint) error {
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != userID {
		return models.NewUnauthorizedError("You can only delete your own posts")
	}

	if err := s.postRepo.Delete(ctx, postID); err != nil {
		return models.NewInternalError(err)
	}

	if post.FeaturedFileID != "" && s.files != nil {
		s.files.DeleteIfUnreferenced(ctx, post.FeaturedFileID)
	}
	return nil
}
