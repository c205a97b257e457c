package service

import (
	"context"
	"errors"
	"testing"

	"inkwell/internal/models"
	"inkwell/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fileAttacherStub struct {
	uploadFn  func(ctx context.Context, in UploadFileInput) (*models.StoredFile, error)
	deletedID []string
}

func (s *fileAttacherStub) Upload(ctx context.Context, in UploadFileInput) (*models.StoredFile, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, in)
	}
	return &models.StoredFile{ID: "file-new", UserID: in.UserID}, nil
}

func (s *fileAttacherStub) DeleteIfUnreferenced(_ context.Context, id string) {
	s.deletedID = append(s.deletedID, id)
}

func pngImage(t *testing.T) *UploadFileInput {
	return &UploadFileInput{Filename: "cover.png", Content: testutil.TinyPNG(t, 4, 4)}
}

func TestSubmitPostCreateDerivesSlugFromTitle(t *testing.T) {
	var created *models.Post
	repo := &testutil.PostRepoStub{
		CreateFn: func(_ context.Context, post *models.Post) error {
			post.ID = 1
			created = post
			return nil
		},
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	post, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		Title:   "Hello, World!",
		Content: "body",
		Image:   pngImage(t),
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, "file-new", post.FeaturedFileID)
	assert.Equal(t, models.PostStatusActive, post.Status)
	assert.Equal(t, uint(7), post.UserID)
}

func TestSubmitPostHandEditedSlugWins(t *testing.T) {
	repo := &testutil.PostRepoStub{
		CreateFn: func(_ context.Context, post *models.Post) error {
			post.ID = 2
			return nil
		},
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	post, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		Title:   "Original Title",
		Content: "body",
		Slug:    "My Custom Slug!",
		Image:   pngImage(t),
	})
	require.NoError(t, err)

	// A hand-edited slug goes through the same transform as a derived one.
	assert.Equal(t, "my-custom-slug", post.Slug)
}

func TestSubmitPostCreateRequiresImage(t *testing.T) {
	createCalled := false
	repo := &testutil.PostRepoStub{
		CreateFn: func(_ context.Context, post *models.Post) error {
			createCalled = true
			return nil
		},
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	_, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		Title:   "No Cover",
		Content: "body",
	})
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
	assert.False(t, createCalled, "post must not be persisted without an image")
}

func TestSubmitPostUploadFailureAbortsBeforePersist(t *testing.T) {
	createCalled := false
	repo := &testutil.PostRepoStub{
		CreateFn: func(_ context.Context, post *models.Post) error {
			createCalled = true
			return nil
		},
	}
	attacher := &fileAttacherStub{
		uploadFn: func(_ context.Context, _ UploadFileInput) (*models.StoredFile, error) {
			return nil, models.NewUploadError("Unsupported image type")
		},
	}
	svc := NewPostService(repo, attacher)

	_, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		Title:   "Broken Upload",
		Content: "body",
		Image:   &UploadFileInput{Filename: "x.bin", Content: []byte("junk")},
	})
	assertAppErrorCode(t, err, "UPLOAD_FAILED")
	assert.False(t, createCalled, "a failed upload must leave no partial state")
}

func TestSubmitPostUpdateKeepsExistingImage(t *testing.T) {
	existing := &models.Post{
		ID:             5,
		UserID:         7,
		Title:          "Old Title",
		Slug:           "old-title",
		FeaturedFileID: "file-old",
		Status:         models.PostStatusActive,
	}
	var updated *models.Post
	repo := &testutil.PostRepoStub{
		GetByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return existing, nil },
		UpdateFn: func(_ context.Context, post *models.Post) error {
			updated = post
			return nil
		},
	}
	attacher := &fileAttacherStub{}
	svc := NewPostService(repo, attacher)

	post, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		PostID:  5,
		Title:   "New Title",
		Content: "new body",
	})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "file-old", post.FeaturedFileID)
	assert.Equal(t, "new-title", post.Slug)
	assert.Empty(t, attacher.deletedID, "kept image must not be cleaned up")
}

func TestSubmitPostUpdateReplacingImageCleansUpOldFile(t *testing.T) {
	existing := &models.Post{
		ID:             5,
		UserID:         7,
		Title:          "Old Title",
		Slug:           "old-title",
		FeaturedFileID: "file-old",
		Status:         models.PostStatusActive,
	}
	repo := &testutil.PostRepoStub{
		GetByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return existing, nil },
		UpdateFn:  func(_ context.Context, post *models.Post) error { return nil },
	}
	attacher := &fileAttacherStub{}
	svc := NewPostService(repo, attacher)

	post, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		PostID:  5,
		Title:   "New Title",
		Content: "new body",
		Image:   pngImage(t),
	})
	require.NoError(t, err)

	assert.Equal(t, "file-new", post.FeaturedFileID)
	assert.Equal(t, []string{"file-old"}, attacher.deletedID)
}

func TestSubmitPostUpdateUnknownIDIsNotFound(t *testing.T) {
	repo := &testutil.PostRepoStub{
		GetByIDFn: func(_ context.Context, id uint) (*models.Post, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	_, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		PostID:  99,
		Title:   "Whatever",
		Content: "body",
	})
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestSubmitPostUpdateEnforcesOwnership(t *testing.T) {
	existing := &models.Post{ID: 5, UserID: 1, FeaturedFileID: "f"}
	repo := &testutil.PostRepoStub{
		GetByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return existing, nil },
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	_, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  2,
		PostID:  5,
		Title:   "Hijack",
		Content: "body",
	})
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}

func TestSubmitPostRejectsTakenSlug(t *testing.T) {
	repo := &testutil.PostRepoStub{
		SlugExistsFn: func(_ context.Context, slug string, excludeID uint) (bool, error) {
			return slug == "taken-slug", nil
		},
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	_, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		Title:   "Taken Slug",
		Content: "body",
		Image:   pngImage(t),
	})
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestSubmitPostPersistFailureSurfaces(t *testing.T) {
	repo := &testutil.PostRepoStub{
		CreateFn: func(_ context.Context, post *models.Post) error {
			return errors.New("db down")
		},
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	_, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		Title:   "Doomed",
		Content: "body",
		Image:   pngImage(t),
	})
	assertAppErrorCode(t, err, "INTERNAL_ERROR")
}

func TestSubmitPostCreateWithoutIDFails(t *testing.T) {
	repo := &testutil.PostRepoStub{
		// A create that reports success but assigns no identifier is a
		// persistence failure, not a post.
		CreateFn: func(_ context.Context, post *models.Post) error { return nil },
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	_, err := svc.SubmitPost(context.Background(), SubmitPostInput{
		UserID:  7,
		Title:   "Phantom",
		Content: "body",
		Image:   pngImage(t),
	})
	assertAppErrorCode(t, err, "INTERNAL_ERROR")
}

func TestSubmitPostValidation(t *testing.T) {
	svc := NewPostService(&testutil.PostRepoStub{}, &fileAttacherStub{})
	ctx := context.Background()

	_, err := svc.SubmitPost(ctx, SubmitPostInput{Title: "No User"})
	assertAppErrorCode(t, err, "VALIDATION_ERROR")

	_, err = svc.SubmitPost(ctx, SubmitPostInput{UserID: 1})
	assertAppErrorCode(t, err, "VALIDATION_ERROR")

	_, err = svc.SubmitPost(ctx, SubmitPostInput{UserID: 1, Title: "T", Status: "bogus"})
	assertAppErrorCode(t, err, "VALIDATION_ERROR")

	// Titles with nothing slug-worthy in them fail too.
	_, err = svc.SubmitPost(ctx, SubmitPostInput{UserID: 1, Title: "!!!"})
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestGetPostBySlugRejectsMalformedSlug(t *testing.T) {
	svc := NewPostService(&testutil.PostRepoStub{}, &fileAttacherStub{})
	_, err := svc.GetPostBySlug(context.Background(), "Not A Slug")
	assertAppErrorCode(t, err, "VALIDATION_ERROR")
}

func TestGetPostBySlugNotFound(t *testing.T) {
	repo := &testutil.PostRepoStub{
		GetBySlugFn: func(_ context.Context, slug string) (*models.Post, error) {
			return nil, gorm.ErrRecordNotFound
		},
	}
	svc := NewPostService(repo, &fileAttacherStub{})
	_, err := svc.GetPostBySlug(context.Background(), "missing-post")
	assertAppErrorCode(t, err, "NOT_FOUND")
}

func TestListPostsRoutesQueryToSearch(t *testing.T) {
	searched := ""
	repo := &testutil.PostRepoStub{
		ListFn: func(_ context.Context, limit, offset int) ([]*models.Post, error) {
			return []*models.Post{{Title: "listed"}}, nil
		},
		SearchFn: func(_ context.Context, query string, limit, offset int) ([]*models.Post, error) {
			searched = query
			return []*models.Post{{Title: "found"}}, nil
		},
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	posts, err := svc.ListPosts(context.Background(), ListPostsInput{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "listed", posts[0].Title)

	posts, err = svc.ListPosts(context.Background(), ListPostsInput{Limit: 10, Query: "go"})
	require.NoError(t, err)
	assert.Equal(t, "found", posts[0].Title)
	assert.Equal(t, "go", searched)
}

func TestDeletePostCascadesFileCleanup(t *testing.T) {
	existing := &models.Post{ID: 5, UserID: 7, FeaturedFileID: "file-old"}
	deleted := uint(0)
	repo := &testutil.PostRepoStub{
		GetByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return existing, nil },
		DeleteFn: func(_ context.Context, id uint) error {
			deleted = id
			return nil
		},
	}
	attacher := &fileAttacherStub{}
	svc := NewPostService(repo, attacher)

	require.NoError(t, svc.DeletePost(context.Background(), 7, 5))
	assert.Equal(t, uint(5), deleted)
	assert.Equal(t, []string{"file-old"}, attacher.deletedID)
}

func TestDeletePostEnforcesOwnership(t *testing.T) {
	existing := &models.Post{ID: 5, UserID: 7}
	repo := &testutil.PostRepoStub{
		GetByIDFn: func(_ context.Context, id uint) (*models.Post, error) { return existing, nil },
	}
	svc := NewPostService(repo, &fileAttacherStub{})

	err := svc.DeletePost(context.Background(), 2, 5)
	assertAppErrorCode(t, err, "UNAUTHORIZED")
}
