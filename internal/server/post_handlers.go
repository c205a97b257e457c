package server

import (
	"errors"
	"io"
	"mime/multipart"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postResponse wraps a post with viewer-specific fields.
type postResponse struct {
	*models.Post
	IsOwner bool `json:"is_owner"`
}

func (s *Server) present(c *fiber.Ctx, post *models.Post) postResponse {
	if post.FeaturedFileID != "" {
		post.FeaturedImageURL = "/files/" + post.FeaturedFileID + "/view"
	}
	return postResponse{
		Post:    post,
		IsOwner: post.UserID != 0 && post.UserID == currentUserID(c),
	}
}

func (s *Server) presentAll(c *fiber.Ctx, posts []*models.Post) []postResponse {
	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, s.present(c, p))
	}
	return out
}

// GetPosts handles GET /api/posts
func (s *Server) GetPosts(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	posts, err := s.postService.ListPosts(c.Context(), service.ListPostsInput{
		Limit:  p.Limit,
		Offset: p.Offset,
		Query:  c.Query("q"),
	})
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(s.presentAll(c, posts))
}

// GetPostBySlug handles GET /api/posts/:slug. A post that does not exist
// sends the caller back to the listing instead of a bare 404.
func (s *Server) GetPostBySlug(c *fiber.Ctx) error {
	post, err := s.postService.GetPostBySlug(c.Context(), c.Params("slug"))
	if err != nil {
		var appErr *models.AppError
		if errors.As(err, &appErr) && appErr.Code == "NOT_FOUND" {
			return c.Redirect("/", fiber.StatusFound)
		}
		return mapServiceError(c, err)
	}
	return c.JSON(s.present(c, post))
}

// GetUserPosts handles GET /api/users/:id/posts
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	p := parsePagination(c, 20)
	posts, err := s.postService.GetUserPosts(c.Context(), userID, p.Limit, p.Offset)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(s.presentAll(c, posts))
}

// CreatePost handles POST /api/posts (multipart form)
func (s *Server) CreatePost(c *fiber.Ctx) error {
	in, err := s.parseSubmission(c)
	if err != nil {
		return nil
	}

	post, err := s.postService.SubmitPost(c.Context(), *in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(s.present(c, post))
}

// UpdatePost handles PUT /api/posts/:id (multipart form)
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	in, err := s.parseSubmission(c)
	if err != nil {
		return nil
	}
	in.PostID = postID

	post, err := s.postService.SubmitPost(c.Context(), *in)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(s.present(c, post))
}

// DeletePost handles DELETE /api/posts/:id
func (s *Server) DeletePost(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.postService.DeletePost(c.Context(), currentUserID(c), postID); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Post deleted"})
}

// parseSubmission reads the multipart submission form. On failure it has
// already written the response and returns errResponseWritten.
func (s *Server) parseSubmission(c *fiber.Ctx) (*service.SubmitPostInput, error) {
	in := &service.SubmitPostInput{
		UserID:  currentUserID(c),
		Title:   c.FormValue("title"),
		Content: c.FormValue("content"),
		Slug:    c.FormValue("slug"),
		Status:  c.FormValue("status"),
	}

	fileHeader, err := c.FormFile("image")
	if err == nil && fileHeader != nil {
		content, readErr := readFormFile(fileHeader)
		if readErr != nil {
			_ = models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewUploadError("Could not read uploaded file"))
			return nil, errResponseWritten
		}
		in.Image = &service.UploadFileInput{
			Filename:    fileHeader.Filename,
			ContentType: fileHeader.Header.Get("Content-Type"),
			Content:     content,
		}
	}

	return in, nil
}

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}
