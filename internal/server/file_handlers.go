package server

import (
	"io"
	"time"

	"inkwell/internal/models"
	"inkwell/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadFile handles POST /api/files (multipart form, field "file")
func (s *Server) UploadFile(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewUploadError("Could not read uploaded file"))
	}
	content, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewUploadError("Could not read uploaded file"))
	}

	stored, err := s.fileService.Upload(c.Context(), service.UploadFileInput{
		UserID:      currentUserID(c),
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"file": stored,
		"url":  "/files/" + stored.ID + "/view",
	})
}

// ViewFile handles GET /files/:id/view
func (s *Server) ViewFile(c *fiber.Ctx) error {
	record, data, err := s.fileService.Get(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, record.MimeType)
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	c.Set(fiber.HeaderLastModified, record.CreatedAt.UTC().Format(time.RFC1123))
	return c.Send(data)
}

// PreviewFile handles GET /files/:id/preview
func (s *Server) PreviewFile(c *fiber.Ctx) error {
	data, err := s.fileService.GetPreview(c.Context(), c.Params("id"))
	if err != nil {
		return mapServiceError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/webp")
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(data)
}

// DeleteFile handles DELETE /api/files/:id
func (s *Server) DeleteFile(c *fiber.Ctx) error {
	if err := s.fileService.Delete(c.Context(), c.Params("id"), currentUserID(c)); err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "File deleted"})
}
