package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/pkg/media"
	"github.com/labstack/echo/v4"
)

// FileHandler stores uploaded images and videos and serves them back
type FileHandler struct {
	store media.Store
}

func NewFileHandler(store media.Store) *FileHandler {
	return &FileHandler{store: store}
}

// RegisterFileRoutes registers upload routes. Reads are public and deletes are admin-only.
func (h *FileHandler) RegisterFileRoutes(public, protected *echo.Group) {
	public.GET("/files/:filename", h.Serve)
	protected.POST("/files/upload", h.Upload)
	protected.DELETE("/files/:filename", h.Delete, middleware.RequireAdmin())
}

// Upload accepts a multipart "file" field and returns its URL and media type
func (h *FileHandler) Upload(c echo.Context) error {
	if _, err := currentPrincipal(c); err != nil {
		return err
	}
	fh, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file field")
	}
	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Unreadable upload")
	}
	defer src.Close()

	stored, err := h.store.Save(c.Request().Context(), src)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, stored)
}

func (h *FileHandler) Serve(c echo.Context) error {
	path, err := h.store.Path(c.Param("filename"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.File(path)
}

func (h *FileHandler) Delete(c echo.Context) error {
	if err := h.store.Delete(c.Param("filename")); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
