package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// PostHandler handles posts, the feed, likes and comments
type PostHandler struct {
	posts *services.PostService
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts *services.PostService) *PostHandler {
	return &PostHandler{posts: posts}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/feed", h.GetFeed)
	g.GET("/posts/user/:userId", h.GetUserPosts)
	g.GET("/posts/:id", h.GetPost)
	g.PUT("/posts/:id", h.UpdatePost)
	g.DELETE("/posts/:id", h.DeletePost)
	g.POST("/posts/:id/like", h.ToggleLike)
	g.GET("/posts/:id/comments", h.GetComments)
	g.POST("/posts/:id/comments", h.AddComment)
	g.DELETE("/posts/comments/:commentId", h.DeleteComment)
}

// CreatePost publishes a post and notifies the author's subscribers
func (h *PostHandler) CreatePost(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req models.PostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.posts.CreatePost(c.Request().Context(), p, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, post)
}

// GetFeed returns posts from the users the caller subscribes to, newest first
func (h *PostHandler) GetFeed(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	pg, page := pageQuery(c)

	posts, err := h.posts.GetFeed(c.Request().Context(), p, pg)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": posts},
		"meta":    pageMeta(pg, page, len(posts)),
	})
}

// GetUserPosts returns one user's posts, newest first
func (h *PostHandler) GetUserPosts(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	userID, err := idParam(c, "userId")
	if err != nil {
		return err
	}
	pg, page := pageQuery(c)

	posts, err := h.posts.GetUserPosts(c.Request().Context(), p, userID, pg)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"data":    echo.Map{"posts": posts},
		"meta":    pageMeta(pg, page, len(posts)),
	})
}

// GetPost retrieves a post by ID
func (h *PostHandler) GetPost(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	post, err := h.posts.GetPost(c.Request().Context(), p, postID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// UpdatePost updates an existing post; only the owner may do so
func (h *PostHandler) UpdatePost(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req models.PostRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	post, err := h.posts.UpdatePost(c.Request().Context(), p, postID, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost removes a post with its likes, comments and notifications
func (h *PostHandler) DeletePost(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.posts.DeletePost(c.Request().Context(), p, postID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleLike likes the post, or removes the caller's like when one exists
func (h *PostHandler) ToggleLike(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	state, err := h.posts.ToggleLike(c.Request().Context(), p, postID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, state)
}

// GetComments lists a post's comments, oldest first
func (h *PostHandler) GetComments(c echo.Context) error {
	postID, err := idParam(c, "id")
	if err != nil {
		return err
	}

	comments, err := h.posts.GetComments(c.Request().Context(), postID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, comments)
}

// AddComment adds a comment to a post
func (h *PostHandler) AddComment(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	postID, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req models.CommentRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	comment, err := h.posts.AddComment(c.Request().Context(), p, postID, req)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, comment)
}

// DeleteComment removes a comment; only its author may do so
func (h *PostHandler) DeleteComment(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	commentID, err := idParam(c, "commentId")
	if err != nil {
		return err
	}

	if err := h.posts.DeleteComment(c.Request().Context(), p, commentID); err != nil {
		return toHTTPError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
