package handlers

import (
	"net/http"

	"github.com/anonto42/nano-blog/backend/internal/middleware"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/services"
	"github.com/anonto42/nano-blog/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	auth         *services.AuthService
	firebaseAuth middleware.IDTokenVerifier
	jwtSecret    string
}

// NewAuthHandler creates a new AuthHandler. firebaseAuth may be nil when Firebase is not configured.
func NewAuthHandler(authService *services.AuthService, firebaseAuth middleware.IDTokenVerifier, jwtSecret string) *AuthHandler {
	return &AuthHandler{
		auth:         authService,
		firebaseAuth: firebaseAuth,
		jwtSecret:    jwtSecret,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/register", h.Register)
	g.POST("/login", h.Login)
	g.POST("/firebase-login", h.FirebaseLogin)
}

type authResponse struct {
	Token string             `json:"token"`
	User  models.UserCompact `json:"user"`
	Role  models.Role        `json:"role"`
}

// Register handles local user registration with username, email and password
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Register(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return h.respondWithToken(c, http.StatusCreated, user)
}

// Login handles local authentication by username or email
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.auth.Login(c.Request().Context(), req)
	if err != nil {
		return toHTTPError(err)
	}
	return h.respondWithToken(c, http.StatusOK, user)
}

// FirebaseLogin exchanges a Firebase ID token for a local JWT, linking or creating the account
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	if h.firebaseAuth == nil {
		return echo.NewHTTPError(http.StatusNotImplemented, "Firebase login is not configured")
	}

	var req struct {
		IDToken string `json:"id_token" validate:"required"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return toHTTPError(err)
	}

	ctx := c.Request().Context()
	token, err := h.firebaseAuth.VerifyIDToken(ctx, req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid Firebase ID token")
	}

	id := firebase.IdentityOf(token)
	if id.Email != "" && !id.EmailVerified {
		// an unverified address must not claim an existing local account
		id.Email = ""
	}

	user, err := h.auth.LoginWithFirebase(ctx, id.UID, id.Email, id.Name)
	if err != nil {
		return toHTTPError(err)
	}
	return h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := middleware.GenerateJWT(user, h.jwtSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token").SetInternal(err)
	}
	return c.JSON(status, authResponse{Token: token, User: user.ToCompact(), Role: user.Role})
}
