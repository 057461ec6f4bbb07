package middleware

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// IDTokenVerifier is the part of *auth.Client the middleware needs
type IDTokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

var _ IDTokenVerifier = (*auth.Client)(nil)

// FirebaseAuthMiddleware verifies Firebase ID tokens and resolves the linked account.
// Accounts are linked through /auth/firebase-login; unknown UIDs are rejected.
func FirebaseAuthMiddleware(verifier IDTokenVerifier, users repositories.UserRepository) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			user, err := users.GetUserByFirebaseUID(ctx, token.UID)
			if err != nil {
				if errors.Is(err, repositories.ErrNotFound) {
					return echo.NewHTTPError(http.StatusUnauthorized, "Firebase account is not linked")
				}
				return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load user").SetInternal(err)
			}

			c.Set("firebaseUID", token.UID)
			SetPrincipal(c, user.Principal())
			return next(c)
		}
	}
}
