package firebase

import (
	"context"
	"fmt"
	"log"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// App verifies Firebase ID tokens for the login exchange and the auth middleware
type App struct {
	FirebaseApp  *firebase.App
	AuthClient   *auth.Client
	checkRevoked bool
}

// InitFirebase builds the admin SDK client from a service account file.
// An empty credentialsPath disables Firebase and returns (nil, nil).
func InitFirebase(ctx context.Context, credentialsPath string, checkRevoked bool) (*App, error) {
	if credentialsPath == "" {
		log.Println("FIREBASE_CREDENTIALS_PATH not set, Firebase login disabled.")
		return nil, nil
	}
	if _, err := os.Stat(credentialsPath); err != nil {
		return nil, fmt.Errorf("firebase credentials file %s: %w", credentialsPath, err)
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("init firebase auth client: %w", err)
	}

	log.Println("Firebase auth client initialized.")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, checkRevoked: checkRevoked}, nil
}

// VerifyIDToken checks the token signature and expiry, and optionally asks Firebase whether it was revoked
func (a *App) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if a.checkRevoked {
		return a.AuthClient.VerifyIDTokenAndCheckRevoked(ctx, idToken)
	}
	return a.AuthClient.VerifyIDToken(ctx, idToken)
}

// Identity is the profile carried in a verified ID token
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

// IdentityOf reads the standard profile claims. Missing claims are left empty.
func IdentityOf(t *auth.Token) Identity {
	id := Identity{UID: t.UID}
	id.Email, _ = t.Claims["email"].(string)
	id.EmailVerified, _ = t.Claims["email_verified"].(bool)
	id.Name, _ = t.Claims["name"].(string)
	return id
}
