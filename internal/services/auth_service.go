package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/anonto42/nano-blog/backend/internal/errs"
	"github.com/anonto42/nano-blog/backend/internal/models"
	"github.com/anonto42/nano-blog/backend/internal/repositories"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned by Login for an unknown identifier or a wrong password
var ErrInvalidCredentials = errors.New("invalid username/email or password")

// AuthService manages local and Firebase-backed accounts. Token issuance lives in the handlers.
type AuthService struct {
	base
}

func NewAuthService(repos Repositories, logger *slog.Logger) *AuthService {
	return &AuthService{base: newBase(repos, logger)}
}

// Register creates a USER account with a bcrypt-hashed password
func (s *AuthService) Register(ctx context.Context, in models.RegisterRequest) (*models.User, error) {
	return s.create(ctx, in, models.RoleUser)
}

// EnsureAdmin creates the admin account unless the username is already taken
func (s *AuthService) EnsureAdmin(ctx context.Context, in models.RegisterRequest) (*models.User, error) {
	if u, err := s.repos.Users.GetUserByUsername(ctx, in.Username); err == nil {
		return u, nil
	}
	return s.create(ctx, in, models.RoleAdmin)
}

func (s *AuthService) create(ctx context.Context, in models.RegisterRequest, role models.Role) (*models.User, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	if err := s.checkAvailable(ctx, in.Username, in.Email); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	displayName := in.DisplayName
	if displayName == "" {
		displayName = in.Username
	}

	user := &models.User{
		Username:    in.Username,
		Email:       in.Email,
		Password:    string(hashed),
		DisplayName: displayName,
		Role:        role,
	}
	if err := s.repos.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// lost a race with a concurrent registration; report which field collided
			if cerr := s.checkAvailable(ctx, in.Username, in.Email); cerr != nil {
				return nil, cerr
			}
			return nil, errs.Conflict(errs.UsernameTaken)
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("user registered", slog.Uint64("user_id", uint64(user.ID)), slog.String("role", string(role)))
	return user, nil
}

func (s *AuthService) checkAvailable(ctx context.Context, username, email string) error {
	if _, err := s.repos.Users.GetUserByUsername(ctx, username); err == nil {
		return errs.Conflict(errs.UsernameTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("lookup username: %w", err)
	}
	if _, err := s.repos.Users.GetUserByEmail(ctx, email); err == nil {
		return errs.Conflict(errs.EmailTaken)
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return fmt.Errorf("lookup email: %w", err)
	}
	return nil
}

// Login accepts either a username or an email as identifier
func (s *AuthService) Login(ctx context.Context, in models.LoginRequest) (*models.User, error) {
	if err := s.validate.Validate(in); err != nil {
		return nil, err
	}
	user, err := s.repos.Users.GetUserByUsername(ctx, in.UsernameOrEmail)
	if errors.Is(err, repositories.ErrNotFound) {
		user, err = s.repos.Users.GetUserByEmail(ctx, in.UsernameOrEmail)
	}
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if user.Banned {
		return nil, errs.Banned("account is banned")
	}
	return user, nil
}

// LoginWithFirebase finds the account by Firebase UID, then by email (linking the UID),
// and creates one when neither exists.
func (s *AuthService) LoginWithFirebase(ctx context.Context, uid, email, name string) (*models.User, error) {
	user, err := s.repos.Users.GetUserByFirebaseUID(ctx, uid)
	switch {
	case err == nil:
	case errors.Is(err, repositories.ErrNotFound):
		user, err = s.linkOrCreate(ctx, uid, email, name)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("lookup firebase user: %w", err)
	}

	if user.Banned {
		return nil, errs.Banned("account is banned")
	}
	return user, nil
}

func (s *AuthService) linkOrCreate(ctx context.Context, uid, email, name string) (*models.User, error) {
	if email == "" {
		return nil, errs.InvalidInput("email", "is required")
	}
	user, err := s.repos.Users.GetUserByEmail(ctx, email)
	if err == nil {
		if err := s.repos.Users.LinkFirebaseUID(ctx, user.ID, uid); err != nil {
			return nil, fmt.Errorf("link firebase uid: %w", err)
		}
		user.FirebaseUID = &uid
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	username, err := s.freeUsername(ctx, email)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = username
	}
	user = &models.User{
		Username:    username,
		Email:       email,
		DisplayName: name,
		Role:        models.RoleUser,
		FirebaseUID: &uid,
	}
	if err := s.repos.Users.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create firebase user: %w", err)
	}
	return user, nil
}

// freeUsername derives a username from the email local part, suffixing a number on collision
func (s *AuthService) freeUsername(ctx context.Context, email string) (string, error) {
	stem, _, _ := strings.Cut(email, "@")
	if len(stem) < 3 {
		stem += "user"
	}
	if len(stem) > 40 {
		stem = stem[:40]
	}
	candidate := stem
	for i := 1; i < 1000; i++ {
		_, err := s.repos.Users.GetUserByUsername(ctx, candidate)
		if errors.Is(err, repositories.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("lookup username: %w", err)
		}
		candidate = stem + strconv.Itoa(i)
	}
	return "", errs.Conflict(errs.UsernameTaken)
}
