package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"admin_panel/internal/model"
	"admin_panel/internal/repository"
	"admin_panel/internal/session"
	"admin_panel/internal/utils"
)

// AuthService provides registration, login and session validation
type AuthService interface {
	Register(ctx context.Context, req model.CreateUserRequest, files Uploads) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	AdminLogin(ctx context.Context, username, password string) (*model.Admin, string, error)
	Logout(ctx context.Context, sessionID string) error
	// Authenticate resolves a token to its principal; ErrUnauthenticated when
	// the token is invalid or expired or its session is gone.
	Authenticate(ctx context.Context, token string) (*model.Principal, error)
	EnsureAdmin(ctx context.Context, username, password string) (*model.Admin, error)
	SessionTTL() time.Duration
}

type authService struct {
	users     UserService
	userRepo  repository.UserRepository
	adminRepo repository.AdminRepository
	sessions  session.Store
	jwtUtil   *utils.JWTUtil
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserService, userRepo repository.UserRepository, adminRepo repository.AdminRepository,
	sessions session.Store, jwtUtil *utils.JWTUtil) AuthService {
	return &authService{
		users:     users,
		userRepo:  userRepo,
		adminRepo: adminRepo,
		sessions:  sessions,
		jwtUtil:   jwtUtil,
	}
}

func (s *authService) SessionTTL() time.Duration {
	return s.jwtUtil.TTL()
}

// Register creates a new user account. It follows the same path as an
// authenticated create, including optional uploads.
func (s *authService) Register(ctx context.Context, req model.CreateUserRequest, files Uploads) (*model.User, error) {
	user, err := s.users.CreateUser(ctx, req, files)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: registered user %d (%s)", user.ID, user.Email)
	return user, nil
}

// Login authenticates a user and opens a session
func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("error finding user by email: %w", err)
	}

	if !utils.CheckPasswordHash(password, user.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, user.ID, model.PrincipalUser)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// AdminLogin authenticates an administrative principal and opens a session
func (s *authService) AdminLogin(ctx context.Context, username, password string) (*model.Admin, string, error) {
	admin, err := s.adminRepo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("error finding admin: %w", err)
	}

	if !utils.CheckPasswordHash(password, admin.PasswordHash) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.openSession(ctx, admin.ID, model.PrincipalAdmin)
	if err != nil {
		return nil, "", err
	}
	return admin, token, nil
}

func (s *authService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*model.Principal, error) {
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}

	sess, err := s.sessions.Get(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("%w: session ended", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if sess.PrincipalID != claims.PrincipalID || sess.Kind != claims.Kind {
		return nil, fmt.Errorf("%w: token does not match session", ErrUnauthenticated)
	}

	return &model.Principal{ID: sess.PrincipalID, Kind: sess.Kind, SessionID: sess.ID}, nil
}

// EnsureAdmin creates the admin or resets its password
func (s *authService) EnsureAdmin(ctx context.Context, username, password string) (*model.Admin, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: admin username and password are required", ErrValidation)
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	admin := &model.Admin{Username: username, PasswordHash: hashedPassword}
	if err := s.adminRepo.Upsert(ctx, admin); err != nil {
		return nil, fmt.Errorf("failed to store admin: %w", err)
	}
	return admin, nil
}

func (s *authService) openSession(ctx context.Context, principalID int64, kind string) (string, error) {
	sess := session.New(principalID, kind, time.Now(), s.jwtUtil.TTL())
	if err := s.sessions.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("failed to open session: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(sess.ID, principalID, kind)
	if err != nil {
		if delErr := s.sessions.Delete(ctx, sess.ID); delErr != nil {
			log.Printf("WARN: failed to drop session %s after token error: %v", sess.ID, delErr)
		}
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return token, nil
}
