package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-proctor/internal/clock"
	"github.com/stemsi/exstem-proctor/internal/model"
	"github.com/stemsi/exstem-proctor/internal/repository"
	"github.com/stemsi/exstem-proctor/internal/response"
)

// User errors.
var (
	ErrEmailTaken      = errors.New("email already registered")
	ErrUserNotFound    = errors.New("user not found")
	ErrInvalidStudents = errors.New("student ids do not all belong to student accounts")
)

// UserService handles registration and account lookups.
type UserService struct {
	users UserStore
	auth  *AuthService
	clock clock.Clock
	log   zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(users UserStore, auth *AuthService, clk clock.Clock, log zerolog.Logger) *UserService {
	return &UserService{
		users: users,
		auth:  auth,
		clock: clk,
		log:   log.With().Str("component", "user_service").Logger(),
	}
}

// Register creates an account. The role defaults to student.
func (s *UserService) Register(ctx context.Context, req model.RegisterRequest) (*model.User, error) {
	role := req.Role
	if role == "" {
		role = model.RoleStudent
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	hash, err := s.auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        normalizeEmail(req.Email),
		PasswordHash: hash,
		Role:         role,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.log.Info().
		Str("user_id", user.ID.String()).
		Str("role", string(user.Role)).
		Msg("User registered")
	return user, nil
}

// GetByID returns a user.
func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// ListStudents returns student accounts page by page.
func (s *UserService) ListStudents(ctx context.Context, page, perPage int) ([]model.User, *response.Pagination, error) {
	page, perPage = clampPage(page, perPage)

	users, total, err := s.users.ListUsersByRole(ctx, model.RoleStudent, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	return users, response.NewPagination(page, perPage, total), nil
}

// ResolveStudents de-duplicates ids and checks that each one is a student account.
func (s *UserService) ResolveStudents(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	unique := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	if len(unique) == 0 {
		return unique, nil
	}

	users, err := s.users.GetUsersByIDs(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	students := 0
	for _, u := range users {
		if u.Role == model.RoleStudent {
			students++
		}
	}
	if students != len(unique) {
		return nil, ErrInvalidStudents
	}
	return unique, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// clampPage applies the default and maximum page sizes.
func clampPage(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}
