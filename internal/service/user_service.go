package service

import (
	"context"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// UserService handles the admin-facing user management operations.
type UserService struct {
	users  repository.UserRepository
	logger zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repos *repository.Repositories, logger zerolog.Logger) *UserService {
	return &UserService{
		users:  repos.Users,
		logger: logger.With().Str("service", "user").Logger(),
	}
}

// UserInput carries the writable user fields for admin operations.
type UserInput struct {
	Name     *string
	Email    *string
	Password *string
	Role     *domain.Role
}

// List returns users matching a shaped query.
func (s *UserService) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.User], error) {
	result, err := s.users.List(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, err
	}
	return result, nil
}

// Get retrieves a single user.
func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}

// Create adds a user account with an arbitrary role.
func (s *UserService) Create(ctx context.Context, input UserInput) (*domain.User, error) {
	if err := validateUserInput(input, true); err != nil {
		return nil, err
	}

	hash, err := hashPassword(*input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	role := domain.RoleUser
	if input.Role != nil {
		role = *input.Role
	}

	user := domain.NewUser(strings.TrimSpace(*input.Name), normalizeEmail(*input.Email), hash, role)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("user created")

	return user, nil
}

// Update modifies a user account.
func (s *UserService) Update(ctx context.Context, id uuid.UUID, input UserInput) (*domain.User, error) {
	if err := validateUserInput(input, false); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = normalizeEmail(*input.Email)
	}
	if input.Role != nil {
		user.Role = *input.Role
	}
	if input.Password != nil {
		hash, err := hashPassword(*input.Password)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to hash password")
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user updated")
	return user, nil
}

// Delete removes a user account.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info().Str("user_id", id.String()).Msg("user deleted")
	return nil
}

// Password policy.
const minPasswordLength = 6

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validEmail(email string) bool {
	_, err := mail.ParseAddress(email)
	return err == nil
}

func validateUserInput(input UserInput, isCreate bool) error {
	var messages []string

	if isCreate {
		if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
			messages = append(messages, "Please add a name")
		}
		if input.Email == nil {
			messages = append(messages, "Please add an email")
		}
		if input.Password == nil {
			messages = append(messages, "Please add a password")
		}
	}

	if input.Email != nil && !validEmail(normalizeEmail(*input.Email)) {
		messages = append(messages, "Please add a valid email")
	}
	if input.Password != nil && len(*input.Password) < minPasswordLength {
		messages = append(messages, "Password must be at least 6 characters")
	}
	if input.Role != nil && !input.Role.Valid() {
		messages = append(messages, "Role must be one of user, publisher or admin")
	}

	if len(messages) > 0 {
		return domain.NewValidationError(messages...)
	}
	return nil
}
