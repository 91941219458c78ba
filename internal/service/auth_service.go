package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/campstack/campstack/internal/auth"
	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/mail"
	"github.com/campstack/campstack/internal/repository"
)

// resetTokenTTL bounds how long a password reset link stays usable.
const resetTokenTTL = 10 * time.Minute

// AuthService handles registration, login and password lifecycle.
type AuthService struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
	mailer mail.Sender
	logger zerolog.Logger

	now func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(repos *repository.Repositories, tokens *auth.TokenManager, mailer mail.Sender, logger zerolog.Logger) *AuthService {
	return &AuthService{
		users:  repos.Users,
		tokens: tokens,
		mailer: mailer,
		logger: logger.With().Str("service", "auth").Logger(),
		now:    time.Now,
	}
}

// RegisterInput contains the data for a self-service registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Session is an authenticated user plus a fresh token.
type Session struct {
	User  *domain.User
	Token string
}

// Register creates an account and returns a session. The admin role can not
// be self-assigned.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	var messages []string
	if strings.TrimSpace(input.Name) == "" {
		messages = append(messages, "Please add a name")
	}
	if !validEmail(normalizeEmail(input.Email)) {
		messages = append(messages, "Please add a valid email")
	}
	if len(input.Password) < minPasswordLength {
		messages = append(messages, "Password must be at least 6 characters")
	}
	if input.Role != "" && input.Role != domain.RoleUser && input.Role != domain.RolePublisher {
		messages = append(messages, "Role must be either user or publisher")
	}
	if len(messages) > 0 {
		return nil, domain.NewValidationError(messages...)
	}

	hash, err := hashPassword(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user := domain.NewUser(strings.TrimSpace(input.Name), normalizeEmail(input.Email), hash, input.Role)
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("user_id", user.ID.String()).
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("user registered")

	return s.newSession(user)
}

// Login verifies credentials and returns a session. Unknown emails and wrong
// passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" || password == "" {
		return nil, domain.NewValidationError("Please provide an email and password")
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		s.logger.Debug().Str("email", email).Msg("login for unknown email")
		return nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.logger.Debug().Str("user_id", user.ID.String()).Msg("login with wrong password")
		return nil, domain.ErrInvalidCredentials
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user logged in")
	return s.newSession(user)
}

// UpdateDetails changes the actor's name and email.
func (s *AuthService) UpdateDetails(ctx context.Context, actor *domain.User, name, email string) (*domain.User, error) {
	var messages []string
	if name != "" {
		actor.Name = strings.TrimSpace(name)
	}
	if email != "" {
		if !validEmail(normalizeEmail(email)) {
			messages = append(messages, "Please add a valid email")
		} else {
			actor.Email = normalizeEmail(email)
		}
	}
	if len(messages) > 0 {
		return nil, domain.NewValidationError(messages...)
	}

	if err := s.users.Update(ctx, actor); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", actor.ID.String()).Msg("user details updated")
	return actor, nil
}

// UpdatePassword changes the actor's password after verifying the current
// one, and returns a fresh session.
func (s *AuthService) UpdatePassword(ctx context.Context, actor *domain.User, current, next string) (*Session, error) {
	if len(next) < minPasswordLength {
		return nil, domain.NewValidationError("Password must be at least 6 characters")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(actor.PasswordHash), []byte(current)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	hash, err := hashPassword(next)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}
	actor.PasswordHash = hash

	if err := s.users.Update(ctx, actor); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", actor.ID.String()).Msg("password updated")
	return s.newSession(actor)
}

// ForgotPassword generates a reset token, stores its hash with a short
// expiry and emails the reset link. The plaintext token never touches the
// store.
func (s *AuthService) ForgotPassword(ctx context.Context, email, resetURL string) error {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return err
	}

	token, err := generateResetToken()
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to generate reset token")
		return err
	}

	expire := s.now().Add(resetTokenTTL)
	user.ResetPasswordToken = hashResetToken(token)
	user.ResetPasswordExpire = &expire

	if err := s.users.Update(ctx, user); err != nil {
		return err
	}

	msg := mail.Message{
		To:      user.Email,
		Subject: "Password reset token",
		Body: fmt.Sprintf(
			"You are receiving this email because you (or someone else) has requested the reset of a password. "+
				"Please make a PUT request to:\n\n%s/%s", resetURL, token),
	}
	if err := s.mailer.Send(ctx, msg); err != nil {
		// Roll the token back so a half-sent reset can't linger.
		user.ResetPasswordToken = ""
		user.ResetPasswordExpire = nil
		if rbErr := s.users.Update(ctx, user); rbErr != nil {
			s.logger.Error().Err(rbErr).Str("user_id", user.ID.String()).Msg("failed to clear reset token")
		}
		return fmt.Errorf("%w: email could not be sent", domain.ErrInternal)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset email sent")
	return nil
}

// ResetPassword consumes a reset token and sets a new password, returning a
// fresh session.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (*Session, error) {
	if len(password) < minPasswordLength {
		return nil, domain.NewValidationError("Password must be at least 6 characters")
	}

	user, err := s.users.GetByResetToken(ctx, hashResetToken(token))
	if err != nil {
		if errIsNotFound(err) {
			return nil, domain.ErrResetTokenInvalid
		}
		return nil, err
	}
	if !user.HasValidResetToken(hashResetToken(token), s.now()) {
		return nil, domain.ErrResetTokenInvalid
	}

	hash, err := hashPassword(password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, err
	}

	user.PasswordHash = hash
	user.ResetPasswordToken = ""
	user.ResetPasswordExpire = nil

	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("password reset")
	return s.newSession(user)
}

func (s *AuthService) newSession(user *domain.User) (*Session, error) {
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to issue token")
		return nil, err
	}
	return &Session{User: user, Token: token}, nil
}

// generateResetToken returns 20 random bytes hex-encoded.
func generateResetToken() (string, error) {
	buf := make([]byte, 20)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// hashResetToken derives the stored form of a reset token.
func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
