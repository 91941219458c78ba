package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// userRepository implements repository.UserRepository for PostgreSQL.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new PostgreSQL user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role,
	reset_password_token, reset_password_expire, created_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		u.ID.String(),
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullString(u.ResetPasswordToken),
		u.ResetPasswordExpire,
		u.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// GetByResetToken retrieves the user holding the given reset token hash.
func (r *userRepository) GetByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE reset_password_token = $1`, tokenHash)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.Pool.QueryRow(ctx, query, arg))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// List returns users matching a shaped query.
func (r *userRepository) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.User], error) {
	where, args := repository.BuildWhere(q, repository.Dollar, 0)

	var total int64
	countQuery := strings.TrimSpace(`SELECT COUNT(*) FROM users ` + where)
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s %s LIMIT $%d OFFSET $%d`,
		userColumns, where, repository.BuildOrderBy(q), len(args)+1, len(args)+2)

	rows, err := r.db.Pool.Query(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return &repository.ListResult[domain.User]{Items: users, Total: total}, nil
}

// Update updates an existing user.
func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `
		UPDATE users
		SET name = $1, email = $2, password_hash = $3, role = $4,
			reset_password_token = $5, reset_password_expire = $6
		WHERE id = $7
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullString(u.ResetPasswordToken),
		u.ResetPasswordExpire,
		u.ID.String(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete deletes a user by ID.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id.String())
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserInUse
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u           domain.User
		id, role    string
		resetToken  *string
		resetExpire *time.Time
	)

	err := row.Scan(
		&id,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&resetToken,
		&resetExpire,
		&u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	u.Role = domain.Role(role)
	if resetToken != nil {
		u.ResetPasswordToken = *resetToken
	}
	u.ResetPasswordExpire = resetExpire

	return &u, nil
}

// nullString maps empty strings to NULL.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
