package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// userRepository implements repository.UserRepository for SQLite.
type userRepository struct {
	db *DB
}

// NewUserRepository creates a new SQLite user repository.
func NewUserRepository(db *DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, name, email, password_hash, role,
	reset_password_token, reset_password_expire, created_at`

// Create creates a new user.
func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		u.ID.String(),
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullString(u.ResetPasswordToken),
		nullTime(u.ResetPasswordExpire),
		u.CreatedAt.Format(time.RFC3339),
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
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id.String())
}

// GetByEmail retrieves a user by email.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
}

// GetByResetToken retrieves the user holding the given reset token hash.
func (r *userRepository) GetByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE reset_password_token = ?`, tokenHash)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
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
	where, args := repository.BuildWhere(q, repository.Question, 0)

	var total int64
	countQuery := strings.TrimSpace(`SELECT COUNT(*) FROM users ` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM users %s %s LIMIT ? OFFSET ?`,
		userColumns, where, repository.BuildOrderBy(q))

	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
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
		SET name = ?, email = ?, password_hash = ?, role = ?,
			reset_password_token = ?, reset_password_expire = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		nullString(u.ResetPasswordToken),
		nullTime(u.ResetPasswordExpire),
		u.ID.String(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEmail
		}
		return fmt.Errorf("failed to update user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// Delete deletes a user by ID.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id.String())
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrUserInUse
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func scanUser(row scanner) (*domain.User, error) {
	var (
		u                  domain.User
		id, role, created  string
		resetToken         sql.NullString
		resetExpire        sql.NullString
	)

	err := row.Scan(
		&id,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&role,
		&resetToken,
		&resetExpire,
		&created,
	)
	if err != nil {
		return nil, err
	}

	u.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", id, err)
	}
	u.Role = domain.Role(role)
	u.ResetPasswordToken = resetToken.String
	if resetExpire.Valid {
		if ts, err := time.Parse(time.RFC3339, resetExpire.String); err == nil {
			u.ResetPasswordExpire = &ts
		}
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, created)

	return &u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

// Ensure userRepository implements repository.UserRepository.
var _ repository.UserRepository = (*userRepository)(nil)
