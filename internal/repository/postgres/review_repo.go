package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// reviewRepository implements repository.ReviewRepository for PostgreSQL.
type reviewRepository struct {
	db *DB
}

// NewReviewRepository creates a new PostgreSQL review repository.
func NewReviewRepository(db *DB) repository.ReviewRepository {
	return &reviewRepository{db: db}
}

const reviewColumns = `id, title, text, rating, bootcamp_id, user_id, created_at`

// Create creates a new review. The (bootcamp, user) unique constraint turns
// a duplicate into domain.ErrDuplicateReview.
func (r *reviewRepository) Create(ctx context.Context, rev *domain.Review) error {
	query := `
		INSERT INTO reviews (` + reviewColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		rev.ID.String(),
		rev.Title,
		rev.Text,
		rev.Rating,
		rev.BootcampID.String(),
		rev.UserID.String(),
		rev.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReview
		}
		if isForeignKeyViolation(err) {
			return domain.ErrBootcampNotFound
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// GetByID retrieves a review by ID.
func (r *reviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rev, err := scanReview(r.db.Pool.QueryRow(ctx, query, id.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrReviewNotFound
		}
		return nil, fmt.Errorf("failed to get review by ID: %w", err)
	}
	return rev, nil
}

// List returns reviews matching a shaped query.
func (r *reviewRepository) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Review], error) {
	where, args := repository.BuildWhere(q, repository.Dollar, 0)

	var total int64
	countQuery := strings.TrimSpace(`SELECT COUNT(*) FROM reviews ` + where)
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM reviews %s %s LIMIT $%d OFFSET $%d`,
		reviewColumns, where, repository.BuildOrderBy(q), len(args)+1, len(args)+2)

	rows, err := r.db.Pool.Query(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return &repository.ListResult[domain.Review]{Items: reviews, Total: total}, nil
}

// ListByBootcamp returns every review of one bootcamp.
func (r *reviewRepository) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE bootcamp_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, bootcampID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews by bootcamp: %w", err)
	}
	defer rows.Close()

	var reviews []*domain.Review
	for rows.Next() {
		rev, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, rev)
	}
	return reviews, rows.Err()
}

// Update updates an existing review.
func (r *reviewRepository) Update(ctx context.Context, rev *domain.Review) error {
	query := `UPDATE reviews SET title = $1, text = $2, rating = $3 WHERE id = $4`

	tag, err := r.db.Pool.Exec(ctx, query,
		rev.Title,
		rev.Text,
		rev.Rating,
		rev.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// Delete deletes a review by ID.
func (r *reviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrReviewNotFound
	}
	return nil
}

// AverageRating returns the mean rating across a bootcamp's reviews.
func (r *reviewRepository) AverageRating(ctx context.Context, bootcampID uuid.UUID) (float64, int64, error) {
	var (
		avg   float64
		count int64
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(rating), 0), COUNT(*) FROM reviews WHERE bootcamp_id = $1`,
		bootcampID.String()).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average rating: %w", err)
	}
	return avg, count, nil
}

func scanReview(row scanner) (*domain.Review, error) {
	var (
		rev                    domain.Review
		id, bootcampID, userID string
	)

	err := row.Scan(
		&id,
		&rev.Title,
		&rev.Text,
		&rev.Rating,
		&bootcampID,
		&userID,
		&rev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	rev.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid review id %q: %w", id, err)
	}
	rev.BootcampID, err = uuid.Parse(bootcampID)
	if err != nil {
		return nil, fmt.Errorf("invalid bootcamp id %q: %w", bootcampID, err)
	}
	rev.UserID, err = uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("invalid user id %q: %w", userID, err)
	}

	return &rev, nil
}

// Ensure reviewRepository implements repository.ReviewRepository.
var _ repository.ReviewRepository = (*reviewRepository)(nil)
