// Package repository defines data access interfaces for Campstack.
// These interfaces abstract database operations, allowing for different
// implementations (SQLite, PostgreSQL, in-memory for testing) while keeping
// the service layer clean.
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
)

// =============================================================================
// Shaped Queries
// =============================================================================

// FilterOp enumerates the comparison operators the query shaper emits.
type FilterOp string

const (
	OpEq  FilterOp = "eq"
	OpGt  FilterOp = "gt"
	OpGte FilterOp = "gte"
	OpLt  FilterOp = "lt"
	OpLte FilterOp = "lte"
	OpIn  FilterOp = "in"
)

// Filter is a single WHERE condition against a whitelisted column.
// Values holds one element except for OpIn, which may hold several.
type Filter struct {
	Column string
	Op     FilterOp
	Values []string
}

// Sort is a single ORDER BY term against a whitelisted column.
type Sort struct {
	Column     string
	Descending bool
}

// ShapedQuery is the store-agnostic form of a shaped list request:
// filters, sort order and a page window. Columns are already validated
// against the resource's whitelist by the query package.
type ShapedQuery struct {
	Filters []Filter
	Sort    []Sort
	Page    int
	Limit   int
}

// Offset returns the row offset for the page window.
func (q ShapedQuery) Offset() int {
	if q.Page < 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the matched page of records.
	Items []*T

	// Total is the number of records matching the filters, ignoring the
	// page window.
	Total int64
}

// =============================================================================
// Bootcamp Repository
// =============================================================================

// BootcampRepository defines the interface for bootcamp data access.
type BootcampRepository interface {
	// Create creates a new bootcamp.
	Create(ctx context.Context, b *domain.Bootcamp) error

	// GetByID retrieves a bootcamp by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Bootcamp, error)

	// List returns bootcamps matching a shaped query.
	List(ctx context.Context, q ShapedQuery) (*ListResult[domain.Bootcamp], error)

	// ListByIDs retrieves bootcamps by ID, for relation population.
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Bootcamp, error)

	// ListWithinRadius returns bootcamps whose location lies within the
	// angular radius (radians) of the given point.
	ListWithinRadius(ctx context.Context, lat, lng, radiusRad float64) ([]*domain.Bootcamp, error)

	// CountByOwner returns how many bootcamps a user has published.
	CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)

	// Update updates an existing bootcamp.
	Update(ctx context.Context, b *domain.Bootcamp) error

	// UpdatePhoto sets the stored photo filename.
	UpdatePhoto(ctx context.Context, id uuid.UUID, filename string) error

	// SetAverages stores the derived average rating and cost.
	// A nil value leaves the corresponding column untouched.
	SetAverages(ctx context.Context, id uuid.UUID, rating, cost *float64) error

	// Delete removes the bootcamp and, in the same transaction, every
	// course and review referencing it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// =============================================================================
// Course Repository
// =============================================================================

// CourseRepository defines the interface for course data access.
type CourseRepository interface {
	// Create creates a new course.
	Create(ctx context.Context, c *domain.Course) error

	// GetByID retrieves a course by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error)

	// List returns courses matching a shaped query.
	List(ctx context.Context, q ShapedQuery) (*ListResult[domain.Course], error)

	// ListByBootcamp returns every course of one bootcamp.
	ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]*domain.Course, error)

	// Update updates an existing course.
	Update(ctx context.Context, c *domain.Course) error

	// Delete deletes a course by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// AverageTuition returns the mean tuition across a bootcamp's courses
	// and the number of courses it was computed over.
	AverageTuition(ctx context.Context, bootcampID uuid.UUID) (avg float64, count int64, err error)
}

// =============================================================================
// Review Repository
// =============================================================================

// ReviewRepository defines the interface for review data access.
type ReviewRepository interface {
	// Create creates a new review. A second review by the same user for
	// the same bootcamp violates the store's unique constraint and is
	// returned as domain.ErrDuplicateReview.
	Create(ctx context.Context, r *domain.Review) error

	// GetByID retrieves a review by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error)

	// List returns reviews matching a shaped query.
	List(ctx context.Context, q ShapedQuery) (*ListResult[domain.Review], error)

	// ListByBootcamp returns every review of one bootcamp.
	ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]*domain.Review, error)

	// Update updates an existing review.
	Update(ctx context.Context, r *domain.Review) error

	// Delete deletes a review by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// AverageRating returns the mean rating across a bootcamp's reviews and
	// the number of reviews it was computed over.
	AverageRating(ctx context.Context, bootcampID uuid.UUID) (avg float64, count int64, err error)
}

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user data access.
type UserRepository interface {
	// Create creates a new user. A duplicate email is returned as
	// domain.ErrDuplicateEmail.
	Create(ctx context.Context, u *domain.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetToken retrieves the user holding the given reset token hash.
	GetByResetToken(ctx context.Context, tokenHash string) (*domain.User, error)

	// List returns users matching a shaped query.
	List(ctx context.Context, q ShapedQuery) (*ListResult[domain.User], error)

	// Update updates an existing user.
	Update(ctx context.Context, u *domain.User) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repositories holds one instance of every repository.
type Repositories struct {
	Bootcamps BootcampRepository
	Courses   CourseRepository
	Reviews   ReviewRepository
	Users     UserRepository
}

// DatabaseHealth is the lifecycle handle the server owns for the store
// connection: created before serving, closed on shutdown.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Close() error
}
