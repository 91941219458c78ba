package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// courseRepository implements repository.CourseRepository for PostgreSQL.
type courseRepository struct {
	db *DB
}

// NewCourseRepository creates a new PostgreSQL course repository.
func NewCourseRepository(db *DB) repository.CourseRepository {
	return &courseRepository{db: db}
}

const courseColumns = `id, title, description, weeks, tuition, minimum_skill,
	scholarship_available, bootcamp_id, created_at`

// Create creates a new course.
func (r *courseRepository) Create(ctx context.Context, c *domain.Course) error {
	query := `
		INSERT INTO courses (` + courseColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		c.ID.String(),
		c.Title,
		c.Description,
		c.Weeks,
		c.Tuition,
		string(c.MinimumSkill),
		c.ScholarshipAvailable,
		c.BootcampID.String(),
		c.CreatedAt,
	)

	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrBootcampNotFound
		}
		return fmt.Errorf("failed to create course: %w", err)
	}

	return nil
}

// GetByID retrieves a course by ID.
func (r *courseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

	c, err := scanCourse(r.db.Pool.QueryRow(ctx, query, id.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrCourseNotFound
		}
		return nil, fmt.Errorf("failed to get course by ID: %w", err)
	}
	return c, nil
}

// List returns courses matching a shaped query.
func (r *courseRepository) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Course], error) {
	where, args := repository.BuildWhere(q, repository.Dollar, 0)

	var total int64
	countQuery := strings.TrimSpace(`SELECT COUNT(*) FROM courses ` + where)
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM courses %s %s LIMIT $%d OFFSET $%d`,
		courseColumns, where, repository.BuildOrderBy(q), len(args)+1, len(args)+2)

	rows, err := r.db.Pool.Query(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating courses: %w", err)
	}

	return &repository.ListResult[domain.Course]{Items: courses, Total: total}, nil
}

// ListByBootcamp returns every course of one bootcamp.
func (r *courseRepository) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]*domain.Course, error) {
	query := `SELECT ` + courseColumns + ` FROM courses WHERE bootcamp_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, bootcampID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to list courses by bootcamp: %w", err)
	}
	defer rows.Close()

	var courses []*domain.Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// Update updates an existing course.
func (r *courseRepository) Update(ctx context.Context, c *domain.Course) error {
	query := `
		UPDATE courses
		SET title = $1, description = $2, weeks = $3, tuition = $4, minimum_skill = $5,
			scholarship_available = $6
		WHERE id = $7
	`

	tag, err := r.db.Pool.Exec(ctx, query,
		c.Title,
		c.Description,
		c.Weeks,
		c.Tuition,
		string(c.MinimumSkill),
		c.ScholarshipAvailable,
		c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update course: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// Delete deletes a course by ID.
func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM courses WHERE id = $1`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete course: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrCourseNotFound
	}
	return nil
}

// AverageTuition returns the mean tuition across a bootcamp's courses.
func (r *courseRepository) AverageTuition(ctx context.Context, bootcampID uuid.UUID) (float64, int64, error) {
	var (
		avg   float64
		count int64
	)
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(tuition), 0), COUNT(*) FROM courses WHERE bootcamp_id = $1`,
		bootcampID.String()).Scan(&avg, &count)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to average tuition: %w", err)
	}
	return avg, count, nil
}

func scanCourse(row scanner) (*domain.Course, error) {
	var (
		c               domain.Course
		id, bootcampID  string
		skill           string
	)

	err := row.Scan(
		&id,
		&c.Title,
		&c.Description,
		&c.Weeks,
		&c.Tuition,
		&skill,
		&c.ScholarshipAvailable,
		&bootcampID,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	c.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid course id %q: %w", id, err)
	}
	c.BootcampID, err = uuid.Parse(bootcampID)
	if err != nil {
		return nil, fmt.Errorf("invalid bootcamp id %q: %w", bootcampID, err)
	}
	c.MinimumSkill = domain.MinimumSkill(skill)

	return &c, nil
}

// Ensure courseRepository implements repository.CourseRepository.
var _ repository.CourseRepository = (*courseRepository)(nil)
