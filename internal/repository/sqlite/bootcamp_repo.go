package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// bootcampRepository implements repository.BootcampRepository for SQLite.
type bootcampRepository struct {
	db *DB
}

// NewBootcampRepository creates a new SQLite bootcamp repository.
func NewBootcampRepository(db *DB) repository.BootcampRepository {
	return &bootcampRepository{db: db}
}

const bootcampColumns = `id, name, description, website, phone, email, address, careers,
	lat, lng, formatted_address, street, city, state, zipcode, country,
	average_rating, average_cost, photo, housing, job_assistance, job_guarantee, accept_gi,
	owner_id, created_at`

// Create creates a new bootcamp.
func (r *bootcampRepository) Create(ctx context.Context, b *domain.Bootcamp) error {
	careers, err := json.Marshal(b.Careers)
	if err != nil {
		return fmt.Errorf("failed to encode careers: %w", err)
	}

	query := `
		INSERT INTO bootcamps (` + bootcampColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		b.ID.String(),
		b.Name,
		b.Description,
		b.Website,
		b.Phone,
		b.Email,
		b.Address,
		string(careers),
		b.Location.Lat,
		b.Location.Lng,
		b.Location.FormattedAddress,
		b.Location.Street,
		b.Location.City,
		b.Location.State,
		b.Location.Zipcode,
		b.Location.Country,
		nullFloat(b.AverageRating),
		nullFloat(b.AverageCost),
		b.Photo,
		boolToInt(b.Housing),
		boolToInt(b.JobAssistance),
		boolToInt(b.JobGuarantee),
		boolToInt(b.AcceptGI),
		b.OwnerID.String(),
		b.CreatedAt.Format(time.RFC3339),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bootcamp name '%s'", domain.ErrDuplicateField, b.Name)
		}
		return fmt.Errorf("failed to create bootcamp: %w", err)
	}

	return nil
}

// GetByID retrieves a bootcamp by ID.
func (r *bootcampRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bootcamp, error) {
	query := `SELECT ` + bootcampColumns + ` FROM bootcamps WHERE id = ?`

	b, err := scanBootcamp(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if isNoRows(err) {
			return nil, domain.ErrBootcampNotFound
		}
		return nil, fmt.Errorf("failed to get bootcamp by ID: %w", err)
	}
	return b, nil
}

// List returns bootcamps matching a shaped query.
func (r *bootcampRepository) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Bootcamp], error) {
	where, args := repository.BuildWhere(q, repository.Question, 0)

	var total int64
	countQuery := strings.TrimSpace(`SELECT COUNT(*) FROM bootcamps ` + where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count bootcamps: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bootcamps %s %s LIMIT ? OFFSET ?`,
		bootcampColumns, where, repository.BuildOrderBy(q))

	rows, err := r.db.QueryContext(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bootcamps: %w", err)
	}
	defer rows.Close()

	var bootcamps []*domain.Bootcamp
	for rows.Next() {
		b, err := scanBootcamp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bootcamp: %w", err)
		}
		bootcamps = append(bootcamps, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bootcamps: %w", err)
	}

	return &repository.ListResult[domain.Bootcamp]{Items: bootcamps, Total: total}, nil
}

// ListByIDs retrieves bootcamps by ID, for relation population.
func (r *bootcampRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Bootcamp, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id.String()
	}

	query := fmt.Sprintf(`SELECT %s FROM bootcamps WHERE id IN (%s)`,
		bootcampColumns, strings.Join(placeholders, ", "))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bootcamps by IDs: %w", err)
	}
	defer rows.Close()

	var bootcamps []*domain.Bootcamp
	for rows.Next() {
		b, err := scanBootcamp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bootcamp: %w", err)
		}
		bootcamps = append(bootcamps, b)
	}
	return bootcamps, rows.Err()
}

// ListWithinRadius returns bootcamps within the angular radius of a point.
// A bounding box narrows the candidates in SQL; the exact spherical check
// runs on the scanned rows.
func (r *bootcampRepository) ListWithinRadius(ctx context.Context, lat, lng, radiusRad float64) ([]*domain.Bootcamp, error) {
	minLat, maxLat, minLng, maxLng := repository.BoundingBox(lat, lng, radiusRad)

	query := `SELECT ` + bootcampColumns + `
		FROM bootcamps
		WHERE lat BETWEEN ? AND ? AND lng BETWEEN ? AND ?`

	rows, err := r.db.QueryContext(ctx, query, minLat, maxLat, minLng, maxLng)
	if err != nil {
		return nil, fmt.Errorf("failed to query bootcamps in radius: %w", err)
	}
	defer rows.Close()

	var bootcamps []*domain.Bootcamp
	for rows.Next() {
		b, err := scanBootcamp(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan bootcamp: %w", err)
		}
		if repository.AngularDistance(lat, lng, b.Location.Lat, b.Location.Lng) <= radiusRad {
			bootcamps = append(bootcamps, b)
		}
	}
	return bootcamps, rows.Err()
}

// CountByOwner returns how many bootcamps a user has published.
func (r *bootcampRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bootcamps WHERE owner_id = ?`, ownerID.String()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count bootcamps by owner: %w", err)
	}
	return count, nil
}

// Update updates an existing bootcamp.
func (r *bootcampRepository) Update(ctx context.Context, b *domain.Bootcamp) error {
	careers, err := json.Marshal(b.Careers)
	if err != nil {
		return fmt.Errorf("failed to encode careers: %w", err)
	}

	query := `
		UPDATE bootcamps
		SET name = ?, description = ?, website = ?, phone = ?, email = ?, address = ?,
			careers = ?, lat = ?, lng = ?, formatted_address = ?, street = ?, city = ?,
			state = ?, zipcode = ?, country = ?, housing = ?, job_assistance = ?,
			job_guarantee = ?, accept_gi = ?
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		b.Name,
		b.Description,
		b.Website,
		b.Phone,
		b.Email,
		b.Address,
		string(careers),
		b.Location.Lat,
		b.Location.Lng,
		b.Location.FormattedAddress,
		b.Location.Street,
		b.Location.City,
		b.Location.State,
		b.Location.Zipcode,
		b.Location.Country,
		boolToInt(b.Housing),
		boolToInt(b.JobAssistance),
		boolToInt(b.JobGuarantee),
		boolToInt(b.AcceptGI),
		b.ID.String(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bootcamp name '%s'", domain.ErrDuplicateField, b.Name)
		}
		return fmt.Errorf("failed to update bootcamp: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBootcampNotFound
	}

	return nil
}

// UpdatePhoto sets the stored photo filename.
func (r *bootcampRepository) UpdatePhoto(ctx context.Context, id uuid.UUID, filename string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE bootcamps SET photo = ? WHERE id = ?`, filename, id.String())
	if err != nil {
		return fmt.Errorf("failed to update bootcamp photo: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBootcampNotFound
	}
	return nil
}

// SetAverages stores the derived average rating and cost. A nil value leaves
// the corresponding column untouched; averages computed over zero records
// are stored as NULL.
func (r *bootcampRepository) SetAverages(ctx context.Context, id uuid.UUID, rating, cost *float64) error {
	var (
		sets []string
		args []any
	)
	if rating != nil {
		sets = append(sets, "average_rating = ?")
		args = append(args, nullFloat(*rating))
	}
	if cost != nil {
		sets = append(sets, "average_cost = ?")
		args = append(args, nullFloat(*cost))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id.String())

	result, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE bootcamps SET %s WHERE id = ?`, strings.Join(sets, ", ")), args...)
	if err != nil {
		return fmt.Errorf("failed to set bootcamp averages: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return domain.ErrBootcampNotFound
	}
	return nil
}

// Delete removes the bootcamp and every course and review referencing it in
// one transaction.
func (r *bootcampRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM courses WHERE bootcamp_id = ?`, id.String()); err != nil {
			return fmt.Errorf("failed to delete courses: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM reviews WHERE bootcamp_id = ?`, id.String()); err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM bootcamps WHERE id = ?`, id.String())
		if err != nil {
			return fmt.Errorf("failed to delete bootcamp: %w", err)
		}
		rowsAffected, _ := result.RowsAffected()
		if rowsAffected == 0 {
			return domain.ErrBootcampNotFound
		}
		return nil
	})
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBootcamp(row scanner) (*domain.Bootcamp, error) {
	var (
		b                                        domain.Bootcamp
		id, ownerID, careers, createdAt          string
		avgRating, avgCost                       sql.NullFloat64
		housing, jobAssist, jobGuarantee, acceptGI int
	)

	err := row.Scan(
		&id,
		&b.Name,
		&b.Description,
		&b.Website,
		&b.Phone,
		&b.Email,
		&b.Address,
		&careers,
		&b.Location.Lat,
		&b.Location.Lng,
		&b.Location.FormattedAddress,
		&b.Location.Street,
		&b.Location.City,
		&b.Location.State,
		&b.Location.Zipcode,
		&b.Location.Country,
		&avgRating,
		&avgCost,
		&b.Photo,
		&housing,
		&jobAssist,
		&jobGuarantee,
		&acceptGI,
		&ownerID,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	b.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid bootcamp id %q: %w", id, err)
	}
	b.OwnerID, err = uuid.Parse(ownerID)
	if err != nil {
		return nil, fmt.Errorf("invalid owner id %q: %w", ownerID, err)
	}
	if err := json.Unmarshal([]byte(careers), &b.Careers); err != nil {
		return nil, fmt.Errorf("invalid careers payload: %w", err)
	}
	b.AverageRating = avgRating.Float64
	b.AverageCost = avgCost.Float64
	b.Housing = housing != 0
	b.JobAssistance = jobAssist != 0
	b.JobGuarantee = jobGuarantee != 0
	b.AcceptGI = acceptGI != 0
	b.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)

	return &b, nil
}

// boolToInt converts a boolean to an integer (SQLite has no native boolean).
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// nullFloat stores zero-valued averages as NULL so unrated bootcamps don't
// match numeric filters.
func nullFloat(f float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: f, Valid: f != 0}
}

// Ensure bootcampRepository implements repository.BootcampRepository.
var _ repository.BootcampRepository = (*bootcampRepository)(nil)
