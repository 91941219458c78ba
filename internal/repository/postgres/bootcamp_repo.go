package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// bootcampRepository implements repository.BootcampRepository for PostgreSQL.
type bootcampRepository struct {
	db *DB
}

// NewBootcampRepository creates a new PostgreSQL bootcamp repository.
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
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25)
	`

	_, err = r.db.Pool.Exec(ctx, query,
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
		b.Housing,
		b.JobAssistance,
		b.JobGuarantee,
		b.AcceptGI,
		b.OwnerID.String(),
		b.CreatedAt,
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
	query := `SELECT ` + bootcampColumns + ` FROM bootcamps WHERE id = $1`

	b, err := scanBootcamp(r.db.Pool.QueryRow(ctx, query, id.String()))
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
	where, args := repository.BuildWhere(q, repository.Dollar, 0)

	var total int64
	countQuery := strings.TrimSpace(`SELECT COUNT(*) FROM bootcamps ` + where)
	if err := r.db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count bootcamps: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bootcamps %s %s LIMIT $%d OFFSET $%d`,
		bootcampColumns, where, repository.BuildOrderBy(q), len(args)+1, len(args)+2)

	rows, err := r.db.Pool.Query(ctx, query, append(args, q.Limit, q.Offset())...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bootcamps: %w", err)
	}
	defer rows.Close()

	bootcamps, err := collectBootcamps(rows)
	if err != nil {
		return nil, err
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
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id.String()
	}

	query := fmt.Sprintf(`SELECT %s FROM bootcamps WHERE id IN (%s)`,
		bootcampColumns, strings.Join(placeholders, ", "))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bootcamps by IDs: %w", err)
	}
	defer rows.Close()

	return collectBootcamps(rows)
}

// ListWithinRadius returns bootcamps within the angular radius of a point.
// A bounding box narrows the candidates in SQL; the exact spherical check
// runs on the scanned rows.
func (r *bootcampRepository) ListWithinRadius(ctx context.Context, lat, lng, radiusRad float64) ([]*domain.Bootcamp, error) {
	minLat, maxLat, minLng, maxLng := repository.BoundingBox(lat, lng, radiusRad)

	query := `SELECT ` + bootcampColumns + `
		FROM bootcamps
		WHERE lat BETWEEN $1 AND $2 AND lng BETWEEN $3 AND $4`

	rows, err := r.db.Pool.Query(ctx, query, minLat, maxLat, minLng, maxLng)
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
	err := r.db.Pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bootcamps WHERE owner_id = $1`, ownerID.String()).Scan(&count)
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
		SET name = $1, description = $2, website = $3, phone = $4, email = $5, address = $6,
			careers = $7, lat = $8, lng = $9, formatted_address = $10, street = $11, city = $12,
			state = $13, zipcode = $14, country = $15, housing = $16, job_assistance = $17,
			job_guarantee = $18, accept_gi = $19
		WHERE id = $20
	`

	tag, err := r.db.Pool.Exec(ctx, query,
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
		b.Housing,
		b.JobAssistance,
		b.JobGuarantee,
		b.AcceptGI,
		b.ID.String(),
	)

	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: bootcamp name '%s'", domain.ErrDuplicateField, b.Name)
		}
		return fmt.Errorf("failed to update bootcamp: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBootcampNotFound
	}

	return nil
}

// UpdatePhoto sets the stored photo filename.
func (r *bootcampRepository) UpdatePhoto(ctx context.Context, id uuid.UUID, filename string) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE bootcamps SET photo = $1 WHERE id = $2`, filename, id.String())
	if err != nil {
		return fmt.Errorf("failed to update bootcamp photo: %w", err)
	}

	if tag.RowsAffected() == 0 {
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
		args = append(args, nullFloat(*rating))
		sets = append(sets, fmt.Sprintf("average_rating = $%d", len(args)))
	}
	if cost != nil {
		args = append(args, nullFloat(*cost))
		sets = append(sets, fmt.Sprintf("average_cost = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id.String())

	tag, err := r.db.Pool.Exec(ctx,
		fmt.Sprintf(`UPDATE bootcamps SET %s WHERE id = $%d`, strings.Join(sets, ", "), len(args)), args...)
	if err != nil {
		return fmt.Errorf("failed to set bootcamp averages: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrBootcampNotFound
	}
	return nil
}

// Delete removes the bootcamp and every course and review referencing it in
// one transaction.
func (r *bootcampRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithTx(ctx, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM courses WHERE bootcamp_id = $1`, id.String()); err != nil {
			return fmt.Errorf("failed to delete courses: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM reviews WHERE bootcamp_id = $1`, id.String()); err != nil {
			return fmt.Errorf("failed to delete reviews: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM bootcamps WHERE id = $1`, id.String())
		if err != nil {
			return fmt.Errorf("failed to delete bootcamp: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrBootcampNotFound
		}
		return nil
	})
}

// scanner covers both pgx.Row and pgx.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBootcamp(row scanner) (*domain.Bootcamp, error) {
	var (
		b                  domain.Bootcamp
		id, ownerID        string
		careers            string
		avgRating, avgCost *float64
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
		&b.Housing,
		&b.JobAssistance,
		&b.JobGuarantee,
		&b.AcceptGI,
		&ownerID,
		&b.CreatedAt,
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
	if avgRating != nil {
		b.AverageRating = *avgRating
	}
	if avgCost != nil {
		b.AverageCost = *avgCost
	}

	return &b, nil
}

func collectBootcamps(rows pgx.Rows) ([]*domain.Bootcamp, error) {
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
	return bootcamps, nil
}

// nullFloat stores zero-valued averages as NULL so unrated bootcamps don't
// match numeric filters.
func nullFloat(f float64) *float64 {
	if f == 0 {
		return nil
	}
	return &f
}

// Ensure bootcampRepository implements repository.BootcampRepository.
var _ repository.BootcampRepository = (*bootcampRepository)(nil)
