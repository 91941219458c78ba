// Package service provides the business logic for Campstack.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/geocode"
	"github.com/campstack/campstack/internal/repository"
	"github.com/campstack/campstack/internal/storage"
)

// Earth radii used to convert surface distance to an angular radius.
const (
	EarthRadiusMiles = 3963.0
	EarthRadiusKm    = 6378.0
)

// BootcampService manages bootcamp listings.
type BootcampService struct {
	bootcamps    repository.BootcampRepository
	courses      repository.CourseRepository
	reviews      repository.ReviewRepository
	geocoder     geocode.Geocoder
	photos       storage.Backend
	maxPhotoSize int64
	logger       zerolog.Logger
}

// NewBootcampService creates a new BootcampService.
func NewBootcampService(
	repos *repository.Repositories,
	geocoder geocode.Geocoder,
	photos storage.Backend,
	maxPhotoSize int64,
	logger zerolog.Logger,
) *BootcampService {
	return &BootcampService{
		bootcamps:    repos.Bootcamps,
		courses:      repos.Courses,
		reviews:      repos.Reviews,
		geocoder:     geocoder,
		photos:       photos,
		maxPhotoSize: maxPhotoSize,
		logger:       logger.With().Str("service", "bootcamp").Logger(),
	}
}

// BootcampInput carries the writable bootcamp fields. Pointer fields
// distinguish "absent" from "zero" on partial updates.
type BootcampInput struct {
	Name          *string
	Description   *string
	Website       *string
	Phone         *string
	Email         *string
	Address       *string
	Careers       []string
	Housing       *bool
	JobAssistance *bool
	JobGuarantee  *bool
	AcceptGI      *bool
}

// List returns bootcamps matching a shaped query.
func (s *BootcampService) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Bootcamp], error) {
	result, err := s.bootcamps.List(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list bootcamps")
		return nil, err
	}
	return result, nil
}

// Get retrieves a single bootcamp.
func (s *BootcampService) Get(ctx context.Context, id uuid.UUID) (*domain.Bootcamp, error) {
	return s.bootcamps.GetByID(ctx, id)
}

// ListByIDs retrieves bootcamps in bulk, for relation population on course
// and review listings.
func (s *BootcampService) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Bootcamp, error) {
	return s.bootcamps.ListByIDs(ctx, ids)
}

// Create publishes a new bootcamp owned by the actor. Non-admin publishers
// may hold at most one listing.
func (s *BootcampService) Create(ctx context.Context, actor *domain.User, input BootcampInput) (*domain.Bootcamp, error) {
	if err := validateBootcampInput(input, true); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		count, err := s.bootcamps.CountByOwner(ctx, actor.ID)
		if err != nil {
			s.logger.Error().Err(err).Str("user_id", actor.ID.String()).Msg("failed to count owned bootcamps")
			return nil, err
		}
		if count > 0 {
			return nil, domain.ErrBootcampAlreadyOwned
		}
	}

	b := domain.NewBootcamp(actor.ID)
	applyBootcampInput(b, input)

	if b.Address != "" {
		loc, err := s.geocoder.Geocode(ctx, b.Address)
		if err != nil {
			return nil, err
		}
		applyLocation(b, loc)
	}

	if err := s.bootcamps.Create(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("bootcamp_id", b.ID.String()).
		Str("owner_id", actor.ID.String()).
		Str("name", b.Name).
		Msg("bootcamp created")

	return b, nil
}

// Update modifies a bootcamp the actor owns (or any, for admins).
func (s *BootcampService) Update(ctx context.Context, actor *domain.User, id uuid.UUID, input BootcampInput) (*domain.Bootcamp, error) {
	if err := validateBootcampInput(input, false); err != nil {
		return nil, err
	}

	b, err := s.bootcamps.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, b.OwnerID) {
		return nil, domain.ErrOwnershipRequired
	}

	addressChanged := input.Address != nil && *input.Address != b.Address
	applyBootcampInput(b, input)

	if addressChanged && b.Address != "" {
		loc, err := s.geocoder.Geocode(ctx, b.Address)
		if err != nil {
			return nil, err
		}
		applyLocation(b, loc)
	}

	if err := s.bootcamps.Update(ctx, b); err != nil {
		return nil, err
	}

	s.logger.Info().Str("bootcamp_id", b.ID.String()).Msg("bootcamp updated")
	return b, nil
}

// Delete removes a bootcamp along with its courses and reviews. The stored
// photo is removed best-effort once the record is gone.
func (s *BootcampService) Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	b, err := s.bootcamps.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, b.OwnerID) {
		return domain.ErrOwnershipRequired
	}

	if err := s.bootcamps.Delete(ctx, id); err != nil {
		return err
	}

	if b.Photo != "" && b.Photo != domain.DefaultPhoto {
		if err := s.photos.Delete(ctx, b.Photo); err != nil {
			s.logger.Warn().Err(err).Str("photo", b.Photo).Msg("failed to delete bootcamp photo")
		}
	}

	s.logger.Info().Str("bootcamp_id", id.String()).Msg("bootcamp deleted")
	return nil
}

// WithinRadius finds bootcamps within distance of a zipcode. Unit is "mi"
// (default) or "km".
func (s *BootcampService) WithinRadius(ctx context.Context, zipcode string, distance float64, unit string) ([]*domain.Bootcamp, error) {
	// Zero is allowed: it matches only exact-coordinate bootcamps.
	if distance < 0 {
		return nil, domain.NewValidationError("distance must not be negative")
	}

	earthRadius := EarthRadiusMiles
	if unit == "km" {
		earthRadius = EarthRadiusKm
	}

	loc, err := s.geocoder.Geocode(ctx, zipcode)
	if err != nil {
		return nil, err
	}

	radius := distance / earthRadius
	bootcamps, err := s.bootcamps.ListWithinRadius(ctx, loc.Lat, loc.Lng, radius)
	if err != nil {
		s.logger.Error().Err(err).Str("zipcode", zipcode).Msg("failed to search bootcamps in radius")
		return nil, err
	}
	return bootcamps, nil
}

// PhotoUpload describes an incoming photo file.
type PhotoUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Content     io.Reader
}

// UploadPhoto validates and stores a bootcamp photo, then records the
// generated filename on the bootcamp.
func (s *BootcampService) UploadPhoto(ctx context.Context, actor *domain.User, id uuid.UUID, upload PhotoUpload) (string, error) {
	b, err := s.bootcamps.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if !canModify(actor, b.OwnerID) {
		return "", domain.ErrOwnershipRequired
	}

	if upload.Content == nil || upload.Size == 0 {
		return "", domain.ErrMissingUploadFile
	}
	if !strings.HasPrefix(upload.ContentType, "image/") {
		return "", domain.ErrUploadNotImage
	}
	if upload.Size > s.maxPhotoSize {
		return "", fmt.Errorf("%w: limit is %d bytes", domain.ErrUploadTooLarge, s.maxPhotoSize)
	}

	filename := fmt.Sprintf("photo_%s%s", b.ID, filepath.Ext(upload.Filename))
	if err := s.photos.Store(ctx, filename, upload.Content, upload.Size); err != nil {
		s.logger.Error().Err(err).Str("bootcamp_id", id.String()).Msg("failed to store photo")
		return "", err
	}

	if err := s.bootcamps.UpdatePhoto(ctx, id, filename); err != nil {
		return "", err
	}

	s.logger.Info().Str("bootcamp_id", id.String()).Str("photo", filename).Msg("photo uploaded")
	return filename, nil
}

// canModify reports whether the actor may mutate a resource with the given
// owner. Admins may mutate anything.
func canModify(actor *domain.User, ownerID uuid.UUID) bool {
	return actor.IsAdmin() || actor.ID == ownerID
}

// applyBootcampInput copies the present input fields onto the bootcamp.
func applyBootcampInput(b *domain.Bootcamp, input BootcampInput) {
	if input.Name != nil {
		b.Name = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		b.Description = strings.TrimSpace(*input.Description)
	}
	if input.Website != nil {
		b.Website = *input.Website
	}
	if input.Phone != nil {
		b.Phone = *input.Phone
	}
	if input.Email != nil {
		b.Email = *input.Email
	}
	if input.Address != nil {
		b.Address = *input.Address
	}
	if input.Careers != nil {
		b.Careers = input.Careers
	}
	if input.Housing != nil {
		b.Housing = *input.Housing
	}
	if input.JobAssistance != nil {
		b.JobAssistance = *input.JobAssistance
	}
	if input.JobGuarantee != nil {
		b.JobGuarantee = *input.JobGuarantee
	}
	if input.AcceptGI != nil {
		b.AcceptGI = *input.AcceptGI
	}
}

func applyLocation(b *domain.Bootcamp, loc *geocode.Location) {
	b.Location = domain.Location{
		Lat:              loc.Lat,
		Lng:              loc.Lng,
		FormattedAddress: loc.FormattedAddress,
		Street:           loc.Street,
		City:             loc.City,
		State:            loc.State,
		Zipcode:          loc.Zipcode,
		Country:          loc.Country,
	}
}

// validateBootcampInput checks the semantic rules. On create the required
// fields must be present; on update only present fields are checked.
func validateBootcampInput(input BootcampInput, isCreate bool) error {
	var messages []string

	if isCreate {
		if input.Name == nil || strings.TrimSpace(*input.Name) == "" {
			messages = append(messages, "Please add a name")
		}
		if input.Description == nil || strings.TrimSpace(*input.Description) == "" {
			messages = append(messages, "Please add a description")
		}
		if input.Address == nil || strings.TrimSpace(*input.Address) == "" {
			messages = append(messages, "Please add an address")
		}
	} else {
		if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
			messages = append(messages, "Name can not be empty")
		}
		if input.Description != nil && strings.TrimSpace(*input.Description) == "" {
			messages = append(messages, "Description can not be empty")
		}
	}

	for _, career := range input.Careers {
		if !validCareer(career) {
			messages = append(messages, fmt.Sprintf("'%s' is not a supported career", career))
		}
	}

	if len(messages) > 0 {
		return domain.NewValidationError(messages...)
	}
	return nil
}

func validCareer(career string) bool {
	for _, c := range domain.ValidCareers {
		if c == career {
			return true
		}
	}
	return false
}

// errIsNotFound reports whether the error is any not-found kind.
func errIsNotFound(err error) bool {
	return errors.Is(err, domain.ErrNotFound)
}
