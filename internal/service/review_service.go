package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// ReviewService manages bootcamp reviews.
type ReviewService struct {
	reviews   repository.ReviewRepository
	bootcamps repository.BootcampRepository
	logger    zerolog.Logger
}

// NewReviewService creates a new ReviewService.
func NewReviewService(repos *repository.Repositories, logger zerolog.Logger) *ReviewService {
	return &ReviewService{
		reviews:   repos.Reviews,
		bootcamps: repos.Bootcamps,
		logger:    logger.With().Str("service", "review").Logger(),
	}
}

// ReviewInput carries the writable review fields.
type ReviewInput struct {
	Title  *string
	Text   *string
	Rating *int
}

// List returns reviews matching a shaped query.
func (s *ReviewService) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Review], error) {
	result, err := s.reviews.List(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list reviews")
		return nil, err
	}
	return result, nil
}

// ListByBootcamp returns the reviews of one bootcamp. The bootcamp must
// exist.
func (s *ReviewService) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]*domain.Review, error) {
	if _, err := s.bootcamps.GetByID(ctx, bootcampID); err != nil {
		return nil, err
	}
	return s.reviews.ListByBootcamp(ctx, bootcampID)
}

// Get retrieves a single review.
func (s *ReviewService) Get(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	return s.reviews.GetByID(ctx, id)
}

// Create adds the actor's review of a bootcamp. One review per user per
// bootcamp.
func (s *ReviewService) Create(ctx context.Context, actor *domain.User, bootcampID uuid.UUID, input ReviewInput) (*domain.Review, error) {
	if err := validateReviewInput(input, true); err != nil {
		return nil, err
	}

	if _, err := s.bootcamps.GetByID(ctx, bootcampID); err != nil {
		return nil, err
	}

	rev := domain.NewReview(bootcampID, actor.ID)
	applyReviewInput(rev, input)

	if err := s.reviews.Create(ctx, rev); err != nil {
		return nil, err
	}
	if err := s.recomputeAverageRating(ctx, bootcampID); err != nil {
		s.logger.Error().Err(err).Str("bootcamp_id", bootcampID.String()).Msg("failed to recompute average rating")
	}

	s.logger.Info().
		Str("review_id", rev.ID.String()).
		Str("bootcamp_id", bootcampID.String()).
		Str("user_id", actor.ID.String()).
		Msg("review created")

	return rev, nil
}

// Update modifies a review the actor authored (or any, for admins).
func (s *ReviewService) Update(ctx context.Context, actor *domain.User, id uuid.UUID, input ReviewInput) (*domain.Review, error) {
	if err := validateReviewInput(input, false); err != nil {
		return nil, err
	}

	rev, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, rev.UserID) {
		return nil, domain.ErrOwnershipRequired
	}

	applyReviewInput(rev, input)

	if err := s.reviews.Update(ctx, rev); err != nil {
		return nil, err
	}
	if input.Rating != nil {
		if err := s.recomputeAverageRating(ctx, rev.BootcampID); err != nil {
			s.logger.Error().Err(err).Str("bootcamp_id", rev.BootcampID.String()).Msg("failed to recompute average rating")
		}
	}

	s.logger.Info().Str("review_id", rev.ID.String()).Msg("review updated")
	return rev, nil
}

// Delete removes a review the actor authored (or any, for admins).
func (s *ReviewService) Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	rev, err := s.reviews.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canModify(actor, rev.UserID) {
		return domain.ErrOwnershipRequired
	}

	if err := s.reviews.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.recomputeAverageRating(ctx, rev.BootcampID); err != nil {
		s.logger.Error().Err(err).Str("bootcamp_id", rev.BootcampID.String()).Msg("failed to recompute average rating")
	}

	s.logger.Info().Str("review_id", id.String()).Msg("review deleted")
	return nil
}

// recomputeAverageRating refreshes the bootcamp's derived rating. Zero
// reviews clears the average.
func (s *ReviewService) recomputeAverageRating(ctx context.Context, bootcampID uuid.UUID) error {
	avg, count, err := s.reviews.AverageRating(ctx, bootcampID)
	if err != nil {
		return err
	}

	rating := 0.0
	if count > 0 {
		rating = avg
	}
	return s.bootcamps.SetAverages(ctx, bootcampID, &rating, nil)
}

func applyReviewInput(rev *domain.Review, input ReviewInput) {
	if input.Title != nil {
		rev.Title = strings.TrimSpace(*input.Title)
	}
	if input.Text != nil {
		rev.Text = strings.TrimSpace(*input.Text)
	}
	if input.Rating != nil {
		rev.Rating = *input.Rating
	}
}

func validateReviewInput(input ReviewInput, isCreate bool) error {
	var messages []string

	if isCreate {
		if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
			messages = append(messages, "Please add a title for the review")
		}
		if input.Text == nil || strings.TrimSpace(*input.Text) == "" {
			messages = append(messages, "Please add some text")
		}
		if input.Rating == nil {
			messages = append(messages, "Please add a rating between 1 and 10")
		}
	}

	if input.Rating != nil && (*input.Rating < domain.MinRating || *input.Rating > domain.MaxRating) {
		messages = append(messages, fmt.Sprintf("Rating must be between %d and %d", domain.MinRating, domain.MaxRating))
	}

	if len(messages) > 0 {
		return domain.NewValidationError(messages...)
	}
	return nil
}
