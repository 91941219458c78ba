package service

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/repository"
)

// CourseService manages the courses offered by bootcamps.
type CourseService struct {
	courses   repository.CourseRepository
	bootcamps repository.BootcampRepository
	logger    zerolog.Logger
}

// NewCourseService creates a new CourseService.
func NewCourseService(repos *repository.Repositories, logger zerolog.Logger) *CourseService {
	return &CourseService{
		courses:   repos.Courses,
		bootcamps: repos.Bootcamps,
		logger:    logger.With().Str("service", "course").Logger(),
	}
}

// CourseInput carries the writable course fields.
type CourseInput struct {
	Title                *string
	Description          *string
	Weeks                *int
	Tuition              *float64
	MinimumSkill         *domain.MinimumSkill
	ScholarshipAvailable *bool
}

// List returns courses matching a shaped query.
func (s *CourseService) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Course], error) {
	result, err := s.courses.List(ctx, q)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list courses")
		return nil, err
	}
	return result, nil
}

// ListByBootcamp returns the courses of one bootcamp. The bootcamp must
// exist.
func (s *CourseService) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]*domain.Course, error) {
	if _, err := s.bootcamps.GetByID(ctx, bootcampID); err != nil {
		return nil, err
	}
	return s.courses.ListByBootcamp(ctx, bootcampID)
}

// Get retrieves a single course.
func (s *CourseService) Get(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	return s.courses.GetByID(ctx, id)
}

// Create adds a course to a bootcamp the actor owns.
func (s *CourseService) Create(ctx context.Context, actor *domain.User, bootcampID uuid.UUID, input CourseInput) (*domain.Course, error) {
	if err := validateCourseInput(input, true); err != nil {
		return nil, err
	}

	b, err := s.bootcamps.GetByID(ctx, bootcampID)
	if err != nil {
		return nil, err
	}
	if !canModify(actor, b.OwnerID) {
		return nil, domain.ErrOwnershipRequired
	}

	c := domain.NewCourse(bootcampID)
	applyCourseInput(c, input)

	if err := s.courses.Create(ctx, c); err != nil {
		return nil, err
	}
	if err := s.recomputeAverageCost(ctx, bootcampID); err != nil {
		s.logger.Error().Err(err).Str("bootcamp_id", bootcampID.String()).Msg("failed to recompute average cost")
	}

	s.logger.Info().
		Str("course_id", c.ID.String()).
		Str("bootcamp_id", bootcampID.String()).
		Msg("course created")

	return c, nil
}

// Update modifies a course belonging to a bootcamp the actor owns.
func (s *CourseService) Update(ctx context.Context, actor *domain.User, id uuid.UUID, input CourseInput) (*domain.Course, error) {
	if err := validateCourseInput(input, false); err != nil {
		return nil, err
	}

	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeCourse(ctx, actor, c); err != nil {
		return nil, err
	}

	applyCourseInput(c, input)

	if err := s.courses.Update(ctx, c); err != nil {
		return nil, err
	}
	if input.Tuition != nil {
		if err := s.recomputeAverageCost(ctx, c.BootcampID); err != nil {
			s.logger.Error().Err(err).Str("bootcamp_id", c.BootcampID.String()).Msg("failed to recompute average cost")
		}
	}

	s.logger.Info().Str("course_id", c.ID.String()).Msg("course updated")
	return c, nil
}

// Delete removes a course belonging to a bootcamp the actor owns.
func (s *CourseService) Delete(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	c, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeCourse(ctx, actor, c); err != nil {
		return err
	}

	if err := s.courses.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.recomputeAverageCost(ctx, c.BootcampID); err != nil {
		s.logger.Error().Err(err).Str("bootcamp_id", c.BootcampID.String()).Msg("failed to recompute average cost")
	}

	s.logger.Info().Str("course_id", id.String()).Msg("course deleted")
	return nil
}

// authorizeCourse checks the actor owns the bootcamp the course belongs to.
// A missing parent counts as ownership failure rather than not-found so the
// course itself stays visible.
func (s *CourseService) authorizeCourse(ctx context.Context, actor *domain.User, c *domain.Course) error {
	b, err := s.bootcamps.GetByID(ctx, c.BootcampID)
	if err != nil {
		if errIsNotFound(err) {
			return domain.ErrOwnershipRequired
		}
		return err
	}
	if !canModify(actor, b.OwnerID) {
		return domain.ErrOwnershipRequired
	}
	return nil
}

// recomputeAverageCost refreshes the bootcamp's derived tuition average,
// rounded up to the nearest ten. Zero courses clears the average.
func (s *CourseService) recomputeAverageCost(ctx context.Context, bootcampID uuid.UUID) error {
	avg, count, err := s.courses.AverageTuition(ctx, bootcampID)
	if err != nil {
		return err
	}

	cost := 0.0
	if count > 0 {
		cost = math.Ceil(avg/10) * 10
	}
	return s.bootcamps.SetAverages(ctx, bootcampID, nil, &cost)
}

func applyCourseInput(c *domain.Course, input CourseInput) {
	if input.Title != nil {
		c.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		c.Description = strings.TrimSpace(*input.Description)
	}
	if input.Weeks != nil {
		c.Weeks = *input.Weeks
	}
	if input.Tuition != nil {
		c.Tuition = *input.Tuition
	}
	if input.MinimumSkill != nil {
		c.MinimumSkill = *input.MinimumSkill
	}
	if input.ScholarshipAvailable != nil {
		c.ScholarshipAvailable = *input.ScholarshipAvailable
	}
}

func validateCourseInput(input CourseInput, isCreate bool) error {
	var messages []string

	if isCreate {
		if input.Title == nil || strings.TrimSpace(*input.Title) == "" {
			messages = append(messages, "Please add a course title")
		}
		if input.Description == nil || strings.TrimSpace(*input.Description) == "" {
			messages = append(messages, "Please add a description")
		}
		if input.Weeks == nil {
			messages = append(messages, "Please add number of weeks")
		}
		if input.Tuition == nil {
			messages = append(messages, "Please add a tuition cost")
		}
		if input.MinimumSkill == nil {
			messages = append(messages, "Please add a minimum skill")
		}
	}

	if input.Weeks != nil && *input.Weeks <= 0 {
		messages = append(messages, "Number of weeks must be positive")
	}
	if input.Tuition != nil && *input.Tuition < 0 {
		messages = append(messages, "Tuition can not be negative")
	}
	if input.MinimumSkill != nil && !input.MinimumSkill.Valid() {
		messages = append(messages, fmt.Sprintf("'%s' is not a valid minimum skill", *input.MinimumSkill))
	}

	if len(messages) > 0 {
		return domain.NewValidationError(messages...)
	}
	return nil
}
