package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
)

func newReviewService() (*ReviewService, *MockBootcampRepository, *MockReviewRepository) {
	repos, bootcamps, _, reviews, _ := testRepos()
	svc := NewReviewService(repos, zerolog.Nop())
	return svc, bootcamps, reviews
}

func reviewInput(rating int) ReviewInput {
	return ReviewInput{
		Title:  strPtr("Great course"),
		Text:   strPtr("Learned a lot"),
		Rating: intPtr(rating),
	}
}

func regularUser() *domain.User {
	return &domain.User{ID: uuid.New(), Role: domain.RoleUser}
}

func TestReviewService_CreateRecomputesAverageRating(t *testing.T) {
	svc, bootcamps, _ := newReviewService()
	b := seedBootcamp(bootcamps, publisher())
	ctx := context.Background()

	if _, err := svc.Create(ctx, regularUser(), b.ID, reviewInput(8)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := svc.Create(ctx, regularUser(), b.ID, reviewInput(6)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if b.AverageRating != 7 {
		t.Errorf("AverageRating = %v, want 7", b.AverageRating)
	}
}

func TestReviewService_CreateDuplicate(t *testing.T) {
	svc, bootcamps, _ := newReviewService()
	b := seedBootcamp(bootcamps, publisher())
	user := regularUser()
	ctx := context.Background()

	if _, err := svc.Create(ctx, user, b.ID, reviewInput(8)); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err := svc.Create(ctx, user, b.ID, reviewInput(9))
	if !errors.Is(err, domain.ErrDuplicateReview) {
		t.Errorf("Create() second error = %v, want ErrDuplicateReview", err)
	}
}

func TestReviewService_CreateMissingBootcamp(t *testing.T) {
	svc, _, _ := newReviewService()

	_, err := svc.Create(context.Background(), regularUser(), uuid.New(), reviewInput(8))
	if !errors.Is(err, domain.ErrBootcampNotFound) {
		t.Errorf("Create() error = %v, want ErrBootcampNotFound", err)
	}
}

func TestReviewService_CreateRatingBounds(t *testing.T) {
	svc, bootcamps, _ := newReviewService()
	b := seedBootcamp(bootcamps, publisher())

	for _, rating := range []int{0, 11, -1} {
		_, err := svc.Create(context.Background(), regularUser(), b.ID, reviewInput(rating))
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("Create(rating=%d) error = %v, want ErrValidation", rating, err)
		}
	}
}

func TestReviewService_UpdateOwnership(t *testing.T) {
	svc, bootcamps, _ := newReviewService()
	b := seedBootcamp(bootcamps, publisher())
	author := regularUser()
	ctx := context.Background()

	rev, err := svc.Create(ctx, author, b.ID, reviewInput(8))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Update(ctx, regularUser(), rev.ID, ReviewInput{Rating: intPtr(1)}); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Update() by stranger error = %v, want ErrForbidden", err)
	}

	updated, err := svc.Update(ctx, author, rev.ID, ReviewInput{Rating: intPtr(9)})
	if err != nil {
		t.Fatalf("Update() by author error = %v", err)
	}
	if updated.Rating != 9 {
		t.Errorf("Rating = %d, want 9", updated.Rating)
	}
	if b.AverageRating != 9 {
		t.Errorf("AverageRating = %v, want 9", b.AverageRating)
	}

	if _, err := svc.Update(ctx, admin(), rev.ID, ReviewInput{Rating: intPtr(2)}); err != nil {
		t.Errorf("Update() by admin error = %v", err)
	}
}

func TestReviewService_DeleteClearsAverage(t *testing.T) {
	svc, bootcamps, _ := newReviewService()
	b := seedBootcamp(bootcamps, publisher())
	author := regularUser()
	ctx := context.Background()

	rev, err := svc.Create(ctx, author, b.ID, reviewInput(8))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := svc.Delete(ctx, author, rev.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if b.AverageRating != 0 {
		t.Errorf("AverageRating = %v, want 0 after last review removed", b.AverageRating)
	}
}
