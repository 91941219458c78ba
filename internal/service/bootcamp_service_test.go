package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/geocode"
)

func strPtr(s string) *string    { return &s }
func intPtr(i int) *int          { return &i }
func floatPtr(f float64) *float64 { return &f }
func boolPtr(b bool) *bool       { return &b }

const testMaxPhotoSize = 1 << 20

func newBootcampService() (*BootcampService, *MockBootcampRepository, *MockGeocoder, *MockStorage) {
	repos, bootcamps, _, _, _ := testRepos()
	geocoder := &MockGeocoder{}
	photos := NewMockStorage()
	svc := NewBootcampService(repos, geocoder, photos, testMaxPhotoSize, zerolog.Nop())
	return svc, bootcamps, geocoder, photos
}

func publisher() *domain.User {
	return &domain.User{ID: uuid.New(), Role: domain.RolePublisher}
}

func admin() *domain.User {
	return &domain.User{ID: uuid.New(), Role: domain.RoleAdmin}
}

func createInput(name string) BootcampInput {
	return BootcampInput{
		Name:        strPtr(name),
		Description: strPtr("Learn to code"),
		Address:     strPtr("8 Boston St, Boston MA"),
		Careers:     []string{"Web Development"},
	}
}

func TestBootcampService_Create(t *testing.T) {
	svc, _, geocoder, _ := newBootcampService()
	actor := publisher()

	b, err := svc.Create(context.Background(), actor, createInput("Devworks"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if b.Name != "Devworks" {
		t.Errorf("Name = %q", b.Name)
	}
	if b.OwnerID != actor.ID {
		t.Errorf("OwnerID = %v, want %v", b.OwnerID, actor.ID)
	}
	if b.Photo != domain.DefaultPhoto {
		t.Errorf("Photo = %q, want default", b.Photo)
	}
	if geocoder.calls != 1 {
		t.Errorf("geocoder calls = %d, want 1", geocoder.calls)
	}
	if b.Location.Lat == 0 || b.Location.City != "Boston" {
		t.Errorf("Location = %+v, want geocoded", b.Location)
	}
}

func TestBootcampService_CreateSecondBootcampConflict(t *testing.T) {
	svc, _, _, _ := newBootcampService()
	actor := publisher()
	ctx := context.Background()

	if _, err := svc.Create(ctx, actor, createInput("First")); err != nil {
		t.Fatalf("Create() first error = %v", err)
	}

	_, err := svc.Create(ctx, actor, createInput("Second"))
	if !errors.Is(err, domain.ErrBootcampAlreadyOwned) {
		t.Errorf("Create() second error = %v, want ErrBootcampAlreadyOwned", err)
	}
}

func TestBootcampService_CreateAdminUnlimited(t *testing.T) {
	svc, _, _, _ := newBootcampService()
	actor := admin()
	ctx := context.Background()

	for _, name := range []string{"First", "Second", "Third"} {
		if _, err := svc.Create(ctx, actor, createInput(name)); err != nil {
			t.Fatalf("Create(%q) error = %v", name, err)
		}
	}
}

func TestBootcampService_CreateValidation(t *testing.T) {
	svc, _, _, _ := newBootcampService()

	tests := []struct {
		name  string
		input BootcampInput
	}{
		{name: "missing everything", input: BootcampInput{}},
		{name: "blank name", input: BootcampInput{
			Name:        strPtr("  "),
			Description: strPtr("d"),
			Address:     strPtr("a"),
		}},
		{name: "unknown career", input: BootcampInput{
			Name:        strPtr("Devworks"),
			Description: strPtr("d"),
			Address:     strPtr("a"),
			Careers:     []string{"Underwater Basket Weaving"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), publisher(), tt.input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestBootcampService_UpdateOwnership(t *testing.T) {
	svc, _, _, _ := newBootcampService()
	owner := publisher()
	ctx := context.Background()

	b, err := svc.Create(ctx, owner, createInput("Devworks"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	// A different publisher may not touch it.
	_, err = svc.Update(ctx, publisher(), b.ID, BootcampInput{Name: strPtr("Hijacked")})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("Update() by stranger error = %v, want ErrForbidden", err)
	}

	// The owner may.
	updated, err := svc.Update(ctx, owner, b.ID, BootcampInput{Name: strPtr("Devworks 2")})
	if err != nil {
		t.Fatalf("Update() by owner error = %v", err)
	}
	if updated.Name != "Devworks 2" {
		t.Errorf("Name = %q", updated.Name)
	}

	// So may an admin.
	if _, err := svc.Update(ctx, admin(), b.ID, BootcampInput{Name: strPtr("Devworks 3")}); err != nil {
		t.Errorf("Update() by admin error = %v", err)
	}
}

func TestBootcampService_UpdateRegeocodesChangedAddress(t *testing.T) {
	svc, _, geocoder, _ := newBootcampService()
	owner := publisher()
	ctx := context.Background()

	b, err := svc.Create(ctx, owner, createInput("Devworks"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	before := geocoder.calls
	if _, err := svc.Update(ctx, owner, b.ID, BootcampInput{Description: strPtr("new text")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if geocoder.calls != before {
		t.Error("Update() without address change should not geocode")
	}

	if _, err := svc.Update(ctx, owner, b.ID, BootcampInput{Address: strPtr("1 Main St, Denver CO")}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if geocoder.calls != before+1 {
		t.Error("Update() with address change should geocode once")
	}
}

func TestBootcampService_DeleteRemovesPhoto(t *testing.T) {
	svc, bootcamps, _, photos := newBootcampService()
	owner := publisher()
	ctx := context.Background()

	b, err := svc.Create(ctx, owner, createInput("Devworks"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	filename, err := svc.UploadPhoto(ctx, owner, b.ID, PhotoUpload{
		Filename:    "shot.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Content:     strings.NewReader("abcd"),
	})
	if err != nil {
		t.Fatalf("UploadPhoto() error = %v", err)
	}

	if err := svc.Delete(ctx, owner, b.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := bootcamps.GetByID(ctx, b.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want not found", err)
	}
	if exists, _ := photos.Exists(ctx, filename); exists {
		t.Error("photo should be removed with the bootcamp")
	}
}

func TestBootcampService_UploadPhoto(t *testing.T) {
	svc, _, _, _ := newBootcampService()
	owner := publisher()
	ctx := context.Background()

	b, err := svc.Create(ctx, owner, createInput("Devworks"))
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	tests := []struct {
		name    string
		actor   *domain.User
		upload  PhotoUpload
		wantErr error
	}{
		{
			name:  "valid upload",
			actor: owner,
			upload: PhotoUpload{
				Filename: "shot.jpg", ContentType: "image/jpeg",
				Size: 4, Content: strings.NewReader("abcd"),
			},
		},
		{
			name:    "missing file",
			actor:   owner,
			upload:  PhotoUpload{},
			wantErr: domain.ErrMissingUploadFile,
		},
		{
			name:  "not an image",
			actor: owner,
			upload: PhotoUpload{
				Filename: "notes.txt", ContentType: "text/plain",
				Size: 4, Content: strings.NewReader("abcd"),
			},
			wantErr: domain.ErrUploadNotImage,
		},
		{
			name:  "too large",
			actor: owner,
			upload: PhotoUpload{
				Filename: "huge.png", ContentType: "image/png",
				Size: testMaxPhotoSize + 1, Content: strings.NewReader("x"),
			},
			wantErr: domain.ErrUploadTooLarge,
		},
		{
			name:  "stranger forbidden",
			actor: publisher(),
			upload: PhotoUpload{
				Filename: "shot.jpg", ContentType: "image/jpeg",
				Size: 4, Content: strings.NewReader("abcd"),
			},
			wantErr: domain.ErrForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filename, err := svc.UploadPhoto(ctx, tt.actor, b.ID, tt.upload)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("UploadPhoto() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("UploadPhoto() error = %v", err)
			}
			want := "photo_" + b.ID.String() + ".jpg"
			if filename != want {
				t.Errorf("filename = %q, want %q", filename, want)
			}
		})
	}
}

func TestBootcampService_WithinRadius(t *testing.T) {
	svc, bootcamps, geocoder, _ := newBootcampService()
	ctx := context.Background()

	// Geocoder pins the search center to Boston.
	geocoder.location = &geocode.Location{Lat: 42.35, Lng: -71.06}

	near := domain.NewBootcamp(uuid.New())
	near.Name = "Near"
	near.Location = domain.Location{Lat: 42.36, Lng: -71.05}
	bootcamps.bootcamps[near.ID] = near

	far := domain.NewBootcamp(uuid.New())
	far.Name = "Far"
	far.Location = domain.Location{Lat: 40.71, Lng: -74.00} // New York
	bootcamps.bootcamps[far.ID] = far

	found, err := svc.WithinRadius(ctx, "02101", 10, "mi")
	if err != nil {
		t.Fatalf("WithinRadius() error = %v", err)
	}
	if len(found) != 1 || found[0].Name != "Near" {
		t.Errorf("WithinRadius() = %v bootcamps, want just Near", len(found))
	}

	// A 250 mile radius picks up New York too.
	found, err = svc.WithinRadius(ctx, "02101", 250, "mi")
	if err != nil {
		t.Fatalf("WithinRadius() error = %v", err)
	}
	if len(found) != 2 {
		t.Errorf("WithinRadius(250mi) = %d bootcamps, want 2", len(found))
	}

	// Zero distance matches only a bootcamp at the exact center point.
	found, err = svc.WithinRadius(ctx, "02101", 0, "mi")
	if err != nil {
		t.Fatalf("WithinRadius(0) error = %v", err)
	}
	if len(found) != 0 {
		t.Errorf("WithinRadius(0) = %d bootcamps, want 0", len(found))
	}

	exact := domain.NewBootcamp(uuid.New())
	exact.Name = "Exact"
	exact.Location = domain.Location{Lat: 42.35, Lng: -71.06}
	bootcamps.bootcamps[exact.ID] = exact

	found, err = svc.WithinRadius(ctx, "02101", 0, "mi")
	if err != nil {
		t.Fatalf("WithinRadius(0) error = %v", err)
	}
	if len(found) != 1 || found[0].Name != "Exact" {
		t.Errorf("WithinRadius(0) = %v, want just Exact", len(found))
	}
}

func TestBootcampService_WithinRadiusInvalidDistance(t *testing.T) {
	svc, _, _, _ := newBootcampService()

	if _, err := svc.WithinRadius(context.Background(), "02101", -5, "mi"); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("WithinRadius(-5) error = %v, want ErrValidation", err)
	}
}
