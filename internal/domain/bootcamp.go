package domain

import (
	"time"

	"github.com/google/uuid"
)

// Career tags a bootcamp can list.
var ValidCareers = []string{
	"Web Development",
	"Mobile Development",
	"UI/UX",
	"Data Science",
	"Business",
	"Other",
}

// Location is a geocoded address. Lat/Lng drive the radius search; the
// remaining fields are the formatted output of the geocoding collaborator.
type Location struct {
	Lat              float64 `json:"lat"`
	Lng              float64 `json:"lng"`
	FormattedAddress string  `json:"formattedAddress,omitempty"`
	Street           string  `json:"street,omitempty"`
	City             string  `json:"city,omitempty"`
	State            string  `json:"state,omitempty"`
	Zipcode          string  `json:"zipcode,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// Bootcamp is the root aggregate: a listed training program.
// AverageRating and AverageCost are derived from reviews and courses and are
// never written directly by request payloads.
type Bootcamp struct {
	// ID is the unique identifier for the bootcamp.
	ID uuid.UUID `json:"id"`

	// Name is the display name. Unique across bootcamps.
	Name string `json:"name"`

	// Description is the long-form listing text.
	Description string `json:"description"`

	// Website is the bootcamp's URL.
	Website string `json:"website,omitempty"`

	// Phone is the contact phone number.
	Phone string `json:"phone,omitempty"`

	// Email is the contact address.
	Email string `json:"email,omitempty"`

	// Address is the raw address submitted on create; the geocoded result
	// lives in Location.
	Address string `json:"-"`

	// Careers are the program categories offered.
	Careers []string `json:"careers"`

	// Location is the geocoded position used for radius search.
	Location Location `json:"location"`

	// AverageRating is derived from reviews (1..10). Zero until reviewed.
	AverageRating float64 `json:"averageRating,omitempty"`

	// AverageCost is derived from course tuition. Zero until courses exist.
	AverageCost float64 `json:"averageCost,omitempty"`

	// Photo is the stored photo filename, "no-photo.jpg" until uploaded.
	Photo string `json:"photo"`

	// Housing, JobAssistance, JobGuarantee and AcceptGI are published flags.
	Housing       bool `json:"housing"`
	JobAssistance bool `json:"jobAssistance"`
	JobGuarantee  bool `json:"jobGuarantee"`
	AcceptGI      bool `json:"acceptGi"`

	// OwnerID references the user that published the bootcamp.
	OwnerID uuid.UUID `json:"user"`

	// CreatedAt is the timestamp when the bootcamp was created.
	CreatedAt time.Time `json:"createdAt"`
}

// DefaultPhoto is the placeholder filename before an upload.
const DefaultPhoto = "no-photo.jpg"

// NewBootcamp creates a Bootcamp owned by the given user.
func NewBootcamp(ownerID uuid.UUID) *Bootcamp {
	return &Bootcamp{
		ID:        uuid.New(),
		Photo:     DefaultPhoto,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
}

// OwnedBy reports whether the given user owns this bootcamp.
func (b *Bootcamp) OwnedBy(userID uuid.UUID) bool {
	return b.OwnerID == userID
}
