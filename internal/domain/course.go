package domain

import (
	"time"

	"github.com/google/uuid"
)

// MinimumSkill enumerates the entry requirement of a course.
type MinimumSkill string

const (
	SkillBeginner     MinimumSkill = "beginner"
	SkillIntermediate MinimumSkill = "intermediate"
	SkillAdvanced     MinimumSkill = "advanced"
)

// Valid reports whether the skill level is a known value.
func (s MinimumSkill) Valid() bool {
	switch s {
	case SkillBeginner, SkillIntermediate, SkillAdvanced:
		return true
	}
	return false
}

// Course is a program of study offered by a bootcamp.
type Course struct {
	// ID is the unique identifier for the course.
	ID uuid.UUID `json:"id"`

	// Title is the course name.
	Title string `json:"title"`

	// Description is the long-form course text.
	Description string `json:"description"`

	// Weeks is the course duration.
	Weeks int `json:"weeks"`

	// Tuition is the cost of the course; feeds the owning bootcamp's
	// AverageCost.
	Tuition float64 `json:"tuition"`

	// MinimumSkill is the entry requirement.
	MinimumSkill MinimumSkill `json:"minimumSkill"`

	// ScholarshipAvailable reports whether a scholarship is offered.
	ScholarshipAvailable bool `json:"scholarshipAvailable"`

	// BootcampID references the owning bootcamp.
	BootcampID uuid.UUID `json:"bootcamp"`

	// CreatedAt is the timestamp when the course was created.
	CreatedAt time.Time `json:"createdAt"`
}

// NewCourse creates a Course belonging to the given bootcamp.
func NewCourse(bootcampID uuid.UUID) *Course {
	return &Course{
		ID:         uuid.New(),
		BootcampID: bootcampID,
		CreatedAt:  time.Now().UTC(),
	}
}
