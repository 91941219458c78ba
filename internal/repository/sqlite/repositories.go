package sqlite

import "github.com/campstack/campstack/internal/repository"

// NewRepositories builds the full repository set over one SQLite connection.
func NewRepositories(db *DB) *repository.Repositories {
	return &repository.Repositories{
		Bootcamps: NewBootcampRepository(db),
		Courses:   NewCourseRepository(db),
		Reviews:   NewReviewRepository(db),
		Users:     NewUserRepository(db),
	}
}
