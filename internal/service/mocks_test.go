package service

import (
	"context"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/geocode"
	"github.com/campstack/campstack/internal/mail"
	"github.com/campstack/campstack/internal/repository"
)

// MockBootcampRepository is a map-backed repository.BootcampRepository.
type MockBootcampRepository struct {
	bootcamps map[uuid.UUID]*domain.Bootcamp

	createErr error
	getErr    error
}

func NewMockBootcampRepository() *MockBootcampRepository {
	return &MockBootcampRepository{bootcamps: make(map[uuid.UUID]*domain.Bootcamp)}
}

func (m *MockBootcampRepository) Create(ctx context.Context, b *domain.Bootcamp) error {
	if m.createErr != nil {
		return m.createErr
	}
	for _, existing := range m.bootcamps {
		if existing.Name == b.Name {
			return domain.ErrDuplicateField
		}
	}
	m.bootcamps[b.ID] = b
	return nil
}

func (m *MockBootcampRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Bootcamp, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if b, ok := m.bootcamps[id]; ok {
		return b, nil
	}
	return nil, domain.ErrBootcampNotFound
}

func (m *MockBootcampRepository) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Bootcamp], error) {
	var items []*domain.Bootcamp
	for _, b := range m.bootcamps {
		items = append(items, b)
	}
	return &repository.ListResult[domain.Bootcamp]{Items: items, Total: int64(len(items))}, nil
}

func (m *MockBootcampRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Bootcamp, error) {
	var items []*domain.Bootcamp
	for _, id := range ids {
		if b, ok := m.bootcamps[id]; ok {
			items = append(items, b)
		}
	}
	return items, nil
}

func (m *MockBootcampRepository) ListWithinRadius(ctx context.Context, lat, lng, radiusRad float64) ([]*domain.Bootcamp, error) {
	var items []*domain.Bootcamp
	for _, b := range m.bootcamps {
		if repository.AngularDistance(lat, lng, b.Location.Lat, b.Location.Lng) <= radiusRad {
			items = append(items, b)
		}
	}
	return items, nil
}

func (m *MockBootcampRepository) CountByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var count int64
	for _, b := range m.bootcamps {
		if b.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (m *MockBootcampRepository) Update(ctx context.Context, b *domain.Bootcamp) error {
	if _, ok := m.bootcamps[b.ID]; !ok {
		return domain.ErrBootcampNotFound
	}
	m.bootcamps[b.ID] = b
	return nil
}

func (m *MockBootcampRepository) UpdatePhoto(ctx context.Context, id uuid.UUID, filename string) error {
	b, ok := m.bootcamps[id]
	if !ok {
		return domain.ErrBootcampNotFound
	}
	b.Photo = filename
	return nil
}

func (m *MockBootcampRepository) SetAverages(ctx context.Context, id uuid.UUID, rating, cost *float64) error {
	b, ok := m.bootcamps[id]
	if !ok {
		return domain.ErrBootcampNotFound
	}
	if rating != nil {
		b.AverageRating = *rating
	}
	if cost != nil {
		b.AverageCost = *cost
	}
	return nil
}

func (m *MockBootcampRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.bootcamps[id]; !ok {
		return domain.ErrBootcampNotFound
	}
	delete(m.bootcamps, id)
	return nil
}

// MockCourseRepository is a map-backed repository.CourseRepository.
type MockCourseRepository struct {
	courses map[uuid.UUID]*domain.Course
}

func NewMockCourseRepository() *MockCourseRepository {
	return &MockCourseRepository{courses: make(map[uuid.UUID]*domain.Course)}
}

func (m *MockCourseRepository) Create(ctx context.Context, c *domain.Course) error {
	m.courses[c.ID] = c
	return nil
}

func (m *MockCourseRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, domain.ErrCourseNotFound
}

func (m *MockCourseRepository) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Course], error) {
	var items []*domain.Course
	for _, c := range m.courses {
		items = append(items, c)
	}
	return &repository.ListResult[domain.Course]{Items: items, Total: int64(len(items))}, nil
}

func (m *MockCourseRepository) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]*domain.Course, error) {
	var items []*domain.Course
	for _, c := range m.courses {
		if c.BootcampID == bootcampID {
			items = append(items, c)
		}
	}
	return items, nil
}

func (m *MockCourseRepository) Update(ctx context.Context, c *domain.Course) error {
	if _, ok := m.courses[c.ID]; !ok {
		return domain.ErrCourseNotFound
	}
	m.courses[c.ID] = c
	return nil
}

func (m *MockCourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.courses[id]; !ok {
		return domain.ErrCourseNotFound
	}
	delete(m.courses, id)
	return nil
}

func (m *MockCourseRepository) AverageTuition(ctx context.Context, bootcampID uuid.UUID) (float64, int64, error) {
	var sum float64
	var count int64
	for _, c := range m.courses {
		if c.BootcampID == bootcampID {
			sum += c.Tuition
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

// MockReviewRepository is a map-backed repository.ReviewRepository.
type MockReviewRepository struct {
	reviews map[uuid.UUID]*domain.Review
}

func NewMockReviewRepository() *MockReviewRepository {
	return &MockReviewRepository{reviews: make(map[uuid.UUID]*domain.Review)}
}

func (m *MockReviewRepository) Create(ctx context.Context, r *domain.Review) error {
	for _, existing := range m.reviews {
		if existing.BootcampID == r.BootcampID && existing.UserID == r.UserID {
			return domain.ErrDuplicateReview
		}
	}
	m.reviews[r.ID] = r
	return nil
}

func (m *MockReviewRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Review, error) {
	if r, ok := m.reviews[id]; ok {
		return r, nil
	}
	return nil, domain.ErrReviewNotFound
}

func (m *MockReviewRepository) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.Review], error) {
	var items []*domain.Review
	for _, r := range m.reviews {
		items = append(items, r)
	}
	return &repository.ListResult[domain.Review]{Items: items, Total: int64(len(items))}, nil
}

func (m *MockReviewRepository) ListByBootcamp(ctx context.Context, bootcampID uuid.UUID) ([]*domain.Review, error) {
	var items []*domain.Review
	for _, r := range m.reviews {
		if r.BootcampID == bootcampID {
			items = append(items, r)
		}
	}
	return items, nil
}

func (m *MockReviewRepository) Update(ctx context.Context, r *domain.Review) error {
	if _, ok := m.reviews[r.ID]; !ok {
		return domain.ErrReviewNotFound
	}
	m.reviews[r.ID] = r
	return nil
}

func (m *MockReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.reviews[id]; !ok {
		return domain.ErrReviewNotFound
	}
	delete(m.reviews, id)
	return nil
}

func (m *MockReviewRepository) AverageRating(ctx context.Context, bootcampID uuid.UUID) (float64, int64, error) {
	var sum float64
	var count int64
	for _, r := range m.reviews {
		if r.BootcampID == bootcampID {
			sum += float64(r.Rating)
			count++
		}
	}
	if count == 0 {
		return 0, 0, nil
	}
	return sum / float64(count), count, nil
}

// MockUserRepository is a map-backed repository.UserRepository.
type MockUserRepository struct {
	users map[uuid.UUID]*domain.User
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *MockUserRepository) Create(ctx context.Context, u *domain.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	m.users[u.ID] = u
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, tokenHash string) (*domain.User, error) {
	for _, u := range m.users {
		if u.ResetPasswordToken != "" && u.ResetPasswordToken == tokenHash {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) List(ctx context.Context, q repository.ShapedQuery) (*repository.ListResult[domain.User], error) {
	var items []*domain.User
	for _, u := range m.users {
		items = append(items, u)
	}
	return &repository.ListResult[domain.User]{Items: items, Total: int64(len(items))}, nil
}

func (m *MockUserRepository) Update(ctx context.Context, u *domain.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	m.users[u.ID] = u
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.users[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// MockGeocoder returns a fixed location.
type MockGeocoder struct {
	location *geocode.Location
	err      error
	calls    int
}

func (m *MockGeocoder) Geocode(ctx context.Context, address string) (*geocode.Location, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.location != nil {
		return m.location, nil
	}
	return &geocode.Location{Lat: 42.35, Lng: -71.06, City: "Boston"}, nil
}

// MockStorage records stored files in memory.
type MockStorage struct {
	mu    sync.Mutex
	files map[string][]byte

	storeErr error
}

func NewMockStorage() *MockStorage {
	return &MockStorage{files: make(map[string][]byte)}
}

func (m *MockStorage) Store(ctx context.Context, filename string, reader io.Reader, size int64) error {
	if m.storeErr != nil {
		return m.storeErr
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[filename] = content
	return nil
}

func (m *MockStorage) Retrieve(ctx context.Context, filename string) (io.ReadCloser, error) {
	return nil, nil
}

func (m *MockStorage) Delete(ctx context.Context, filename string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, filename)
	return nil
}

func (m *MockStorage) Exists(ctx context.Context, filename string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[filename]
	return ok, nil
}

// MockMailer records sent messages.
type MockMailer struct {
	sent    []mail.Message
	sendErr error
}

func (m *MockMailer) Send(ctx context.Context, msg mail.Message) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// testRepos bundles fresh mocks into a repository set.
func testRepos() (*repository.Repositories, *MockBootcampRepository, *MockCourseRepository, *MockReviewRepository, *MockUserRepository) {
	bootcamps := NewMockBootcampRepository()
	courses := NewMockCourseRepository()
	reviews := NewMockReviewRepository()
	users := NewMockUserRepository()
	return &repository.Repositories{
		Bootcamps: bootcamps,
		Courses:   courses,
		Reviews:   reviews,
		Users:     users,
	}, bootcamps, courses, reviews, users
}
