// Package integration provides end-to-end tests for the Campstack API.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/campstack/campstack/internal/auth"
	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/geocode"
	"github.com/campstack/campstack/internal/handler"
	"github.com/campstack/campstack/internal/mail"
	"github.com/campstack/campstack/internal/repository"
	"github.com/campstack/campstack/internal/repository/sqlite"
	"github.com/campstack/campstack/internal/service"
	"github.com/campstack/campstack/internal/storage"
)

// fakeGeocoder resolves every address to a fixed point per test.
type fakeGeocoder struct {
	locations map[string]geocode.Location
}

func (g *fakeGeocoder) Geocode(ctx context.Context, address string) (*geocode.Location, error) {
	if loc, ok := g.locations[address]; ok {
		return &loc, nil
	}
	return nil, domain.ErrGeocodeFailed
}

// fakeMailer captures outbound mail instead of sending it.
type fakeMailer struct {
	sent []mail.Message
}

func (m *fakeMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

type testEnv struct {
	server   *httptest.Server
	repos    *repository.Repositories
	geocoder *fakeGeocoder
	mailer   *fakeMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()
	logger := zerolog.Nop()

	db, err := sqlite.NewDB(ctx, sqlite.DefaultConfig(":memory:"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	repos := sqlite.NewRepositories(db)
	tokens := auth.NewTokenManager("integration-secret", time.Hour)
	geocoder := &fakeGeocoder{locations: map[string]geocode.Location{
		defaultAddress: {Lat: 41.88, Lng: -87.63, City: "Chicago"},
	}}
	mailer := &fakeMailer{}

	store, err := storage.NewFilesystem(t.TempDir(), logger)
	require.NoError(t, err)

	bootcampSvc := service.NewBootcampService(repos, geocoder, store, 1<<20, logger)
	courseSvc := service.NewCourseService(repos, logger)
	reviewSvc := service.NewReviewService(repos, logger)
	userSvc := service.NewUserService(repos, logger)
	authSvc := service.NewAuthService(repos, tokens, mailer, logger)

	router := handler.NewRouter(handler.RouterConfig{
		Bootcamps: handler.NewBootcampHandler(bootcampSvc, courseSvc, logger),
		Courses:   handler.NewCourseHandler(courseSvc, bootcampSvc, logger),
		Reviews:   handler.NewReviewHandler(reviewSvc, bootcampSvc, logger),
		Auth:      handler.NewAuthHandler(authSvc, time.Hour, false, logger),
		Users:     handler.NewUserHandler(userSvc, logger),
		AuthMW:    auth.NewMiddleware(tokens, repos.Users, logger),
		DB:        db,
		Logger:    logger,
	})

	server := httptest.NewServer(router.Handler())
	t.Cleanup(server.Close)

	return &testEnv{server: server, repos: repos, geocoder: geocoder, mailer: mailer}
}

// call sends a JSON request and decodes the response body into a generic map.
func (e *testEnv) call(t *testing.T, method, path, token string, payload any) (int, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, e.server.URL+path, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (e *testEnv) register(t *testing.T, name, email, role string) string {
	t.Helper()
	status, body := e.call(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"name":     name,
		"email":    email,
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, status, "register response: %v", body)
	return body["token"].(string)
}

func (e *testEnv) seedAdmin(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("adminpass"), bcrypt.DefaultCost)
	require.NoError(t, err)
	admin := domain.NewUser("Admin", "admin@campstack.dev", string(hash), domain.RoleAdmin)
	require.NoError(t, e.repos.Users.Create(context.Background(), admin))

	status, body := e.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    "admin@campstack.dev",
		"password": "adminpass",
	})
	require.Equal(t, http.StatusOK, status)
	return body["token"].(string)
}

// defaultAddress is resolvable by every test environment's fake geocoder.
const defaultAddress = "233 S Wacker Dr, Chicago IL"

func bootcampPayload(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "Learn to ship software",
		"website":     "https://example.com",
		"email":       "hello@example.com",
		"address":     defaultAddress,
		"careers":     []string{"Web Development", "Data Science"},
		"housing":     true,
	}
}

func TestBootcampLifecycle(t *testing.T) {
	env := newTestEnv(t)
	publisherToken := env.register(t, "Pat Publisher", "pat@example.com", "publisher")

	// Create
	status, body := env.call(t, http.MethodPost, "/api/v1/bootcamps", publisherToken, bootcampPayload("Devworks"))
	require.Equal(t, http.StatusCreated, status, "create response: %v", body)
	created := body["data"].(map[string]any)
	bootcampID := created["id"].(string)
	require.Equal(t, "Devworks", created["name"])
	require.Equal(t, "no-photo.jpg", created["photo"])

	// A publisher holds at most one listing.
	status, body = env.call(t, http.MethodPost, "/api/v1/bootcamps", publisherToken, bootcampPayload("Second Camp"))
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body["error"], "already published")

	// Anonymous reads work.
	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1, body["count"])

	// Anonymous writes do not.
	status, _ = env.call(t, http.MethodPut, "/api/v1/bootcamps/"+bootcampID, "", bootcampPayload("Devworks"))
	require.Equal(t, http.StatusUnauthorized, status)

	// A plain user is role-gated off publishing routes.
	userToken := env.register(t, "Riley Reader", "riley@example.com", "user")
	status, body = env.call(t, http.MethodPut, "/api/v1/bootcamps/"+bootcampID, userToken,
		map[string]any{"description": "hijacked"})
	require.Equal(t, http.StatusForbidden, status)
	require.Contains(t, body["error"], "unauthorized")

	// Owner update
	status, body = env.call(t, http.MethodPut, "/api/v1/bootcamps/"+bootcampID, publisherToken,
		map[string]any{"description": "Now with more Go"})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Now with more Go", body["data"].(map[string]any)["description"])

	// Unknown and malformed ids both read as 404.
	status, _ = env.call(t, http.MethodGet, "/api/v1/bootcamps/3fa4f8a2-0000-0000-0000-000000000000", "", nil)
	require.Equal(t, http.StatusNotFound, status)
	status, _ = env.call(t, http.MethodGet, "/api/v1/bootcamps/not-a-uuid", "", nil)
	require.Equal(t, http.StatusNotFound, status)

	// Delete
	status, _ = env.call(t, http.MethodDelete, "/api/v1/bootcamps/"+bootcampID, publisherToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = env.call(t, http.MethodGet, "/api/v1/bootcamps/"+bootcampID, "", nil)
	require.Equal(t, http.StatusNotFound, status)
}

func TestCoursesAndAverageCost(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "Pat Publisher", "pat@example.com", "publisher")

	_, body := env.call(t, http.MethodPost, "/api/v1/bootcamps", token, bootcampPayload("Devworks"))
	bootcampID := body["data"].(map[string]any)["id"].(string)

	course := map[string]any{
		"title":        "Full Stack Web Dev",
		"description":  "Twelve weeks of web",
		"weeks":        12,
		"tuition":      8000,
		"minimumSkill": "beginner",
	}
	status, body := env.call(t, http.MethodPost, "/api/v1/bootcamps/"+bootcampID+"/courses", token, course)
	require.Equal(t, http.StatusCreated, status, "create course: %v", body)

	course["title"] = "Data Science Bootcamp"
	course["tuition"] = 11001
	status, _ = env.call(t, http.MethodPost, "/api/v1/bootcamps/"+bootcampID+"/courses", token, course)
	require.Equal(t, http.StatusCreated, status)

	// Average cost is the mean tuition rounded up to the nearest ten.
	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps/"+bootcampID, "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 9510, body["data"].(map[string]any)["averageCost"])

	// Nested listing
	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps/"+bootcampID+"/courses", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 2, body["count"])

	// Deleting the bootcamp cascades to its courses.
	status, _ = env.call(t, http.MethodDelete, "/api/v1/bootcamps/"+bootcampID, token, nil)
	require.Equal(t, http.StatusOK, status)
	status, body = env.call(t, http.MethodGet, "/api/v1/courses", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 0, body["count"])
}

func TestReviewsAndAverageRating(t *testing.T) {
	env := newTestEnv(t)
	publisherToken := env.register(t, "Pat Publisher", "pat@example.com", "publisher")
	userToken := env.register(t, "Riley Reader", "riley@example.com", "user")

	_, body := env.call(t, http.MethodPost, "/api/v1/bootcamps", publisherToken, bootcampPayload("Devworks"))
	bootcampID := body["data"].(map[string]any)["id"].(string)

	review := map[string]any{"title": "Great camp", "text": "Learned a lot", "rating": 8}
	status, body := env.call(t, http.MethodPost, "/api/v1/bootcamps/"+bootcampID+"/reviews", userToken, review)
	require.Equal(t, http.StatusCreated, status, "create review: %v", body)
	reviewID := body["data"].(map[string]any)["id"].(string)

	// One review per user per bootcamp.
	status, _ = env.call(t, http.MethodPost, "/api/v1/bootcamps/"+bootcampID+"/reviews", userToken, review)
	require.Equal(t, http.StatusBadRequest, status)

	// Publishers are role-gated off the review routes.
	status, _ = env.call(t, http.MethodPost, "/api/v1/bootcamps/"+bootcampID+"/reviews", publisherToken, review)
	require.Equal(t, http.StatusForbidden, status)

	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps/"+bootcampID, "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 8, body["data"].(map[string]any)["averageRating"])

	// Deleting the only review clears the average.
	status, _ = env.call(t, http.MethodDelete, "/api/v1/reviews/"+reviewID, userToken, nil)
	require.Equal(t, http.StatusOK, status)
	_, body = env.call(t, http.MethodGet, "/api/v1/bootcamps/"+bootcampID, "", nil)
	_, hasRating := body["data"].(map[string]any)["averageRating"]
	require.False(t, hasRating, "cleared average should drop from the payload")
}

func TestQueryShaping(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAdmin(t)

	for i := 1; i <= 3; i++ {
		payload := bootcampPayload(fmt.Sprintf("Camp %d", i))
		status, body := env.call(t, http.MethodPost, "/api/v1/bootcamps", adminToken, payload)
		require.Equal(t, http.StatusCreated, status, "create: %v", body)
	}

	// Pagination
	status, body := env.call(t, http.MethodGet, "/api/v1/bootcamps?page=1&limit=2", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 2, body["count"])
	pagination := body["pagination"].(map[string]any)
	require.Contains(t, pagination, "next")
	require.NotContains(t, pagination, "prev")

	// Filtering
	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps?name=Camp+2", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1, body["count"])

	// Selection keeps only the named fields plus id.
	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps?select=name", "", nil)
	require.Equal(t, http.StatusOK, status)
	first := body["data"].([]any)[0].(map[string]any)
	require.Contains(t, first, "name")
	require.Contains(t, first, "id")
	require.NotContains(t, first, "description")

	// Any response field is selectable, not just the filterable ones.
	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps?select=location", "", nil)
	require.Equal(t, http.StatusOK, status)
	first = body["data"].([]any)[0].(map[string]any)
	require.Contains(t, first, "location")
	require.NotContains(t, first, "name")
}

func TestRadiusSearch(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAdmin(t)
	env.geocoder.locations["1 Main St, Boston MA"] = geocode.Location{Lat: 42.35, Lng: -71.06, City: "Boston"}
	env.geocoder.locations["5th Ave, New York NY"] = geocode.Location{Lat: 40.78, Lng: -73.97, City: "New York"}
	env.geocoder.locations["02101"] = geocode.Location{Lat: 42.36, Lng: -71.05}

	boston := bootcampPayload("Boston Camp")
	boston["address"] = "1 Main St, Boston MA"
	status, body := env.call(t, http.MethodPost, "/api/v1/bootcamps", adminToken, boston)
	require.Equal(t, http.StatusCreated, status, "create: %v", body)

	ny := bootcampPayload("New York Camp")
	ny["address"] = "5th Ave, New York NY"
	status, _ = env.call(t, http.MethodPost, "/api/v1/bootcamps", adminToken, ny)
	require.Equal(t, http.StatusCreated, status)

	// 50 miles around downtown Boston finds only the Boston camp.
	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps/radius/02101/50", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 1, body["count"])
	require.Equal(t, "Boston Camp", body["data"].([]any)[0].(map[string]any)["name"])

	// 250 miles reaches New York as well.
	status, body = env.call(t, http.MethodGet, "/api/v1/bootcamps/radius/02101/250", "", nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 2, body["count"])
}

func TestPhotoUpload(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "Pat Publisher", "pat@example.com", "publisher")

	_, body := env.call(t, http.MethodPost, "/api/v1/bootcamps", token, bootcampPayload("Devworks"))
	bootcampID := body["data"].(map[string]any)["id"].(string)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Disposition": {`form-data; name="file"; filename="camp.jpg"`},
		"Content-Type":        {"image/jpeg"},
	})
	require.NoError(t, err)
	_, err = part.Write([]byte("jpeg bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPut, env.server.URL+"/api/v1/bootcamps/"+bootcampID+"/photo", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	require.Equal(t, "photo_"+bootcampID+".jpg", decoded["data"])

	_, body = env.call(t, http.MethodGet, "/api/v1/bootcamps/"+bootcampID, "", nil)
	require.Equal(t, "photo_"+bootcampID+".jpg", body["data"].(map[string]any)["photo"])
}

func TestPasswordResetFlow(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "Riley Reader", "riley@example.com", "user")

	status, _ := env.call(t, http.MethodPost, "/api/v1/auth/forgotpassword", "", map[string]any{
		"email": "riley@example.com",
	})
	require.Equal(t, http.StatusOK, status)
	require.Len(t, env.mailer.sent, 1)

	mailBody := env.mailer.sent[0].Body
	resetToken := mailBody[strings.LastIndexByte(mailBody, '/')+1:]
	require.Len(t, resetToken, 40)

	status, body := env.call(t, http.MethodPut, "/api/v1/auth/resetpassword/"+resetToken, "", map[string]any{
		"password": "newpassword",
	})
	require.Equal(t, http.StatusOK, status, "reset response: %v", body)
	require.NotEmpty(t, body["token"])

	// Old password is gone, new one works.
	status, _ = env.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "riley@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusUnauthorized, status)
	status, _ = env.call(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email": "riley@example.com", "password": "newpassword",
	})
	require.Equal(t, http.StatusOK, status)
}

func TestAccountRoutes(t *testing.T) {
	env := newTestEnv(t)
	token := env.register(t, "Riley Reader", "riley@example.com", "user")

	status, body := env.call(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "riley@example.com", body["data"].(map[string]any)["email"])

	status, body = env.call(t, http.MethodPut, "/api/v1/auth/updatedetails", token, map[string]any{
		"name": "Riley R.",
	})
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "Riley R.", body["data"].(map[string]any)["name"])

	status, _ = env.call(t, http.MethodPut, "/api/v1/auth/updatepassword", token, map[string]any{
		"currentPassword": "wrong",
		"newPassword":     "changed123",
	})
	require.Equal(t, http.StatusUnauthorized, status)
}

func TestUserAdminRoutes(t *testing.T) {
	env := newTestEnv(t)
	adminToken := env.seedAdmin(t)
	userToken := env.register(t, "Riley Reader", "riley@example.com", "user")

	// Non-admins are shut out.
	status, _ := env.call(t, http.MethodGet, "/api/v1/users", userToken, nil)
	require.Equal(t, http.StatusForbidden, status)

	status, body := env.call(t, http.MethodGet, "/api/v1/users", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	require.EqualValues(t, 2, body["count"])

	status, body = env.call(t, http.MethodPost, "/api/v1/users", adminToken, map[string]any{
		"name":     "New Publisher",
		"email":    "new@example.com",
		"password": "password123",
		"role":     "publisher",
	})
	require.Equal(t, http.StatusCreated, status, "create user: %v", body)
	newID := body["data"].(map[string]any)["id"].(string)

	status, _ = env.call(t, http.MethodDelete, "/api/v1/users/"+newID, adminToken, nil)
	require.Equal(t, http.StatusOK, status)

	// A user who still owns a bootcamp or authored a review cannot be
	// deleted out from under those rows.
	publisherToken := env.register(t, "Pat Publisher", "pat@example.com", "publisher")
	_, body = env.call(t, http.MethodPost, "/api/v1/bootcamps", publisherToken, bootcampPayload("Devworks"))
	bootcampID := body["data"].(map[string]any)["id"].(string)
	review := map[string]any{"title": "Great camp", "text": "Learned a lot", "rating": 8}
	status, _ = env.call(t, http.MethodPost, "/api/v1/bootcamps/"+bootcampID+"/reviews", userToken, review)
	require.Equal(t, http.StatusCreated, status)

	_, body = env.call(t, http.MethodGet, "/api/v1/auth/me", userToken, nil)
	reviewerID := body["data"].(map[string]any)["id"].(string)
	status, body = env.call(t, http.MethodDelete, "/api/v1/users/"+reviewerID, adminToken, nil)
	require.Equal(t, http.StatusBadRequest, status)
	require.Contains(t, body["error"], "bootcamps or reviews")
}
