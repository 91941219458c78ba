package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/auth"
	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/query"
	"github.com/campstack/campstack/internal/service"
)

// CourseHandler serves the course resource, both top-level and nested under
// a bootcamp.
type CourseHandler struct {
	courses   *service.CourseService
	bootcamps *service.BootcampService
	logger    zerolog.Logger
}

// NewCourseHandler creates a new CourseHandler.
func NewCourseHandler(courses *service.CourseService, bootcamps *service.BootcampService, logger zerolog.Logger) *CourseHandler {
	return &CourseHandler{
		courses:   courses,
		bootcamps: bootcamps,
		logger:    logger.With().Str("handler", "courses").Logger(),
	}
}

type courseRequest struct {
	Title                *string              `json:"title"`
	Description          *string              `json:"description"`
	Weeks                *int                 `json:"weeks"`
	Tuition              *float64             `json:"tuition"`
	MinimumSkill         *domain.MinimumSkill `json:"minimumSkill"`
	ScholarshipAvailable *bool                `json:"scholarshipAvailable"`
}

func (req courseRequest) toInput() service.CourseInput {
	return service.CourseInput{
		Title:                req.Title,
		Description:          req.Description,
		Weeks:                req.Weeks,
		Tuition:              req.Tuition,
		MinimumSkill:         req.MinimumSkill,
		ScholarshipAvailable: req.ScholarshipAvailable,
	}
}

// List handles GET /api/v1/courses.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	shaped := query.Shape(r.URL.Query(), query.CourseFields)

	result, err := h.courses.List(r.Context(), shaped.Query)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	data, err := h.present(r, result.Items, shaped)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondList(w, data, len(result.Items), query.Paginate(result.Total, shaped.Query.Page, shaped.Query.Limit))
}

// ListByBootcamp handles GET /api/v1/bootcamps/{bootcampID}/courses.
func (h *CourseHandler) ListByBootcamp(w http.ResponseWriter, r *http.Request) {
	bootcampID, err := pathID(r, "bootcampID")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	items, err := h.courses.ListByBootcamp(r.Context(), bootcampID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondList(w, items, len(items), nil)
}

// Get handles GET /api/v1/courses/{id}.
func (h *CourseHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	c, err := h.courses.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, c)
}

// Create handles POST /api/v1/bootcamps/{bootcampID}/courses.
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	bootcampID, err := pathID(r, "bootcampID")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	c, err := h.courses.Create(r.Context(), actor, bootcampID, req.toInput())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, c)
}

// Update handles PUT /api/v1/courses/{id}.
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req courseRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	c, err := h.courses.Update(r.Context(), actor, id, req.toInput())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, c)
}

// Delete handles DELETE /api/v1/courses/{id}.
func (h *CourseHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.courses.Delete(r.Context(), actor, id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, struct{}{})
}

// present applies select projection and, when requested, swaps each course's
// bootcamp id for the full bootcamp record.
func (h *CourseHandler) present(r *http.Request, items []*domain.Course, shaped query.Shaped) (any, error) {
	if !hasPopulate(shaped.Populate, "bootcamp") {
		return projectRecords(items, shaped.Select)
	}

	parents, err := h.loadParents(r, courseBootcampIDs(items))
	if err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(items))
	for _, c := range items {
		record, err := recordMap(c, shaped.Select)
		if err != nil {
			return nil, err
		}
		if b, ok := parents[c.BootcampID]; ok {
			record["bootcamp"] = b
		}
		out = append(out, record)
	}
	return out, nil
}

func (h *CourseHandler) loadParents(r *http.Request, ids []uuid.UUID) (map[uuid.UUID]*domain.Bootcamp, error) {
	bootcamps, err := h.bootcamps.ListByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	parents := make(map[uuid.UUID]*domain.Bootcamp, len(bootcamps))
	for _, b := range bootcamps {
		parents[b.ID] = b
	}
	return parents, nil
}

func courseBootcampIDs(items []*domain.Course) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, c := range items {
		if !seen[c.BootcampID] {
			seen[c.BootcampID] = true
			ids = append(ids, c.BootcampID)
		}
	}
	return ids
}
