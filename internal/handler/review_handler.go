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

// ReviewHandler serves the review resource, both top-level and nested under
// a bootcamp.
type ReviewHandler struct {
	reviews   *service.ReviewService
	bootcamps *service.BootcampService
	logger    zerolog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviews *service.ReviewService, bootcamps *service.BootcampService, logger zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		reviews:   reviews,
		bootcamps: bootcamps,
		logger:    logger.With().Str("handler", "reviews").Logger(),
	}
}

type reviewRequest struct {
	Title  *string `json:"title"`
	Text   *string `json:"text"`
	Rating *int    `json:"rating"`
}

func (req reviewRequest) toInput() service.ReviewInput {
	return service.ReviewInput{
		Title:  req.Title,
		Text:   req.Text,
		Rating: req.Rating,
	}
}

// List handles GET /api/v1/reviews.
func (h *ReviewHandler) List(w http.ResponseWriter, r *http.Request) {
	shaped := query.Shape(r.URL.Query(), query.ReviewFields)

	result, err := h.reviews.List(r.Context(), shaped.Query)
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

// ListByBootcamp handles GET /api/v1/bootcamps/{bootcampID}/reviews.
func (h *ReviewHandler) ListByBootcamp(w http.ResponseWriter, r *http.Request) {
	bootcampID, err := pathID(r, "bootcampID")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	items, err := h.reviews.ListByBootcamp(r.Context(), bootcampID)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondList(w, items, len(items), nil)
}

// Get handles GET /api/v1/reviews/{id}.
func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	rev, err := h.reviews.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, rev)
}

// Create handles POST /api/v1/bootcamps/{bootcampID}/reviews.
func (h *ReviewHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	rev, err := h.reviews.Create(r.Context(), actor, bootcampID, req.toInput())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, rev)
}

// Update handles PUT /api/v1/reviews/{id}.
func (h *ReviewHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req reviewRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	rev, err := h.reviews.Update(r.Context(), actor, id, req.toInput())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, rev)
}

// Delete handles DELETE /api/v1/reviews/{id}.
func (h *ReviewHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.reviews.Delete(r.Context(), actor, id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, struct{}{})
}

// present applies select projection and, when requested, swaps each review's
// bootcamp id for the full bootcamp record.
func (h *ReviewHandler) present(r *http.Request, items []*domain.Review, shaped query.Shaped) (any, error) {
	if !hasPopulate(shaped.Populate, "bootcamp") {
		return projectRecords(items, shaped.Select)
	}

	ids := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]bool, len(items))
	for _, rev := range items {
		if !seen[rev.BootcampID] {
			seen[rev.BootcampID] = true
			ids = append(ids, rev.BootcampID)
		}
	}

	bootcamps, err := h.bootcamps.ListByIDs(r.Context(), ids)
	if err != nil {
		return nil, err
	}
	parents := make(map[uuid.UUID]*domain.Bootcamp, len(bootcamps))
	for _, b := range bootcamps {
		parents[b.ID] = b
	}

	out := make([]map[string]any, 0, len(items))
	for _, rev := range items {
		record, err := recordMap(rev, shaped.Select)
		if err != nil {
			return nil, err
		}
		if b, ok := parents[rev.BootcampID]; ok {
			record["bootcamp"] = b
		}
		out = append(out, record)
	}
	return out, nil
}
