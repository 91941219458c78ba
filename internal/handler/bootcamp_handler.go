package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/auth"
	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/query"
	"github.com/campstack/campstack/internal/service"
)

// BootcampHandler serves the bootcamp resource.
type BootcampHandler struct {
	bootcamps *service.BootcampService
	courses   *service.CourseService
	logger    zerolog.Logger
}

// NewBootcampHandler creates a new BootcampHandler.
func NewBootcampHandler(bootcamps *service.BootcampService, courses *service.CourseService, logger zerolog.Logger) *BootcampHandler {
	return &BootcampHandler{
		bootcamps: bootcamps,
		courses:   courses,
		logger:    logger.With().Str("handler", "bootcamps").Logger(),
	}
}

type bootcampRequest struct {
	Name          *string  `json:"name"`
	Description   *string  `json:"description"`
	Website       *string  `json:"website" validate:"omitempty,url"`
	Phone         *string  `json:"phone" validate:"omitempty,max=20"`
	Email         *string  `json:"email" validate:"omitempty,email"`
	Address       *string  `json:"address"`
	Careers       []string `json:"careers"`
	Housing       *bool    `json:"housing"`
	JobAssistance *bool    `json:"jobAssistance"`
	JobGuarantee  *bool    `json:"jobGuarantee"`
	AcceptGI      *bool    `json:"acceptGi"`
}

func (req bootcampRequest) toInput() service.BootcampInput {
	return service.BootcampInput{
		Name:          req.Name,
		Description:   req.Description,
		Website:       req.Website,
		Phone:         req.Phone,
		Email:         req.Email,
		Address:       req.Address,
		Careers:       req.Careers,
		Housing:       req.Housing,
		JobAssistance: req.JobAssistance,
		JobGuarantee:  req.JobGuarantee,
		AcceptGI:      req.AcceptGI,
	}
}

// List handles GET /api/v1/bootcamps.
func (h *BootcampHandler) List(w http.ResponseWriter, r *http.Request) {
	shaped := query.Shape(r.URL.Query(), query.BootcampFields)

	result, err := h.bootcamps.List(r.Context(), shaped.Query)
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

// Get handles GET /api/v1/bootcamps/{id}.
func (h *BootcampHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	b, err := h.bootcamps.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, b)
}

// Create handles POST /api/v1/bootcamps.
func (h *BootcampHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := auth.UserFromContext(r.Context())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req bootcampRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	b, err := h.bootcamps.Create(r.Context(), actor, req.toInput())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, b)
}

// Update handles PUT /api/v1/bootcamps/{id}.
func (h *BootcampHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req bootcampRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	b, err := h.bootcamps.Update(r.Context(), actor, id, req.toInput())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, b)
}

// Delete handles DELETE /api/v1/bootcamps/{id}.
func (h *BootcampHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.bootcamps.Delete(r.Context(), actor, id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, struct{}{})
}

// WithinRadius handles GET /api/v1/bootcamps/radius/{zipcode}/{distance}.
// The unit query parameter selects miles (default) or kilometers.
func (h *BootcampHandler) WithinRadius(w http.ResponseWriter, r *http.Request) {
	zipcode := chi.URLParam(r, "zipcode")
	distance, err := strconv.ParseFloat(chi.URLParam(r, "distance"), 64)
	if err != nil {
		handleError(w, h.logger, domain.NewValidationError("Distance must be a number"))
		return
	}

	items, err := h.bootcamps.WithinRadius(r.Context(), zipcode, distance, r.URL.Query().Get("unit"))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respondList(w, items, len(items), nil)
}

// UploadPhoto handles PUT /api/v1/bootcamps/{id}/photo. The photo travels as
// the multipart field "file".
func (h *BootcampHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
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

	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, h.logger, domain.ErrMissingUploadFile)
		return
	}
	defer file.Close()

	filename, err := h.bootcamps.UploadPhoto(r.Context(), actor, id, service.PhotoUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	})
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, filename)
}

// present applies select projection and, when requested, attaches each
// bootcamp's courses.
func (h *BootcampHandler) present(r *http.Request, items []*domain.Bootcamp, shaped query.Shaped) (any, error) {
	if !hasPopulate(shaped.Populate, "courses") {
		return projectRecords(items, shaped.Select)
	}

	out := make([]map[string]any, 0, len(items))
	for _, b := range items {
		record, err := recordMap(b, shaped.Select)
		if err != nil {
			return nil, err
		}
		courses, err := h.courses.ListByBootcamp(r.Context(), b.ID)
		if err != nil {
			return nil, err
		}
		record["courses"] = courses
		out = append(out, record)
	}
	return out, nil
}
