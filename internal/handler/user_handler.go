package handler

import (
	"net/http"

	"github.com/rs/zerolog"

	"github.com/campstack/campstack/internal/domain"
	"github.com/campstack/campstack/internal/query"
	"github.com/campstack/campstack/internal/service"
)

// UserHandler serves the admin-only user management routes.
type UserHandler struct {
	users  *service.UserService
	logger zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		logger: logger.With().Str("handler", "users").Logger(),
	}
}

type userRequest struct {
	Name     *string      `json:"name"`
	Email    *string      `json:"email" validate:"omitempty,email"`
	Password *string      `json:"password"`
	Role     *domain.Role `json:"role"`
}

func (req userRequest) toInput() service.UserInput {
	return service.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	}
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	shaped := query.Shape(r.URL.Query(), query.UserFields)

	result, err := h.users.List(r.Context(), shaped.Query)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	data, err := projectRecords(result.Items, shaped.Select)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	respondList(w, data, len(result.Items), query.Paginate(result.Total, shaped.Query.Page, shaped.Query.Limit))
}

// Get handles GET /api/v1/users/{id}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, user)
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	user, err := h.users.Create(r.Context(), req.toInput())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusCreated, user)
}

// Update handles PUT /api/v1/users/{id}.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, h.logger, err)
		return
	}

	user, err := h.users.Update(r.Context(), id, req.toInput())
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, user)
}

// Delete handles DELETE /api/v1/users/{id}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	if err := h.users.Delete(r.Context(), id); err != nil {
		handleError(w, h.logger, err)
		return
	}
	respond(w, http.StatusOK, struct{}{})
}
