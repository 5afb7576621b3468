// internal/users/handler.go
package users

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"librarylounge/internal/auth"
	"librarylounge/internal/respond"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleRegister creates a new user account.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string    `json:"email"`
		Name     string    `json:"name"`
		Phone    string    `json:"phone"`
		Password string    `json:"password"`
		Role     auth.Role `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.Register(r.Context(), req.Email, req.Name, req.Phone, req.Password, req.Role)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusCreated, "User created", user)
}

// HandleLogin authenticates a user and returns a token.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	token, _, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			respond.Error(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "login successful", map[string]string{"token": token})
}

// HandleGetUser returns a single user's details.
func (h *Handler) HandleGetUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "User details", user)
}

// HandleListUsers returns all users.
func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListUsers(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, "User list", list)
}

// HandleUpdateUser updates a user's profile.
func (h *Handler) HandleUpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	var req struct {
		Name  string `json:"name"`
		Phone string `json:"phone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.service.UpdateUser(r.Context(), id, req.Name, req.Phone)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "User updated", user)
}

// HandleRemoveUser deletes a user account.
func (h *Handler) HandleRemoveUser(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid user ID")
		return
	}

	if err := h.service.RemoveUser(r.Context(), id); err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
