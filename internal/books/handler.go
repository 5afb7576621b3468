// internal/books/handler.go
package books

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"librarylounge/internal/respond"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

type bookRequest struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Publisher string `json:"publisher"`
	Category  string `json:"category"`
	ImageURL  string `json:"imageUrl"`
}

// HandleAddBook creates a new catalog entry.
func (h *Handler) HandleAddBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.service.AddBook(r.Context(), req.Title, req.Author, req.Publisher, req.Category, req.ImageURL)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusCreated, "Book created", book)
}

// HandleGetBook returns a single book.
func (h *Handler) HandleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid book ID")
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "Book details", book)
}

// HandleListBooks returns the catalog.
func (h *Handler) HandleListBooks(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListBooks(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, "Book list", list)
}

// HandleUpdateBook replaces a book's fields.
func (h *Handler) HandleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid book ID")
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	book, err := h.service.UpdateBook(r.Context(), id, req.Title, req.Author, req.Publisher, req.Category, req.ImageURL)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "Book updated", book)
}

// HandleRemoveBook deletes a catalog entry.
func (h *Handler) HandleRemoveBook(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid book ID")
		return
	}

	if err := h.service.RemoveBook(r.Context(), id); err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
