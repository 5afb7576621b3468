// internal/reports/handler.go
package reports

import (
	"context"
	"net/http"

	"librarylounge/internal/respond"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request, message string, fn func(context.Context) (int, error)) {
	count, err := fn(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, message, map[string]int{"count": count})
}

func (h *Handler) HandleBookCount(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, "Book count", h.service.BookCount)
}

func (h *Handler) HandleIssuedBookCount(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, "Issued book count", h.service.IssuedBookCount)
}

func (h *Handler) HandleOverdueBookCount(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, "Overdue book count", h.service.OverdueBookCount)
}

func (h *Handler) HandleReturnedBookCount(w http.ResponseWriter, r *http.Request) {
	h.count(w, r, "Returned book count", h.service.ReturnedBookCount)
}

func (h *Handler) HandleIssuedBooks(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.IssuedBooks(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Issued books", list)
}

func (h *Handler) HandleReturnedBooks(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ReturnedBooks(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Returned books", list)
}

func (h *Handler) HandleOverdueBooks(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.OverdueBooks(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Overdue books", list)
}

func (h *Handler) HandleRequestedBooks(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.RequestedBooks(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Requested books", list)
}

func (h *Handler) HandleAdminStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.AdminStats(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Admin stats", stats)
}
