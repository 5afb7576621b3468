// internal/issues/handler.go
package issues

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"librarylounge/internal/auth"
	"librarylounge/internal/books"
	"librarylounge/internal/respond"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// HandleRequestBook creates a new issue request for the authenticated member.
func (h *Handler) HandleRequestBook(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req struct {
		BookID     uuid.UUID `json:"bookId"`
		ReturnDate string    `json:"returnDate"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, err.Error())
		return
	}

	returnDate, err := time.Parse("2006-01-02", req.ReturnDate)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "returnDate must be YYYY-MM-DD")
		return
	}

	issue, err := h.service.RequestBook(r.Context(), req.BookID, claims.UserID, returnDate)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusCreated, "Book requested", issue)
}

// HandleDecide approves or rejects a pending request.
func (h *Handler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid issue ID")
		return
	}

	var req struct {
		Approve *bool `json:"approve"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Approve == nil {
		respond.Error(w, http.StatusBadRequest, "approve flag is required")
		return
	}

	issue, err := h.service.Decide(r.Context(), id, *req.Approve)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "Book issue updated", issue)
}

// HandleRequestReturn lets the owning member flag a book for return.
func (h *Handler) HandleRequestReturn(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid issue ID")
		return
	}

	issue, err := h.service.RequestReturn(r.Context(), id, claims.UserID)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "Return requested", issue)
}

// HandleConfirmReturn closes an issue record.
func (h *Handler) HandleConfirmReturn(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid issue ID")
		return
	}

	issue, err := h.service.ConfirmReturn(r.Context(), id)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "Book returned", issue)
}

// HandleNotifyOverdue triggers an overdue mail for one issue record. The
// response reflects the overdue check, not the mail delivery.
func (h *Handler) HandleNotifyOverdue(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid issue ID")
		return
	}

	issue, err := h.service.NotifyOverdue(r.Context(), id)
	if err != nil {
		respond.Failure(w, statusFor(err), err)
		return
	}

	respond.JSON(w, http.StatusOK, "Overdue email queued", map[string]uuid.UUID{"issue_id": issue.ID})
}

// HandleListAll returns every issue record.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListAll(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Issued books", list)
}

// HandleListByUser returns the authenticated member's issue records.
func (h *Handler) HandleListByUser(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	list, err := h.service.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "User issued books", list)
}

// HandleListDaily returns records issued on a calendar day (default today).
func (h *Handler) HandleListDaily(w http.ResponseWriter, r *http.Request) {
	date := time.Now()
	if q := r.URL.Query().Get("date"); q != "" {
		parsed, err := time.Parse("2006-01-02", q)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = parsed
	}

	list, err := h.service.ListDaily(r.Context(), date)
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Daily issued books", list)
}

// HandleListReturning returns records awaiting return confirmation.
func (h *Handler) HandleListReturning(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListReturning(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Returning books list", list)
}

// HandleCount returns the number of currently issued books.
func (h *Handler) HandleCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountIssued(r.Context())
	if err != nil {
		respond.Failure(w, http.StatusInternalServerError, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Total issued books count", map[string]int{"count": count})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, books.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict), errors.Is(err, ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, ErrValidation), errors.Is(err, ErrNotOverdue):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotOwner):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
