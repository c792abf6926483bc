package classes

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	authapi "classhub/cmd/internal/auth/api"
)

// Handler wires the class and reservation HTTP endpoints to the store.
// Mutating routes run behind the auth middleware; reads are public.
type Handler struct {
	log   *slog.Logger
	store Store
	auth  *authapi.Handler

	maxBodyBytes int64
}

// NewHandler constructs a class Handler.
func NewHandler(log *slog.Logger, store Store, auth *authapi.Handler) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}
	if store == nil {
		return nil, errors.New("classes: nil store")
	}
	if auth == nil {
		return nil, errors.New("classes: nil auth handler")
	}
	return &Handler{log: log, store: store, auth: auth, maxBodyBytes: 1 << 20}, nil
}

// Register wires class routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("GET /class/list", h.handleList)
	mux.HandleFunc("GET /class/list/{id}", h.handleGet)
	mux.Handle("POST /class/create", h.auth.RequireUser(http.HandlerFunc(h.handleCreate)))
	mux.Handle("PUT /class/update/{id}", h.auth.RequireUser(http.HandlerFunc(h.handleUpdate)))
	mux.Handle("POST /reserve", h.auth.RequireUser(http.HandlerFunc(h.handleReserve)))
	mux.Handle("PUT /reserve/{id}", h.auth.RequireUser(http.HandlerFunc(h.handleReserveUpdate)))
	mux.Handle("DELETE /reserve/{id}", h.auth.RequireUser(http.HandlerFunc(h.handleReserveDelete)))
}

type classRequest struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Capacity    int       `json:"capacity"`
	StartDate   time.Time `json:"start_date"`
}

type reserveRequest struct {
	ClassID string `json:"class_id"`
}

type reserveUpdateRequest struct {
	UserID  string `json:"user_id"`
	ClassID string `json:"class_id"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.ListClasses(r.Context())
	if err != nil {
		h.writeStoreError(w, "class.list", err)
		return
	}
	h.writeJSON(w, http.StatusOK, list)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.GetClass(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeStoreError(w, "class.get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	userID, _ := authapi.UserIDFromContext(r.Context())

	var req classRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	c, err := h.store.CreateClass(r.Context(), CreateClassInput{
		CreatorID:   userID,
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Capacity:    req.Capacity,
		StartDate:   req.StartDate,
		Now:         time.Now().UTC(),
	})
	if err != nil {
		h.writeStoreError(w, "class.create", err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req classRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	c, err := h.store.UpdateClass(r.Context(), UpdateClassInput{
		ClassID:     r.PathValue("id"),
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Capacity:    req.Capacity,
		StartDate:   req.StartDate,
	})
	if err != nil {
		h.writeStoreError(w, "class.update", err)
		return
	}
	h.writeJSON(w, http.StatusOK, c)
}

func (h *Handler) handleReserve(w http.ResponseWriter, r *http.Request) {
	userID, _ := authapi.UserIDFromContext(r.Context())

	var req reserveRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	p, err := h.store.CreateReservation(r.Context(), time.Now().UTC(), userID, req.ClassID)
	if err != nil {
		h.writeReserveError(w, "reserve.create", err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleReserveUpdate(w http.ResponseWriter, r *http.Request) {
	var req reserveUpdateRequest
	if err := h.decodeJSON(w, r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	p, err := h.store.UpdateReservation(r.Context(), r.PathValue("id"), req.UserID, req.ClassID)
	if err != nil {
		h.writeReserveError(w, "reserve.update", err)
		return
	}
	h.writeJSON(w, http.StatusOK, p)
}

func (h *Handler) handleReserveDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteReservation(r.Context(), r.PathValue("id")); err != nil {
		h.writeReserveError(w, "reserve.delete", err)
		return
	}
	h.writeJSON(w, http.StatusOK, messageResponse{Message: "reservation deleted"})
}

// ---- plumbing ----

// writeReserveError maps store errors for the reservation routes, where
// a missing class or reservation is a client error (400), not a 404.
func (h *Handler) writeReserveError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, ErrNotFound) {
		h.writeError(w, http.StatusBadRequest, "not_found", "class or reservation does not exist")
		return
	}
	h.writeStoreError(w, op, err)
}

func (h *Handler) writeStoreError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		h.writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, ErrOwnClass):
		h.writeError(w, http.StatusBadRequest, "own_class", "cannot reserve your own class")
	case errors.Is(err, ErrDuplicateReservation):
		h.writeError(w, http.StatusBadRequest, "already_reserved", "class already reserved")
	default:
		h.log.Error(op+".fail", "err", err)
		h.writeError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string) {
	h.writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": msg}})
}

func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}
