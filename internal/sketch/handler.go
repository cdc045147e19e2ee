package sketch

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/minpen/minpen/internal/action"
	"github.com/minpen/minpen/internal/auth"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes mounts the sketch endpoints on an authenticated router.
func (h *Handler) Routes(r *mux.Router) {
	r.HandleFunc("/sketches", h.List).Methods("GET")
	r.HandleFunc("/sketches", h.Create).Methods("POST")
	r.HandleFunc("/sketches/{sketchId}", h.Get).Methods("GET")
	r.HandleFunc("/sketches/{sketchId}", h.Delete).Methods("DELETE")
	r.HandleFunc("/sketches/{sketchId}/snapshots/latest", h.GetLatestSnapshot).Methods("GET")
	r.HandleFunc("/sketches/{sketchId}/records", h.ListRecords).Methods("GET")
	r.HandleFunc("/sketches/{sketchId}/export", h.Export).Methods("POST")
}

type createRequest struct {
	Name string `json:"name"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	sk, err := h.service.Create(r.Context(), req.Name, userID)
	respond(w, http.StatusCreated, sk, err)
}

// ids returns the sketch addressed by the route and the caller.
func ids(r *http.Request) (sketchID, userID string) {
	return mux.Vars(r)["sketchId"], auth.UserIDFromContext(r.Context())
}

// respond writes v with status, or the mapped error.
func respond(w http.ResponseWriter, status int, v any, err error) {
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, status, v)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	sketchID, userID := ids(r)
	sk, err := h.service.Get(r.Context(), sketchID, userID)
	respond(w, http.StatusOK, sk, err)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	sketches, err := h.service.List(r.Context(), auth.UserIDFromContext(r.Context()))
	respond(w, http.StatusOK, sketches, err)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	sketchID, userID := ids(r)
	if err := h.service.Delete(r.Context(), sketchID, userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetLatestSnapshot writes the stored document as is.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	sketchID, userID := ids(r)
	doc, err := h.service.GetLatestSnapshot(r.Context(), sketchID, userID)
	respond(w, http.StatusOK, doc, err)
}

func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	sketchID, userID := ids(r)
	recs, err := h.service.ListRecords(r.Context(), sketchID, userID)
	respond(w, http.StatusOK, recs, err)
}

type exportResponse struct {
	Exported int             `json:"exported"`
	Records  []action.Record `json:"records"`
}

// Export flushes the open session's history to the store.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	sketchID, userID := ids(r)
	recs, err := h.service.Export(r.Context(), sketchID, userID)
	respond(w, http.StatusOK, exportResponse{Exported: len(recs), Records: recs}, err)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, ErrForbidden):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "forbidden"})
	case errors.Is(err, ErrNotOpen):
		writeJSON(w, http.StatusConflict, map[string]string{"error": "sketch is not open"})
	case errors.Is(err, ErrBadName):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
