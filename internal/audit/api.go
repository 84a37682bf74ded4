package audit

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Handler provides read-only HTTP handlers for the audit log
type Handler struct {
	store Store
}

// NewHandler creates a new audit handler
func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Routes registers the audit routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListEntries)
	r.Get("/verify", h.VerifyChain)

	return r
}

// ListEntries lists audit entries
func (h *Handler) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Action:       r.URL.Query().Get("action"),
		ResourceType: r.URL.Query().Get("resource_type"),
	}

	if a := r.URL.Query().Get("actor"); a != "" {
		id, err := types.ParseID(a)
		if err != nil {
			writeError(w, errors.BadRequest("invalid actor ID"))
			return
		}
		filter.ActorID = &id
	}
	if res := r.URL.Query().Get("resource"); res != "" {
		id, err := types.ParseID(res)
		if err != nil {
			writeError(w, errors.BadRequest("invalid resource ID"))
			return
		}
		filter.ResourceID = &id
	}
	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			writeError(w, errors.BadRequest("invalid start time"))
			return
		}
		filter.StartTime = &t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			writeError(w, errors.BadRequest("invalid end time"))
			return
		}
		filter.EndTime = &t
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n >= 0 {
			filter.Limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	entries, total, err := h.store.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  entries,
		"total": total,
	})
}

// VerifyChain checks the integrity of the whole audit chain
func (h *Handler) VerifyChain(w http.ResponseWriter, r *http.Request) {
	broken, err := h.store.VerifyChain(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	if broken != 0 {
		writeJSON(w, http.StatusOK, map[string]any{
			"intact":          false,
			"broken_sequence": broken,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"intact": true})
}

// --- Helpers ---

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")

	if appErr, ok := err.(*errors.AppError); ok {
		w.WriteHeader(appErr.HTTPStatus)
		json.NewEncoder(w).Encode(map[string]any{
			"error":   appErr.Message,
			"code":    appErr.Code,
			"details": appErr.Details,
		})
		return
	}

	w.WriteHeader(http.StatusInternalServerError)
	json.NewEncoder(w).Encode(map[string]string{"error": "internal server error"})
}
