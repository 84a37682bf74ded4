package pictogram

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amparo-care/platform/internal/shared/auth"
	"github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the pictogram vocabulary
type Handler struct {
	svc *Service
}

// NewHandler creates a new pictogram handler
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// CategoryRoutes registers the category routes
func (h *Handler) CategoryRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListCategories)
	r.Post("/", h.CreateCategory)

	r.Route("/{categoryID}", func(r chi.Router) {
		r.Get("/", h.GetCategory)
		r.Post("/activate", h.setCategoryActive(true))
		r.Post("/deactivate", h.setCategoryActive(false))
	})

	return r
}

// PictogramRoutes registers the pictogram routes
func (h *Handler) PictogramRoutes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPictograms)
	r.Post("/", h.CreatePictogram)

	r.Route("/{pictogramID}", func(r chi.Router) {
		r.Get("/", h.GetPictogram)
		r.Put("/", h.UpdatePictogram)
	})

	return r
}

// --- Category Handlers ---

// ListCategories lists categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"

	categories, err := h.svc.ListCategories(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": categories})
}

// CreateCategory creates a category
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CreateCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	c, err := h.svc.CreateCategory(r.Context(), req, auth.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, c)
}

// GetCategory gets a category by ID
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "categoryID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid category ID"))
		return
	}

	c, err := h.svc.GetCategory(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, c)
}

func (h *Handler) setCategoryActive(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := types.ParseID(chi.URLParam(r, "categoryID"))
		if err != nil {
			writeError(w, errors.BadRequest("invalid category ID"))
			return
		}

		c, err := h.svc.SetCategoryActive(r.Context(), id, active)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, c)
	}
}

// --- Pictogram Handlers ---

// ListPictograms lists pictograms
func (h *Handler) ListPictograms(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
	}

	if c := r.URL.Query().Get("category"); c != "" {
		id, err := types.ParseID(c)
		if err != nil {
			writeError(w, errors.BadRequest("invalid category ID"))
			return
		}
		filter.CategoryID = &id
	}
	if a := r.URL.Query().Get("active"); a != "" {
		active := a == "true"
		filter.Active = &active
	}

	pictograms, err := h.svc.ListPictograms(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": pictograms})
}

// CreatePictogram creates a pictogram
func (h *Handler) CreatePictogram(w http.ResponseWriter, r *http.Request) {
	var req CreatePictogramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	p, err := h.svc.CreatePictogram(r.Context(), req, auth.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, p)
}

// GetPictogram gets a pictogram by ID
func (h *Handler) GetPictogram(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "pictogramID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid pictogram ID"))
		return
	}

	p, err := h.svc.GetPictogram(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// UpdatePictogram updates a pictogram
func (h *Handler) UpdatePictogram(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "pictogramID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid pictogram ID"))
		return
	}

	var req UpdatePictogramRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	p, err := h.svc.UpdatePictogram(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
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
