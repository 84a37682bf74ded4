package anamnesis

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amparo-care/platform/internal/shared/auth"
	"github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/events"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Handler provides HTTP handlers for intake records
type Handler struct {
	svc *Service
	bus *events.Bus
}

// NewHandler creates a new anamnesis handler
func NewHandler(svc *Service, bus *events.Bus) *Handler {
	return &Handler{svc: svc, bus: bus}
}

// Routes registers the anamnesis routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListAnamneses)
	r.Post("/", h.CreateAnamnesis)

	r.Route("/{anamnesisID}", func(r chi.Router) {
		r.Get("/", h.GetAnamnesis)
		r.Put("/", h.UpdateAnamnesis)
		r.Delete("/", h.DeactivateAnamnesis)
	})

	return r
}

// ListAnamneses lists intake records
func (h *Handler) ListAnamneses(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{}

	if p := r.URL.Query().Get("patient"); p != "" {
		id, err := types.ParseID(p)
		if err != nil {
			writeError(w, errors.BadRequest("invalid patient ID"))
			return
		}
		filter.PatientID = &id
	}
	if c := r.URL.Query().Get("caregiver"); c != "" {
		id, err := types.ParseID(c)
		if err != nil {
			writeError(w, errors.BadRequest("invalid caregiver ID"))
			return
		}
		filter.CaregiverID = &id
	}
	if a := r.URL.Query().Get("active"); a != "" {
		active := a == "true"
		filter.Active = &active
	}

	// Both endpoints set means a pair lookup.
	if filter.PatientID != nil && filter.CaregiverID != nil {
		a, err := h.svc.GetForPair(r.Context(), *filter.PatientID, filter.CaregiverID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": []Anamnesis{*a}})
		return
	}

	records, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": records})
}

// GetAnamnesis gets an intake record by ID
func (h *Handler) GetAnamnesis(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "anamnesisID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid anamnesis ID"))
		return
	}

	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, a)
}

// CreateAnamnesis creates an intake record
func (h *Handler) CreateAnamnesis(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	a, err := h.svc.Create(r.Context(), req, auth.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "anamnesis.created", map[string]any{
		"anamnesis_id": a.ID,
		"patient_id":   a.PatientID,
	})

	writeJSON(w, http.StatusCreated, a)
}

// UpdateAnamnesis replaces the clinical fields of a record
func (h *Handler) UpdateAnamnesis(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "anamnesisID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid anamnesis ID"))
		return
	}

	var fields Fields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	a, err := h.svc.Update(r.Context(), id, fields)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "anamnesis.updated", map[string]any{"anamnesis_id": a.ID})

	writeJSON(w, http.StatusOK, a)
}

// DeactivateAnamnesis soft-deletes a record
func (h *Handler) DeactivateAnamnesis(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "anamnesisID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid anamnesis ID"))
		return
	}

	a, err := h.svc.Deactivate(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "anamnesis.deactivated", map[string]any{"anamnesis_id": a.ID})

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) publish(r *http.Request, eventType string, data map[string]any) {
	if h.bus == nil {
		return
	}

	user := auth.GetUser(r.Context())
	actorID := types.ID("")
	actorType := "system"
	if user != nil {
		actorID = user.ID
		actorType = user.UserType
	}

	event := events.NewEvent(eventType, "anamnesis", data).WithActor(actorID, actorType)
	h.bus.Publish(r.Context(), event)
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
