package relationship

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/amparo-care/platform/internal/shared/auth"
	"github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/events"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Handler provides HTTP handlers for the relationship module
type Handler struct {
	svc *Service
	bus *events.Bus
}

// NewHandler creates a new relationship handler
func NewHandler(svc *Service, bus *events.Bus) *Handler {
	return &Handler{svc: svc, bus: bus}
}

// Routes registers the relationship routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListRelationships)
	r.Post("/", h.CreateRelationship)

	r.Route("/{relationshipID}", func(r chi.Router) {
		r.Get("/", h.GetRelationship)
		r.Put("/notes", h.UpdateNotes)
		r.Post("/inactivate", h.InactivateRelationship)
	})

	return r
}

// ListRelationships lists relationships
func (h *Handler) ListRelationships(w http.ResponseWriter, r *http.Request) {
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
	if t := r.URL.Query().Get("type"); t != "" {
		relType := Type(t)
		filter.Type = &relType
	}
	if a := r.URL.Query().Get("active"); a != "" {
		active := a == "true"
		filter.Active = &active
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

	rels, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  rels,
		"total": total,
	})
}

// GetRelationship gets a relationship by ID
func (h *Handler) GetRelationship(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "relationshipID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid relationship ID"))
		return
	}

	rel, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rel)
}

// CreateRelationship creates a relationship
func (h *Handler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	rel, err := h.svc.Create(r.Context(), req, auth.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "relationship.created", map[string]any{
		"relationship_id":   rel.ID,
		"patient_id":        rel.PatientID,
		"caregiver_id":      rel.CaregiverID,
		"relationship_type": rel.Type,
	})

	writeJSON(w, http.StatusCreated, rel)
}

// UpdateNotes updates a relationship's notes
func (h *Handler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "relationshipID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid relationship ID"))
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	rel, err := h.svc.UpdateNotes(r.Context(), id, req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, rel)
}

// InactivateRelationship ends a relationship
func (h *Handler) InactivateRelationship(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "relationshipID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid relationship ID"))
		return
	}

	rel, err := h.svc.Inactivate(r.Context(), id, auth.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "relationship.inactivated", map[string]any{
		"relationship_id": rel.ID,
		"patient_id":      rel.PatientID,
		"caregiver_id":    rel.CaregiverID,
	})

	writeJSON(w, http.StatusOK, rel)
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

	event := events.NewEvent(eventType, "relationship", data).WithActor(actorID, actorType)
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
