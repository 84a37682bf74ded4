package link

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/amparo-care/platform/internal/shared/auth"
	"github.com/amparo-care/platform/internal/shared/errors"
	"github.com/amparo-care/platform/internal/shared/events"
	"github.com/amparo-care/platform/internal/shared/types"
)

// Handler provides HTTP handlers for patient-pictogram links
type Handler struct {
	svc *Service
	bus *events.Bus
}

// NewHandler creates a new link handler
func NewHandler(svc *Service, bus *events.Bus) *Handler {
	return &Handler{svc: svc, bus: bus}
}

// Routes registers the link routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListLinks)
	r.Post("/", h.CreateLink)
	r.Post("/batch", h.CreateBatch)
	r.Get("/available", h.ListAvailable)

	r.Route("/{linkID}", func(r chi.Router) {
		r.Get("/", h.GetLink)
		r.Post("/inactivate", h.InactivateLink)
	})

	return r
}

// ListLinks lists a patient's links
func (h *Handler) ListLinks(w http.ResponseWriter, r *http.Request) {
	patientID, err := types.ParseID(r.URL.Query().Get("patient"))
	if err != nil {
		writeError(w, errors.BadRequest("patient query parameter is required"))
		return
	}

	activeOnly := r.URL.Query().Get("active") != "false"

	links, err := h.svc.ListForPatient(r.Context(), patientID, activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": links})
}

// ListAvailable lists the vocabulary a patient is not yet linked to
func (h *Handler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	patientID, err := types.ParseID(r.URL.Query().Get("patient"))
	if err != nil {
		writeError(w, errors.BadRequest("patient query parameter is required"))
		return
	}

	pictograms, err := h.svc.AvailableForPatient(r.Context(), patientID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"data": pictograms})
}

// GetLink gets a link by ID
func (h *Handler) GetLink(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "linkID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid link ID"))
		return
	}

	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, l)
}

// CreateLink links one pictogram to a patient
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	l, err := h.svc.Create(r.Context(), req, auth.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "link.created", map[string]any{
		"link_id":      l.ID,
		"patient_id":   l.PatientID,
		"pictogram_id": l.PictogramID,
	})

	writeJSON(w, http.StatusCreated, l)
}

// CreateBatch links several pictograms to a patient at once
func (h *Handler) CreateBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	links, err := h.svc.CreateBatch(r.Context(), req, auth.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "link.batch_created", map[string]any{
		"patient_id": req.PatientID,
		"count":      len(links),
	})

	writeJSON(w, http.StatusCreated, map[string]any{"data": links})
}

// InactivateLink removes a pictogram from a patient's board
func (h *Handler) InactivateLink(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "linkID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid link ID"))
		return
	}

	l, err := h.svc.Inactivate(r.Context(), id, auth.ActorID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "link.inactivated", map[string]any{
		"link_id":      l.ID,
		"patient_id":   l.PatientID,
		"pictogram_id": l.PictogramID,
	})

	writeJSON(w, http.StatusOK, l)
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

	event := events.NewEvent(eventType, "link", data).WithActor(actorID, actorType)
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
