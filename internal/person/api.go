package person

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

// Handler provides HTTP handlers for the person registries
type Handler struct {
	svc *Service
	bus *events.Bus
}

// NewHandler creates a new person handler
func NewHandler(svc *Service, bus *events.Bus) *Handler {
	return &Handler{svc: svc, bus: bus}
}

// Routes registers patient, caregiver and person routes
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/patients", func(r chi.Router) {
		r.Get("/", h.listByRole(RolePatient))
		r.Post("/", h.register(RolePatient))

		r.Route("/{personID}", func(r chi.Router) {
			r.Get("/", h.getByRole(RolePatient))
			r.Put("/", h.UpdatePerson)
			r.Delete("/", h.DeactivatePerson)
		})
	})

	r.Route("/caregivers", func(r chi.Router) {
		r.Get("/", h.listByRole(RoleCaregiver))
		r.Post("/", h.register(RoleCaregiver))

		r.Route("/{personID}", func(r chi.Router) {
			r.Get("/", h.getByRole(RoleCaregiver))
			r.Put("/", h.UpdatePerson)
			r.Delete("/", h.DeactivatePerson)
		})
	})

	// Unified registry across both roles
	r.Route("/persons", func(r chi.Router) {
		r.Get("/", h.ListPersons)
		r.Get("/{personID}", h.GetPerson)
	})

	return r
}

func (h *Handler) register(role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, errors.BadRequest("invalid request body"))
			return
		}

		actor := auth.ActorID(r.Context())

		p, outcome, err := h.svc.ResolveOrCreate(r.Context(), req.CPF, req.Attributes, role, actor)
		if err != nil {
			writeError(w, err)
			return
		}
		if outcome == OutcomeUnchanged {
			writeError(w, errors.ConflictCode("ALREADY_REGISTERED",
				"this CPF is already registered as "+string(role),
				map[string]string{"cpf": p.CPF.Masked(), "role": string(role)}))
			return
		}

		h.publish(r, "person."+string(outcome), map[string]any{
			"person_id": p.ID,
			"role":      role,
			"cpf":       p.CPF.Masked(),
		})

		status := http.StatusCreated
		if outcome == OutcomeMerged {
			status = http.StatusOK
		}
		writeJSON(w, status, p)
	}
}

func (h *Handler) getByRole(role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := types.ParseID(chi.URLParam(r, "personID"))
		if err != nil {
			writeError(w, errors.BadRequest("invalid person ID"))
			return
		}

		p, err := h.svc.GetByRole(r.Context(), id, role)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, p)
	}
}

func (h *Handler) listByRole(role Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := parseListFilter(r)
		filter.Role = &role

		persons, total, err := h.svc.List(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"data":  persons,
			"total": total,
		})
	}
}

// ListPersons lists persons of any role
func (h *Handler) ListPersons(w http.ResponseWriter, r *http.Request) {
	filter := parseListFilter(r)
	if role := r.URL.Query().Get("role"); role != "" {
		rr := Role(role)
		filter.Role = &rr
	}

	persons, total, err := h.svc.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data":  persons,
		"total": total,
	})
}

// GetPerson gets a person by ID regardless of role
func (h *Handler) GetPerson(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid person ID"))
		return
	}

	p, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, p)
}

// UpdatePerson applies partial updates to a person
func (h *Handler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid person ID"))
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errors.BadRequest("invalid request body"))
		return
	}

	p, err := h.svc.Update(r.Context(), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "person.updated", map[string]any{"person_id": p.ID})

	writeJSON(w, http.StatusOK, p)
}

// DeactivatePerson soft-deletes a person
func (h *Handler) DeactivatePerson(w http.ResponseWriter, r *http.Request) {
	id, err := types.ParseID(chi.URLParam(r, "personID"))
	if err != nil {
		writeError(w, errors.BadRequest("invalid person ID"))
		return
	}

	actor := auth.ActorID(r.Context())

	p, err := h.svc.Deactivate(r.Context(), id, actor)
	if err != nil {
		writeError(w, err)
		return
	}

	h.publish(r, "person.deactivated", map[string]any{"person_id": p.ID})

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

	event := events.NewEvent(eventType, "person", data).WithActor(actorID, actorType)
	h.bus.Publish(r.Context(), event)
}

func parseListFilter(r *http.Request) ListFilter {
	filter := ListFilter{
		Search: r.URL.Query().Get("search"),
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

	return filter
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
