package handlers

import (
	"net/http"
	"strconv"

	"catnook-backend/application/commands"
	"catnook-backend/application/commands/bus"
	"catnook-backend/application/queries"
	querybus "catnook-backend/application/queries/bus"
	"catnook-backend/domain/core/valueobjects"
	pkgerrors "catnook-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
)

// InteractionHandler serves the interaction ledger
type InteractionHandler struct {
	base
}

func NewInteractionHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler) *InteractionHandler {
	return &InteractionHandler{base{commandBus: commandBus, queryBus: queryBus, errors: errs}}
}

// RecordInteractionRequest is the body of POST /api/interactions/{catID}
type RecordInteractionRequest struct {
	InteractionType string `json:"interactionType"`
	Description     string `json:"description"`
}

// Record handles POST /api/interactions/{catID}
func (h *InteractionHandler) Record(w http.ResponseWriter, r *http.Request) {
	user, err := h.actor(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	catID, err := catIDParam(r, "id")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req RecordInteractionRequest
	if err := decode(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.send(w, r, http.StatusCreated, commands.RecordInteractionCommand{
		UserID:          user.UserID,
		CatID:           catID,
		InteractionType: req.InteractionType,
		Description:     req.Description,
	})
}

// Last handles GET /api/interactions/last/{catID}?n=5
func (h *InteractionHandler) Last(w http.ResponseWriter, r *http.Request) {
	user, err := h.actor(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	catID, err := catIDParam(r, "catID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	// a missing or unparsable n falls back to the default
	n := 0
	if raw := r.URL.Query().Get("n"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			n = v
		}
	}

	h.ask(w, r, queries.LastInteractionsQuery{UserID: user.UserID, CatID: catID, N: n})
}

// List handles GET /api/interactions?catId=&userId=
func (h *InteractionHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := h.actor(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	catID, err := optionalID(r, "catId")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	filterUser, err := optionalID(r, "userId")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.ask(w, r, queries.ListInteractionsQuery{
		UserID:       user.UserID,
		CatID:        valueobjects.CatID(catID),
		FilterUserID: valueobjects.UserID(filterUser),
	})
}

// Get handles GET /api/interactions/{id}
func (h *InteractionHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.actor(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	id, err := valueobjects.ParseInteractionID(chi.URLParam(r, "id"))
	if err != nil {
		h.errors.Handle(w, r, pkgerrors.ErrInvalidInput.With("field", "interactionId"))
		return
	}

	h.ask(w, r, queries.GetInteractionQuery{UserID: user.UserID, InteractionID: id})
}
