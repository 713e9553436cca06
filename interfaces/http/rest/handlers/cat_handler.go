package handlers

import (
	"net/http"
	"time"

	"catnook-backend/application/commands"
	"catnook-backend/application/commands/bus"
	"catnook-backend/application/queries"
	querybus "catnook-backend/application/queries/bus"
	pkgerrors "catnook-backend/pkg/errors"
)

// CatHandler serves cat state, adoption and chat
type CatHandler struct {
	base
}

func NewCatHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler) *CatHandler {
	return &CatHandler{base{commandBus: commandBus, queryBus: queryBus, errors: errs}}
}

// ApplyMoodRequest carries absolute vitals; mood and patience are required
type ApplyMoodRequest struct {
	Mood            *int       `json:"mood" validate:"required"`
	Patience        *int       `json:"patience" validate:"required"`
	Timestamp       *time.Time `json:"timestamp"`
	InteractionType string     `json:"interactionType"`
	ExpectedVersion *int64     `json:"expectedVersion"`
}

// ChatRequest is one message to the cat, optionally paid for
type ChatRequest struct {
	Message         string `json:"message" validate:"required,max=2000"`
	InteractionType string `json:"interactionType"`
}

// CreateCatRequest adds a cat to the adoption pool
type CreateCatRequest struct {
	Name        string `json:"name" validate:"required,max=64"`
	Skin        string `json:"skin" validate:"required,alphanum,max=32"`
	Personality string `json:"personality" validate:"max=500"`
}

// ApplyMood handles POST /api/cats/{catID}/mood
func (h *CatHandler) ApplyMood(w http.ResponseWriter, r *http.Request) {
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
	var req ApplyMoodRequest
	if err := decode(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.send(w, r, http.StatusOK, commands.ApplyMoodCommand{
		UserID:          user.UserID,
		CatID:           catID,
		Mood:            *req.Mood,
		Patience:        *req.Patience,
		Timestamp:       req.Timestamp,
		InteractionType: req.InteractionType,
		ExpectedVersion: req.ExpectedVersion,
	})
}

// Chat handles POST /api/cats/{catID}/chat
func (h *CatHandler) Chat(w http.ResponseWriter, r *http.Request) {
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
	var req ChatRequest
	if err := decode(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	h.send(w, r, http.StatusOK, commands.ChatRoundCommand{
		UserID:          user.UserID,
		Username:        user.Username,
		CatID:           catID,
		Message:         req.Message,
		InteractionType: req.InteractionType,
	})
}

// Adopt handles POST /api/cats/{catID}/adopt
func (h *CatHandler) Adopt(w http.ResponseWriter, r *http.Request) {
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
	h.send(w, r, http.StatusOK, commands.AdoptCatCommand{UserID: user.UserID, CatID: catID})
}

// Abandon handles POST /api/cats/{catID}/abandon
func (h *CatHandler) Abandon(w http.ResponseWriter, r *http.Request) {
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
	h.send(w, r, http.StatusOK, commands.AbandonCatCommand{UserID: user.UserID, CatID: catID})
}

// Get handles GET /api/cats/{catID}
func (h *CatHandler) Get(w http.ResponseWriter, r *http.Request) {
	catID, err := catIDParam(r, "catID")
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.GetCatQuery{CatID: catID})
}

// ListAdoptable handles GET /api/cats/adoptable
func (h *CatHandler) ListAdoptable(w http.ResponseWriter, r *http.Request) {
	h.ask(w, r, queries.ListAdoptableCatsQuery{})
}

// Create handles POST /api/admin/cats
func (h *CatHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, err := h.actor(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	var req CreateCatRequest
	if err := decode(w, r, &req, false); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusCreated, commands.CreateCatCommand{
		UserID:      user.UserID,
		Name:        req.Name,
		Skin:        req.Skin,
		Personality: req.Personality,
	})
}
