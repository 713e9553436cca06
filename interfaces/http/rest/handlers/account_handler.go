package handlers

import (
	"net/http"

	"catnook-backend/application/commands"
	"catnook-backend/application/commands/bus"
	"catnook-backend/application/queries"
	querybus "catnook-backend/application/queries/bus"
	pkgerrors "catnook-backend/pkg/errors"
)

// AccountHandler serves the actor's own profile
type AccountHandler struct {
	base
}

func NewAccountHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, errs *pkgerrors.ErrorHandler) *AccountHandler {
	return &AccountHandler{base{commandBus: commandBus, queryBus: queryBus, errors: errs}}
}

// Me handles GET /api/users/me
func (h *AccountHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.actor(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.GetAccountQuery{UserID: user.UserID})
}

// MyCats handles GET /api/users/me/cats
func (h *AccountHandler) MyCats(w http.ResponseWriter, r *http.Request) {
	user, err := h.actor(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.ask(w, r, queries.ListOwnedCatsQuery{UserID: user.UserID})
}

// Login handles POST /api/users/me/login
func (h *AccountHandler) Login(w http.ResponseWriter, r *http.Request) {
	user, err := h.actor(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	h.send(w, r, http.StatusOK, commands.ProcessLoginCommand{UserID: user.UserID})
}
