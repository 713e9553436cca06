// Package handlers turns HTTP requests into commands and queries.
package handlers

import (
	"net/http"
	"strconv"

	"catnook-backend/application/commands/bus"
	querybus "catnook-backend/application/queries/bus"
	"catnook-backend/domain/core/valueobjects"
	"catnook-backend/pkg/auth"
	"catnook-backend/pkg/common"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
)

// base carries what every handler needs
type base struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	errors     *pkgerrors.ErrorHandler
}

func (b base) actor(r *http.Request) (*auth.UserContext, error) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		return nil, pkgerrors.ErrUnauthenticated
	}
	return user, nil
}

// send dispatches cmd and writes its result with status
func (b base) send(w http.ResponseWriter, r *http.Request, status int, cmd bus.Command) {
	result, err := b.commandBus.Send(r.Context(), cmd)
	if err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, status, result)
}

// ask runs q and writes its result as 200
func (b base) ask(w http.ResponseWriter, r *http.Request, q querybus.Query) {
	result, err := b.queryBus.Ask(r.Context(), q)
	if err != nil {
		b.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// decode reads and validates a JSON body
func decode(w http.ResponseWriter, r *http.Request, v interface{}, optional bool) error {
	var err error
	if optional {
		err = common.ParseOptionalJSONBody(w, r, v)
	} else {
		err = common.ParseJSONBody(w, r, v)
	}
	if err != nil {
		return pkgerrors.ErrInvalidInput.With("reason", "invalid request body: "+err.Error())
	}
	if err := utils.ValidateStruct(v); err != nil {
		return pkgerrors.ErrInvalidInput.With("reason", err.Error())
	}
	return nil
}

func catIDParam(r *http.Request, name string) (valueobjects.CatID, error) {
	id, err := valueobjects.ParseCatID(chi.URLParam(r, name))
	if err != nil {
		return 0, pkgerrors.ErrInvalidInput.With("field", "catId")
	}
	return id, nil
}

// optionalID parses an optional positive integer query parameter
func optionalID(r *http.Request, key string) (int64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, pkgerrors.ErrInvalidInput.With("field", key)
	}
	return v, nil
}
