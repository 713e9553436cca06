package handlers

import (
	"catnook-backend/application/queries"
	"catnook-backend/application/queries/bus"
)

// Set holds every query handler the API serves
type Set struct {
	Interactions *InteractionQueryHandler
	Cats         *CatQueryHandler
}

// Register binds each query type to its handler
func (s *Set) Register(b *bus.QueryBus) error {
	routes := []struct {
		query   bus.Query
		handler bus.QueryHandler
	}{
		{queries.LastInteractionsQuery{}, bus.HandlerFor(s.Interactions.Last)},
		{queries.ListInteractionsQuery{}, bus.HandlerFor(s.Interactions.List)},
		{queries.GetInteractionQuery{}, bus.HandlerFor(s.Interactions.Get)},
		{queries.GetCatQuery{}, bus.HandlerFor(s.Cats.GetCat)},
		{queries.ListAdoptableCatsQuery{}, bus.HandlerFor(s.Cats.ListAdoptable)},
		{queries.ListOwnedCatsQuery{}, bus.HandlerFor(s.Cats.ListOwned)},
		{queries.GetAccountQuery{}, bus.HandlerFor(s.Cats.GetAccount)},
	}
	for _, r := range routes {
		if err := b.Register(r.query, r.handler); err != nil {
			return err
		}
	}
	return nil
}
