package handlers

import (
	"catnook-backend/application/commands"
	"catnook-backend/application/commands/bus"
)

// Set holds every command handler the API serves
type Set struct {
	RecordInteraction *RecordInteractionHandler
	ApplyMood         *ApplyMoodHandler
	ProcessLogin      *ProcessLoginHandler
	Adoption          *AdoptionHandler
	CreateCat         *CreateCatHandler
	ChatRound         *ChatRoundOrchestrator
}

// Register binds each command type to its handler
func (s *Set) Register(b *bus.CommandBus) error {
	routes := []struct {
		cmd     bus.Command
		handler bus.CommandHandler
	}{
		{commands.RecordInteractionCommand{}, bus.HandlerFor(s.RecordInteraction.Handle)},
		{commands.ApplyMoodCommand{}, bus.HandlerFor(s.ApplyMood.Handle)},
		{commands.ProcessLoginCommand{}, bus.HandlerFor(s.ProcessLogin.Handle)},
		{commands.AdoptCatCommand{}, bus.HandlerFor(s.Adoption.Adopt)},
		{commands.AbandonCatCommand{}, bus.HandlerFor(s.Adoption.Abandon)},
		{commands.CreateCatCommand{}, bus.HandlerFor(s.CreateCat.Handle)},
		{commands.ChatRoundCommand{}, bus.HandlerFor(s.ChatRound.Handle)},
	}
	for _, r := range routes {
		if err := b.Register(r.cmd, r.handler); err != nil {
			return err
		}
	}
	return nil
}
