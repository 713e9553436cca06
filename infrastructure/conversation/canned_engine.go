package conversation

import (
	"context"
	"fmt"

	"catnook-backend/application/ports"
)

// CannedEngine answers without a generator. The cat keeps its vitals, so a
// chat through it only ever costs the optional interaction.
type CannedEngine struct{}

var _ ports.ConversationEngine = CannedEngine{}

func (CannedEngine) Respond(ctx context.Context, req ports.ConversationRequest) (*ports.ConversationReply, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &ports.ConversationReply{
		Reply:    cannedReply(req),
		Mood:     req.Cat.Mood,
		Patience: req.Cat.Patience,
	}, nil
}

func cannedReply(req ports.ConversationRequest) string {
	switch req.Cat.State {
	case "dying":
		return fmt.Sprintf("%s barely lifts an ear.", req.Cat.Name)
	case "adoptable":
		return fmt.Sprintf("%s sniffs your hand from a safe distance.", req.Cat.Name)
	case "alive":
		if len(req.Recent) > 0 && req.Recent[0].Kind == "feed" {
			return fmt.Sprintf("%s purrs and licks its whiskers.", req.Cat.Name)
		}
		return fmt.Sprintf("%s blinks slowly at %s.", req.Cat.Name, req.User.Username)
	default:
		return fmt.Sprintf("%s ignores you.", req.Cat.Name)
	}
}
