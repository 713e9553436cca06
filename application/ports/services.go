package ports

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned by Locker.TryAcquire when someone else holds the
// resource. It is a transient condition, callers retry.
var ErrLockHeld = errors.New("lock is held by another owner")

// Lock is a held resource lease
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out exclusive, expiring leases on named resources. TryAcquire
// never waits: it either returns the lease or ErrLockHeld.
type Locker interface {
	TryAcquire(ctx context.Context, resource string, ttl time.Duration) (Lock, error)
}

// ResourceGuard serializes work on named resources. AcquireAll waits a
// bounded time for every resource, in the order given, and returns a func
// that releases them all.
type ResourceGuard interface {
	AcquireAll(ctx context.Context, resources ...string) (release func(), err error)
}

// CatPersona is what the conversation engine is told about the cat
type CatPersona struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Personality string `json:"personality"`
	Mood        int    `json:"mood"`
	Patience    int    `json:"patience"`
	State       string `json:"state"`
}

// RecentInteraction is one line of history given to the engine
type RecentInteraction struct {
	Kind string    `json:"interactionType"`
	At   time.Time `json:"interactionDate"`
}

// ConversationUser identifies who is talking to the cat
type ConversationUser struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// ConversationRequest is one chat turn
type ConversationRequest struct {
	Cat     CatPersona          `json:"cat"`
	User    ConversationUser    `json:"user"`
	Message string              `json:"message"`
	Recent  []RecentInteraction `json:"recentInteractions"`
}

// ConversationReply carries the cat's answer and its new absolute vitals
type ConversationReply struct {
	Reply    string `json:"reply"`
	Mood     int    `json:"mood"`
	Patience int    `json:"patience"`
}

// ConversationEngine produces the cat's side of a chat. Its reasoning is
// opaque; only the reply and vitals come back.
type ConversationEngine interface {
	Respond(ctx context.Context, req ConversationRequest) (*ConversationReply, error)
}
