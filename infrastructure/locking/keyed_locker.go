package locking

import (
	"context"
	"sync"
	"time"

	"catnook-backend/application/ports"
	"catnook-backend/pkg/utils"

	"github.com/google/uuid"
)

// KeyedLocker is an in-process lease table keyed by resource name. It is
// the lock used with the memory and sqlite stores, where one process owns
// the data.
type KeyedLocker struct {
	mu    sync.Mutex
	held  map[string]keyedLease
	clock utils.Clock
}

type keyedLease struct {
	token     string
	expiresAt time.Time
}

func NewKeyedLocker(clock utils.Clock) *KeyedLocker {
	return &KeyedLocker{
		held:  make(map[string]keyedLease),
		clock: clock,
	}
}

// TryAcquire takes the lease if it is free or has expired
func (k *KeyedLocker) TryAcquire(ctx context.Context, resource string, ttl time.Duration) (ports.Lock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	now := k.clock.Now()
	k.mu.Lock()
	defer k.mu.Unlock()

	if cur, ok := k.held[resource]; ok && now.Before(cur.expiresAt) {
		return nil, ports.ErrLockHeld
	}

	token := uuid.NewString()
	k.held[resource] = keyedLease{token: token, expiresAt: now.Add(ttl)}
	return &keyedLock{owner: k, resource: resource, token: token}, nil
}

func (k *KeyedLocker) release(resource, token string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	// an expired lease may already belong to someone else
	if cur, ok := k.held[resource]; ok && cur.token == token {
		delete(k.held, resource)
	}
}

// Held reports the number of live leases
func (k *KeyedLocker) Held() int {
	now := k.clock.Now()
	k.mu.Lock()
	defer k.mu.Unlock()
	n := 0
	for _, l := range k.held {
		if now.Before(l.expiresAt) {
			n++
		}
	}
	return n
}

type keyedLock struct {
	owner    *KeyedLocker
	resource string
	token    string
	once     sync.Once
}

func (l *keyedLock) Release(context.Context) error {
	l.once.Do(func() { l.owner.release(l.resource, l.token) })
	return nil
}
