package memory

import (
	"testing"

	"catnook-backend/infrastructure/persistence/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Repos {
		s := NewStore()
		return storetest.Repos{
			Cats:         s.Cats(),
			Accounts:     s.Accounts(),
			Interactions: s.Interactions(),
		}
	})
}
