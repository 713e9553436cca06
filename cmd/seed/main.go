// Command seed loads demo accounts and adoptable cats into the configured
// store and prints a development token for each account.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"catnook-backend/infrastructure/config"
	"catnook-backend/infrastructure/di"
	"catnook-backend/pkg/auth"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.StorageDriver == config.StorageMemory {
		log.Println("STORAGE_DRIVER=memory: seeded data lives only as long as this process")
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer cleanup()

	s := &seeder{
		cats:     container.Storage.Cats,
		accounts: container.Storage.Accounts,
		rules:    container.Economy,
		now:      time.Now().UTC(),
		logger:   container.Logger,
	}
	accounts, err := s.run(ctx)
	if err != nil {
		log.Fatalf("Seeding failed: %v", err)
	}

	tokens, err := auth.NewJWTGenerator(auth.JWTGeneratorConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.SigningSecret(),
		Issuer:        cfg.JWTIssuer,
		ExpiryTime:    30 * 24 * time.Hour,
	})
	if err != nil {
		log.Fatalf("Failed to create token generator: %v", err)
	}

	fmt.Println("Development tokens (30 days):")
	for _, acct := range accounts {
		roles := []string{"user"}
		if acct.IsAdmin() {
			roles = append(roles, auth.RoleAdmin)
		}
		token, err := tokens.GenerateToken(acct.ID(), acct.Username(), roles)
		if err != nil {
			log.Fatalf("Failed to sign token for %s: %v", acct.Username(), err)
		}
		fmt.Printf("  %-11s id=%-3d yarn=%-5d %s\n", acct.Username(), acct.ID(), acct.Yarn(), token)
	}
	_ = container.Logger.Sync()
}
