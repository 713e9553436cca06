package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catnook-backend/application/ports"
	"catnook-backend/domain/config"
	"catnook-backend/domain/core/entities"
	pkgerrors "catnook-backend/pkg/errors"

	"go.uber.org/zap"
)

type seedUser struct {
	username string
	email    string
	bio      string
	yarn     int64
	admin    bool
}

type seedCat struct {
	name        string
	skin        string
	personality string
}

// everyone last logged in at the same moment so a fresh login shows the bonus
var seedLastLogin = time.Date(2024, time.November, 3, 12, 34, 56, 0, time.UTC)

var seedUsers = []seedUser{
	{username: "johndoe", email: "john.doe@example.com", bio: "Love cats, and aspiring cat whisperer.", yarn: 500},
	{username: "janedoe", email: "jane.doe@example.com", bio: "Admin of the catnook universe.", yarn: 1000, admin: true},
	{username: "catlover99", email: "cat.lover99@example.com", bio: "Cant stop adopting cats!", yarn: 700},
}

var seedCats = []seedCat{
	{name: "Miso", skin: "tabby", personality: "Curious and a little dramatic about dinner."},
	{name: "Pepper", skin: "tuxedo", personality: "Aloof until someone opens a can."},
	{name: "Biscuit", skin: "ginger", personality: "Loud, friendly and always underfoot."},
	{name: "Luna", skin: "black", personality: "Quiet night owl who likes long talks."},
	{name: "Tofu", skin: "white", personality: "Shy, warms up slowly, never forgets a kindness."},
}

// seeder fills an empty store with demo accounts and adoptable cats. It is
// safe to run twice: existing usernames are skipped and cats are only added
// when the adoption pool is empty.
type seeder struct {
	cats     ports.CatRepository
	accounts ports.AccountRepository
	rules    *config.EconomyConfig
	now      time.Time
	logger   *zap.Logger
}

func (s *seeder) run(ctx context.Context) ([]*entities.Account, error) {
	accounts := make([]*entities.Account, 0, len(seedUsers))
	for _, u := range seedUsers {
		acct, err := s.ensureAccount(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.username, err)
		}
		accounts = append(accounts, acct)
	}

	adoptable, err := s.cats.ListAdoptable(ctx)
	if err != nil {
		return nil, fmt.Errorf("list adoptable cats: %w", err)
	}
	if len(adoptable) > 0 {
		s.logger.Info("Adoption pool already stocked", zap.Int("cats", len(adoptable)))
		return accounts, nil
	}
	for _, c := range seedCats {
		cat, err := entities.NewCat(c.name, c.skin, c.personality, s.rules, s.now)
		if err != nil {
			return nil, fmt.Errorf("seed cat %s: %w", c.name, err)
		}
		if err := s.cats.Create(ctx, cat); err != nil {
			return nil, fmt.Errorf("seed cat %s: %w", c.name, err)
		}
		s.logger.Info("Seeded cat", zap.Int64("catID", int64(cat.ID())), zap.String("name", cat.Name()))
	}
	return accounts, nil
}

func (s *seeder) ensureAccount(ctx context.Context, u seedUser) (*entities.Account, error) {
	existing, err := s.accounts.GetByUsername(ctx, u.username)
	if err == nil {
		s.logger.Info("User already seeded", zap.String("username", u.username))
		return existing, nil
	}
	if !errors.Is(err, pkgerrors.ErrUserNotFound) {
		return nil, err
	}

	role := "user"
	if u.admin {
		role = entities.RoleAdmin
	}
	lastLogin := seedLastLogin
	acct := entities.ReconstructAccount(entities.AccountSnapshot{
		Username:      u.username,
		Email:         u.email,
		Role:          role,
		Bio:           u.bio,
		Yarn:          u.yarn,
		LastLoginDate: &lastLogin,
		CreatedAt:     s.now,
	})
	if err := s.accounts.Create(ctx, acct); err != nil {
		return nil, err
	}
	s.logger.Info("Seeded user",
		zap.Int64("userID", int64(acct.ID())),
		zap.String("username", acct.Username()),
		zap.Int64("yarn", acct.Yarn()))
	return acct, nil
}
