package handlers

import (
	"context"
	"errors"
	"time"

	"catnook-backend/application/commands"
	"catnook-backend/application/dto"
	"catnook-backend/application/ports"
	"catnook-backend/domain/events"
	"catnook-backend/domain/services"
	pkgerrors "catnook-backend/pkg/errors"
	"catnook-backend/pkg/utils"

	"github.com/cenkalti/backoff/v5"
	"go.uber.org/zap"
)

const (
	loginMaxTries = 4
	loginMaxWait  = time.Second
)

// ProcessLoginHandler advances lastLoginDate and pays the absence bonus
type ProcessLoginHandler struct {
	accounts  ports.AccountRepository
	guard     ports.ResourceGuard
	publisher ports.EventPublisher
	bonus     *services.AbsenceBonusCalculator
	clock     utils.Clock
	logger    *zap.Logger
}

func NewProcessLoginHandler(
	accounts ports.AccountRepository,
	guard ports.ResourceGuard,
	publisher ports.EventPublisher,
	bonus *services.AbsenceBonusCalculator,
	clock utils.Clock,
	logger *zap.Logger,
) *ProcessLoginHandler {
	return &ProcessLoginHandler{
		accounts:  accounts,
		guard:     guard,
		publisher: publisher,
		bonus:     bonus,
		clock:     clock,
		logger:    logger,
	}
}

// Handle reads the previous login, prices the gap and writes the new
// timestamp and credit in one compare-and-swap. Losing the swap means
// another login got there first; the retry re-reads and so earns nothing
// for the same gap.
func (h *ProcessLoginHandler) Handle(ctx context.Context, cmd commands.ProcessLoginCommand) (*dto.LoginResult, error) {
	release, err := h.guard.AcquireAll(ctx, cmd.UserID.LockKey())
	if err != nil {
		return nil, err
	}
	defer release()

	var awarded services.AbsenceBonus
	attempt := 0
	result, err := backoff.Retry(ctx, func() (*dto.LoginResult, error) {
		attempt++
		account, err := h.accounts.GetByID(ctx, cmd.UserID)
		if err != nil {
			return nil, backoff.Permanent(err)
		}

		previous := account.LastLoginDate()
		now := h.clock.Now()
		if previous != nil && now.Before(*previous) {
			// the stored login is ahead of our clock; keep it
			h.logger.Warn("Login clock is behind the stored login",
				zap.Int64("userID", int64(cmd.UserID)),
				zap.Time("stored", *previous),
				zap.Time("now", now))
			return &dto.LoginResult{
				LastLoginDate:     *previous,
				PreviousLoginDate: previous,
				CurrentYarn:       account.Yarn(),
			}, nil
		}

		awarded = h.bonus.Compute(previous, now)
		balance, err := h.accounts.RecordLogin(ctx, cmd.UserID, previous, now, awarded.Amount)
		if errors.Is(err, pkgerrors.ErrConcurrentModification) {
			h.logger.Debug("Login lost the race, re-reading",
				zap.Int64("userID", int64(cmd.UserID)),
				zap.Int("attempt", attempt))
			return nil, err
		}
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		return &dto.LoginResult{
			LastLoginDate:     now,
			PreviousLoginDate: previous,
			BonusAwarded:      awarded.Amount,
			CurrentYarn:       balance,
		}, nil
	},
		backoff.WithBackOff(loginBackOff()),
		backoff.WithMaxTries(loginMaxTries),
		backoff.WithMaxElapsedTime(loginMaxWait),
	)
	if err != nil {
		return nil, err
	}

	h.logger.Info("Login processed",
		zap.Int64("userID", int64(cmd.UserID)),
		zap.Int64("hoursAway", awarded.Hours),
		zap.Int64("bonus", result.BonusAwarded),
		zap.Int64("balance", result.CurrentYarn))
	if result.BonusAwarded > 0 {
		publish(ctx, h.publisher, h.logger,
			events.NewAbsenceBonusAwarded(cmd.UserID, awarded.Hours, result.BonusAwarded, result.CurrentYarn, result.LastLoginDate))
	}
	return result, nil
}

func loginBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxInterval = 100 * time.Millisecond
	return b
}
