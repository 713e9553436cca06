package services

import (
	"time"

	"catnook-backend/domain/config"
)

// AbsenceBonus is the outcome of one login evaluation
type AbsenceBonus struct {
	Hours  int64
	Amount int64
}

// AbsenceBonusCalculator prices the time a player spent away.
type AbsenceBonusCalculator struct {
	perHour int64
	cap     int64
	gate    time.Duration
}

func NewAbsenceBonusCalculator(rules *config.EconomyConfig) *AbsenceBonusCalculator {
	return &AbsenceBonusCalculator{
		perHour: rules.AbsenceBonusPerHour,
		cap:     rules.AbsenceBonusCap,
		gate:    rules.AbsenceBonusGate,
	}
}

// Compute returns min(cap, floor(hours) * perHour) when the absence is
// strictly longer than the gate. A first login (previous == nil) and a
// clock that went backwards both earn nothing.
func (c *AbsenceBonusCalculator) Compute(previous *time.Time, now time.Time) AbsenceBonus {
	if previous == nil {
		return AbsenceBonus{}
	}
	away := now.Sub(*previous)
	if away <= 0 {
		return AbsenceBonus{}
	}

	hours := int64(away / time.Hour)
	if away <= c.gate {
		return AbsenceBonus{Hours: hours}
	}

	amount := hours * c.perHour
	if amount > c.cap {
		amount = c.cap
	}
	return AbsenceBonus{Hours: hours, Amount: amount}
}
