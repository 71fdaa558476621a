package rules

import (
	"time"

	"github.com/andreysobol/amora/internal/domain/enums"
)

// Unlimited marks a (tier, action) pair with no daily ceiling.
const Unlimited = -1

const FreeLikesPerDay = 50

type Allowances map[enums.Tier]map[enums.ActionType]int

// Limit returns the daily ceiling for the pair and whether it is unlimited.
// Pairs missing from the table resolve to 0, i.e. the action is not available
// on that tier.
func (a Allowances) Limit(tier enums.Tier, action enums.ActionType) (int, bool) {
	perAction, ok := a[tier]
	if !ok {
		return 0, false
	}
	limit, ok := perAction[action]
	if !ok {
		return 0, false
	}
	if limit == Unlimited {
		return 0, true
	}
	if limit < 0 {
		limit = 0
	}
	return limit, false
}

func DefaultAllowances() Allowances {
	return Allowances{
		enums.TierFree: {
			enums.ActionLike:      FreeLikesPerDay,
			enums.ActionSuperLike: 1,
			enums.ActionRewind:    3,
			enums.ActionBoost:     0,
		},
		enums.TierBasic: {
			enums.ActionLike:      100,
			enums.ActionSuperLike: 5,
			enums.ActionRewind:    10,
			enums.ActionBoost:     1,
		},
		enums.TierPremium: {
			enums.ActionLike:      Unlimited,
			enums.ActionSuperLike: 10,
			enums.ActionRewind:    Unlimited,
			enums.ActionBoost:     2,
		},
		enums.TierGold: {
			enums.ActionLike:      Unlimited,
			enums.ActionSuperLike: 20,
			enums.ActionRewind:    Unlimited,
			enums.ActionBoost:     5,
		},
	}
}

// DayKey buckets usage counters by calendar day in the caller's timezone.
// Quotas reset at local midnight; UTC when no timezone is known.
func DayKey(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format("2006-01-02")
}

func NextResetAt(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	next := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	return next.UTC()
}

// ResolveLocation loads the first usable timezone among the candidates,
// falling back to UTC.
func ResolveLocation(candidates ...string) (*time.Location, string) {
	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}
		if loc, err := time.LoadLocation(candidate); err == nil {
			return loc, candidate
		}
	}
	return time.UTC, "UTC"
}
