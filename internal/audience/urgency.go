// internal/audience/urgency.go
package audience

import (
	"sort"
	"time"

	"github.com/maisonlabs/pulse-backend/internal/model"
)

// Urgency tiers: 1 means the window closes within a week, 2 within a month.
const (
	TierUrgent = 1
	TierSoon   = 2
	TierNone   = 0
)

const day = 24 * time.Hour

// NextOccurrence maps a recurring anchor (a birthday) onto its next calendar
// occurrence: if this year's month/day is already behind us, use next year's.
func NextOccurrence(anchor, now time.Time) time.Time {
	next := time.Date(now.Year(), anchor.Month(), anchor.Day(), 0, 0, 0, 0, now.Location())
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if next.Before(today) {
		next = next.AddDate(1, 0, 0)
	}
	return next
}

// DaysRemaining is the ceiling of the time left until deadline, floored at
// zero so an overdue deadline never reads as a negative countdown.
func DaysRemaining(deadline, now time.Time) int {
	diff := deadline.Sub(now)
	if diff <= 0 {
		return 0
	}
	days := int(diff / day)
	if diff%day != 0 {
		days++
	}
	return days
}

// TierFor buckets a countdown into an urgency tier.
func TierFor(daysRemaining int) int {
	switch {
	case daysRemaining < 7:
		return TierUrgent
	case daysRemaining < 30:
		return TierSoon
	default:
		return TierNone
	}
}

// SortUrgentFirst moves urgent candidates (tier 1 or 2) ahead of the rest.
// The sort is stable: within each group the resolver's order is preserved.
func SortUrgentFirst(candidates []model.Candidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Urgent() && !candidates[j].Urgent()
	})
}
