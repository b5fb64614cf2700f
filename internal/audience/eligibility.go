// internal/audience/eligibility.go
package audience

import (
	"time"

	"github.com/maisonlabs/pulse-backend/internal/model"
)

// DefaultCooldownDays is the anti-spam window: minimum days since the last
// contact before a client can be targeted again.
const DefaultCooldownDays = 60

// Classify decides campaign eligibility for one client. A nil optIn means the
// client was never asked and counts as opted in; a nil lastContactedAt means
// never contacted, so no cooldown applies.
func Classify(optIn *bool, lastContactedAt *time.Time, now time.Time, cooldown time.Duration) model.EligibilityStatus {
	if optIn != nil && !*optIn {
		return model.Excluded
	}
	if lastContactedAt != nil && now.Sub(*lastContactedAt) < cooldown {
		return model.Cooldown
	}
	return model.Eligible
}

// CooldownFromDays converts the configured day count into the duration Classify expects.
func CooldownFromDays(days int) time.Duration {
	if days <= 0 {
		days = DefaultCooldownDays
	}
	return time.Duration(days) * 24 * time.Hour
}
