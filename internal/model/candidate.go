// internal/model/candidate.go
package model

import "time"

type EligibilityStatus string

const (
	Eligible EligibilityStatus = "Eligible"
	Cooldown EligibilityStatus = "Cooldown"
	Excluded EligibilityStatus = "Excluded"
)

// Candidate is a per-query projection of a client produced by the audience
// resolver. Never persisted, recomputed on every search.
type Candidate struct {
	ClientID          string            `json:"client_id"`
	FullName          string            `json:"full_name"`
	Email             string            `json:"email"`
	MatchedCriteria   string            `json:"matched_criteria"`
	SourceDate        *time.Time        `json:"source_date,omitempty"`
	EligibilityStatus EligibilityStatus `json:"eligibility_status"`
	OptIn             bool              `json:"opt_in"`
	UrgencyScore      int               `json:"urgency_score"` // 1 urgent, 2 soon, 0 none
	DaysRemaining     *int              `json:"days_remaining,omitempty"`
}

func (c *Candidate) Urgent() bool {
	return c.UrgencyScore == 1 || c.UrgencyScore == 2
}
