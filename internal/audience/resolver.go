// internal/audience/resolver.go
package audience

import (
	"context"
	"sync/atomic"
	"time"

	appErrors "github.com/maisonlabs/pulse-backend/internal/errors"
	"github.com/maisonlabs/pulse-backend/internal/model"
)

// Query is the workspace search input. An empty Text is a valid global scan
// over the whole client base, not an error.
type Query struct {
	Text        string `json:"query"`
	Location    string `json:"location"`
	CampaignTag string `json:"campaign_tag"`
}

// Row is what a Searcher returns per matched client, before any eligibility
// or urgency post-processing.
type Row struct {
	ClientID        string
	FullName        string
	Email           string
	MatchedCriteria string
	SourceDate      *time.Time
	OptIn           *bool
	LastContactedAt *time.Time
}

// Searcher is the deep-memory search capability. The matching algorithm
// behind it is opaque to the resolver; implementations range from the SQL
// scan in this package to an external index.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]Row, error)
}

// Signal says how a campaign tag turns a matched fact's date into a countdown.
type Signal int

const (
	SignalNone       Signal = iota
	SignalRecurrence        // anchor recurs yearly (birthday)
	SignalDeadline          // anchor opened a fixed follow-up window (recall)
)

// recallFollowUpDays is the window a seller has to honour a recall request,
// counted from the conversation that recorded it.
const recallFollowUpDays = 14

// Resolver turns a workspace query into classified, ranked candidates.
type Resolver struct {
	Searcher Searcher
	Cooldown time.Duration
	Signals  map[string]Signal
	Now      func() time.Time

	generation uint64
}

func NewResolver(searcher Searcher, cooldownDays int) *Resolver {
	return &Resolver{
		Searcher: searcher,
		Cooldown: CooldownFromDays(cooldownDays),
		Signals: map[string]Signal{
			"birthday":       SignalRecurrence,
			"relance_client": SignalDeadline,
		},
		Now: time.Now,
	}
}

// Resolve runs the search and applies the eligibility policy to every row and
// the urgency ranker when the campaign tag carries a deadline signal. Urgent
// candidates are sorted first; ties keep search order.
//
// Resolutions are last-query-wins: if a newer Resolve starts while this one
// is still searching, the stale result is dropped with ErrStaleQuery.
func (r *Resolver) Resolve(ctx context.Context, q Query) ([]model.Candidate, error) {
	gen := atomic.AddUint64(&r.generation, 1)

	rows, err := r.Searcher.Search(ctx, q)
	if err != nil {
		return []model.Candidate{}, appErrors.NewAudienceSearch(q.Text, err)
	}
	if atomic.LoadUint64(&r.generation) != gen {
		return nil, appErrors.NewStaleQuery(q.Text)
	}

	return r.postProcess(rows, q), nil
}

// ResolveBatch runs the same search and post-processing without the
// last-query-wins guard. Batch callers (the strategy dashboard resolving
// every catalog entry side by side) must not supersede each other or the
// operator's workspace search, so the generation counter is neither bumped
// nor checked here.
func (r *Resolver) ResolveBatch(ctx context.Context, q Query) ([]model.Candidate, error) {
	rows, err := r.Searcher.Search(ctx, q)
	if err != nil {
		return []model.Candidate{}, appErrors.NewAudienceSearch(q.Text, err)
	}
	return r.postProcess(rows, q), nil
}

func (r *Resolver) postProcess(rows []Row, q Query) []model.Candidate {
	now := r.Now()
	signal := r.Signals[q.CampaignTag]

	candidates := make([]model.Candidate, 0, len(rows))
	for _, row := range rows {
		c := model.Candidate{
			ClientID:          row.ClientID,
			FullName:          row.FullName,
			Email:             row.Email,
			MatchedCriteria:   row.MatchedCriteria,
			SourceDate:        row.SourceDate,
			OptIn:             row.OptIn == nil || *row.OptIn,
			EligibilityStatus: Classify(row.OptIn, row.LastContactedAt, now, r.Cooldown),
		}

		if signal != SignalNone && row.SourceDate != nil {
			var deadline time.Time
			if signal == SignalRecurrence {
				deadline = NextOccurrence(*row.SourceDate, now)
			} else {
				deadline = row.SourceDate.AddDate(0, 0, recallFollowUpDays)
			}
			remaining := DaysRemaining(deadline, now)
			c.DaysRemaining = &remaining
			c.UrgencyScore = TierFor(remaining)
		}

		candidates = append(candidates, c)
	}

	SortUrgentFirst(candidates)
	return candidates
}
