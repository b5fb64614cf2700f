package audience

import (
	"context"
	"errors"
	"testing"
	"time"

	appErrors "github.com/maisonlabs/pulse-backend/internal/errors"
	"github.com/maisonlabs/pulse-backend/internal/model"
)

type fakeSearcher struct {
	rows  []Row
	err   error
	calls int
	hook  func() // runs inside Search, before returning
}

func (f *fakeSearcher) Search(ctx context.Context, q Query) ([]Row, error) {
	f.calls++
	if f.hook != nil {
		hook := f.hook
		f.hook = nil
		hook()
	}
	return f.rows, f.err
}

func fixedNow() time.Time {
	return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func TestResolveAppliesEligibilityToEveryCandidate(t *testing.T) {
	now := fixedNow()
	searcher := &fakeSearcher{rows: []Row{
		{ClientID: "c1", OptIn: boolPtr(true)},
		{ClientID: "c2", OptIn: boolPtr(false)},
		{ClientID: "c3", OptIn: boolPtr(true), LastContactedAt: timePtr(now.AddDate(0, 0, -5))},
		{ClientID: "c4"}, // opt-in never recorded
	}}

	r := NewResolver(searcher, 60)
	r.Now = fixedNow

	candidates, err := r.Resolve(context.Background(), Query{Text: "Vegan"})
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 4 {
		t.Fatalf("got %d candidates, want 4", len(candidates))
	}

	byID := map[string]model.Candidate{}
	for _, c := range candidates {
		byID[c.ClientID] = c
	}
	if byID["c1"].EligibilityStatus != model.Eligible {
		t.Errorf("c1 = %s, want Eligible", byID["c1"].EligibilityStatus)
	}
	if byID["c2"].EligibilityStatus != model.Excluded {
		t.Errorf("c2 = %s, want Excluded", byID["c2"].EligibilityStatus)
	}
	if byID["c3"].EligibilityStatus != model.Cooldown {
		t.Errorf("c3 = %s, want Cooldown", byID["c3"].EligibilityStatus)
	}
	if byID["c4"].EligibilityStatus != model.Eligible {
		t.Errorf("c4 = %s, want Eligible", byID["c4"].EligibilityStatus)
	}
	if !byID["c1"].OptIn || byID["c2"].OptIn || !byID["c4"].OptIn {
		t.Error("opt_in flags not carried through")
	}
}

func TestResolveBirthdaySignalRanksUrgency(t *testing.T) {
	now := fixedNow()
	soon := now.AddDate(-30, 0, 3) // birthday in 3 days
	far := now.AddDate(-25, 0, 90) // birthday in ~3 months

	searcher := &fakeSearcher{rows: []Row{
		{ClientID: "far", SourceDate: timePtr(far)},
		{ClientID: "soon", SourceDate: timePtr(soon)},
		{ClientID: "none"}, // no anchor date, no countdown
	}}

	r := NewResolver(searcher, 60)
	r.Now = fixedNow

	candidates, err := r.Resolve(context.Background(), Query{Text: "Anniversaire", CampaignTag: "birthday"})
	if err != nil {
		t.Fatal(err)
	}

	// urgent candidate sorted first
	if candidates[0].ClientID != "soon" {
		t.Fatalf("first candidate = %s, want soon", candidates[0].ClientID)
	}
	if candidates[0].UrgencyScore != TierUrgent {
		t.Errorf("urgency = %d, want %d", candidates[0].UrgencyScore, TierUrgent)
	}
	if candidates[0].DaysRemaining == nil || *candidates[0].DaysRemaining > 3 {
		t.Errorf("days remaining = %v, want <= 3", candidates[0].DaysRemaining)
	}

	for _, c := range candidates {
		if c.ClientID == "none" && (c.DaysRemaining != nil || c.UrgencyScore != TierNone) {
			t.Errorf("candidate without anchor got a countdown: %+v", c)
		}
		if c.DaysRemaining != nil && *c.DaysRemaining < 0 {
			t.Errorf("negative countdown for %s", c.ClientID)
		}
	}
}

func TestResolveNoSignalTagSkipsUrgency(t *testing.T) {
	now := fixedNow()
	searcher := &fakeSearcher{rows: []Row{
		{ClientID: "c1", SourceDate: timePtr(now.AddDate(0, 0, -2))},
	}}

	r := NewResolver(searcher, 60)
	r.Now = fixedNow

	candidates, err := r.Resolve(context.Background(), Query{Text: "Chic", CampaignTag: "style_chic"})
	if err != nil {
		t.Fatal(err)
	}
	if candidates[0].DaysRemaining != nil || candidates[0].UrgencyScore != TierNone {
		t.Errorf("non-deadline campaign got urgency: %+v", candidates[0])
	}
}

func TestResolveSearchFailureIsRecoverable(t *testing.T) {
	searcher := &fakeSearcher{err: errors.New("timeout")}

	r := NewResolver(searcher, 60)
	candidates, err := r.Resolve(context.Background(), Query{Text: "Vegan"})

	var searchErr *appErrors.ErrAudienceSearch
	if !errors.As(err, &searchErr) {
		t.Fatalf("got %v, want ErrAudienceSearch", err)
	}
	if len(candidates) != 0 {
		t.Errorf("failed search returned %d candidates, want 0", len(candidates))
	}
}

func TestResolveLastQueryWins(t *testing.T) {
	searcher := &fakeSearcher{rows: []Row{{ClientID: "c1"}}}
	r := NewResolver(searcher, 60)
	r.Now = fixedNow

	// a newer query starts while the first search is still running
	searcher.hook = func() {
		if _, err := r.Resolve(context.Background(), Query{Text: "newer"}); err != nil {
			t.Errorf("newer query failed: %v", err)
		}
	}

	_, err := r.Resolve(context.Background(), Query{Text: "older"})
	var stale *appErrors.ErrStaleQuery
	if !errors.As(err, &stale) {
		t.Fatalf("got %v, want ErrStaleQuery", err)
	}
	if searcher.calls != 2 {
		t.Errorf("searcher called %d times, want 2", searcher.calls)
	}
}

func TestResolveBatchSkipsLastQueryWins(t *testing.T) {
	searcher := &fakeSearcher{rows: []Row{{ClientID: "c1", OptIn: boolPtr(true)}}}
	r := NewResolver(searcher, 60)
	r.Now = fixedNow

	// an interactive query lands mid-search; the batch result still stands
	searcher.hook = func() {
		if _, err := r.Resolve(context.Background(), Query{Text: "newer"}); err != nil {
			t.Errorf("interactive query failed: %v", err)
		}
	}

	candidates, err := r.ResolveBatch(context.Background(), Query{Text: "Vegan"})
	if err != nil {
		t.Fatalf("batch resolution failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].EligibilityStatus != model.Eligible {
		t.Fatalf("got %+v, want one eligible candidate", candidates)
	}
}

func TestResolveBatchDoesNotSupersedeInteractiveQuery(t *testing.T) {
	searcher := &fakeSearcher{rows: []Row{{ClientID: "c1"}}}
	r := NewResolver(searcher, 60)
	r.Now = fixedNow

	// a batch resolution lands mid-search; the operator's query must survive
	searcher.hook = func() {
		if _, err := r.ResolveBatch(context.Background(), Query{Text: "batch"}); err != nil {
			t.Errorf("batch resolution failed: %v", err)
		}
	}

	if _, err := r.Resolve(context.Background(), Query{Text: "Vegan"}); err != nil {
		t.Fatalf("interactive query marked stale by a batch resolution: %v", err)
	}
}
