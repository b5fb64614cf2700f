// internal/strategy/counts.go
package strategy

import (
	"context"
	"encoding/json"
	"log"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/maisonlabs/pulse-backend/internal/audience"
)

// Summary is the dashboard figure for one strategy: audience size plus the
// tightest countdown among its urgent candidates.
type Summary struct {
	Strategy    Strategy `json:"strategy"`
	Count       int      `json:"count"`
	UrgentCount int      `json:"urgent_count"`
	MinDays     *int     `json:"min_days,omitempty"`
}

const countCachePrefix = "strategy_counts:"

// CountService resolves per-strategy audience sizes, caching them in Redis so
// opening the dashboard does not re-scan the whole base every time.
//
// Counts resolve through ResolveBatch: prefetching every strategy must not
// supersede the operator's in-flight workspace search, and two dashboards
// opening at once must not supersede each other.
type CountService struct {
	Catalog  *Catalog
	Resolver *audience.Resolver
	Redis    *redis.Client
	TTL      time.Duration
}

func NewCountService(catalog *Catalog, resolver *audience.Resolver, rdb *redis.Client) *CountService {
	return &CountService{
		Catalog:  catalog,
		Resolver: resolver,
		Redis:    rdb,
		TTL:      5 * time.Minute,
	}
}

// Summaries returns one summary per catalog strategy, urgent strategies
// first. A strategy whose search fails reports zero rather than failing the
// whole dashboard.
func (s *CountService) Summaries(ctx context.Context) []Summary {
	summaries := make([]Summary, 0, len(s.Catalog.Strategies))
	for _, st := range s.Catalog.Strategies {
		summary, err := s.summarize(ctx, st)
		if err != nil {
			log.Println("⚠️ count failed for strategy", st.ID, ":", err)
			summary = Summary{Strategy: st}
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].UrgentCount > 0 && summaries[j].UrgentCount == 0
	})
	return summaries
}

func (s *CountService) summarize(ctx context.Context, st Strategy) (Summary, error) {
	if cached, ok := s.fromCache(ctx, st.ID); ok {
		cached.Strategy = st
		return cached, nil
	}

	candidates, err := s.Resolver.ResolveBatch(ctx, audience.Query{
		Text:        st.Query,
		CampaignTag: st.ID,
	})
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Strategy: st, Count: len(candidates)}
	for _, c := range candidates {
		if !c.Urgent() {
			continue
		}
		summary.UrgentCount++
		if c.DaysRemaining != nil && (summary.MinDays == nil || *c.DaysRemaining < *summary.MinDays) {
			d := *c.DaysRemaining
			summary.MinDays = &d
		}
	}

	s.toCache(ctx, st.ID, summary)
	return summary, nil
}

func (s *CountService) fromCache(ctx context.Context, id string) (Summary, bool) {
	if s.Redis == nil {
		return Summary{}, false
	}
	raw, err := s.Redis.Get(ctx, countCachePrefix+id).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Println("⚠️ strategy count cache read failed:", err)
		}
		return Summary{}, false
	}
	var summary Summary
	if err := json.Unmarshal(raw, &summary); err != nil {
		return Summary{}, false
	}
	return summary, true
}

func (s *CountService) toCache(ctx context.Context, id string, summary Summary) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, countCachePrefix+id, raw, s.TTL).Err(); err != nil {
		log.Println("⚠️ strategy count cache write failed:", err)
	}
}

// Invalidate drops a strategy's cached count, called after a launch changes
// eligibility for its audience.
func (s *CountService) Invalidate(ctx context.Context, id string) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, countCachePrefix+id).Err(); err != nil {
		log.Println("⚠️ strategy count cache invalidation failed:", err)
	}
}
