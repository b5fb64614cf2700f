// internal/audience/search.go
package audience

import (
	"context"
	"database/sql"
	"fmt"
)

// MatchGlobal is the criteria label for clients returned by an empty-query
// scan that never matched a specific fact.
const MatchGlobal = "Match Global"

// SQLSearcher is the in-process deep-memory search: a full historical scan of
// the tags table joined to clients, not limited to recent activity.
type SQLSearcher struct {
	DB *sql.DB
}

func (s *SQLSearcher) Search(ctx context.Context, q Query) ([]Row, error) {
	if q.Text == "" {
		return s.globalScan(ctx, q)
	}
	return s.tagScan(ctx, q)
}

// tagScan matches the query text against tag values and sub-categories and
// keeps the most recent matching fact per client.
func (s *SQLSearcher) tagScan(ctx context.Context, q Query) ([]Row, error) {
	query := `
        SELECT DISTINCT ON (c.id)
            c.id, c.full_name, c.email, c.opt_in_marketing, c.last_contacted_at,
            t.value, t.created_at
        FROM clients c
        JOIN tags t ON t.client_id = c.id
        WHERE (t.value ILIKE $1 OR t.sub_category ILIKE $1)
    `
	args := []interface{}{"%" + q.Text + "%"}
	if q.Location != "" {
		query += fmt.Sprintf(" AND c.location=$%d", len(args)+1)
		args = append(args, q.Location)
	}
	query += " ORDER BY c.id, t.created_at DESC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Row{}
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ClientID, &r.FullName, &r.Email, &r.OptIn,
			&r.LastContactedAt, &r.MatchedCriteria, &r.SourceDate); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// globalScan returns the whole base, including clients without a single
// extracted fact yet.
func (s *SQLSearcher) globalScan(ctx context.Context, q Query) ([]Row, error) {
	query := `
        SELECT c.id, c.full_name, c.email, c.opt_in_marketing, c.last_contacted_at,
            MAX(t.created_at)
        FROM clients c
        LEFT JOIN tags t ON t.client_id = c.id
    `
	args := []interface{}{}
	if q.Location != "" {
		query += " WHERE c.location=$1"
		args = append(args, q.Location)
	}
	query += " GROUP BY c.id, c.full_name, c.email, c.opt_in_marketing, c.last_contacted_at ORDER BY c.full_name"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Row{}
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ClientID, &r.FullName, &r.Email, &r.OptIn,
			&r.LastContactedAt, &r.SourceDate); err != nil {
			return nil, err
		}
		r.MatchedCriteria = MatchGlobal
		results = append(results, r)
	}
	return results, rows.Err()
}

var _ Searcher = (*SQLSearcher)(nil)
