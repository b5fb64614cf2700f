package repository

import (
	"database/sql"
	"time"

	"github.com/maisonlabs/pulse-backend/internal/model"
)

// TagRepositoryInterface exposes the append-only DNA fact store
type TagRepositoryInterface interface {
	ListByClient(clientID string) ([]model.Tag, error)
	Create(t *model.Tag) error
	TopValues(limit int) (map[string]int, error)
}

type TagRepository struct {
	DB *sql.DB
}

func (r *TagRepository) ListByClient(clientID string) ([]model.Tag, error) {
	query := `
        SELECT id, client_id, root_category, sub_category, value, confidence, created_at
        FROM tags
        WHERE client_id = $1
        ORDER BY created_at DESC
    `
	rows, err := r.DB.Query(query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.ClientID, &t.RootCategory, &t.SubCategory,
			&t.Value, &t.Confidence, &t.CreatedAt); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, nil
}

// Create appends one fact. Superseded facts are never retracted here.
func (r *TagRepository) Create(t *model.Tag) error {
	t.CreatedAt = time.Now()
	query := `
        INSERT INTO tags (client_id, root_category, sub_category, value, confidence, created_at)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id
    `
	return r.DB.QueryRow(query, t.ClientID, t.RootCategory, t.SubCategory, t.Value, t.Confidence, t.CreatedAt).Scan(&t.ID)
}

// TopValues aggregates the most frequent tag values, used by the strategy dashboard.
func (r *TagRepository) TopValues(limit int) (map[string]int, error) {
	query := `SELECT value, COUNT(*) FROM tags GROUP BY value ORDER BY COUNT(*) DESC LIMIT $1`
	rows, err := r.DB.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var value string
		var count int
		if err := rows.Scan(&value, &count); err != nil {
			return nil, err
		}
		counts[value] = count
	}
	return counts, nil
}

var _ TagRepositoryInterface = (*TagRepository)(nil)
