package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/maisonlabs/pulse-backend/internal/model"
)

// HistoryRepositoryInterface is the campaign_history audit log
type HistoryRepositoryInterface interface {
	CreateBatch(entries []model.HistoryEntry) error
	ListByClient(clientID string) ([]model.HistoryEntry, error)
	CountForTag(campaignTag string) (int, error)
}

type HistoryRepository struct {
	DB *sql.DB
}

// CreateBatch writes all entries in one transaction so a launch either has a
// complete history log or none at all.
func (r *HistoryRepository) CreateBatch(entries []model.HistoryEntry) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}

	query := `
        INSERT INTO campaign_history (client_id, campaign_name, campaign_tag, channel, status, metadata, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
    `
	now := time.Now()
	for i := range entries {
		meta, err := json.Marshal(entries[i].Metadata)
		if err != nil {
			tx.Rollback()
			return err
		}
		entries[i].CreatedAt = now
		if _, err := tx.Exec(query,
			entries[i].ClientID, entries[i].CampaignName, entries[i].CampaignTag,
			entries[i].Channel, entries[i].Status, meta, now,
		); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (r *HistoryRepository) ListByClient(clientID string) ([]model.HistoryEntry, error) {
	query := `
        SELECT id, client_id, campaign_name, campaign_tag, channel, status, metadata, created_at
        FROM campaign_history
        WHERE client_id=$1
        ORDER BY created_at DESC
    `
	rows, err := r.DB.Query(query, clientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := []model.HistoryEntry{}
	for rows.Next() {
		var e model.HistoryEntry
		var meta []byte
		if err := rows.Scan(&e.ID, &e.ClientID, &e.CampaignName, &e.CampaignTag,
			&e.Channel, &e.Status, &meta, &e.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &e.Metadata); err != nil {
				return nil, err
			}
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *HistoryRepository) CountForTag(campaignTag string) (int, error) {
	var count int
	err := r.DB.QueryRow(`SELECT COUNT(*) FROM campaign_history WHERE campaign_tag=$1`, campaignTag).Scan(&count)
	return count, err
}

var _ HistoryRepositoryInterface = (*HistoryRepository)(nil)
