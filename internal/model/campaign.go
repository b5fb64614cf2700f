// internal/model/campaign.go
package model

import "time"

// HistoryEntry is the immutable audit record of one campaign send to one client.
type HistoryEntry struct {
	ID           int               `db:"id" json:"id"`
	ClientID     string            `db:"client_id" json:"client_id"`
	CampaignName string            `db:"campaign_name" json:"campaign_name"`
	CampaignTag  string            `db:"campaign_tag" json:"campaign_tag"`
	Channel      string            `db:"channel" json:"channel"`
	Status       string            `db:"status" json:"status"` // Sent, Failed
	Metadata     map[string]string `db:"metadata" json:"metadata,omitempty"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
}

// Activation is the follow-up task a seller works from after a launch.
type Activation struct {
	ID         int       `db:"id" json:"id"`
	ClientID   string    `db:"client_id" json:"client_id"`
	ActionType string    `db:"action_type" json:"action_type"`
	Channel    string    `db:"channel" json:"channel"`
	Note       string    `db:"note" json:"note,omitempty"`
	Deadline   time.Time `db:"deadline" json:"deadline"`
	Status     string    `db:"status" json:"status"` // Pending, Done
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}
