// internal/model/tag.go
package model

import "time"

// Tag is one extracted DNA fact about a client. Facts are append-only:
// a newer value for the same sub-category does not retract the old row.
type Tag struct {
	ID           int       `db:"id" json:"id"`
	ClientID     string    `db:"client_id" json:"client_id"`
	RootCategory string    `db:"root_category" json:"root_category"`
	SubCategory  string    `db:"sub_category" json:"sub_category"`
	Value        string    `db:"value" json:"value"`
	Confidence   float64   `db:"confidence" json:"confidence"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
