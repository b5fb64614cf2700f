// internal/model/client.go
package model

import "time"

type Client struct {
	ID              string     `db:"id" json:"id"`
	FullName        string     `db:"full_name" json:"full_name"`
	Email           string     `db:"email" json:"email"`
	Phone           string     `db:"phone" json:"phone"`
	Location        string     `db:"location" json:"location"`
	StatusLabel     string     `db:"status_label" json:"status_label"`
	OptInMarketing  *bool      `db:"opt_in_marketing" json:"opt_in_marketing,omitempty"`
	LastContactedAt *time.Time `db:"last_contacted_at" json:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// OptIn resolves the marketing flag; a client never asked is treated as opted in.
func (c *Client) OptIn() bool {
	return c.OptInMarketing == nil || *c.OptInMarketing
}
