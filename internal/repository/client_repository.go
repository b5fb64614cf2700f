package repository

import (
	"database/sql"
	"fmt"

	appErrors "github.com/maisonlabs/pulse-backend/internal/errors"
	"github.com/maisonlabs/pulse-backend/internal/model"
)

// ClientRepositoryInterface defines methods used by handlers and services
type ClientRepositoryInterface interface {
	GetByID(id string) (*model.Client, error)
	List(offset, limit int, location, search string) ([]*model.Client, int, error)
	TouchLastContacted(id string) error
}

// ClientRepository is the concrete implementation
type ClientRepository struct {
	DB *sql.DB
}

func (r *ClientRepository) GetByID(id string) (*model.Client, error) {
	query := `
        SELECT id, full_name, email, phone, location, status_label, opt_in_marketing, last_contacted_at, created_at
        FROM clients
        WHERE id = $1
    `
	var c model.Client
	err := r.DB.QueryRow(query, id).Scan(
		&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Location, &c.StatusLabel,
		&c.OptInMarketing, &c.LastContactedAt, &c.CreatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewClientNotFound(id)
		}
		return nil, err
	}
	return &c, nil
}

// List fetches clients with optional location filter and name/email search.
func (r *ClientRepository) List(offset, limit int, location, search string) ([]*model.Client, int, error) {
	clients := []*model.Client{}
	query := `SELECT id, full_name, email, phone, location, status_label, opt_in_marketing, last_contacted_at, created_at FROM clients WHERE 1=1`
	args := []interface{}{}
	argPos := 1

	if location != "" {
		query += fmt.Sprintf(" AND location=$%d", argPos)
		args = append(args, location)
		argPos++
	}
	if search != "" {
		query += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", argPos, argPos)
		args = append(args, "%"+search+"%")
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c := &model.Client{}
		if err := rows.Scan(&c.ID, &c.FullName, &c.Email, &c.Phone, &c.Location, &c.StatusLabel,
			&c.OptInMarketing, &c.LastContactedAt, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		clients = append(clients, c)
	}

	countQuery := `SELECT COUNT(*) FROM clients WHERE 1=1`
	argsCount := []interface{}{}
	argPosCount := 1
	if location != "" {
		countQuery += fmt.Sprintf(" AND location=$%d", argPosCount)
		argsCount = append(argsCount, location)
		argPosCount++
	}
	if search != "" {
		countQuery += fmt.Sprintf(" AND (full_name ILIKE $%d OR email ILIKE $%d)", argPosCount, argPosCount)
		argsCount = append(argsCount, "%"+search+"%")
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return clients, total, nil
}

// TouchLastContacted stamps the anti-spam clock after a campaign send.
func (r *ClientRepository) TouchLastContacted(id string) error {
	_, err := r.DB.Exec(`UPDATE clients SET last_contacted_at=NOW() WHERE id=$1`, id)
	return err
}

var _ ClientRepositoryInterface = (*ClientRepository)(nil)
