package repository

import (
	"database/sql"
	"time"

	"github.com/maisonlabs/pulse-backend/internal/model"
)

// ActivationRepositoryInterface is the seller task list
type ActivationRepositoryInterface interface {
	CreateBatch(activations []model.Activation) error
	ListByStatus(status string) ([]model.Activation, error)
	ListOverdue(now time.Time) ([]model.Activation, error)
	MarkDone(id int) error
}

type ActivationRepository struct {
	DB *sql.DB
}

// CreateBatch writes all activations in one transaction, mirroring the
// history batch write so step-2 failure is all-or-nothing too.
func (r *ActivationRepository) CreateBatch(activations []model.Activation) error {
	tx, err := r.DB.Begin()
	if err != nil {
		return err
	}

	query := `
        INSERT INTO activations (client_id, action_type, channel, note, deadline, status, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
    `
	now := time.Now()
	for i := range activations {
		activations[i].CreatedAt = now
		activations[i].UpdatedAt = now
		if _, err := tx.Exec(query,
			activations[i].ClientID, activations[i].ActionType, activations[i].Channel,
			activations[i].Note, activations[i].Deadline, activations[i].Status, now,
		); err != nil {
			tx.Rollback()
			return err
		}
	}

	return tx.Commit()
}

func (r *ActivationRepository) ListByStatus(status string) ([]model.Activation, error) {
	query := `
        SELECT id, client_id, action_type, channel, note, deadline, status, created_at, updated_at
        FROM activations
        WHERE status=$1
        ORDER BY deadline ASC
    `
	return r.list(query, status)
}

func (r *ActivationRepository) ListOverdue(now time.Time) ([]model.Activation, error) {
	query := `
        SELECT id, client_id, action_type, channel, note, deadline, status, created_at, updated_at
        FROM activations
        WHERE status='Pending' AND deadline < $1
        ORDER BY deadline ASC
    `
	return r.list(query, now)
}

func (r *ActivationRepository) list(query string, arg interface{}) ([]model.Activation, error) {
	rows, err := r.DB.Query(query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	activations := []model.Activation{}
	for rows.Next() {
		var a model.Activation
		if err := rows.Scan(&a.ID, &a.ClientID, &a.ActionType, &a.Channel, &a.Note,
			&a.Deadline, &a.Status, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		activations = append(activations, a)
	}
	return activations, nil
}

func (r *ActivationRepository) MarkDone(id int) error {
	_, err := r.DB.Exec(`UPDATE activations SET status='Done', updated_at=NOW() WHERE id=$1`, id)
	return err
}

var _ ActivationRepositoryInterface = (*ActivationRepository)(nil)
