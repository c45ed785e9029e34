package directory

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sapliy/emergency-dispatch/internal/dispatch"
)

// Repository reads user records from the Postgres directory.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// ListByRole returns every user whose role matches. Missing name or phone
// columns come back as empty strings.
func (r *Repository) ListByRole(ctx context.Context, role string) ([]dispatch.Responder, error) {
	query := `
		SELECT id, COALESCE(name, ''), COALESCE(phone, ''), role, sms_alerts_enabled
		FROM users WHERE role = $1 ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, fmt.Errorf("query users by role %s: %w", role, err)
	}
	defer rows.Close()

	var responders []dispatch.Responder
	for rows.Next() {
		var rsp dispatch.Responder
		if err := rows.Scan(&rsp.ID, &rsp.Name, &rsp.Phone, &rsp.Role, &rsp.SMSAlertsEnabled); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		responders = append(responders, rsp)
	}
	return responders, rows.Err()
}

// IdentityRepository manages authentication identities.
type IdentityRepository struct {
	db *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{db: db}
}

// DeleteIdentity removes the identity of userID. It returns
// dispatch.ErrIdentityNotFound when there was nothing to delete.
func (r *IdentityRepository) DeleteIdentity(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM auth_identities WHERE user_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete identity %s: %w", userID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete identity %s: %w", userID, err)
	}
	if n == 0 {
		return dispatch.ErrIdentityNotFound
	}
	return nil
}
