package postgres

import (
	"database/sql"

	"github.com/frahmantamala/travel-request/internal"
	"github.com/frahmantamala/travel-request/internal/auth"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetCredentialByUsername(username string) (*auth.CredentialRecord, error) {
	var cred auth.CredentialRecord
	query := `SELECT id, email, password_hash, is_active FROM users WHERE username = ?`

	row := r.db.Raw(query, username).Row()
	if err := row.Scan(&cred.UserID, &cred.Email, &cred.PasswordHash, &cred.IsActive); err != nil {
		if err == sql.ErrNoRows {
			return nil, internal.ErrInvalidCredentials
		}
		return nil, err
	}
	return &cred, nil
}

// ResolveActor looks the user up in each role table by user_id. Exactly one
// hit yields the actor; zero means no role was provisioned and more than one
// means the directory is corrupt, so both are rejected.
func (r *Repository) ResolveActor(userID int64) (*internal.Actor, error) {
	type roleRow struct {
		role      internal.Role
		id        int64
		email     string
		firstName string
		lastName  string
	}

	var hits []roleRow

	scan := func(role internal.Role, query string) error {
		row := r.db.Raw(query, userID).Row()
		var rr roleRow
		rr.role = role
		if err := row.Scan(&rr.id, &rr.email, &rr.firstName, &rr.lastName); err != nil {
			if err == sql.ErrNoRows {
				return nil
			}
			return err
		}
		hits = append(hits, rr)
		return nil
	}

	if err := scan(internal.RoleEmployee,
		`SELECT id, email, first_name, last_name FROM employees WHERE user_id = ?`); err != nil {
		return nil, err
	}
	if err := scan(internal.RoleManager,
		`SELECT id, email, first_name, last_name FROM managers WHERE user_id = ?`); err != nil {
		return nil, err
	}
	if err := scan(internal.RoleAdmin,
		`SELECT id, email, first_name, last_name FROM admins WHERE user_id = ?`); err != nil {
		return nil, err
	}

	switch len(hits) {
	case 0:
		return nil, internal.ErrInvalidToken
	case 1:
		hit := hits[0]
		return &internal.Actor{
			UserID: userID,
			Role:   hit.role,
			RoleID: hit.id,
			Email:  hit.email,
			Name:   hit.firstName + " " + hit.lastName,
		}, nil
	default:
		return nil, internal.ErrAmbiguousRole
	}
}
