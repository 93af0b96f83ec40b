package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/docportal/internal/apperror"
	"github.com/sakif/docportal/internal/model"
	"github.com/sakif/docportal/internal/repository"
)

// compile-time check that *DB implements repository.GuestRepository
var _ repository.GuestRepository = (*DB)(nil)

// Create inserts a guest account, generating its ID and timestamps in-place.
// The email UNIQUE constraint makes a duplicate invite a conflict error.
func (db *DB) Create(ctx context.Context, guest *model.Guest) error {
	projects, err := encodeProjects(guest.Projects)
	if err != nil {
		return err
	}

	now := time.Now()
	guest.ID = xid.New().String()
	guest.CreatedAt = now
	guest.UpdatedAt = now

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO guests (id, email, password_hash, projects, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		guest.ID,
		guest.Email,
		guest.PasswordHash,
		projects,
		guest.CreatedAt,
		guest.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: inserting guest %s: %w", guest.Email, err)
	}

	return nil
}

// FindByEmail returns the guest for the email, or (nil, nil) if none exists.
// Absence is a normal answer here — callers use it to decide whether someone
// IS a guest — so it is not an error.
func (db *DB) FindByEmail(ctx context.Context, email string) (*model.Guest, error) {
	guest, err := db.scanGuest(db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, projects, created_at, updated_at
		 FROM guests WHERE email = ?`,
		email,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding guest by email %s: %w", email, err)
	}
	return guest, nil
}

// FindByID returns the guest for the internal ID, or (nil, nil) if none
// exists.
func (db *DB) FindByID(ctx context.Context, id string) (*model.Guest, error) {
	guest, err := db.scanGuest(db.conn.QueryRowContext(ctx,
		`SELECT id, email, password_hash, projects, created_at, updated_at
		 FROM guests WHERE id = ?`,
		id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: finding guest %s: %w", id, err)
	}
	return guest, nil
}

// GetProjectsForEmail returns the guest's assigned repository names.
// Unlike FindByEmail, a missing guest here IS an error — callers on this
// path have already decided the user is a guest.
func (db *DB) GetProjectsForEmail(ctx context.Context, email string) ([]string, error) {
	guest, err := db.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if guest == nil {
		return nil, apperror.NotFound("guest", email)
	}
	return guest.Projects, nil
}

func (db *DB) scanGuest(row *sql.Row) (*model.Guest, error) {
	var g model.Guest
	var projects string

	err := row.Scan(
		&g.ID,
		&g.Email,
		&g.PasswordHash,
		&projects,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(projects), &g.Projects); err != nil {
		return nil, fmt.Errorf("decoding projects for guest %s: %w", g.ID, err)
	}
	return &g, nil
}

func encodeProjects(projects []string) (string, error) {
	if projects == nil {
		projects = []string{}
	}
	encoded, err := json.Marshal(projects)
	if err != nil {
		return "", fmt.Errorf("sqlite: encoding guest projects: %w", err)
	}
	return string(encoded), nil
}
