package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/openfield/formgate/internal/model"
)

// FormsRepo reads and writes the forms table.
type FormsRepo struct {
	db *sql.DB
}

// Get returns the form with the given row id, or nil when absent.
func (r *FormsRepo) Get(ctx context.Context, id int64) (*model.FormRecord, error) {
	var f model.FormRecord
	var deleted int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, form_id, version, path, deleted FROM forms WHERE id = ?`, id).
		Scan(&f.ID, &f.FormID, &f.Version, &f.Path, &deleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query form %d: %w", id, err)
	}
	f.Deleted = deleted != 0
	return &f, nil
}

// GetAllByFormIDAndVersion returns every form matching the given form id and
// version, soft-deleted rows included. Version "" means "no version".
func (r *FormsRepo) GetAllByFormIDAndVersion(ctx context.Context, formID, version string) ([]model.FormRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, form_id, version, path, deleted FROM forms
		 WHERE form_id = ? AND version = ? ORDER BY id ASC`, formID, version)
	if err != nil {
		return nil, fmt.Errorf("query forms %s/%s: %w", formID, version, err)
	}
	defer rows.Close()

	var forms []model.FormRecord
	for rows.Next() {
		var f model.FormRecord
		var deleted int
		if err := rows.Scan(&f.ID, &f.FormID, &f.Version, &f.Path, &deleted); err != nil {
			return nil, fmt.Errorf("scan form: %w", err)
		}
		f.Deleted = deleted != 0
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

// Add inserts a form and returns it with the assigned row id.
func (r *FormsRepo) Add(ctx context.Context, f model.FormRecord) (model.FormRecord, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO forms (form_id, version, path, deleted) VALUES (?, ?, ?, ?)`,
		f.FormID, f.Version, f.Path, boolToInt(f.Deleted))
	if err != nil {
		return model.FormRecord{}, fmt.Errorf("insert form: %w", err)
	}
	f.ID, err = res.LastInsertId()
	if err != nil {
		return model.FormRecord{}, fmt.Errorf("form row id: %w", err)
	}
	return f, nil
}

// SoftDelete marks a form as deleted without removing the row.
func (r *FormsRepo) SoftDelete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE forms SET deleted = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("soft-delete form %d: %w", id, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
