package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/openfield/formgate/internal/model"
)

// InstancesRepo reads and writes the instances table. Delete makes it the
// instance deleter collaborator used by the gate's stale-instance cleanup.
type InstancesRepo struct {
	db *sql.DB
}

// Get returns the instance with the given row id, or nil when absent.
func (r *InstancesRepo) Get(ctx context.Context, id int64) (*model.InstanceRecord, error) {
	var in model.InstanceRecord
	var deleted, canEdit int
	err := r.db.QueryRowContext(ctx,
		`SELECT id, form_id, form_version, path, status, deleted, can_edit_when_complete
		 FROM instances WHERE id = ?`, id).
		Scan(&in.ID, &in.FormID, &in.FormVersion, &in.Path, &in.Status, &deleted, &canEdit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query instance %d: %w", id, err)
	}
	in.Deleted = deleted != 0
	in.CanEditWhenComplete = canEdit != 0
	return &in, nil
}

// Add inserts an instance and returns it with the assigned row id.
func (r *InstancesRepo) Add(ctx context.Context, in model.InstanceRecord) (model.InstanceRecord, error) {
	if in.Status == "" {
		in.Status = model.StatusIncomplete
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO instances (form_id, form_version, path, status, deleted, can_edit_when_complete)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		in.FormID, in.FormVersion, in.Path, in.Status,
		boolToInt(in.Deleted), boolToInt(in.CanEditWhenComplete))
	if err != nil {
		return model.InstanceRecord{}, fmt.Errorf("insert instance: %w", err)
	}
	in.ID, err = res.LastInsertId()
	if err != nil {
		return model.InstanceRecord{}, fmt.Errorf("instance row id: %w", err)
	}
	return in, nil
}

// Delete removes an instance row and its on-disk instance directory.
// Idempotent: deleting an absent instance is a no-op.
func (r *InstancesRepo) Delete(ctx context.Context, id int64) error {
	in, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if in == nil {
		return nil
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM instances WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete instance %d: %w", id, err)
	}

	// Each instance lives in its own directory; remove the whole directory
	// so attachments go with it. Missing files are fine.
	if in.Path != "" {
		dir := filepath.Dir(in.Path)
		if dir != "." && dir != string(filepath.Separator) {
			if err := os.RemoveAll(dir); err != nil {
				return fmt.Errorf("remove instance directory: %w", err)
			}
		}
	}
	return nil
}
