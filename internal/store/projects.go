package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/openfield/formgate/internal/model"
)

// ProjectsRepo reads and writes the projects table.
type ProjectsRepo struct {
	db *sql.DB
}

// GetAll returns all projects ordered by creation time, then UUID. The
// ordering is what makes the "first project" fallback deterministic.
func (r *ProjectsRepo) GetAll(ctx context.Context) ([]model.Project, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT uuid, name, created_at FROM projects ORDER BY created_at ASC, uuid ASC`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		var createdAt string
		if err := rows.Scan(&p.UUID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Add inserts a project. An empty UUID gets a generated one. Returns the
// stored project.
func (r *ProjectsRepo) Add(ctx context.Context, p model.Project) (model.Project, error) {
	if p.UUID == "" {
		p.UUID = uuid.NewString()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO projects (uuid, name, created_at) VALUES (?, ?, ?)`,
		p.UUID, p.Name, p.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return model.Project{}, fmt.Errorf("insert project: %w", err)
	}
	return p, nil
}

// Count returns the number of configured projects.
func (r *ProjectsRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM projects`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return n, nil
}
