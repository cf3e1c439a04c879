package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/javajack/xlbind"
)

// Template is a named Grid Snapshot kept for reuse.
type Template struct {
	ID          int64            `json:"id"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Workbook    *xlbind.Workbook `json:"data,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// TemplateRepository handles template database operations
type TemplateRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewTemplateRepository creates a new template repository
func NewTemplateRepository(db *DB, logger *zap.Logger) *TemplateRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TemplateRepository{db: db, logger: logger}
}

// Create stores a template and fills in its id and timestamps.
func (r *TemplateRepository) Create(ctx context.Context, t *Template) error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTemplate)
	}
	if t.Workbook == nil {
		return fmt.Errorf("%w: snapshot is required", ErrInvalidTemplate)
	}
	data, err := json.Marshal(t.Workbook)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}

	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO templates (name, description, snapshot, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		t.Name, t.Description, string(data), now, now)
	if err != nil {
		r.logger.Error("Failed to create template", zap.String("name", t.Name), zap.Error(err))
		return fmt.Errorf("failed to create template: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	t.ID = id
	t.CreatedAt, t.UpdatedAt = now, now
	return nil
}

// List returns all templates, newest first, without their snapshots.
func (r *TemplateRepository) List(ctx context.Context) ([]*Template, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, description, created_at, updated_at FROM templates ORDER BY created_at DESC, id DESC`)
	if err != nil {
		r.logger.Error("Failed to list templates", zap.Error(err))
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	templates := []*Template{}
	for rows.Next() {
		var t Template
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, &t)
	}
	return templates, rows.Err()
}

// Get returns one template with its snapshot.
func (r *TemplateRepository) Get(ctx context.Context, id int64) (*Template, error) {
	var (
		t    Template
		data string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, description, snapshot, created_at, updated_at FROM templates WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Description, &data, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to get template", zap.Int64("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get template: %w", err)
	}

	t.Workbook = new(xlbind.Workbook)
	if err := json.Unmarshal([]byte(data), t.Workbook); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot of template %d: %w", id, err)
	}
	return &t, nil
}

// Delete removes a template.
func (r *TemplateRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		r.logger.Error("Failed to delete template", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("failed to delete template: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("template %d: %w", id, ErrNotFound)
	}
	return nil
}
