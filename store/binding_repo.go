package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/javajack/xlbind"
)

// DefaultProfile is the profile served with the stock bindings until one is saved.
const DefaultProfile = "default"

// BindingRepository stores binding tables by profile name.
type BindingRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewBindingRepository creates a new binding repository
func NewBindingRepository(db *DB, logger *zap.Logger) *BindingRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BindingRepository{db: db, logger: logger}
}

// Save replaces the binding table of a profile. Target addresses are stored
// in canonical form; an invalid one rejects the whole table.
func (r *BindingRepository) Save(ctx context.Context, profile string, bindings []xlbind.FieldBinding) ([]xlbind.FieldBinding, error) {
	profile = strings.TrimSpace(profile)
	if profile == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	normalized, err := xlbind.NormalizeBindings(bindings)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("failed to encode bindings: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO binding_profiles (profile, bindings, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(profile) DO UPDATE SET bindings = excluded.bindings, updated_at = CURRENT_TIMESTAMP`,
		profile, string(data))
	if err != nil {
		r.logger.Error("Failed to save bindings", zap.String("profile", profile), zap.Error(err))
		return nil, fmt.Errorf("failed to save bindings: %w", err)
	}
	return normalized, nil
}

// Load returns the binding table of a profile. The default profile falls
// back to the stock bindings when nothing has been saved.
func (r *BindingRepository) Load(ctx context.Context, profile string) ([]xlbind.FieldBinding, error) {
	var data string
	err := r.db.QueryRowContext(ctx, `SELECT bindings FROM binding_profiles WHERE profile = ?`, profile).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		if profile == DefaultProfile {
			return xlbind.DefaultBindings(), nil
		}
		return nil, fmt.Errorf("binding profile %q: %w", profile, ErrNotFound)
	}
	if err != nil {
		r.logger.Error("Failed to load bindings", zap.String("profile", profile), zap.Error(err))
		return nil, fmt.Errorf("failed to load bindings: %w", err)
	}

	var bindings []xlbind.FieldBinding
	if err := json.Unmarshal([]byte(data), &bindings); err != nil {
		return nil, fmt.Errorf("failed to decode bindings of %q: %w", profile, err)
	}
	return bindings, nil
}

// Profiles lists the saved profile names in order.
func (r *BindingRepository) Profiles(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT profile FROM binding_profiles ORDER BY profile`)
	if err != nil {
		r.logger.Error("Failed to list binding profiles", zap.Error(err))
		return nil, fmt.Errorf("failed to list binding profiles: %w", err)
	}
	defer rows.Close()

	profiles := []string{}
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
