package services

import (
	"context"
	"fmt"
	"log"

	"daybook/internal/database"
)

// PreferenceService handles persistence of user preference pairs.
// Keys are unique; writes are last-write-wins with no versioning.
type PreferenceService struct {
	db *database.DB
}

// NewPreferenceService creates a new preference service
func NewPreferenceService(db *database.DB) *PreferenceService {
	return &PreferenceService{db: db}
}

// List returns the full preference mapping.
func (s *PreferenceService) List(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM preferences`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list preferences: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	prefs := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("%w: failed to scan preference: %v", ErrStoreUnavailable, err)
		}
		prefs[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read preferences: %v", ErrStoreUnavailable, err)
	}

	return prefs, nil
}

// Upsert inserts the pair or fully replaces the existing value for key.
func (s *PreferenceService) Upsert(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("%w: preference key is required", ErrConstraintViolation)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert preference: %v", ErrStoreUnavailable, err)
	}

	log.Printf("✅ [PREFERENCE] Upserted %q", key)

	if m := GetMetrics(); m != nil {
		m.RecordPreferenceUpsert()
	}

	return nil
}
