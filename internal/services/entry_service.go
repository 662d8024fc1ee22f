package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"daybook/internal/database"
	"daybook/internal/models"

	cache "github.com/patrickmn/go-cache"
)

const entryListCacheKey = "entries:all"

// EntryService handles persistence of diary entries. Entries are immutable:
// the service exposes List and Create only.
type EntryService struct {
	db *database.DB

	// TTL cache for the full entry list; the diary UI re-reads history on
	// every view, so cache reads and invalidate on create.
	listCache *cache.Cache
}

// NewEntryService creates a new entry service
func NewEntryService(db *database.DB) *EntryService {
	return &EntryService{
		db:        db,
		listCache: cache.New(30*time.Second, time.Minute),
	}
}

// List returns all diary entries, most recent first.
func (s *EntryService) List(ctx context.Context) ([]models.DiaryEntry, error) {
	if cached, found := s.listCache.Get(entryListCacheKey); found {
		return cached.([]models.DiaryEntry), nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, content, summary, learning, created_at
		FROM entries
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list entries: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	entries := []models.DiaryEntry{}
	for rows.Next() {
		var entry models.DiaryEntry
		if err := rows.Scan(&entry.ID, &entry.Content, &entry.Summary, &entry.Learning, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan entry: %v", ErrStoreUnavailable, err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to read entries: %v", ErrStoreUnavailable, err)
	}

	s.listCache.Set(entryListCacheKey, entries, cache.DefaultExpiration)
	return entries, nil
}

// Create persists a new diary entry and returns it with the store-assigned
// id and created_at. All three fields are required — entries are never
// persisted with an empty summary or learning.
func (s *EntryService) Create(ctx context.Context, content, summary, learning string) (*models.DiaryEntry, error) {
	if content == "" {
		return nil, fmt.Errorf("%w: entry content is required", ErrConstraintViolation)
	}
	if summary == "" {
		return nil, fmt.Errorf("%w: entry summary is required", ErrConstraintViolation)
	}
	if learning == "" {
		return nil, fmt.Errorf("%w: entry learning is required", ErrConstraintViolation)
	}

	createdAt := time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO entries (content, summary, learning, created_at)
		VALUES (?, ?, ?, ?)
	`, content, summary, learning, createdAt)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to insert entry: %v", ErrStoreUnavailable, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read entry id: %v", ErrStoreUnavailable, err)
	}

	// The cached list no longer reflects the store
	s.listCache.Delete(entryListCacheKey)

	log.Printf("✅ [ENTRY] Created entry %d (%q)", id, summary)

	if m := GetMetrics(); m != nil {
		m.RecordEntryCreated()
	}

	return &models.DiaryEntry{
		ID:        id,
		Content:   content,
		Summary:   summary,
		Learning:  learning,
		CreatedAt: createdAt,
	}, nil
}
