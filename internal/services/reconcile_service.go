package services

import (
	"context"
	"log"
	"time"

	"daybook/internal/models"

	"github.com/google/uuid"
)

// fallbackChatResponse is the one user-facing error path: shown when the
// generation backend failed or returned no usable reply.
const fallbackChatResponse = "Something went wrong on my end — please try sending that again."

// ReconcileResult exposes the outcome of one reconciliation run, including
// partial failures. The two store writes are independent and neither is
// rolled back when the other fails; callers observe each result separately.
type ReconcileResult struct {
	Turn  models.ConversationTurn
	Entry *models.DiaryEntry

	PreferenceErr error
	EntryErr      error
}

// ReconcileService turns one generation result into store writes and a
// visible conversation turn. No step aborts the others and nothing retries:
// a failed write is recorded on the result and the user still gets a reply.
type ReconcileService struct {
	entries     *EntryService
	preferences *PreferenceService
}

// NewReconcileService creates a new reconcile service
func NewReconcileService(entries *EntryService, preferences *PreferenceService) *ReconcileService {
	return &ReconcileService{entries: entries, preferences: preferences}
}

// Reconcile applies the generation result against the store and the session
// state, in strict order: preference upsert, entry create, assistant turn,
// turn append. State mutation assumes the caller holds the session lock.
func (s *ReconcileService) Reconcile(ctx context.Context, result *models.GenerationResult, userMessage string, state *SessionState) ReconcileResult {
	out := ReconcileResult{}

	// Step 1: preference upsert. The in-memory mapping is updated either
	// way so subsequent context-building reflects the pair without a
	// re-read; the store write is best-effort.
	if result.HasPreference() {
		pref := result.UpdatedPreferences
		if err := s.preferences.Upsert(ctx, pref.Key, pref.Value); err != nil {
			log.Printf("⚠️ [RECONCILE] Preference upsert failed: %v", err)
			out.PreferenceErr = err
		}
		state.Preferences[pref.Key] = pref.Value
	}

	// Step 2: entry create. Only when both halves are present — entries are
	// never persisted with an empty summary or learning. The store-assigned
	// created_at is authoritative; prepend only on success.
	if result.HasJournalRecord() {
		entry, err := s.entries.Create(ctx, userMessage, result.Summary, result.Learning)
		if err != nil {
			log.Printf("⚠️ [RECONCILE] Entry create failed: %v", err)
			out.EntryErr = err
		} else {
			out.Entry = entry
			state.Entries = append([]models.DiaryEntry{*entry}, state.Entries...)
		}
	}

	// Step 3: assistant turn, with the saved record attached only when an
	// entry was actually persisted. An empty chatResponse (malformed or
	// failed upstream) still produces a visible fallback turn.
	content := result.ChatResponse
	if content == "" {
		content = fallbackChatResponse
	}

	turn := models.ConversationTurn{
		ID:        uuid.NewString(),
		Role:      models.RoleAssistant,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if out.Entry != nil {
		turn.SavedEntry = &models.SavedRecord{
			Summary:  out.Entry.Summary,
			Learning: out.Entry.Learning,
		}
	}

	// Step 4: append to the ordered turn sequence
	state.Turns = append(state.Turns, turn)
	out.Turn = turn

	return out
}
