package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"daybook/internal/logging"
	"daybook/internal/models"

	"github.com/google/uuid"
)

// SessionState is the explicit in-memory snapshot the pipeline runs against:
// the preference mapping, the entry history (most recent first) and the
// ordered, append-only turn sequence. Passed through the pipeline rather
// than held as ambient globals; refreshed only via Reload.
type SessionState struct {
	Preferences map[string]string
	Entries     []models.DiaryEntry
	Turns       []models.ConversationTurn
}

// SessionService owns the single conversation session and enforces that at
// most one submission is in flight at a time. A second Submit while one is
// pending is rejected, never interleaved — interleaving would corrupt the
// in-memory snapshots.
type SessionService struct {
	entries     *EntryService
	preferences *PreferenceService
	generation  *GenerationService
	builder     *ContextBuilder
	reconciler  *ReconcileService

	mu    sync.Mutex // guards state and busy
	busy  bool       // a submission is running
	state *SessionState
}

// NewSessionService creates a new session service
func NewSessionService(entries *EntryService, preferences *PreferenceService, generation *GenerationService) *SessionService {
	return &SessionService{
		entries:     entries,
		preferences: preferences,
		generation:  generation,
		builder:     NewContextBuilder(),
		reconciler:  NewReconcileService(entries, preferences),
		state: &SessionState{
			Preferences: map[string]string{},
			Entries:     []models.DiaryEntry{},
			Turns:       []models.ConversationTurn{},
		},
	}
}

// Reload refreshes the preference and entry snapshots from the store.
// Called at startup; the turn sequence is left untouched.
func (s *SessionService) Reload(ctx context.Context) error {
	prefs, err := s.preferences.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload preferences: %w", err)
	}

	entries, err := s.entries.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to reload entries: %w", err)
	}

	s.mu.Lock()
	s.state.Preferences = prefs
	s.state.Entries = entries
	s.mu.Unlock()

	log.Printf("🔄 [SESSION] Snapshots reloaded (%d preferences, %d entries)", len(prefs), len(entries))
	return nil
}

// Submit runs the full pipeline for one user message: append the user turn,
// build the context block, call the generation backend, reconcile. Returns
// ErrSubmissionInFlight when another submission holds the session.
//
// A generation failure does not surface as an error: the session must stay
// usable and the user must see a fallback reply, so the empty result flows
// into reconciliation like any other malformed response.
func (s *SessionService) Submit(ctx context.Context, text string) (*ReconcileResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is required", ErrConstraintViolation)
	}

	s.mu.Lock()
	if s.busy {
		s.mu.Unlock()
		return nil, ErrSubmissionInFlight
	}
	s.busy = true

	turnID := uuid.NewString()
	s.state.Turns = append(s.state.Turns, models.ConversationTurn{
		ID:        turnID,
		Role:      models.RoleUser,
		Content:   text,
		CreatedAt: time.Now(),
	})

	// Snapshot under the lock; the generation call must not hold it.
	prefs := make(map[string]string, len(s.state.Preferences))
	for key, value := range s.state.Preferences {
		prefs[key] = value
	}
	entries := s.state.Entries
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.busy = false
		s.mu.Unlock()
	}()

	start := time.Now()
	if m := GetMetrics(); m != nil {
		m.RecordChatRequest()
	}

	turnLog := logging.WithTurn(turnID)
	contextBlock := s.builder.Build(prefs, entries)

	genResult, err := s.generation.Generate(ctx, text, contextBlock)
	if err != nil {
		turnLog.Warn("Generation failed, falling back", "error", err)
		genResult = &models.GenerationResult{}
	}

	s.mu.Lock()
	result := s.reconciler.Reconcile(ctx, genResult, text, s.state)
	s.mu.Unlock()

	turnLog.Info("Submission processed",
		"entry_saved", result.Entry != nil,
		"duration_ms", time.Since(start).Milliseconds())

	if m := GetMetrics(); m != nil {
		m.RecordChatLatency(time.Since(start).Seconds())
	}

	return &result, nil
}

// History returns a copy of the ordered turn sequence.
func (s *SessionService) History() []models.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()

	turns := make([]models.ConversationTurn, len(s.state.Turns))
	copy(turns, s.state.Turns)
	return turns
}
