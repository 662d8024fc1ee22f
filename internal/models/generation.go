package models

// PreferenceUpdate is a single key/value pair the generation backend learned
// from the current turn. The backend reports at most one pair per turn; this
// is a documented limitation of the schema, not something to widen silently.
type PreferenceUpdate struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// GenerationResult is the validated structured output of one generation call.
// Every field must be treated as optionally absent: on a malformed backend
// response the client hands back a zero-value result instead of propagating,
// and reconciliation falls back to an apology turn when ChatResponse is empty.
type GenerationResult struct {
	Summary            string            `json:"summary"`
	Learning           string            `json:"learning"`
	ChatResponse       string            `json:"chatResponse"`
	UpdatedPreferences *PreferenceUpdate `json:"updatedPreferences,omitempty"`
}

// HasJournalRecord reports whether this result carries both halves of a
// persistable diary entry.
func (r *GenerationResult) HasJournalRecord() bool {
	return r.Summary != "" && r.Learning != ""
}

// HasPreference reports whether this result carries a usable preference pair.
func (r *GenerationResult) HasPreference() bool {
	return r.UpdatedPreferences != nil && r.UpdatedPreferences.Key != "" && r.UpdatedPreferences.Value != ""
}
