package models

// UpsertPreferenceRequest is the body of POST /api/preferences.
// Keys are unique; a later write with the same key fully replaces the
// previous value (last-write-wins).
type UpsertPreferenceRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}
