package services

import (
	"fmt"
	"sort"
	"strings"

	"daybook/internal/models"
)

// maxContextEntries caps how many recent entries the prompt context carries.
const maxContextEntries = 3

// ContextBuilder assembles the rolling prompt context handed to the
// generation backend: the full preference mapping plus the most recent
// entries. Pure over its inputs — same snapshot, same text.
type ContextBuilder struct{}

// NewContextBuilder creates a new context builder
func NewContextBuilder() *ContextBuilder {
	return &ContextBuilder{}
}

// Build renders the bounded context block. Preferences are rendered as
// "key: value" lines in sorted key order; entries must already be in the
// store's most-recent-first order and at most the first three are used.
func (b *ContextBuilder) Build(preferences map[string]string, entries []models.DiaryEntry) string {
	var builder strings.Builder

	if len(preferences) > 0 {
		keys := make([]string, 0, len(preferences))
		for key := range preferences {
			keys = append(keys, key)
		}
		sort.Strings(keys)

		for i, key := range keys {
			if i > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(fmt.Sprintf("%s: %s", key, preferences[key]))
		}
	}

	recent := entries
	if len(recent) > maxContextEntries {
		recent = recent[:maxContextEntries]
	}

	if len(recent) > 0 {
		if builder.Len() > 0 {
			builder.WriteString("\n\n")
		}
		for i, entry := range recent {
			if i > 0 {
				builder.WriteString("\n\n")
			}
			builder.WriteString(fmt.Sprintf("Past Entry: %s\nLearning: %s", entry.Summary, entry.Learning))
		}
	}

	return builder.String()
}
