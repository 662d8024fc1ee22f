package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"daybook/internal/config"
	"daybook/internal/models"

	"golang.org/x/time/rate"
)

// Diary companion system prompt. The rolling context block and optional
// persona text are spliced in per request.
const diarySystemPrompt = `You are Daybook, a warm and encouraging diary companion. The user tells you about their day; you respond conversationally and extract structured information.

%s

WHAT YOU KNOW ABOUT THE USER SO FAR:
%s

RULES:
- Always reply to the user in "chatResponse" — never leave it empty
- If the message describes an activity of their day, fill "summary" (what they did) and "learning" (what they took away from it); otherwise leave both empty
- If the message reveals a lasting personal preference (favorite subject, preferred tone, goals), report it once in "updatedPreferences" as a key/value pair; otherwise omit it
- Keep "summary" and "learning" to one sentence each
- Only extract information explicitly stated by the user

Return JSON matching the response schema.`

// defaultPersona is used when no persona file is configured.
const defaultPersona = "PERSONA: Friendly, curious, and a little playful. Celebrate small wins."

// diaryResponseSchema constrains the backend's structured output
var diaryResponseSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"summary": map[string]interface{}{
			"type":        "string",
			"description": "One-sentence summary of the day's activity, or empty",
		},
		"learning": map[string]interface{}{
			"type":        "string",
			"description": "One-sentence learning outcome, or empty",
		},
		"chatResponse": map[string]interface{}{
			"type":        "string",
			"description": "Conversational reply shown to the user",
		},
		"updatedPreferences": map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"key":   map[string]interface{}{"type": "string"},
				"value": map[string]interface{}{"type": "string"},
			},
			"required":             []string{"key", "value"},
			"additionalProperties": false,
		},
	},
	"required":             []string{"summary", "learning", "chatResponse"},
	"additionalProperties": false,
}

// GenerationService calls an OpenAI-compatible backend for one structured
// completion per conversation turn. Single attempt, no retries; the only
// latency-bound operation in the pipeline, so it carries the request timeout
// and the backend rate cap.
type GenerationService struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
	limiter *rate.Limiter

	mu      sync.RWMutex
	persona string
}

// NewGenerationService creates a new generation service from config
func NewGenerationService(cfg *config.Config) *GenerationService {
	perMinute := cfg.GenerationMaxPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &GenerationService{
		baseURL: cfg.GenerationBaseURL,
		apiKey:  cfg.GenerationAPIKey,
		model:   cfg.GenerationModel,
		client:  &http.Client{Timeout: cfg.GenerationTimeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 5),
		persona: defaultPersona,
	}
}

// SetPersona replaces the persona text spliced into the system prompt.
// Called at startup and by the persona file watcher on changes.
func (s *GenerationService) SetPersona(persona string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if persona == "" {
		persona = defaultPersona
	}
	s.persona = persona
}

// Persona returns the current persona text.
func (s *GenerationService) Persona() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.persona
}

// Generate sends one structured completion request. A backend that cannot be
// reached or replies non-200 yields ErrGenerationUnavailable. A backend that
// replies with unparseable or schema-violating content yields an EMPTY result
// and no error — downstream must treat every field as optionally absent and
// fall back when ChatResponse is missing.
func (s *GenerationService) Generate(ctx context.Context, userMessage, contextBlock string) (*models.GenerationResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	if contextBlock == "" {
		contextBlock = "(Nothing yet - this is the first conversation)"
	}

	systemPrompt := fmt.Sprintf(diarySystemPrompt, s.Persona(), contextBlock)

	requestBody := map[string]interface{}{
		"model": s.model,
		"messages": []map[string]interface{}{
			{"role": "system", "content": systemPrompt},
			{"role": "user", "content": userMessage},
		},
		"stream":      false,
		"temperature": 0.7,
		"response_format": map[string]interface{}{
			"type": "json_schema",
			"json_schema": map[string]interface{}{
				"name":   "diary_turn",
				"strict": true,
				"schema": diaryResponseSchema,
			},
		},
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", s.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(httpReq)
	if err != nil {
		if m := GetMetrics(); m != nil {
			m.RecordGenerationError("unavailable")
		}
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrGenerationUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		log.Printf("⚠️ [GENERATION] API error (status %d): %s", resp.StatusCode, string(body))
		if m := GetMetrics(); m != nil {
			m.RecordGenerationError("unavailable")
		}
		return nil, fmt.Errorf("%w: status %d", ErrGenerationUnavailable, resp.StatusCode)
	}

	var apiResponse struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.Unmarshal(body, &apiResponse); err != nil {
		log.Printf("⚠️ [GENERATION] Malformed response envelope: %v (%d bytes)", err, len(body))
		if m := GetMetrics(); m != nil {
			m.RecordGenerationError("malformed")
		}
		return &models.GenerationResult{}, nil
	}

	if len(apiResponse.Choices) == 0 {
		log.Printf("⚠️ [GENERATION] Response contained no choices")
		if m := GetMetrics(); m != nil {
			m.RecordGenerationError("malformed")
		}
		return &models.GenerationResult{}, nil
	}

	var result models.GenerationResult
	content := apiResponse.Choices[0].Message.Content
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		// Don't log the content itself - only the length
		log.Printf("⚠️ [GENERATION] Failed to parse structured output: %v (%d bytes)", err, len(content))
		if m := GetMetrics(); m != nil {
			m.RecordGenerationError("malformed")
		}
		return &models.GenerationResult{}, nil
	}

	// chatResponse is the one field the schema never allows to be absent or
	// empty. A response without it is malformed as a whole: none of its other
	// fields can be trusted, so nothing from it may reach the stores.
	if result.ChatResponse == "" {
		log.Printf("⚠️ [GENERATION] Structured output missing chatResponse (%d bytes)", len(content))
		if m := GetMetrics(); m != nil {
			m.RecordGenerationError("malformed")
		}
		return &models.GenerationResult{}, nil
	}

	return &result, nil
}
