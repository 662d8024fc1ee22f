package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"daybook/internal/config"
	"daybook/internal/database"
	"daybook/internal/models"
	"daybook/internal/services"

	"github.com/gofiber/fiber/v2"
)

// setupTestApp builds the full route surface against a temp database and the
// given fake generation backend
func setupTestApp(t *testing.T, backendURL string) *fiber.App {
	t.Helper()

	tmpFile := filepath.Join(t.TempDir(), "test_handlers.db")
	db, err := database.New(tmpFile)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}

	entryService := services.NewEntryService(db)
	preferenceService := services.NewPreferenceService(db)
	generationService := services.NewGenerationService(&config.Config{
		GenerationBaseURL:      backendURL,
		GenerationModel:        "test-model",
		GenerationTimeout:      5 * time.Second,
		GenerationMaxPerMinute: 6000,
	})

	sessionService := services.NewSessionService(entryService, preferenceService, generationService)
	if err := sessionService.Reload(context.Background()); err != nil {
		t.Fatalf("Failed to load session snapshots: %v", err)
	}

	app := fiber.New()

	healthHandler := NewHealthHandler(db)
	entryHandler := NewEntryHandler(entryService)
	preferenceHandler := NewPreferenceHandler(preferenceService)
	chatHandler := NewChatHandler(sessionService)

	app.Get("/health", healthHandler.Handle)

	api := app.Group("/api")
	api.Get("/entries", entryHandler.List)
	api.Post("/entries", entryHandler.Create)
	api.Get("/preferences", preferenceHandler.List)
	api.Post("/preferences", preferenceHandler.Upsert)
	api.Post("/chat", chatHandler.Send)
	api.Get("/chat/history", chatHandler.History)

	return app
}

// fakeBackend serves the given structured content for every completion request
func fakeBackend(t *testing.T, content string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		envelope := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{"content": content}},
			},
		}
		json.NewEncoder(w).Encode(envelope)
	}))
	t.Cleanup(server.Close)
	return server
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("Failed to decode response body %q: %v", string(data), err)
	}
}

func TestHealthEndpoint(t *testing.T) {
	app := setupTestApp(t, "http://localhost:1")

	resp, err := app.Test(httptest.NewRequest("GET", "/health", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if resp.StatusCode != fiber.StatusOK {
		t.Errorf("Expected 200, got %d", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)

	if body["status"] != "healthy" {
		t.Errorf("Expected healthy status, got %q", body["status"])
	}
	if body["database"] != "ok" {
		t.Errorf("Expected database ok, got %q", body["database"])
	}
}

func TestEntryEndpoints_CreateAndList(t *testing.T) {
	app := setupTestApp(t, "http://localhost:1")

	resp, err := app.Test(jsonRequest("POST", "/api/entries", models.CreateEntryRequest{
		Content:  "Wrote a blog post",
		Summary:  "Wrote a blog post",
		Learning: "Outlining first makes writing faster",
	}))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("Expected 201, got %d", resp.StatusCode)
	}

	var created map[string]int64
	decodeBody(t, resp, &created)
	if created["id"] == 0 {
		t.Error("Expected an assigned entry id")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/entries", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var entries []models.DiaryEntry
	decodeBody(t, resp, &entries)
	if len(entries) != 1 || entries[0].Summary != "Wrote a blog post" {
		t.Errorf("Expected the created entry, got %+v", entries)
	}
}

func TestEntryEndpoints_CreateValidation(t *testing.T) {
	app := setupTestApp(t, "http://localhost:1")

	resp, err := app.Test(jsonRequest("POST", "/api/entries", models.CreateEntryRequest{
		Content: "only content",
	}))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for missing fields, got %d", resp.StatusCode)
	}
}

func TestPreferenceEndpoints_UpsertAndList(t *testing.T) {
	app := setupTestApp(t, "http://localhost:1")

	resp, err := app.Test(jsonRequest("POST", "/api/preferences", models.UpsertPreferenceRequest{
		Key:   "tone",
		Value: "casual",
	}))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	// Overwrite the same key
	resp, err = app.Test(jsonRequest("POST", "/api/preferences", models.UpsertPreferenceRequest{
		Key:   "tone",
		Value: "formal",
	}))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/api/preferences", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	var prefs map[string]string
	decodeBody(t, resp, &prefs)
	if len(prefs) != 1 || prefs["tone"] != "formal" {
		t.Errorf("Expected tone=formal only, got %v", prefs)
	}
}

func TestPreferenceEndpoints_EmptyKeyRejected(t *testing.T) {
	app := setupTestApp(t, "http://localhost:1")

	resp, err := app.Test(jsonRequest("POST", "/api/preferences", models.UpsertPreferenceRequest{
		Value: "no key",
	}))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for empty key, got %d", resp.StatusCode)
	}
}

func TestChatEndpoint_SavesEntry(t *testing.T) {
	backend := fakeBackend(t, `{
		"summary": "Baked bread",
		"learning": "Patience with proofing pays off",
		"chatResponse": "Fresh bread, amazing!"
	}`)
	app := setupTestApp(t, backend.URL)

	resp, err := app.Test(jsonRequest("POST", "/api/chat", ChatRequest{
		Message: "I baked bread today",
	}), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		Turn  models.ConversationTurn `json:"turn"`
		Entry *models.DiaryEntry      `json:"entry"`
	}
	decodeBody(t, resp, &body)

	if body.Turn.Role != models.RoleAssistant {
		t.Errorf("Expected assistant turn, got %q", body.Turn.Role)
	}
	if body.Turn.Content != "Fresh bread, amazing!" {
		t.Errorf("Expected generated reply, got %q", body.Turn.Content)
	}
	if body.Turn.SavedEntry == nil {
		t.Error("Expected the turn to announce the save")
	}
	if body.Entry == nil || body.Entry.Summary != "Baked bread" {
		t.Errorf("Expected the persisted entry in the response, got %+v", body.Entry)
	}

	// The entry is visible on the list endpoint
	resp, err = app.Test(httptest.NewRequest("GET", "/api/entries", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	var entries []models.DiaryEntry
	decodeBody(t, resp, &entries)
	if len(entries) != 1 {
		t.Errorf("Expected 1 entry, got %d", len(entries))
	}
}

func TestChatEndpoint_EmptyMessage(t *testing.T) {
	app := setupTestApp(t, "http://localhost:1")

	resp, err := app.Test(jsonRequest("POST", "/api/chat", ChatRequest{Message: "   "}))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for empty message, got %d", resp.StatusCode)
	}
}

func TestChatEndpoint_BackendDownStillReplies(t *testing.T) {
	// Port 1 refuses connections; the pipeline must fall back, not fail
	app := setupTestApp(t, "http://localhost:1")

	resp, err := app.Test(jsonRequest("POST", "/api/chat", ChatRequest{
		Message: "anyone home?",
	}), -1)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200 with a fallback reply, got %d", resp.StatusCode)
	}

	var body struct {
		Turn  models.ConversationTurn `json:"turn"`
		Entry *models.DiaryEntry      `json:"entry"`
	}
	decodeBody(t, resp, &body)

	if body.Turn.Content == "" {
		t.Error("Expected a visible fallback reply")
	}
	if body.Entry != nil {
		t.Error("Expected no entry for a failed generation")
	}
}

func TestChatHistoryEndpoint(t *testing.T) {
	backend := fakeBackend(t, `{"summary": "", "learning": "", "chatResponse": "hello!"}`)
	app := setupTestApp(t, backend.URL)

	if _, err := app.Test(jsonRequest("POST", "/api/chat", ChatRequest{Message: "hi"}), -1); err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	resp, err := app.Test(httptest.NewRequest("GET", "/api/chat/history", nil))
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var turns []models.ConversationTurn
	decodeBody(t, resp, &turns)

	if len(turns) != 2 {
		t.Fatalf("Expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != models.RoleUser || turns[1].Role != models.RoleAssistant {
		t.Errorf("Expected user then assistant, got %q then %q", turns[0].Role, turns[1].Role)
	}
}

func TestChatEndpoint_InvalidBody(t *testing.T) {
	app := setupTestApp(t, "http://localhost:1")

	req := httptest.NewRequest("POST", "/api/chat", bytes.NewBufferString("not json"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.StatusCode != fiber.StatusBadRequest {
		t.Errorf("Expected 400 for invalid body, got %d", resp.StatusCode)
	}
}
