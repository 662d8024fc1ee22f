package preflight

import (
	"fmt"
	"log"
	"os"

	"daybook/internal/config"
	"daybook/internal/database"
)

// CheckResult represents the result of a preflight check
type CheckResult struct {
	Name    string
	Status  string // "pass", "fail", "warning"
	Message string
	Error   error
}

// Checker performs pre-flight checks before server starts
type Checker struct {
	db  *database.DB
	cfg *config.Config
}

// NewChecker creates a new preflight checker
func NewChecker(db *database.DB, cfg *config.Config) *Checker {
	return &Checker{db: db, cfg: cfg}
}

// RunAll runs all preflight checks and returns results
func (c *Checker) RunAll() []CheckResult {
	log.Println("🔍 Running pre-flight checks...")

	results := []CheckResult{
		c.checkDatabaseConnection(),
		c.checkDatabaseSchema(),
		c.checkGenerationConfig(),
	}

	// Print summary
	passed := 0
	failed := 0
	warnings := 0

	for _, result := range results {
		switch result.Status {
		case "pass":
			log.Printf("   ✅ %s: %s", result.Name, result.Message)
			passed++
		case "fail":
			log.Printf("   ❌ %s: %s", result.Name, result.Message)
			if result.Error != nil {
				log.Printf("      Error: %v", result.Error)
			}
			failed++
		case "warning":
			log.Printf("   ⚠️  %s: %s", result.Name, result.Message)
			warnings++
		}
	}

	log.Printf("\n📊 Pre-flight summary: %d passed, %d failed, %d warnings\n", passed, failed, warnings)

	return results
}

// HasFailures returns true if any check failed
func HasFailures(results []CheckResult) bool {
	for _, result := range results {
		if result.Status == "fail" {
			return true
		}
	}
	return false
}

// checkDatabaseConnection verifies database connectivity
func (c *Checker) checkDatabaseConnection() CheckResult {
	if err := c.db.Ping(); err != nil {
		return CheckResult{
			Name:    "Database Connection",
			Status:  "fail",
			Message: "Cannot connect to database",
			Error:   err,
		}
	}

	return CheckResult{
		Name:    "Database Connection",
		Status:  "pass",
		Message: "Database connection successful",
	}
}

// checkDatabaseSchema verifies all required tables exist
func (c *Checker) checkDatabaseSchema() CheckResult {
	requiredTables := []string{
		"entries",
		"preferences",
	}

	for _, table := range requiredTables {
		var name string
		query := "SELECT name FROM sqlite_master WHERE type='table' AND name=?"
		err := c.db.QueryRow(query, table).Scan(&name)
		if err != nil {
			return CheckResult{
				Name:    "Database Schema",
				Status:  "fail",
				Message: fmt.Sprintf("Required table '%s' not found", table),
				Error:   err,
			}
		}
	}

	return CheckResult{
		Name:    "Database Schema",
		Status:  "pass",
		Message: fmt.Sprintf("All %d required tables exist", len(requiredTables)),
	}
}

// checkGenerationConfig verifies the generation backend is configured
func (c *Checker) checkGenerationConfig() CheckResult {
	if c.cfg.GenerationBaseURL == "" {
		return CheckResult{
			Name:    "Generation Backend",
			Status:  "fail",
			Message: "GENERATION_BASE_URL is not set",
		}
	}

	if c.cfg.GenerationAPIKey == "" && os.Getenv("ENVIRONMENT") == "production" {
		return CheckResult{
			Name:    "Generation Backend",
			Status:  "fail",
			Message: "GENERATION_API_KEY is required in production",
		}
	}

	if c.cfg.GenerationAPIKey == "" {
		return CheckResult{
			Name:    "Generation Backend",
			Status:  "warning",
			Message: "GENERATION_API_KEY not set (assuming a local backend that needs no key)",
		}
	}

	return CheckResult{
		Name:    "Generation Backend",
		Status:  "pass",
		Message: fmt.Sprintf("Backend configured (%s, model %s)", c.cfg.GenerationBaseURL, c.cfg.GenerationModel),
	}
}
