// Package campaign holds the run configuration for an outreach campaign:
// who is sending, where the leads live, which models to call, and the
// pipeline limits. Files may be YAML or JSON.
package campaign

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is a full campaign definition.
type Config struct {
	Sender    Sender    `yaml:"sender" json:"sender"`
	Leads     Leads     `yaml:"leads" json:"leads"`
	Models    Models    `yaml:"models" json:"models"`
	Limits    Limits    `yaml:"limits" json:"limits"`
	Knowledge Knowledge `yaml:"knowledge" json:"knowledge"`
}

// Sender identifies who the outreach emails come from.
type Sender struct {
	Name    string `yaml:"name" json:"name"`
	Company string `yaml:"company" json:"company"`
	Product string `yaml:"product" json:"product"`
}

// Leads points at the input CSV and names its columns.
type Leads struct {
	Path          string `yaml:"path" json:"path"`
	NameColumn    string `yaml:"name_column" json:"name_column"`
	CompanyColumn string `yaml:"company_column" json:"company_column"`
}

// Models selects the LLM endpoint and model names. Structured decisions
// always run at temperature zero, so only the creative temperature for
// drafting is configurable.
type Models struct {
	BaseURL             string  `yaml:"base_url" json:"base_url"`
	Model               string  `yaml:"model" json:"model"`
	EmbeddingModel      string  `yaml:"embedding_model" json:"embedding_model"`
	CreativeTemperature float64 `yaml:"creative_temperature" json:"creative_temperature"`
}

// Limits bounds the pipeline per lead and across the batch.
type Limits struct {
	MaxIterations    int `yaml:"max_iterations" json:"max_iterations"`
	MinResearchChars int `yaml:"min_research_chars" json:"min_research_chars"`
	FetchCharBudget  int `yaml:"fetch_char_budget" json:"fetch_char_budget"`
	SearchMaxResults int `yaml:"search_max_results" json:"search_max_results"`
	Parallel         int `yaml:"parallel" json:"parallel"`
}

// Knowledge locates the case-study store.
type Knowledge struct {
	DBPath   string `yaml:"db_path" json:"db_path"`
	SeedPath string `yaml:"seed_path" json:"seed_path"`
}

// Default model endpoint and names, matching the hosted inference setup.
const (
	DefaultBaseURL        = "https://api.groq.com/openai/v1"
	DefaultModel          = "llama-3.3-70b-versatile"
	DefaultEmbeddingModel = "text-embedding-3-small"
)

// LoadFromPath reads a campaign file (YAML or JSON), applies defaults, and
// validates. Format is detected by extension (.yaml/.yml/.json) or by
// content (first non-whitespace char).
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read campaign: %w", err)
	}
	return Load(data, filepath.Ext(path))
}

// Load parses a campaign from bytes. ext is the file extension for format
// hint; empty = detect from content.
func Load(data []byte, ext string) (*Config, error) {
	cfg, err := parse(data, ext)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse(data []byte, ext string) (*Config, error) {
	ext = strings.ToLower(ext)
	if ext == ".yml" {
		ext = ".yaml"
	}
	switch ext {
	case ".yaml":
		var c Config
		if err := yaml.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse campaign yaml: %w", err)
		}
		return &c, nil
	case ".json":
		var c Config
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse campaign json: %w", err)
		}
		return &c, nil
	}
	// Detect: JSON starts with {, else YAML.
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var c Config
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("parse campaign json: %w", err)
		}
		return &c, nil
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse campaign yaml: %w", err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if c.Leads.NameColumn == "" {
		c.Leads.NameColumn = "name"
	}
	if c.Leads.CompanyColumn == "" {
		c.Leads.CompanyColumn = "company"
	}
	if c.Models.BaseURL == "" {
		c.Models.BaseURL = DefaultBaseURL
	}
	if c.Models.Model == "" {
		c.Models.Model = DefaultModel
	}
	if c.Models.EmbeddingModel == "" {
		c.Models.EmbeddingModel = DefaultEmbeddingModel
	}
	if c.Models.CreativeTemperature == 0 {
		c.Models.CreativeTemperature = 0.7
	}
	if c.Limits.MaxIterations == 0 {
		c.Limits.MaxIterations = 1
	}
	if c.Limits.MinResearchChars == 0 {
		c.Limits.MinResearchChars = 50
	}
	if c.Limits.FetchCharBudget == 0 {
		c.Limits.FetchCharBudget = 2000
	}
	if c.Limits.SearchMaxResults == 0 {
		c.Limits.SearchMaxResults = 2
	}
	if c.Limits.Parallel == 0 {
		c.Limits.Parallel = 1
	}
	if c.Knowledge.DBPath == "" {
		c.Knowledge.DBPath = ".prospect/knowledge.db"
	}
}

// Validate checks the fields a run cannot proceed without.
func (c *Config) Validate() error {
	if c.Sender.Name == "" {
		return fmt.Errorf("campaign: sender.name is required")
	}
	if c.Sender.Company == "" {
		return fmt.Errorf("campaign: sender.company is required")
	}
	if c.Sender.Product == "" {
		return fmt.Errorf("campaign: sender.product is required")
	}
	if c.Limits.MaxIterations < 0 {
		return fmt.Errorf("campaign: limits.max_iterations must not be negative")
	}
	if c.Limits.Parallel < 1 {
		return fmt.Errorf("campaign: limits.parallel must be at least 1")
	}
	return nil
}
