package campaign

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleYAML = `
sender:
  name: John Doe
  company: Acme Corp
  product: AI sales agents
leads:
  path: leads.csv
models:
  model: llama-3.3-70b-versatile
limits:
  max_iterations: 2
`

func TestLoad_YAMLWithDefaults(t *testing.T) {
	cfg, err := Load([]byte(sampleYAML), ".yaml")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Sender.Name != "John Doe" || cfg.Sender.Product != "AI sales agents" {
		t.Errorf("sender = %+v", cfg.Sender)
	}
	if cfg.Limits.MaxIterations != 2 {
		t.Errorf("max_iterations = %d, want 2", cfg.Limits.MaxIterations)
	}
	if cfg.Leads.NameColumn != "name" || cfg.Leads.CompanyColumn != "company" {
		t.Errorf("lead columns = %+v", cfg.Leads)
	}
	if cfg.Models.BaseURL != DefaultBaseURL {
		t.Errorf("base_url = %q", cfg.Models.BaseURL)
	}
	if cfg.Limits.MinResearchChars != 50 || cfg.Limits.Parallel != 1 {
		t.Errorf("limits = %+v", cfg.Limits)
	}
	if cfg.Knowledge.DBPath == "" {
		t.Error("knowledge.db_path default not applied")
	}
}

func TestLoad_JSONDetectedByContent(t *testing.T) {
	data := `{"sender": {"name": "Jane", "company": "Globex", "product": "widgets"}}`
	cfg, err := Load([]byte(data), "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Sender.Company != "Globex" {
		t.Errorf("company = %q", cfg.Sender.Company)
	}
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "campaign.yml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0644); err != nil {
		t.Fatalf("write campaign: %v", err)
	}
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Sender.Name != "John Doe" {
		t.Errorf("sender.name = %q", cfg.Sender.Name)
	}
}

func TestLoad_MissingSender(t *testing.T) {
	_, err := Load([]byte("leads:\n  path: leads.csv\n"), ".yaml")
	if err == nil || !strings.Contains(err.Error(), "sender.name") {
		t.Errorf("err = %v, want sender.name validation error", err)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	if _, err := Load([]byte("sender: [unclosed"), ".yaml"); err == nil {
		t.Error("want parse error")
	}
}

func TestValidate_NegativeIterations(t *testing.T) {
	cfg := &Config{
		Sender: Sender{Name: "a", Company: "b", Product: "c"},
		Limits: Limits{MaxIterations: -1, Parallel: 1},
	}
	if err := cfg.Validate(); err == nil {
		t.Error("want error for negative max_iterations")
	}
}
