package knowledge

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultSeed returns the built-in case-study corpus used when no seed file
// is configured.
func DefaultSeed() []Document {
	return []Document{
		{
			Content:  "Case Study: FinTech company PayFast increased sales by 30% using our AI agent for lead scoring.",
			Industry: "fintech",
			Kind:     "case_study",
		},
		{
			Content:  "Case Study: SaaS startup CloudScale reduced churn by 15% with our automated onboarding flows.",
			Industry: "saas",
			Kind:     "case_study",
		},
		{
			Content:  "Case Study: Healthcare provider MediCare automated patient intake, saving 20 hours per week.",
			Industry: "healthcare",
			Kind:     "case_study",
		},
	}
}

type seedFile struct {
	CaseStudies []Document `yaml:"case_studies"`
}

// LoadSeed reads a YAML seed file of case studies.
func LoadSeed(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}
	if len(f.CaseStudies) == 0 {
		return nil, fmt.Errorf("seed file %s has no case studies", path)
	}
	for i, doc := range f.CaseStudies {
		if doc.Content == "" {
			return nil, fmt.Errorf("seed file %s: case study %d has no content", path, i)
		}
	}
	return f.CaseStudies, nil
}
