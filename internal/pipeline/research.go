package pipeline

import (
	"context"
	"fmt"
	"strings"
	"unicode"
)

// Step names double as graph node identifiers. Registration order fixes the
// snippet merge order: news contributions land before site contributions.
const (
	StepNewsResearch = "research_news"
	StepSiteResearch = "research_site"
	StepGatekeeper   = "gatekeeper"
	StepDrafter      = "drafter"
	StepReviewer     = "reviewer"
)

// researchNews queries the web-search collaborator for recent company
// signals. Search failure degrades to a placeholder snippet; research steps
// never fail a run.
func (p *Pipeline) researchNews(ctx context.Context, s State) (Update, error) {
	query := fmt.Sprintf("%s %s recent news funding product launch", s.LeadName, s.Company)

	results, err := p.search.Search(ctx, query)
	if err != nil {
		p.log.Warn("news search failed", "company", s.Company, "error", err)
		return Update{Snippets: []string{
			fmt.Sprintf("News search unavailable for %s: %v", s.Company, err),
		}}, nil
	}
	if len(results) == 0 {
		return Update{Snippets: []string{
			fmt.Sprintf("No recent news found for %s.", s.Company),
		}}, nil
	}
	return Update{Snippets: results}, nil
}

// researchSite fetches the company's likely website and appends its bounded
// plain text. The fetcher reports failures as explanatory text, which then
// serves as the placeholder snippet.
func (p *Pipeline) researchSite(ctx context.Context, s State) (Update, error) {
	url := companyURL(s.Company)
	p.log.Debug("fetching company site", "company", s.Company, "url", url)
	return Update{Snippets: []string{p.fetch.Fetch(ctx, url)}}, nil
}

// companyURL guesses the company's website from its name: lowercase
// alphanumerics under a www .com host. Wrong guesses are fine: the fetch
// degrades to an explanatory snippet and the gatekeeper treats unfetchable
// sites as a negative signal.
func companyURL(company string) string {
	var slug strings.Builder
	for _, r := range strings.ToLower(company) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			slug.WriteRune(r)
		}
	}
	return fmt.Sprintf("https://www.%s.com", slug.String())
}
