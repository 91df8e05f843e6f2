package pipeline

import (
	"bytes"
	"fmt"
	"text/template"
)

// render executes an inline Go text/template with the given params.
func render(name, tmplStr string, data any) (string, error) {
	tmpl, err := template.New(name).Parse(tmplStr)
	if err != nil {
		return "", fmt.Errorf("parse template %s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", name, err)
	}
	return buf.String(), nil
}

const gatekeeperTemplate = `You are a strict sales qualification manager at {{.SenderCompany}}.
We sell: {{.SenderProduct}}

Analyze the research data below and decide whether this lead is worth a
cold outreach email.

LEAD: {{.LeadName}} from {{.Company}}
RESEARCH:
{{.Research}}

STRICT CRITERIA FOR "QUALIFIED" (must meet ALL):
1. The company is in software, AI, or tech infrastructure.
2. The research contains SPECIFIC recent news (launches, funding, hiring).
3. The research is NOT just generic "About Us" text.

WHEN TO DISQUALIFY:
- The company is a restaurant, retail store, or other non-tech business.
- The research says "Access Denied", "Captcha", or could not be fetched.
- You are unsure.

Return ONLY JSON:
{"is_qualified": <boolean>, "reason": "<specific: cite the news or name the missing info>"}`

type gatekeeperParams struct {
	SenderCompany string
	SenderProduct string
	LeadName      string
	Company       string
	Research      string
}

const hypotheticalTemplate = `Write a short, plausible customer success story (2-3 sentences) describing
how a vendor selling "{{.SenderProduct}}" helped a company similar to
{{.Company}} achieve a concrete business result. Invent a believable company
name and metric. Write only the story, no preamble.`

type hypotheticalParams struct {
	SenderProduct string
	Company       string
}

const drafterTemplate = `You are a B2B copywriter at {{.SenderCompany}}.
Write a short cold email from {{.SenderName}} to {{.LeadName}} at {{.Company}}.

WHAT WE SELL: {{.SenderProduct}}

THE PROOF (you MUST reference this exact story):
"{{.ProofPoint}}"

WHAT WE KNOW ABOUT THE LEAD:
{{.Research}}
{{if .Feedback}}
AN EDITOR REJECTED YOUR PREVIOUS DRAFT. Previous draft:
"{{.PreviousDraft}}"
Editor feedback to address:
"{{.Feedback}}"
{{end}}
INSTRUCTIONS:
- Open by mentioning their recent news or role.
- Transition into the proof story and its result.
- Close by asking for a short chat.
- Keep it under 100 words.
- No unresolved placeholders like [Name] or [Company].
- Sign off as {{.SenderName}}, {{.SenderCompany}}.

Write only the email body.`

type drafterParams struct {
	SenderName    string
	SenderCompany string
	SenderProduct string
	LeadName      string
	Company       string
	Research      string
	ProofPoint    string
	PreviousDraft string
	Feedback      string
}

const reviewerTemplate = `You are a meticulous email editor reviewing a cold outreach draft sent on
behalf of {{.SenderName}} at {{.SenderCompany}}.

DRAFT:
"{{.Draft}}"

CHECKLIST:
1. Under 100 words.
2. Opens with something specific about {{.LeadName}} or {{.Company}}.
3. Contains a concrete proof story with a result.
4. No unresolved placeholders like [Name] or [Company].
5. Signs off with the sender's identity.

If the draft passes every check, it is perfect. Otherwise give one short,
actionable piece of feedback.

Return ONLY JSON:
{"is_perfect": <boolean>, "feedback": "<empty if perfect, else the fix to make>"}`

type reviewerParams struct {
	SenderName    string
	SenderCompany string
	LeadName      string
	Company       string
	Draft         string
}
