package main

// Default prompt templates, written to prompts/ on first start and
// editable through the /api/prompts endpoints. The pipeline rules are
// deliberate: plain-text steps forbid JSON, the profile step forbids
// everything but JSON, and speculative statements must be marked.
const (
	defaultFactsTemplate = `Collect fact-based information about the company "{{.CompanyName}}" (CEO: {{.CEOName}}) using web search.

Rules:
- Report verified facts only
- Include CEO interviews or public statements when available
- No speculation, no summaries, no interpretation
- No JSON
- Output plain text only
- Write in {{.Language}}
{{if .RawText}}
Supporting material provided by the requester:
{{.RawText}}
{{end}}`

	defaultProfileTemplate = `Below is fact-based information about {{.CompanyName}}:
{{.Facts}}

Produce a company analysis as JSON only, following these rules:
- Objective, analytical expert tone
- No special characters ("*", "**", "~")
- Each text field at least 120 characters
- No generic boilerplate derived from the company name alone
- CEO vision must be based on credible sources
- Mark uncertain information as "unverified"
- Mark inferences with "(estimated)" or "(projected)"
- No promotional or emotional language
- Do not use double quotes (") inside string values; paraphrase quotations instead
- Output JSON ONLY

Output format:
{
    "problem_definition": "",
    "solution_value_prop": "",
    "revenue_model_type": "",
    "product_core_features": [],
    "core_tech_moat": "",
    "ceo_vision_summary": "",
    "org_culture_biz_focus": "",
    "recent_news_summary": "",
    "industry_keywords": []
}`

	defaultIndustrySummaryTemplate = `Industry keywords: {{.Keywords | join ", "}}

Write a condensed industry summary following these rules:
- A brief version of a full industry analysis
- Combine global and domestic markets into one summary
- Cover market trends, investment flows, major companies, technology shifts and risk factors
- Include source URLs for every figure
- Omit any data whose source URL cannot be verified
- No special characters ("*", "**", "~")
- Plain text ONLY, written in {{.Language}}
- No hallucinated content`

	defaultIndustryDetailTemplate = `Industry keywords: {{.Keywords | join ", "}}

Write a detailed industry report following these rules:
- Detailed global market analysis:
  - market size
  - CAGR and growth drivers
  - competitive landscape
  - supply chain structure
  - regulatory impact
  - technology shifts
  - major companies
  - outlook
- Detailed domestic market analysis:
  - market structure
  - government policy and regulation
  - major companies and ecosystem
  - investment trends
  - outlook
- Do not compare global and domestic markets against each other
- Include source URLs for every figure
- Omit any data whose source URL cannot be verified
- No special characters ("*", "**", "~")
- Professional consulting-report tone
- Plain text ONLY, written in {{.Language}}
- No hallucinated content`

	defaultDeepDiveTemplate = `Target company: {{.CompanyName}}
Industry keywords: {{.Keywords | join ", "}}

Write a one-to-two page deep-dive report on the industry the company belongs to, following the outline below.

Hard rules:
- Narrative paragraphs ONLY
- No special characters ("*", "**", "~")
- No hallucinated content
- Use only data whose source URL can be verified; include the URLs
- No SWOT, 3C or Five Forces frameworks
- Professional analyst tone, written in {{.Language}}
- No generic boilerplate derived from the company name alone

Outline:
I. Industry Overview and Market Status
1. Industry definition and analysis scope
2. Market size and growth (source URL required)
3. Key market drivers

II. Pain Points and Key Trends
1. Market pain points
2. Key technology and service trends

III. Competitive Landscape and Startup Opportunity
1. Key competitor analysis (source URL required)
2. Differentiation opportunities for startups (opportunity gap)

IV. Conclusion and Strategic Recommendations
1. Summary and final conclusion
2. Strategic direction (go-to-market strategy or key action plan)`

	defaultFullReportTemplate = `Below is the company analysis for {{.CompanyName}}:
{{.ProfileJSON}}

Below is the detailed industry report:
{{.IndustryDetail}}

Combine both into one complete report in an expert analytical style, following these rules:
- Narrative paragraphs only
- No SWOT, 3C, Five Forces or BCG frameworks
- No special characters ("*", "**", "~")
- No generic boilerplate derived from the company name alone
- CEO vision only from credible sources
- Include sources with URLs; omit any data whose URL cannot be verified
- Mark market projections and inferences with "(estimated)" or "(projected)"
- Do not mention JSON
- Plain text ONLY, written in {{.Language}}`

	// repairPromptPrefix asks the model to re-emit a broken response as
	// standard JSON. Used as the last resort of extractProfile.
	repairPromptPrefix = `The output below is malformed JSON. Keep the content as close to the original as possible, but correct it into standard JSON and output JSON only.

Rules:
- Escape double quotes inside string values as \" or paraphrase without quotation marks
- No code fences, no commentary, no explanations. JSON ONLY.
- Keep key names and structure; fix only the values to conform to JSON syntax.

Original output:
`
)
