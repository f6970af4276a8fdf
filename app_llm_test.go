package main

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

// Mock LLM for testing
type mockLLM struct {
	mu       sync.Mutex
	response string
	// jsonResponse is returned for JSON-mode calls when non-empty
	jsonResponse string
	err          error
	lastPrompt   string
	prompts      []string
}

func (m *mockLLM) Call(_ context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastPrompt = prompt
	m.prompts = append(m.prompts, prompt)
	return m.response, m.err
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastPrompt = messages[0].Parts[0].(llms.TextContent).Text
	m.prompts = append(m.prompts, m.lastPrompt)

	if m.err != nil {
		return nil, m.err
	}

	callOpts := llms.CallOptions{}
	for _, opt := range opts {
		opt(&callOpts)
	}

	response := m.response
	if callOpts.JSONMode && m.jsonResponse != "" {
		response = m.jsonResponse
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{
			{
				Content: response,
			},
		},
	}, nil
}

func (m *mockLLM) promptCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.prompts)
}

// setupTestTemplates parses the default templates into the globals
// without touching the prompts/ directory.
func setupTestTemplates(t *testing.T) {
	t.Helper()

	templateMutex.Lock()
	defer templateMutex.Unlock()

	parse := func(name, content string) *template.Template {
		tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(content)
		require.NoError(t, err)
		return tmpl
	}

	factsTemplate = parse("facts", defaultFactsTemplate)
	profileTemplate = parse("profile", defaultProfileTemplate)
	industrySummaryTemplate = parse("industry_summary", defaultIndustrySummaryTemplate)
	industryDetailTemplate = parse("industry_detail", defaultIndustryDetailTemplate)
	deepDiveTemplate = parse("deep_dive", defaultDeepDiveTemplate)
	fullReportTemplate = parse("full_report", defaultFullReportTemplate)
}

const testProfileJSON = `{
	"problem_definition": "SMEs lack affordable market intelligence",
	"solution_value_prop": "Automated analyst reports at a fraction of the cost",
	"revenue_model_type": "SaaS subscription",
	"product_core_features": ["automated research", "report generation"],
	"core_tech_moat": "Proprietary retrieval pipeline",
	"ceo_vision_summary": "Democratize market research (estimated)",
	"org_culture_biz_focus": "Small product-led team",
	"recent_news_summary": "Raised a seed round in 2025",
	"industry_keywords": ["market intelligence", "SaaS"]
}`

func TestGatherFactsUsesSearchLLM(t *testing.T) {
	setupTestTemplates(t)
	testLogger := logrus.WithField("test", "test")

	searchMock := &mockLLM{response: "verified facts"}
	plainMock := &mockLLM{response: "plain facts"}
	app := &App{LLM: plainMock, SearchLLM: searchMock}

	facts, err := app.gatherFacts(context.Background(), "Acme", "Jo Doe", "some notes", testLogger)
	require.NoError(t, err)
	assert.Equal(t, "verified facts", facts)
	assert.Zero(t, plainMock.promptCount(), "plain LLM should not be called when search succeeds")

	assert.Contains(t, searchMock.lastPrompt, "Acme")
	assert.Contains(t, searchMock.lastPrompt, "Jo Doe")
	assert.Contains(t, searchMock.lastPrompt, "some notes")
}

func TestGatherFactsFallsBackToPlainLLM(t *testing.T) {
	setupTestTemplates(t)
	testLogger := logrus.WithField("test", "test")

	searchMock := &mockLLM{err: errors.New("search tool unavailable")}
	plainMock := &mockLLM{response: "plain facts"}
	app := &App{LLM: plainMock, SearchLLM: searchMock}

	facts, err := app.gatherFacts(context.Background(), "Acme", "Jo Doe", "", testLogger)
	require.NoError(t, err)
	assert.Equal(t, "plain facts", facts)
}

func TestGenerateProfile(t *testing.T) {
	setupTestTemplates(t)
	testLogger := logrus.WithField("test", "test")

	mock := &mockLLM{jsonResponse: testProfileJSON, response: "unused"}
	app := &App{LLM: mock}

	profile, err := app.generateProfile(context.Background(), "Acme", "facts about Acme", testLogger)
	require.NoError(t, err)
	assert.Equal(t, "SaaS subscription", profile.RevenueModelType)
	assert.Equal(t, []string{"market intelligence", "SaaS"}, profile.IndustryKeywords)

	assert.Contains(t, mock.lastPrompt, "facts about Acme")
	assert.Contains(t, mock.lastPrompt, "problem_definition")
}

func TestRunAnalysisPipeline(t *testing.T) {
	setupTestTemplates(t)

	mock := &mockLLM{
		response:     "generated report text",
		jsonResponse: testProfileJSON,
	}
	app := &App{LLM: mock, SearchLLM: mock}

	var steps atomic.Int32
	result, err := app.RunAnalysis(context.Background(), SubmitAnalysisRequest{
		CompanyName: "Acme",
		CEOName:     "Jo Doe",
		RawText:     "supporting notes",
	}, func() { steps.Add(1) })
	require.NoError(t, err)

	assert.Equal(t, "Acme", result.CompanyName)
	assert.Equal(t, []string{"market intelligence", "SaaS"}, result.Keywords)
	assert.Equal(t, "generated report text", result.Facts)
	assert.Equal(t, "generated report text", result.IndustrySummary)
	assert.Equal(t, "generated report text", result.IndustryDetail)
	assert.Equal(t, "generated report text", result.IndustryDeepDive)
	assert.Equal(t, "generated report text", result.FullReport)
	assert.Equal(t, int32(totalAnalysisSteps), steps.Load())

	// facts + profile + three industry reports + full report
	assert.Equal(t, 6, mock.promptCount())
}

func TestRunAnalysisPropagatesProfileFailure(t *testing.T) {
	setupTestTemplates(t)

	// JSON mode answers are unusable and so is the repair attempt
	mock := &mockLLM{response: "not json", jsonResponse: "also not json"}
	app := &App{LLM: mock, SearchLLM: mock}

	_, err := app.RunAnalysis(context.Background(), SubmitAnalysisRequest{
		CompanyName: "Acme",
		CEOName:     "Jo Doe",
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "profile generation failed")
}
