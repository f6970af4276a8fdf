package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"golang.org/x/sync/errgroup"
)

// totalAnalysisSteps is the number of pipeline steps reported to job
// status: facts, profile, three industry reports, full report.
const totalAnalysisSteps = 6

// callLLM makes a single text-prompt call against the given client.
// jsonMode requests a JSON response where the provider supports it.
func callLLM(ctx context.Context, llm llms.Model, prompt string, jsonMode bool) (string, error) {
	messages := []llms.MessageContent{
		{
			Parts: []llms.ContentPart{
				llms.TextContent{
					Text: prompt,
				},
			},
			Role: llms.ChatMessageTypeHuman,
		},
	}

	var options []llms.CallOption
	if jsonMode {
		options = append(options, llms.WithJSONMode())
	}

	completion, err := llm.GenerateContent(ctx, messages, options...)
	if err != nil {
		return "", fmt.Errorf("error getting response from LLM: %v", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Content), nil
}

func renderPrompt(tmpl *template.Template, data map[string]interface{}) (string, error) {
	templateMutex.RLock()
	defer templateMutex.RUnlock()

	var promptBuffer bytes.Buffer
	if err := tmpl.Execute(&promptBuffer, data); err != nil {
		return "", fmt.Errorf("error executing %s template: %v", tmpl.Name(), err)
	}
	return promptBuffer.String(), nil
}

// gatherFacts runs the fact-gathering step against the search-grounded
// client. When the grounded call fails (tool errors are not uncommon),
// it falls back to plain generation seeded with the supporting text.
func (app *App) gatherFacts(ctx context.Context, companyName, ceoName, rawText string, logger *logrus.Entry) (string, error) {
	data := map[string]interface{}{
		"CompanyName": companyName,
		"CEOName":     ceoName,
		"Language":    getReportLanguage(),
		"RawText":     rawText,
	}

	// Keep the prompt within the configured token budget by trimming
	// the supporting text, never the instructions.
	templateMutex.RLock()
	tmpl := factsTemplate
	templateMutex.RUnlock()

	availableTokens, err := getAvailableTokensForContent(tmpl, data)
	if err != nil {
		return "", err
	}
	truncated, err := truncateContentByTokens(rawText, availableTokens)
	if err != nil {
		return "", err
	}
	data["RawText"] = truncated

	prompt, err := renderPrompt(tmpl, data)
	if err != nil {
		return "", err
	}
	logger.Debugf("Fact gathering prompt: %s", prompt)

	facts, err := callLLM(ctx, app.SearchLLM, prompt, false)
	if err == nil {
		return facts, nil
	}
	if ctx.Err() != nil {
		return "", err
	}

	logger.Warnf("Search-grounded fact gathering failed, falling back to plain generation: %v", err)
	return callLLM(ctx, app.LLM, prompt, false)
}

// generateProfile produces the structured company profile from the
// gathered facts, including the extraction/repair chain.
func (app *App) generateProfile(ctx context.Context, companyName, facts string, logger *logrus.Entry) (CompanyProfile, error) {
	prompt, err := renderPrompt(profileTemplate, map[string]interface{}{
		"CompanyName": companyName,
		"Facts":       facts,
	})
	if err != nil {
		return CompanyProfile{}, err
	}
	logger.Debugf("Profile prompt: %s", prompt)

	raw, err := callLLM(ctx, app.LLM, prompt, true)
	if err != nil {
		return CompanyProfile{}, err
	}

	return app.extractProfile(ctx, raw)
}

func (app *App) generateIndustrySummary(ctx context.Context, keywords []string) (string, error) {
	prompt, err := renderPrompt(industrySummaryTemplate, map[string]interface{}{
		"Keywords": keywords,
		"Language": getReportLanguage(),
	})
	if err != nil {
		return "", err
	}
	return callLLM(ctx, app.SearchLLM, prompt, false)
}

func (app *App) generateIndustryDetail(ctx context.Context, keywords []string) (string, error) {
	prompt, err := renderPrompt(industryDetailTemplate, map[string]interface{}{
		"Keywords": keywords,
		"Language": getReportLanguage(),
	})
	if err != nil {
		return "", err
	}
	return callLLM(ctx, app.SearchLLM, prompt, false)
}

func (app *App) generateIndustryDeepDive(ctx context.Context, companyName string, keywords []string) (string, error) {
	prompt, err := renderPrompt(deepDiveTemplate, map[string]interface{}{
		"CompanyName": companyName,
		"Keywords":    keywords,
		"Language":    getReportLanguage(),
	})
	if err != nil {
		return "", err
	}
	return callLLM(ctx, app.SearchLLM, prompt, false)
}

func (app *App) generateFullReport(ctx context.Context, companyName string, profile CompanyProfile, industryDetail string) (string, error) {
	profileJSON, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("error marshaling profile: %v", err)
	}

	prompt, err := renderPrompt(fullReportTemplate, map[string]interface{}{
		"CompanyName":    companyName,
		"ProfileJSON":    string(profileJSON),
		"IndustryDetail": industryDetail,
		"Language":       getReportLanguage(),
	})
	if err != nil {
		return "", err
	}
	return callLLM(ctx, app.LLM, prompt, false)
}

// RunAnalysis executes the whole pipeline for one request. stepDone is
// called after each completed step for job progress reporting; it may
// be nil.
func (app *App) RunAnalysis(ctx context.Context, req SubmitAnalysisRequest, stepDone func()) (*AnalysisResult, error) {
	logger := log.WithFields(logrus.Fields{
		"company": req.CompanyName,
		"ceo":     req.CEOName,
	})
	done := func() {
		if stepDone != nil {
			stepDone()
		}
	}

	rawText := strings.TrimSpace(req.RawText)
	if len(req.SourceURLs) > 0 && app.Fetcher != nil {
		fetched := app.Fetcher.FetchSources(ctx, req.SourceURLs)
		if fetched != "" {
			if rawText != "" {
				rawText += "\n\n"
			}
			rawText += fetched
		}
	}

	logger.Info("Gathering facts")
	facts, err := app.gatherFacts(ctx, req.CompanyName, req.CEOName, rawText, logger)
	if err != nil {
		return nil, fmt.Errorf("fact gathering failed: %w", err)
	}
	done()

	logger.Info("Generating company profile")
	profile, err := app.generateProfile(ctx, req.CompanyName, facts, logger)
	if err != nil {
		return nil, fmt.Errorf("profile generation failed: %w", err)
	}
	done()

	keywords := selectIndustryKeywords(profile)
	logger.Infof("Industry keywords: %v", keywords)

	// The three industry reports are independent of each other
	var industrySummary, industryDetail, deepDive string
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		industrySummary, err = app.generateIndustrySummary(gctx, keywords)
		if err != nil {
			return fmt.Errorf("industry summary failed: %w", err)
		}
		done()
		return nil
	})
	g.Go(func() error {
		var err error
		industryDetail, err = app.generateIndustryDetail(gctx, keywords)
		if err != nil {
			return fmt.Errorf("industry detail failed: %w", err)
		}
		done()
		return nil
	})
	g.Go(func() error {
		var err error
		deepDive, err = app.generateIndustryDeepDive(gctx, req.CompanyName, keywords)
		if err != nil {
			return fmt.Errorf("industry deep dive failed: %w", err)
		}
		done()
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("Generating full report")
	fullReport, err := app.generateFullReport(ctx, req.CompanyName, profile, industryDetail)
	if err != nil {
		return nil, fmt.Errorf("full report failed: %w", err)
	}
	done()

	return &AnalysisResult{
		CompanyName:      req.CompanyName,
		CEOName:          req.CEOName,
		Facts:            facts,
		Profile:          profile,
		Keywords:         keywords,
		IndustrySummary:  industrySummary,
		IndustryDetail:   industryDetail,
		IndustryDeepDive: deepDive,
		FullReport:       fullReport,
	}, nil
}
