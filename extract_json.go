package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"github.com/tmc/langchaingo/llms"
)

// extractJSONBlock pulls the outermost JSON object out of a model
// response and parses it into target. Steps:
//
//  1. strip code fences
//  2. take the outermost { ... } block
//  3. parse as-is
//  4. on failure, escape stray inner quotes heuristically and re-parse
func extractJSONBlock(text string, target interface{}) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty response")
	}

	cleaned := strings.TrimSpace(
		strings.ReplaceAll(strings.ReplaceAll(text, "```json", ""), "```", ""),
	)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("JSON block not found")
	}

	raw := cleaned[start : end+1]

	if err := json.Unmarshal([]byte(raw), target); err == nil {
		return nil
	}

	repaired := escapeInnerQuotes(raw)
	if err := json.Unmarshal([]byte(repaired), target); err != nil {
		return fmt.Errorf("failed to parse JSON block: %w", err)
	}
	return nil
}

// escapeInnerQuotes escapes double quotes that appear inside JSON string
// values. A quote inside a string is treated as the closing quote only
// when the next non-space rune is a structural character (',', '}', ']'
// or ':'); otherwise it is escaped.
func escapeInnerQuotes(s string) string {
	runes := []rune(s)
	n := len(runes)

	nextNonSpace := func(idx int) rune {
		for j := idx; j < n; j++ {
			if !unicode.IsSpace(runes[j]) {
				return runes[j]
			}
		}
		return 0
	}

	var out strings.Builder
	out.Grow(len(s))
	inString := false
	escaped := false

	for i := 0; i < n; i++ {
		ch := runes[i]

		if escaped {
			out.WriteRune(ch)
			escaped = false
			continue
		}

		if ch == '\\' {
			out.WriteRune(ch)
			escaped = true
			continue
		}

		if ch != '"' {
			out.WriteRune(ch)
			continue
		}

		if !inString {
			inString = true
			out.WriteRune(ch)
			continue
		}

		switch nextNonSpace(i + 1) {
		case ',', '}', ']', ':':
			// Closing quote
			inString = false
			out.WriteRune(ch)
		default:
			// Quote inside the string value
			out.WriteString(`\"`)
		}
	}

	return out.String()
}

// extractProfile parses a company profile from a model response. When
// direct extraction fails, the model is asked once to re-emit the
// response as standard JSON before giving up.
func (app *App) extractProfile(ctx context.Context, rawResponse string) (CompanyProfile, error) {
	var profile CompanyProfile

	firstErr := extractJSONBlock(rawResponse, &profile)
	if firstErr == nil {
		return profile, nil
	}

	log.Warnf("Profile JSON extraction failed, requesting model-side repair: %v", firstErr)

	fixed, err := app.repairJSONWithModel(ctx, rawResponse)
	if err != nil {
		return profile, fmt.Errorf("JSON repair request failed: %w", err)
	}

	if err := extractJSONBlock(fixed, &profile); err != nil {
		return profile, fmt.Errorf("JSON repair did not produce parseable output: %w", err)
	}

	return profile, nil
}

// repairJSONWithModel asks the model to correct malformed JSON output
// while keeping the content intact.
func (app *App) repairJSONWithModel(ctx context.Context, rawText string) (string, error) {
	prompt := repairPromptPrefix + rawText

	completion, err := app.LLM.GenerateContent(ctx, []llms.MessageContent{
		{
			Parts: []llms.ContentPart{
				llms.TextContent{
					Text: prompt,
				},
			},
			Role: llms.ChatMessageTypeHuman,
		},
	})
	if err != nil {
		return "", fmt.Errorf("error getting repair response from LLM: %v", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("LLM returned no choices")
	}

	return strings.TrimSpace(completion.Choices[0].Content), nil
}
