package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"text/template"

	"github.com/tmc/langchaingo/llms"
)

// tokenLimit caps the size of rendered prompts. 0 disables the limit.
var tokenLimit = 0

func init() {
	resetTokenLimit()
}

// resetTokenLimit re-reads TOKEN_LIMIT from the environment.
func resetTokenLimit() {
	tokenLimit = 0
	if v := os.Getenv("TOKEN_LIMIT"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			tokenLimit = parsed
		}
	}
}

// getAvailableTokensForContent calculates how many tokens are available
// for the RawText slot by rendering the template with it empty and
// counting the remaining tokens.
func getAvailableTokensForContent(tmpl *template.Template, data map[string]interface{}) (int, error) {
	if tokenLimit <= 0 {
		return -1, nil // No limit when disabled
	}

	templateData := make(map[string]interface{})
	for k, v := range data {
		templateData[k] = v
	}
	templateData["RawText"] = ""

	var promptBuffer bytes.Buffer
	if err := tmpl.Execute(&promptBuffer, templateData); err != nil {
		return 0, fmt.Errorf("error executing template: %v", err)
	}

	promptTokens, err := getTokenCount(promptBuffer.String())
	if err != nil {
		return 0, fmt.Errorf("error counting tokens in prompt: %v", err)
	}
	log.Debugf("Prompt template uses %d tokens", promptTokens)

	// Safety margin for prompt tokens
	promptTokens += 10

	availableTokens := tokenLimit - promptTokens
	if availableTokens < 0 {
		return 0, fmt.Errorf("prompt template exceeds token limit")
	}
	return availableTokens, nil
}

func getTokenCount(content string) (int, error) {
	return llms.CountTokens(resolveModelName(), content), nil
}

// truncateContentByTokens truncates the content so that its token count
// does not exceed availableTokens, using a binary search on runes for the
// longest fitting prefix. A negative availableTokens disables truncation.
func truncateContentByTokens(content string, availableTokens int) (string, error) {
	if availableTokens < 0 || tokenLimit <= 0 {
		return content, nil
	}
	totalTokens, err := getTokenCount(content)
	if err != nil {
		return "", fmt.Errorf("error counting tokens: %v", err)
	}
	if totalTokens <= availableTokens {
		return content, nil
	}

	runes := []rune(content)
	low := 0
	high := len(runes)
	validCut := 0

	for low <= high {
		mid := (low + high) / 2
		substr := string(runes[:mid])
		count, err := getTokenCount(substr)
		if err != nil {
			return "", fmt.Errorf("error counting tokens in substring: %v", err)
		}
		if count <= availableTokens {
			validCut = mid
			low = mid + 1
		} else {
			high = mid - 1
		}
	}

	truncated := string(runes[:validCut])
	finalTokens, err := getTokenCount(truncated)
	if err != nil {
		return "", fmt.Errorf("error counting tokens in final truncated content: %v", err)
	}
	if finalTokens > availableTokens {
		return "", fmt.Errorf("truncated content still exceeds the available token limit")
	}
	return truncated, nil
}
