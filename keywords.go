package main

import (
	"strings"

	"startup-analyzer/internal/constants"
)

const maxAutoKeywords = 5

// selectIndustryKeywords picks the keywords used for the industry
// reports. Profile keywords marked unverified are dropped; when none
// survive, keywords are derived from the product feature descriptions.
func selectIndustryKeywords(profile CompanyProfile) []string {
	keywords := make([]string, 0, len(profile.IndustryKeywords))
	for _, k := range profile.IndustryKeywords {
		k = strings.TrimSpace(k)
		if k == "" || strings.Contains(strings.ToLower(k), constants.UnverifiedMarker) {
			continue
		}
		keywords = append(keywords, k)
	}
	if len(keywords) > 0 {
		return keywords
	}

	// Derive keywords from product feature tokens
	tokens := strings.Fields(strings.ToLower(strings.Join(profile.ProductCoreFeatures, " ")))
	seen := make(map[string]struct{})
	auto := []string{}
	for _, t := range tokens {
		if len(t) <= 3 {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		auto = append(auto, t)
		if len(auto) == maxAutoKeywords {
			break
		}
	}

	if len(auto) == 0 {
		return []string{"technology"}
	}
	return auto
}
