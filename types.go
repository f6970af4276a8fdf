package main

// CompanyProfile is the structured analysis produced for a company.
// The field set is fixed; the model is asked to emit exactly these keys.
type CompanyProfile struct {
	ProblemDefinition   string   `json:"problem_definition"`
	SolutionValueProp   string   `json:"solution_value_prop"`
	RevenueModelType    string   `json:"revenue_model_type"`
	ProductCoreFeatures []string `json:"product_core_features"`
	CoreTechMoat        string   `json:"core_tech_moat"`
	CEOVisionSummary    string   `json:"ceo_vision_summary"`
	OrgCultureBizFocus  string   `json:"org_culture_biz_focus"`
	RecentNewsSummary   string   `json:"recent_news_summary"`
	IndustryKeywords    []string `json:"industry_keywords"`
}

// SubmitAnalysisRequest is the request payload for POST /api/analyses.
type SubmitAnalysisRequest struct {
	CompanyName string `json:"company_name" binding:"required"`
	CEOName     string `json:"ceo_name" binding:"required"`
	// RawText is optional supporting material (news articles, memos).
	RawText string `json:"raw_text,omitempty"`
	// SourceURLs are optional links whose text content is fetched and
	// appended to RawText before fact gathering.
	SourceURLs []string `json:"source_urls,omitempty"`
}

// AnalysisResult holds every artifact produced by one pipeline run.
type AnalysisResult struct {
	CompanyName      string
	CEOName          string
	Facts            string
	Profile          CompanyProfile
	Keywords         []string
	IndustrySummary  string
	IndustryDetail   string
	IndustryDeepDive string
	FullReport       string
}
