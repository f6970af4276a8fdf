package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"startup-analyzer/report"
)

// promptFiles maps the API prompt names to their template files and
// fallback contents.
var promptFiles = []struct {
	Name     string
	Filename string
	Default  string
	Target   **template.Template
}{
	{"facts", "facts_prompt.tmpl", defaultFactsTemplate, &factsTemplate},
	{"profile", "profile_prompt.tmpl", defaultProfileTemplate, &profileTemplate},
	{"industry_summary", "industry_summary_prompt.tmpl", defaultIndustrySummaryTemplate, &industrySummaryTemplate},
	{"industry_detail", "industry_detail_prompt.tmpl", defaultIndustryDetailTemplate, &industryDetailTemplate},
	{"deep_dive", "deep_dive_prompt.tmpl", defaultDeepDiveTemplate, &deepDiveTemplate},
	{"full_report", "full_report_prompt.tmpl", defaultFullReportTemplate, &fullReportTemplate},
}

// submitAnalysisHandler handles the POST /api/analyses endpoint
func (app *App) submitAnalysisHandler(c *gin.Context) {
	var req SubmitAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid request payload: %v", err)})
		log.Errorf("Invalid request payload: %v", err)
		return
	}

	req.CompanyName = strings.TrimSpace(req.CompanyName)
	req.CEOName = strings.TrimSpace(req.CEOName)
	if req.CompanyName == "" || req.CEOName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "company_name and ceo_name are required"})
		return
	}

	jobID := generateJobID()
	job := &Job{
		ID:          jobID,
		CompanyName: req.CompanyName,
		Request:     req,
		Status:      "pending",
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	jobStore.addJob(job)
	jobQueue <- job

	c.JSON(http.StatusAccepted, gin.H{"job_id": jobID})
}

func jobResponse(job *Job) gin.H {
	response := gin.H{
		"job_id":       job.ID,
		"company_name": job.CompanyName,
		"status":       job.Status,
		"created_at":   job.CreatedAt,
		"updated_at":   job.UpdatedAt,
		"steps_done":   job.StepsDone,
		"total_steps":  job.TotalSteps,
	}

	if job.Status == "completed" {
		response["analysis_id"] = job.AnalysisID
	} else if job.Status == "failed" {
		response["error"] = job.Error
	}

	return response
}

func (app *App) getJobStatusHandler(c *gin.Context) {
	jobID := c.Param("job_id")

	job, exists := jobStore.getJob(jobID)
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, jobResponse(job))
}

func (app *App) getAllJobsHandler(c *gin.Context) {
	jobs := jobStore.GetAllJobs()

	jobList := make([]gin.H, 0, len(jobs))
	for _, job := range jobs {
		jobList = append(jobList, jobResponse(job))
	}

	c.JSON(http.StatusOK, jobList)
}

func (app *App) cancelJobHandler(c *gin.Context) {
	jobID := c.Param("job_id")

	if _, exists := jobStore.getJob(jobID); !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	if !cancelJob(jobID) {
		c.JSON(http.StatusConflict, gin.H{"error": "Job is not running"})
		return
	}

	c.Status(http.StatusAccepted)
}

// listAnalysesHandler handles the GET /api/analyses endpoint
func (app *App) listAnalysesHandler(c *gin.Context) {
	records, err := GetAllAnalyses(app.Database)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis history"})
		log.Errorf("Failed to retrieve analysis history: %v", err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// fetchAnalysis looks up one record and writes the error response itself
// when the lookup fails.
func (app *App) fetchAnalysis(c *gin.Context) (AnalysisRecord, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid analysis ID"})
		return AnalysisRecord{}, false
	}

	record, err := GetAnalysis(app.Database, uint(id))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Analysis not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve analysis"})
			log.Errorf("Failed to retrieve analysis: %v", err)
		}
		return AnalysisRecord{}, false
	}

	return record, true
}

func (app *App) getAnalysisHandler(c *gin.Context) {
	record, ok := app.fetchAnalysis(c)
	if !ok {
		return
	}

	var profile CompanyProfile
	if err := json.Unmarshal([]byte(record.ProfileJSON), &profile); err != nil {
		log.Errorf("Stored profile JSON is unreadable for analysis %d: %v", record.ID, err)
	}

	c.JSON(http.StatusOK, gin.H{
		"id":                 record.ID,
		"company_name":       record.CompanyName,
		"ceo_name":           record.CEOName,
		"profile":            profile,
		"keywords":           splitKeywords(record.Keywords),
		"industry_summary":   record.IndustrySummary,
		"industry_detail":    record.IndustryDetail,
		"industry_deep_dive": record.IndustryDeepDive,
		"full_report":        record.FullReport,
		"created_at":         record.CreatedAt,
	})
}

func (app *App) deleteAnalysisHandler(c *gin.Context) {
	record, ok := app.fetchAnalysis(c)
	if !ok {
		return
	}

	if err := DeleteAnalysis(app.Database, record.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete analysis"})
		log.Errorf("Failed to delete analysis %d: %v", record.ID, err)
		return
	}

	c.Status(http.StatusOK)
}

// downloadReportHandler serves the full report as a Markdown download
func (app *App) downloadReportHandler(c *gin.Context) {
	record, ok := app.fetchAnalysis(c)
	if !ok {
		return
	}

	// Older records may predate the combined report step; fall back to
	// the assembled section document.
	body := record.FullReport
	if body == "" {
		body = buildReportDocument(record).Markdown()
	}

	filename := report.MarkdownFilename(record.CompanyName, record.CreatedAt)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(body))
}

func (app *App) downloadReportPDFHandler(c *gin.Context) {
	record, ok := app.fetchAnalysis(c)
	if !ok {
		return
	}

	doc := buildReportDocument(record)
	pdfBytes, err := report.RenderPDF(doc)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to render PDF report"})
		log.Errorf("Failed to render PDF for analysis %d: %v", record.ID, err)
		return
	}

	filename := report.PDFFilename(record.CompanyName, record.CreatedAt)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (app *App) reportHTMLHandler(c *gin.Context) {
	record, ok := app.fetchAnalysis(c)
	if !ok {
		return
	}

	html := report.RenderHTML(record.FullReport)
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(html))
}

// buildReportDocument assembles the printable layout from a stored record
func buildReportDocument(record AnalysisRecord) report.Document {
	var profile CompanyProfile
	if err := json.Unmarshal([]byte(record.ProfileJSON), &profile); err != nil {
		log.Warnf("Stored profile JSON is unreadable for analysis %d: %v", record.ID, err)
	}

	return report.Document{
		Title: fmt.Sprintf("Startup Analysis Report: %s", record.CompanyName),
		Sections: []report.Section{
			{Heading: "Problem Definition", Body: profile.ProblemDefinition},
			{Heading: "Solution & Value Proposition", Body: profile.SolutionValueProp},
			{Heading: "Business Model", Body: profile.RevenueModelType},
			{Heading: "Core Features", Body: strings.Join(profile.ProductCoreFeatures, "\n")},
			{Heading: "Core Technology & Moat", Body: profile.CoreTechMoat},
			{Heading: "CEO Vision", Body: profile.CEOVisionSummary},
			{Heading: "Organization & Operations", Body: profile.OrgCultureBizFocus},
			{Heading: "Recent News", Body: profile.RecentNewsSummary},
			{Heading: "Industry Keywords", Body: strings.Join(splitKeywords(record.Keywords), ", ")},
			{Heading: "Industry Report", Body: record.IndustrySummary},
			{Heading: "Full Report", Body: record.FullReport},
		},
	}
}

func splitKeywords(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}

// getPromptsHandler handles the GET /api/prompts endpoint
func getPromptsHandler(c *gin.Context) {
	templateMutex.RLock()
	defer templateMutex.RUnlock()

	response := gin.H{}
	for _, p := range promptFiles {
		content, err := os.ReadFile(filepath.Join("prompts", p.Filename))
		if err != nil {
			content = []byte(p.Default)
		}
		response[p.Name+"_template"] = string(content)
	}

	c.JSON(http.StatusOK, response)
}

// updatePromptsHandler handles the POST /api/prompts endpoint
func updatePromptsHandler(c *gin.Context) {
	var req map[string]string
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	templateMutex.Lock()
	defer templateMutex.Unlock()

	for _, p := range promptFiles {
		content, ok := req[p.Name+"_template"]
		if !ok || content == "" {
			continue
		}

		t, err := template.New(p.Name).Funcs(sprig.FuncMap()).Parse(content)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Invalid %s template: %v", p.Name, err)})
			return
		}
		*p.Target = t

		if err := os.WriteFile(filepath.Join("prompts", p.Filename), []byte(content), 0644); err != nil {
			log.Errorf("Failed to write %s: %v", p.Filename, err)
		}
	}

	c.Status(http.StatusOK)
}

// getSettingsHandler handles the GET /api/settings endpoint
func getSettingsHandler(c *gin.Context) {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	c.JSON(http.StatusOK, settings)
}

// updateSettingsHandler handles the POST /api/settings endpoint
func updateSettingsHandler(c *gin.Context) {
	var req Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	settingsMutex.Lock()
	settings = req
	err := saveSettingsLocked()
	settingsMutex.Unlock()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to persist settings"})
		log.Errorf("Failed to persist settings: %v", err)
		return
	}

	c.Status(http.StatusOK)
}
