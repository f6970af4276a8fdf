package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"startup-analyzer/internal/constants"
)

// Global Variables and Constants
var (

	// Logger
	log = logrus.New()

	// Environment Variables (assigned in loadEnv after .env is read)
	llmProvider   string
	llmModel      string
	openaiAPIKey  string
	geminiAPIKey  string
	logLevel      string
	listenAddr    string
	cacheDir      string
	retentionDays int

	// Templates
	factsTemplate           *template.Template
	profileTemplate         *template.Template
	industrySummaryTemplate *template.Template
	industryDetailTemplate  *template.Template
	deepDiveTemplate        *template.Template
	fullReportTemplate      *template.Template
	templateMutex           sync.RWMutex

	// Settings
	settings      Settings
	settingsMutex sync.RWMutex
)

// App struct to hold dependencies
type App struct {
	Database *gorm.DB
	LLM      llms.Model
	// SearchLLM is grounded on web search when the provider supports it.
	// Falls back to plain generation for providers without a search tool.
	SearchLLM llms.Model
	Fetcher   *SourceFetcher
}

func main() {
	loadEnv()

	// Initialize logrus logger
	initLogger()

	// Validate Environment Variables
	validateEnvVars()

	// Load server-side settings
	loadSettings()

	// Initialize Database
	database := InitializeDB()

	// Load Templates
	loadTemplates()

	// Initialize LLM clients
	llm, err := createLLM(false)
	if err != nil {
		log.Fatalf("Failed to create LLM client: %v", err)
	}

	searchLlm, err := createLLM(true)
	if err != nil {
		log.Fatalf("Failed to create search-grounded LLM client: %v", err)
	}

	// Initialize App with dependencies
	app := &App{
		Database:  database,
		LLM:       wrapWithThrottle(llm),
		SearchLLM: wrapWithThrottle(searchLlm),
		Fetcher:   NewSourceFetcher(),
	}

	// Start background retention task
	ctx := context.Background()
	StartBackgroundTasks(ctx, app)

	// Create a Gin router with default middleware (logger and recovery)
	router := gin.Default()

	// API routes
	api := router.Group("/api")
	{
		api.POST("/analyses", app.submitAnalysisHandler)
		api.GET("/analyses", app.listAnalysesHandler)
		api.GET("/analyses/:id", app.getAnalysisHandler)
		api.DELETE("/analyses/:id", app.deleteAnalysisHandler)

		// Report downloads and rendering
		api.GET("/analyses/:id/report", app.downloadReportHandler)
		api.GET("/analyses/:id/report.pdf", app.downloadReportPDFHandler)
		api.GET("/analyses/:id/report.html", app.reportHTMLHandler)

		// Job tracking
		api.GET("/jobs/:job_id", app.getJobStatusHandler)
		api.GET("/jobs", app.getAllJobsHandler)
		api.POST("/jobs/:job_id/cancel", app.cancelJobHandler)

		api.GET("/prompts", getPromptsHandler)
		api.POST("/prompts", updatePromptsHandler)

		api.GET("/settings", getSettingsHandler)
		api.POST("/settings", updateSettingsHandler)

		api.GET("/config", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"provider":       llmProvider,
				"model":          resolveModelName(),
				"credential_set": geminiAPIKey != "",
			})
		})
	}

	// Serve static files for the frontend under /assets
	router.StaticFS("/assets", gin.Dir("./web-app/dist/assets", true))

	// Catch-all route for serving the frontend
	router.NoRoute(func(c *gin.Context) {
		c.File("./web-app/dist/index.html")
	})

	// Start analysis worker pool
	numWorkers := 1
	startWorkerPool(app, numWorkers)

	log.Infof("Server started on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}

// loadEnv reads the optional .env file and assigns environment variables.
// A missing .env file is not an error.
func loadEnv() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debugf("No .env file loaded: %v", err)
	}

	llmProvider = strings.ToLower(os.Getenv("LLM_PROVIDER"))
	if llmProvider == "" {
		llmProvider = "googleai"
	}
	llmModel = os.Getenv("LLM_MODEL")
	openaiAPIKey = os.Getenv("OPENAI_API_KEY")
	logLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	listenAddr = os.Getenv("LISTEN_ADDR")
	if listenAddr == "" {
		listenAddr = constants.DefaultListenAddr
	}
	cacheDir = os.Getenv("ANALYZER_CACHE_DIR")

	retentionDays = 0
	if v := os.Getenv("HISTORY_RETENTION_DAYS"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil || days < 0 {
			log.Fatalf("Invalid HISTORY_RETENTION_DAYS: %q", v)
		}
		retentionDays = days
	}

	geminiAPIKey = resolveGeminiAPIKey()

	// TOKEN_LIMIT may come from the .env file, so the limit has to be
	// re-read after godotenv has run.
	resetTokenLimit()
}

func initLogger() {
	switch logLevel {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "info":
		log.SetLevel(logrus.InfoLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
		if logLevel != "" {
			log.Fatalf("Invalid log level: '%s'.", logLevel)
		}
	}

	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// validateEnvVars ensures all necessary environment variables are set
func validateEnvVars() {
	switch llmProvider {
	case "googleai":
		if geminiAPIKey == "" {
			log.Fatal("Please set the GEMINI_API_KEY (or GOOGLE_API_KEY) environment variable, " +
				"or provide it via the secrets file, for the googleai provider.")
		}
	case "openai":
		if openaiAPIKey == "" {
			log.Fatal("Please set the OPENAI_API_KEY environment variable for the openai provider.")
		}
	case "ollama":
		// OLLAMA_HOST is optional; a local default is used.
	default:
		log.Fatalf("Unsupported LLM provider: %s. Use 'googleai', 'openai' or 'ollama'.", llmProvider)
	}
}

// resolveModelName returns the model to use, preferring the runtime
// setting over the LLM_MODEL environment variable.
func resolveModelName() string {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	if settings.Model != "" {
		return settings.Model
	}
	if llmModel != "" {
		return llmModel
	}
	return constants.DefaultModel
}

// getReportLanguage determines the output language for generated reports
func getReportLanguage() string {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	if settings.ReportLanguage == "" {
		return "English"
	}
	return cases.Title(language.English).String(strings.ToLower(settings.ReportLanguage))
}

// loadTemplates loads the prompt templates from files or uses default templates
func loadTemplates() {
	templateMutex.Lock()
	defer templateMutex.Unlock()

	// Ensure prompts directory exists
	promptsDir := "prompts"
	if err := os.MkdirAll(promptsDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create prompts directory: %v", err)
	}

	load := func(name, filename, defaultContent string) *template.Template {
		path := filepath.Join(promptsDir, filename)
		content, err := os.ReadFile(path)
		if err != nil {
			log.Errorf("Could not read %s, using default template: %v", path, err)
			content = []byte(defaultContent)
			if err := os.WriteFile(path, content, os.ModePerm); err != nil {
				log.Fatalf("Failed to write default %s template to disk: %v", name, err)
			}
		}
		tmpl, err := template.New(name).Funcs(sprig.FuncMap()).Parse(string(content))
		if err != nil {
			log.Fatalf("Failed to parse %s template: %v", name, err)
		}
		return tmpl
	}

	factsTemplate = load("facts", "facts_prompt.tmpl", defaultFactsTemplate)
	profileTemplate = load("profile", "profile_prompt.tmpl", defaultProfileTemplate)
	industrySummaryTemplate = load("industry_summary", "industry_summary_prompt.tmpl", defaultIndustrySummaryTemplate)
	industryDetailTemplate = load("industry_detail", "industry_detail_prompt.tmpl", defaultIndustryDetailTemplate)
	deepDiveTemplate = load("deep_dive", "deep_dive_prompt.tmpl", defaultDeepDiveTemplate)
	fullReportTemplate = load("full_report", "full_report_prompt.tmpl", defaultFullReportTemplate)
}

// createLLM creates the appropriate LLM client based on the provider.
// When searchGrounded is true and the provider supports it, the client
// is configured with a web search tool for fact gathering.
func createLLM(searchGrounded bool) (llms.Model, error) {
	model := resolveModelName()

	switch llmProvider {
	case "googleai":
		return NewGoogleAIProvider(context.Background(), GoogleAIConfig{
			Model:           model,
			APIKey:          geminiAPIKey,
			SearchGrounding: searchGrounded && isSearchGroundingEnabled(),
		})
	case "openai":
		return openai.New(
			openai.WithModel(model),
			openai.WithToken(openaiAPIKey),
		)
	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://127.0.0.1:11434"
		}
		return ollama.New(
			ollama.WithModel(model),
			ollama.WithServerURL(host),
		)
	default:
		log.Fatalf("unsupported LLM provider: %s", llmProvider)
		return nil, nil
	}
}

func isSearchGroundingEnabled() bool {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settings.SearchGrounding
}

// wrapWithThrottle applies rate limiting and retries around an LLM client,
// configured from LLM_RATE_LIMIT_RPM and LLM_MAX_RETRIES.
func wrapWithThrottle(llm llms.Model) llms.Model {
	if llm == nil {
		return nil
	}

	rpm := 0.0
	if v := os.Getenv("LLM_RATE_LIMIT_RPM"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			log.Fatalf("Invalid LLM_RATE_LIMIT_RPM: %q", v)
		}
		rpm = parsed
	}

	maxRetries := 0
	if v := os.Getenv("LLM_MAX_RETRIES"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid LLM_MAX_RETRIES: %q", v)
		}
		maxRetries = parsed
	}

	return NewThrottledLLM(llm, ThrottleConfig{
		RequestsPerMinute: rpm,
		MaxRetries:        maxRetries,
	})
}
