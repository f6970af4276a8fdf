package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// AnalysisRecord represents the schema of the analysis_records table
type AnalysisRecord struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	CompanyName      string `gorm:"size:255;not null" json:"company_name"`
	CEOName          string `gorm:"size:255;not null" json:"ceo_name"`
	Facts            string `gorm:"size:1048576" json:"facts,omitempty"`
	ProfileJSON      string `gorm:"size:1048576" json:"profile_json"`
	Keywords         string `gorm:"size:4096" json:"keywords"` // comma-separated
	IndustrySummary  string `gorm:"size:1048576" json:"industry_summary"`
	IndustryDetail   string `gorm:"size:1048576" json:"industry_detail"`
	IndustryDeepDive string `gorm:"size:1048576" json:"industry_deep_dive"`
	FullReport       string `gorm:"size:1048576" json:"full_report"`
	CreatedAt        time.Time
}

// InitializeDB initializes the SQLite database and migrates the schema
func InitializeDB() *gorm.DB {
	dbDir := cacheDir
	if dbDir == "" {
		dbDir = "db"
	}
	if err := os.MkdirAll(dbDir, os.ModePerm); err != nil {
		log.Fatalf("Failed to create db directory: %v", err)
	}

	dbPath := filepath.Join(dbDir, "analysis_history.db")

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Migrate the schema (create the table if it doesn't exist)
	err = db.AutoMigrate(&AnalysisRecord{})
	if err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	return db
}

// InsertAnalysis stores a completed pipeline run
func InsertAnalysis(db *gorm.DB, result *AnalysisResult) (*AnalysisRecord, error) {
	profileJSON, err := json.Marshal(result.Profile)
	if err != nil {
		return nil, fmt.Errorf("error marshaling profile: %v", err)
	}

	record := AnalysisRecord{
		CompanyName:      result.CompanyName,
		CEOName:          result.CEOName,
		Facts:            result.Facts,
		ProfileJSON:      string(profileJSON),
		Keywords:         strings.Join(result.Keywords, ","),
		IndustrySummary:  result.IndustrySummary,
		IndustryDetail:   result.IndustryDetail,
		IndustryDeepDive: result.IndustryDeepDive,
		FullReport:       result.FullReport,
	}

	if err := db.Create(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

// GetAllAnalyses retrieves all stored analyses, newest first, without
// the large report bodies.
func GetAllAnalyses(db *gorm.DB) ([]AnalysisRecord, error) {
	var records []AnalysisRecord
	result := db.
		Select("id", "company_name", "ceo_name", "keywords", "created_at").
		Order("created_at DESC").
		Find(&records)
	return records, result.Error
}

// GetAnalysis retrieves one full record by ID
func GetAnalysis(db *gorm.DB, id uint) (AnalysisRecord, error) {
	var record AnalysisRecord
	result := db.First(&record, id)
	return record, result.Error
}

// DeleteAnalysis removes one record by ID
func DeleteAnalysis(db *gorm.DB, id uint) error {
	return db.Delete(&AnalysisRecord{}, id).Error
}

// PruneAnalysesOlderThan deletes records created before the cutoff and
// returns how many were removed.
func PruneAnalysesOlderThan(db *gorm.DB, cutoff time.Time) (int, error) {
	result := db.Where("created_at < ?", cutoff).Delete(&AnalysisRecord{})
	return int(result.RowsAffected), result.Error
}
