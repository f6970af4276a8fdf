package main

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	configDir    = "config"
	settingsFile = "settings.json"
)

// Settings defines the structure for server-side runtime settings
type Settings struct {
	// Model overrides LLM_MODEL when non-empty
	Model string `json:"model"`
	// SearchGrounding toggles the web search tool for fact gathering
	// (googleai provider only)
	SearchGrounding bool `json:"search_grounding"`
	// ReportLanguage is the output language for generated reports
	ReportLanguage string `json:"report_language"`
}

// saveSettings saves the current settings to the settings.json file.
func saveSettings() error {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()
	return saveSettingsLocked()
}

// saveSettingsLocked performs the actual saving without locking the mutex.
// This is to be called from functions that already hold the lock.
func saveSettingsLocked() error {
	// Ensure the config directory exists
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(configDir, settingsFile), data, 0644)
}

// loadSettings loads the settings from settings.json, creating it with
// defaults if it doesn't exist or is corrupt.
func loadSettings() {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settingsPath := filepath.Join(configDir, settingsFile)
	data, err := os.ReadFile(settingsPath)

	loadDefaultSettings := func() {
		settings = Settings{
			Model:           "",
			SearchGrounding: true,
			ReportLanguage:  "English",
		}
	}

	if err != nil {
		if os.IsNotExist(err) {
			log.Infof("Settings file not found at %s, creating with default values.", settingsPath)
			loadDefaultSettings()
			if err := saveSettingsLocked(); err != nil {
				log.Fatalf("Failed to create default settings file: %v", err)
			}
		} else {
			log.Warnf("Failed to read settings file: %v. Loading default settings.", err)
			loadDefaultSettings()
		}
		return
	}

	if err := json.Unmarshal(data, &settings); err != nil {
		log.Warnf("Failed to parse settings file, please check its format. Loading default settings. Error: %v", err)
		loadDefaultSettings()
		return
	}

	log.Info("Successfully loaded settings from settings.json")
}
