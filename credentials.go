package main

import (
	"encoding/json"
	"os"
	"strings"
)

// Credential environment variable names, checked in order. GEMINI_API_KEY
// takes precedence over GOOGLE_API_KEY; both name the same credential.
var credentialEnvVars = []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}

// resolveGeminiAPIKey determines the credential used to authenticate
// against the Gemini API. Sources, in order of precedence:
//
//  1. A secrets file (managed-hosting secrets store), exposing the same
//     two key names. Path defaults to config/secrets.json and can be
//     overridden with SECRETS_FILE.
//  2. The process environment: GEMINI_API_KEY, then GOOGLE_API_KEY.
//
// Values are whitespace-trimmed. A value that is empty after trimming
// is treated as unset. Returns "" when no credential is available.
func resolveGeminiAPIKey() string {
	if key := readSecretsFileKey(); key != "" {
		return key
	}

	for _, name := range credentialEnvVars {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return key
		}
	}

	return ""
}

func secretsFilePath() string {
	if path := os.Getenv("SECRETS_FILE"); path != "" {
		return path
	}
	return "config/secrets.json"
}

// readSecretsFileKey reads the credential from the secrets file, if one
// exists. The file is a flat JSON object; a missing file is not an error.
func readSecretsFileKey() string {
	path := secretsFilePath()
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warnf("Could not read secrets file %s: %v", path, err)
		}
		return ""
	}

	var secrets map[string]string
	if err := json.Unmarshal(data, &secrets); err != nil {
		log.Warnf("Could not parse secrets file %s: %v", path, err)
		return ""
	}

	for _, name := range credentialEnvVars {
		if key := strings.TrimSpace(secrets[name]); key != "" {
			return key
		}
	}

	return ""
}
