package constants

// DefaultModel is the Gemini model used when neither LLM_MODEL nor the
// runtime settings name one.
const DefaultModel = "gemini-2.0-flash"

// DefaultListenAddr is the default bind address for the HTTP server.
const DefaultListenAddr = ":8080"

// UnverifiedMarker is the token the profile prompt instructs the model
// to use for claims it could not verify. Keywords carrying it are
// excluded from industry report generation.
const UnverifiedMarker = "unverified"
