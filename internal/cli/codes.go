package cli

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeNotFound    = "E002" // Input path not found
	ErrCodeConfig      = "E003" // Config file unreadable or invalid
	ErrCodeWriteFailed = "E004" // Artifact or report write error
	ErrCodeReport      = "E005" // Report database error
	ErrCodeNoRuns      = "E006" // Report holds no runs

	// Diagnostics
	ErrCodeDiagnostics = "E100" // Run finished with fatal diagnostics
)
