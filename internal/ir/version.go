package ir

// Version constants for the IR schema and the tool.
const (
	// IRVersion is the IR dump schema version.
	IRVersion = "1"

	// ToolVersion is the pyken release version.
	ToolVersion = "0.1.0"
)
