package ir

// Version constants recorded alongside journaled runs.
const (
	// SchemaVersion is the run record schema version.
	SchemaVersion = "1"

	// EngineVersion is the hstar engine version.
	EngineVersion = "0.1.0"
)
