package constants

// Application constants
const (
	Name        = "gridsearch-go"
	Version     = "1.0.0"
	Description = "Exhaustive grid search over discrete hyperparameter spaces"

	// Default configuration values
	DefaultParallelWorkers = 1
	DefaultTimeout         = 3600 // seconds
	DefaultShell           = "/bin/sh"
	DefaultSpaceFile       = "params.pcs"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"

	// Directory and file names
	OutputDir      = "gridsearch_output"
	LatestRunFile  = "latest.json"
	BoltDBFile     = "runs.db"
	RunFileVersion = "1.0"

	// Exit codes
	ExitSuccess   = 0
	ExitError     = 1
	ExitInterrupt = 2
)

// Log formats
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// Score output markers understood by the command evaluator
const (
	ScorePrefix    = "SCORE:"
	ParamILSPrefix = "Result for ParamILS:"
	ParamILSSAT    = "SAT"
)
