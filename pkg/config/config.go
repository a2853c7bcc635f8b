package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ishanwen-byte/gridsearch-go/internal/constants"
	"github.com/ishanwen-byte/gridsearch-go/internal/types"
)

// Manager handles configuration loading and validation
type Manager struct {
	config *types.Config
	path   string
}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{
		config: getDefaultConfig(),
	}
}

// Load loads configuration from a file
func (m *Manager) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	config := getDefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	// Apply environment variable overrides
	if err := m.applyEnvOverrides(config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	// Validate configuration
	if err := m.validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	m.path = path
	return nil
}

// LoadDefaults applies environment overrides to the defaults when no config
// file is given
func (m *Manager) LoadDefaults() error {
	config := getDefaultConfig()
	if err := m.applyEnvOverrides(config); err != nil {
		return fmt.Errorf("failed to apply environment overrides: %w", err)
	}
	if err := m.validate(config); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	m.config = config
	m.path = ""
	return nil
}

// Save saves configuration to a file
func (m *Manager) Save(path string) error {
	data, err := yaml.Marshal(m.config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *types.Config {
	return m.config
}

// SetConfig updates the configuration
func (m *Manager) SetConfig(config *types.Config) {
	m.config = config
}

// GetPath returns the configuration file path
func (m *Manager) GetPath() string {
	return m.path
}

// Validate checks the current configuration is complete enough to run a
// search. Unlike Load it also requires a command and a space file, which are
// often supplied on the command line after loading.
func (m *Manager) Validate() error {
	if err := m.validate(m.config); err != nil {
		return err
	}
	if strings.TrimSpace(m.config.Search.Command) == "" {
		return fmt.Errorf("search command is required")
	}
	if m.config.Search.SpaceFile == "" {
		return fmt.Errorf("space file is required")
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to the configuration
func (m *Manager) applyEnvOverrides(config *types.Config) error {
	// Search configuration overrides
	if spaceFile := os.Getenv("GRIDSEARCH_SPACE_FILE"); spaceFile != "" {
		config.Search.SpaceFile = spaceFile
	}
	if command := os.Getenv("GRIDSEARCH_COMMAND"); command != "" {
		config.Search.Command = command
	}
	if workers := os.Getenv("GRIDSEARCH_WORKERS"); workers != "" {
		var n int
		if _, err := fmt.Sscanf(workers, "%d", &n); err != nil {
			return fmt.Errorf("invalid GRIDSEARCH_WORKERS %q: %w", workers, err)
		}
		config.Search.ParallelWorkers = n
	}

	// Evaluator configuration overrides
	if timeout := os.Getenv("GRIDSEARCH_TIMEOUT"); timeout != "" {
		var n int
		if _, err := fmt.Sscanf(timeout, "%d", &n); err != nil {
			return fmt.Errorf("invalid GRIDSEARCH_TIMEOUT %q: %w", timeout, err)
		}
		config.Evaluator.Timeout = n
	}

	// Output and logging overrides
	if outputDir := os.Getenv("GRIDSEARCH_OUTPUT_DIR"); outputDir != "" {
		config.Output.Dir = outputDir
	}
	if level := os.Getenv("GRIDSEARCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if verbose := os.Getenv("VERBOSE"); verbose != "" {
		config.Logging.Verbose = strings.ToLower(verbose) == "true"
	}

	return nil
}

// validate validates the configuration
func (m *Manager) validate(config *types.Config) error {
	// Validate search configuration
	if config.Search.ParallelWorkers <= 0 {
		return fmt.Errorf("parallel workers must be positive")
	}

	// Validate evaluator configuration
	if config.Evaluator.Timeout < 0 {
		return fmt.Errorf("evaluator timeout must not be negative")
	}

	// Validate logging configuration
	if _, err := logrus.ParseLevel(config.Logging.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	switch config.Logging.Format {
	case constants.LogFormatText, constants.LogFormatJSON:
	default:
		return fmt.Errorf("unknown log format %q", config.Logging.Format)
	}

	// Validate paths
	if config.Output.Dir == "" {
		config.Output.Dir = constants.OutputDir
	}
	if config.Evaluator.Shell == "" {
		config.Evaluator.Shell = constants.DefaultShell
	}

	return nil
}

// getDefaultConfig returns the default configuration
func getDefaultConfig() *types.Config {
	return &types.Config{
		Search: types.SearchConfig{
			SpaceFile:       constants.DefaultSpaceFile,
			ParallelWorkers: constants.DefaultParallelWorkers,
		},
		Evaluator: types.EvaluatorConfig{
			Shell:   constants.DefaultShell,
			Timeout: constants.DefaultTimeout,
		},
		Output: types.OutputConfig{
			Dir:  constants.OutputDir,
			JSON: true,
			Bolt: false,
		},
		Logging: types.LoggingConfig{
			Level:   constants.DefaultLogLevel,
			Format:  constants.DefaultLogFormat,
			Verbose: false,
		},
	}
}

// CreateDefaultConfig creates a default configuration file
func CreateDefaultConfig(path string) error {
	manager := NewManager()
	return manager.Save(path)
}

// LoadEnv reads a .env file from the working directory when one exists.
// Variables already set in the environment take precedence.
func LoadEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// NewLogger builds a logger from the logging configuration. Verbose forces
// debug level.
func NewLogger(config types.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	if config.Verbose {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)

	if config.Format == constants.LogFormatJSON {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}
