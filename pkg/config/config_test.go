package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ishanwen-byte/gridsearch-go/internal/constants"
	"github.com/ishanwen-byte/gridsearch-go/internal/types"
)

var envVars = []string{
	"GRIDSEARCH_SPACE_FILE",
	"GRIDSEARCH_COMMAND",
	"GRIDSEARCH_WORKERS",
	"GRIDSEARCH_TIMEOUT",
	"GRIDSEARCH_OUTPUT_DIR",
	"GRIDSEARCH_LOG_LEVEL",
	"VERBOSE",
}

// clearEnv blanks every override for the duration of the test
func clearEnv(t *testing.T) {
	for _, name := range envVars {
		t.Setenv(name, "")
	}
}

func TestNewManager(t *testing.T) {
	manager := NewManager()
	assert.NotNil(t, manager)
	assert.NotNil(t, manager.config)
	assert.Empty(t, manager.path)
}

func TestLoadAndSave(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "config.yaml")

	// Test saving a modified config
	manager := NewManager()
	manager.GetConfig().Search.Command = "python train.py"
	manager.GetConfig().Search.ParallelWorkers = 4
	err := manager.Save(configPath)
	require.NoError(t, err)

	_, err = os.Stat(configPath)
	require.NoError(t, err)

	// Test loading config
	newManager := NewManager()
	err = newManager.Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, manager.config, newManager.config)
	assert.Equal(t, configPath, newManager.GetPath())
	assert.NoError(t, newManager.Validate())
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "partial.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("search:\n  command: ./objective\n"), 0644))

	manager := NewManager()
	require.NoError(t, manager.Load(configPath))

	config := manager.GetConfig()
	assert.Equal(t, "./objective", config.Search.Command)
	assert.Equal(t, constants.DefaultSpaceFile, config.Search.SpaceFile)
	assert.Equal(t, constants.DefaultParallelWorkers, config.Search.ParallelWorkers)
	assert.Equal(t, constants.DefaultTimeout, config.Evaluator.Timeout)
	assert.Equal(t, constants.OutputDir, config.Output.Dir)
	assert.True(t, config.Output.JSON)
}

func TestLoadNonExistentFile(t *testing.T) {
	manager := NewManager()
	err := manager.Load("/non/existent/file.yaml")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestInvalidConfig(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid_config.yaml")

	// Write invalid YAML
	err := os.WriteFile(configPath, []byte("invalid: yaml: content: ["), 0644)
	require.NoError(t, err)

	manager := NewManager()
	err = manager.Load(configPath)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestValidation(t *testing.T) {
	manager := NewManager()
	config := manager.GetConfig()

	// Test valid config passes validation
	assert.NoError(t, manager.validate(config))

	// A default config has no command to run
	err := manager.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "search command is required")

	config.Search.Command = "./objective"
	assert.NoError(t, manager.Validate())

	tests := []struct {
		name     string
		mutate   func()
		restore  func()
		expected string
	}{
		{
			name:     "workers",
			mutate:   func() { config.Search.ParallelWorkers = 0 },
			restore:  func() { config.Search.ParallelWorkers = 1 },
			expected: "parallel workers must be positive",
		},
		{
			name:     "timeout",
			mutate:   func() { config.Evaluator.Timeout = -1 },
			restore:  func() { config.Evaluator.Timeout = constants.DefaultTimeout },
			expected: "evaluator timeout must not be negative",
		},
		{
			name:     "level",
			mutate:   func() { config.Logging.Level = "loud" },
			restore:  func() { config.Logging.Level = constants.DefaultLogLevel },
			expected: "invalid log level",
		},
		{
			name:     "format",
			mutate:   func() { config.Logging.Format = "xml" },
			restore:  func() { config.Logging.Format = constants.DefaultLogFormat },
			expected: "unknown log format",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			test.mutate()
			defer test.restore()

			err := manager.validate(config)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), test.expected)
		})
	}

	// Empty paths are filled in
	config.Output.Dir = ""
	config.Evaluator.Shell = ""
	require.NoError(t, manager.validate(config))
	assert.Equal(t, constants.OutputDir, config.Output.Dir)
	assert.Equal(t, constants.DefaultShell, config.Evaluator.Shell)
}

func TestEnvOverrides(t *testing.T) {
	manager := NewManager()
	config := getDefaultConfig()

	t.Setenv("GRIDSEARCH_SPACE_FILE", "custom.pcs")
	t.Setenv("GRIDSEARCH_COMMAND", "./custom")
	t.Setenv("GRIDSEARCH_WORKERS", "8")
	t.Setenv("GRIDSEARCH_TIMEOUT", "60")
	t.Setenv("GRIDSEARCH_OUTPUT_DIR", "custom-output")
	t.Setenv("GRIDSEARCH_LOG_LEVEL", "debug")
	t.Setenv("VERBOSE", "true")

	err := manager.applyEnvOverrides(config)
	require.NoError(t, err)

	assert.Equal(t, "custom.pcs", config.Search.SpaceFile)
	assert.Equal(t, "./custom", config.Search.Command)
	assert.Equal(t, 8, config.Search.ParallelWorkers)
	assert.Equal(t, 60, config.Evaluator.Timeout)
	assert.Equal(t, "custom-output", config.Output.Dir)
	assert.Equal(t, "debug", config.Logging.Level)
	assert.True(t, config.Logging.Verbose)
}

func TestEnvOverridesRejectGarbage(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRIDSEARCH_WORKERS", "many")

	err := NewManager().applyEnvOverrides(getDefaultConfig())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "GRIDSEARCH_WORKERS")
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GRIDSEARCH_COMMAND", "./objective")

	manager := NewManager()
	require.NoError(t, manager.LoadDefaults())
	assert.Equal(t, "./objective", manager.GetConfig().Search.Command)
	assert.Empty(t, manager.GetPath())
}

func TestGetSetConfig(t *testing.T) {
	manager := NewManager()
	assert.NotNil(t, manager.GetConfig())

	newConfig := getDefaultConfig()
	newConfig.Search.ParallelWorkers = 99
	manager.SetConfig(newConfig)

	assert.Equal(t, 99, manager.GetConfig().Search.ParallelWorkers)
}

func TestCreateDefaultConfig(t *testing.T) {
	clearEnv(t)
	configPath := filepath.Join(t.TempDir(), "default_config.yaml")

	err := CreateDefaultConfig(configPath)
	require.NoError(t, err)

	manager := NewManager()
	err = manager.Load(configPath)
	require.NoError(t, err)

	config := manager.GetConfig()
	assert.Equal(t, constants.DefaultParallelWorkers, config.Search.ParallelWorkers)
	assert.Equal(t, constants.DefaultTimeout, config.Evaluator.Timeout)
}

func TestLoadEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()

	// a missing file is not an error
	assert.NoError(t, LoadEnv(filepath.Join(dir, ".env")))

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("GRIDSEARCH_COMMAND=./from-dotenv\n"), 0644))

	// set-but-empty variables are left alone by godotenv, so unset first
	os.Unsetenv("GRIDSEARCH_COMMAND")
	require.NoError(t, LoadEnv(envFile))
	assert.Equal(t, "./from-dotenv", os.Getenv("GRIDSEARCH_COMMAND"))
}

func TestNewLogger(t *testing.T) {
	logger := NewLogger(getDefaultConfig().Logging)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, logger.Formatter)

	logger = NewLogger(types.LoggingConfig{Level: "warn", Format: constants.LogFormatJSON})
	assert.Equal(t, logrus.WarnLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	logger = NewLogger(types.LoggingConfig{Level: "warn", Format: constants.LogFormatText, Verbose: true})
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}
