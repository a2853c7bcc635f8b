package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ishanwen-byte/gridsearch-go/internal/constants"
	"github.com/ishanwen-byte/gridsearch-go/internal/types"
	"github.com/ishanwen-byte/gridsearch-go/pkg/invocation"
)

// Evaluator maps a configuration to a scalar score to be minimized
type Evaluator interface {
	Evaluate(ctx context.Context, cfg types.Configuration) (float64, error)
}

// Func adapts an in-process objective function to Evaluator
type Func func(ctx context.Context, cfg types.Configuration) (float64, error)

// Evaluate calls f
func (f Func) Evaluate(ctx context.Context, cfg types.Configuration) (float64, error) {
	return f(ctx, cfg)
}

// ErrNoScore is returned when the evaluator output holds no recognizable score
var ErrNoScore = errors.New("no score in evaluator output")

// Command evaluates configurations by running an external program through a
// shell. The command line is built with invocation.Encode.
type Command struct {
	command string
	config  types.EvaluatorConfig
	timeout time.Duration
	logger  *logrus.Logger
}

// NewCommand creates a command evaluator for the given base command
func NewCommand(command string, config types.EvaluatorConfig, logger *logrus.Logger) (*Command, error) {
	if strings.TrimSpace(command) == "" {
		return nil, fmt.Errorf("evaluation command is required")
	}
	if config.Shell == "" {
		config.Shell = constants.DefaultShell
	}
	if _, err := exec.LookPath(config.Shell); err != nil {
		return nil, fmt.Errorf("shell not found: %s: %w", config.Shell, err)
	}
	if logger == nil {
		logger = logrus.New()
	}

	c := &Command{
		command: command,
		config:  config,
		timeout: time.Duration(config.Timeout) * time.Second,
		logger:  logger,
	}

	logger.WithFields(logrus.Fields{
		"command": command,
		"shell":   config.Shell,
		"timeout": c.timeout,
		"dir":     config.WorkingDir,
	}).Debug("Initialized command evaluator")

	return c, nil
}

// Invocation returns the shell line that Evaluate would run for cfg
func (c *Command) Invocation(cfg types.Configuration) (string, error) {
	return invocation.Encode(c.command, cfg)
}

// Evaluate runs the program for cfg and parses its score from stdout
func (c *Command) Evaluate(ctx context.Context, cfg types.Configuration) (float64, error) {
	line, err := c.Invocation(cfg)
	if err != nil {
		return 0, err
	}

	evalCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		evalCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(evalCtx, c.config.Shell, "-c", line)
	cmd.Dir = c.config.WorkingDir
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.WithField("invocation", line).Debug("Running evaluator")
	err = cmd.Run()

	if errors.Is(evalCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
		return 0, fmt.Errorf("evaluation timed out after %v: %s", c.timeout, line)
	}
	if ctx.Err() != nil {
		return 0, ctx.Err()
	}
	if err != nil {
		return 0, fmt.Errorf("evaluation failed: %w: %s", err, tail(stderr.String()))
	}

	score, err := ParseScore(stdout.String())
	if err != nil {
		c.logger.WithFields(logrus.Fields{
			"invocation": line,
			"stdout":     tail(stdout.String()),
		}).Warn("Could not parse score from output")
		return 0, err
	}

	return score, nil
}

// ParseScore extracts the score from evaluator output. Recognized forms, in
// order: a JSON object with a numeric "score"; a ParamILS result line whose
// fourth field is the quality; a "SCORE: <x>" line; the last non-empty line
// as a bare number.
func ParseScore(output string) (float64, error) {
	trimmed := strings.TrimSpace(output)

	var doc struct {
		Score *float64 `json:"score"`
	}
	if json.Unmarshal([]byte(trimmed), &doc) == nil && doc.Score != nil {
		return *doc.Score, nil
	}

	lines := strings.Split(trimmed, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, constants.ParamILSPrefix); ok {
			return parseParamILS(rest)
		}
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, constants.ScorePrefix); ok {
			return parseNumber(strings.TrimSpace(rest))
		}
	}

	for i := len(lines) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(lines[i]); line != "" {
			if score, err := parseNumber(line); err == nil {
				return score, nil
			}
			break
		}
	}

	return 0, ErrNoScore
}

// parseParamILS reads "<status>, <runtime>, <runlength>, <quality>, <seed>[, <info>]"
func parseParamILS(rest string) (float64, error) {
	fields := strings.Split(rest, ",")
	if len(fields) < 4 {
		return 0, fmt.Errorf("%w: short ParamILS result %q", ErrNoScore, rest)
	}
	status := strings.TrimSpace(fields[0])
	if status != constants.ParamILSSAT {
		return 0, fmt.Errorf("evaluator reported status %s", status)
	}
	return parseNumber(strings.TrimSpace(fields[3]))
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrNoScore, s)
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("%w: score is NaN", ErrNoScore)
	}
	return f, nil
}

// tail keeps the end of long process output for error messages
func tail(s string) string {
	const limit = 2048
	s = strings.TrimSpace(s)
	if len(s) > limit {
		return "..." + s[len(s)-limit:]
	}
	return s
}
