package types

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// EvaluationResult pairs a configuration with the score the objective returned for it
type EvaluationResult struct {
	Index         int           `json:"index"`
	Configuration Configuration `json:"configuration"`
	Score         float64       `json:"score"`
	Duration      time.Duration `json:"duration"`
}

// MarshalJSON writes NaN and infinite scores as strings
func (r EvaluationResult) MarshalJSON() ([]byte, error) {
	type plain EvaluationResult
	return json.Marshal(struct {
		plain
		Score Value `json:"score"`
	}{plain(r), FloatValue(r.Score)})
}

// UnmarshalJSON accepts scores written as numbers or as strings
func (r *EvaluationResult) UnmarshalJSON(data []byte) error {
	type plain EvaluationResult
	aux := struct {
		*plain
		Score json.RawMessage `json:"score"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.Score = 0
	if len(aux.Score) == 0 {
		return nil
	}
	if err := json.Unmarshal(aux.Score, &r.Score); err == nil {
		return nil
	}
	var text string
	if err := json.Unmarshal(aux.Score, &text); err != nil {
		return fmt.Errorf("invalid score %s", string(aux.Score))
	}
	score, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return fmt.Errorf("invalid score %q", text)
	}
	r.Score = score
	return nil
}

// Improves reports whether score beats best. The comparison is strict so the
// first of equal scores is kept, and NaN never replaces a real score.
func Improves(score float64, best *EvaluationResult) bool {
	if best == nil {
		return true
	}
	if math.IsNaN(score) {
		return false
	}
	return score < best.Score || math.IsNaN(best.Score)
}

// Run is the persisted record of a complete or in-progress grid search
type Run struct {
	ID         string             `json:"id"`
	Version    string             `json:"version"`
	Parameters []string           `json:"parameters"`
	GridSize   int                `json:"grid_size"`
	Results    []EvaluationResult `json:"results"`
	Best       *EvaluationResult  `json:"best,omitempty"`
	StartTime  time.Time          `json:"start_time"`
	LastUpdate time.Time          `json:"last_update"`
}

// Config represents the main configuration
type Config struct {
	Search    SearchConfig    `yaml:"search" json:"search"`
	Evaluator EvaluatorConfig `yaml:"evaluator" json:"evaluator"`
	Output    OutputConfig    `yaml:"output" json:"output"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
}

// SearchConfig describes what to search and how many evaluations may run at once
type SearchConfig struct {
	SpaceFile       string `yaml:"space_file" json:"space_file"`
	Command         string `yaml:"command" json:"command"`
	ParallelWorkers int    `yaml:"parallel_workers" json:"parallel_workers"`
}

// EvaluatorConfig represents evaluator configuration
type EvaluatorConfig struct {
	Shell      string `yaml:"shell" json:"shell"`
	Timeout    int    `yaml:"timeout" json:"timeout"`
	WorkingDir string `yaml:"working_dir" json:"working_dir"`
}

// OutputConfig selects where results are stored
type OutputConfig struct {
	Dir  string `yaml:"dir" json:"dir"`
	JSON bool   `yaml:"json" json:"json"`
	Bolt bool   `yaml:"bolt" json:"bolt"`
}

// LoggingConfig represents logger configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	Format  string `yaml:"format" json:"format"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
}
