// Package suite runs files of template test cases against an evaluator.
// A suite is a JSON (with optional /* */ comments) or YAML list of cases,
// each holding a template, the context to evaluate it in and the expected
// output and errors.
package suite

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/lacquerai/excellent/internal/execcontext"
	"github.com/lacquerai/excellent/internal/expression"
	"github.com/rs/zerolog/log"
	"github.com/sergi/go-diff/diffmatchpatch"
	"gopkg.in/yaml.v3"
)

var commentRegex = regexp.MustCompile(`(?s)/\*[^*]+\*/`)

// Case is a single template test
type Case struct {
	Name        string               `json:"name,omitempty" yaml:"name,omitempty"`
	Template    string               `json:"template" yaml:"template"`
	Context     execcontext.Document `json:"context" yaml:"context"`
	URLEncode   bool                 `json:"url_encode,omitempty" yaml:"url_encode,omitempty"`
	Output      *string              `json:"output,omitempty" yaml:"output,omitempty"`
	OutputRegex string               `json:"output_regex,omitempty" yaml:"output_regex,omitempty"`
	Errors      []string             `json:"errors" yaml:"errors"`
}

// Label names the case in reports, falling back to its template
func (c *Case) Label() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Template
}

// Result is the outcome of running one case
type Result struct {
	Case         *Case
	Passed       bool
	ActualOutput string
	ActualErrors []string
	// Diff is a colored character diff of expected and actual output, set
	// when an exact output was expected and didn't match.
	Diff     string
	Err      error
	Duration time.Duration
}

// Report summarizes a suite run
type Report struct {
	Results  []*Result
	Duration time.Duration
}

// Failures returns the results of the cases that didn't pass
func (r *Report) Failures() []*Result {
	var failed []*Result
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Passed returns true if every case passed
func (r *Report) Passed() bool {
	return len(r.Failures()) == 0
}

// Load reads a suite file, choosing the format by extension
func Load(path string) ([]*Case, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return ParseYAML(data)
	default:
		return ParseJSON(data)
	}
}

// ParseJSON parses a JSON suite after stripping /* */ comments
func ParseJSON(data []byte) ([]*Case, error) {
	data = commentRegex.ReplaceAll(data, nil)

	var cases []*Case
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&cases); err != nil {
		return nil, fmt.Errorf("failed to parse suite JSON: %w", err)
	}
	return cases, validate(cases)
}

// ParseYAML parses a YAML suite
func ParseYAML(data []byte) ([]*Case, error) {
	var cases []*Case
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, fmt.Errorf("failed to parse suite YAML: %w", err)
	}
	return cases, validate(cases)
}

func validate(cases []*Case) error {
	for i, c := range cases {
		if c.Output == nil && c.OutputRegex == "" {
			return fmt.Errorf("case %d (%s) has neither output nor output_regex", i, c.Label())
		}
		if c.OutputRegex != "" {
			if _, err := regexp.Compile(c.OutputRegex); err != nil {
				return fmt.Errorf("case %d (%s) has an invalid output_regex: %w", i, c.Label(), err)
			}
		}
	}
	return nil
}

// Run evaluates every case and compares the results with what was expected
func Run(evaluator *expression.Evaluator, cases []*Case) *Report {
	report := &Report{Results: make([]*Result, 0, len(cases))}
	start := time.Now()

	for _, c := range cases {
		report.Results = append(report.Results, runCase(evaluator, c))
	}

	report.Duration = time.Since(start)
	log.Debug().
		Int("cases", len(cases)).
		Int("failures", len(report.Failures())).
		Dur("duration", report.Duration).
		Msg("suite completed")
	return report
}

func runCase(evaluator *expression.Evaluator, c *Case) *Result {
	res := &Result{Case: c}
	start := time.Now()
	defer func() { res.Duration = time.Since(start) }()

	ctx, err := c.Context.Build()
	if err != nil {
		res.Err = err
		return res
	}

	res.ActualOutput, res.ActualErrors = evaluator.EvaluateTemplate(c.Template, ctx, c.URLEncode)

	outputMatches := false
	if c.Output != nil {
		outputMatches = *c.Output == res.ActualOutput
		if !outputMatches {
			res.Diff = diff(*c.Output, res.ActualOutput)
		}
	} else {
		outputMatches = regexp.MustCompile(`^(?:` + c.OutputRegex + `)$`).MatchString(res.ActualOutput)
	}

	res.Passed = outputMatches && slices.Equal(c.Errors, res.ActualErrors)
	return res
}

func diff(expected, actual string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(expected, actual, false)
	return dmp.DiffPrettyText(diffs)
}
