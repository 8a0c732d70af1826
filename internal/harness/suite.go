package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Suite is the full set of tests under one functional-tests root.
type Suite struct {
	Root       string
	Standalone []*TestCase
	Chains     []*Chain
}

// DiscoverSuite scans root's immediate subdirectories. A directory with a
// source/ tree is a standalone fixture; a directory without one but with
// runnable subdirectories is a chain; an empty directory is a configuration
// error. selected filters by name, and a selected name matching nothing is
// an error rather than a silently green run.
func DiscoverSuite(root string, selected []string) (*Suite, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &ConfigError{Msg: "read suite directory", Err: err}
	}

	s := &Suite{Root: root}
	found := map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ExcludePrefix) || strings.HasPrefix(name, ".") {
			continue
		}
		if len(selected) > 0 && !contains(selected, name) {
			continue
		}
		found[name] = true

		dir := filepath.Join(root, name)
		if _, err := os.Stat(filepath.Join(dir, "source")); err == nil {
			s.Standalone = append(s.Standalone, NewTestCase(dir))
			continue
		}
		chain, err := DiscoverChain(dir)
		if err != nil {
			return nil, err
		}
		s.Chains = append(s.Chains, chain)
	}

	for _, name := range selected {
		if !found[name] {
			return nil, &ConfigError{Msg: fmt.Sprintf("selected test %q not found under %s", name, root)}
		}
	}
	if len(s.Standalone) == 0 && len(s.Chains) == 0 {
		return nil, &ConfigError{Msg: fmt.Sprintf("no tests found under %s", root)}
	}
	return s, nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

// SuiteResult aggregates every per-test outcome of one run. It reports the
// union of all failures, not just the first; only within a chain does
// first-failure-aborts apply.
type SuiteResult struct {
	JobID    string
	Results  []TestResult
	Duration time.Duration
}

// Passed reports whether every test passed.
func (r *SuiteResult) Passed() bool {
	for _, res := range r.Results {
		if !res.Passed {
			return false
		}
	}
	return true
}

// Failures returns the failing results.
func (r *SuiteResult) Failures() []TestResult {
	var failed []TestResult
	for _, res := range r.Results {
		if !res.Passed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Run executes every standalone test and chain sequentially. A fresh job
// id is generated when the options carry none; it names this run's
// artifact staging destinations.
func (s *Suite) Run(ctx context.Context, opts *Options) *SuiteResult {
	if opts.JobID == "" {
		opts.JobID = uuid.NewString()
	}
	log := opts.logger()
	start := time.Now()

	result := &SuiteResult{JobID: opts.JobID}
	for _, tc := range s.Standalone {
		log.Info("running test", "test", tc.Name)
		caseStart := time.Now()
		validation, err := tc.Execute(ctx, opts)
		result.Results = append(result.Results, TestResult{
			Name:        tc.Name,
			Passed:      err == nil,
			FailureKind: FailureKind(err),
			Err:         err,
			Duration:    time.Since(caseStart),
			Validation:  validation,
		})
	}
	for _, chain := range s.Chains {
		log.Info("running chain", "chain", chain.Name)
		result.Results = append(result.Results, chain.Run(ctx, opts)...)
	}

	result.Duration = time.Since(start)
	return result
}
