package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExcludePrefix marks chain subdirectories that are skipped during
// enumeration, letting fixture authors park a link without deleting it.
const ExcludePrefix = "_"

// Chain is an ordered sequence of test cases sharing one component. Links
// run strictly in sequence: link i's harvested result state and output
// artifacts become link i+1's overrides.
type Chain struct {
	Name  string
	Dir   string
	Links []*TestCase
}

// DiscoverChain enumerates the immediate subdirectories of chainDir,
// excluding hidden and underscore-prefixed names, sorted lexicographically.
// The ordering is load-bearing: it is the only ordering guarantee for state
// propagation, so links must be named to sort correctly (zero-padded
// numeric prefixes). A chain with no links is a configuration error.
func DiscoverChain(chainDir string) (*Chain, error) {
	entries, err := os.ReadDir(chainDir)
	if err != nil {
		return nil, &ConfigError{Test: filepath.Base(chainDir), Msg: "read chain directory", Err: err}
	}

	c := &Chain{Name: filepath.Base(chainDir), Dir: chainDir}
	for _, e := range entries {
		name := e.Name()
		if !e.IsDir() || strings.HasPrefix(name, ExcludePrefix) || strings.HasPrefix(name, ".") {
			continue
		}
		c.Links = append(c.Links, NewTestCase(filepath.Join(chainDir, name)))
	}
	if len(c.Links) == 0 {
		return nil, &ConfigError{
			Test: c.Name,
			Msg:  fmt.Sprintf("chain %s has no runnable links", chainDir),
		}
	}
	return c, nil
}

// Run executes the chain's links in order. The first failing link aborts
// the remainder and the failure stays attributed to that link. Chain-level
// set_up and tear_down hooks run once around the whole chain, not per link.
func (c *Chain) Run(ctx context.Context, opts *Options) []TestResult {
	log := opts.logger().With("chain", c.Name)

	hctx := map[string]any{"chain_dir": c.Dir}
	if err := runHook(c.Dir, HookSetUp, hctx); err != nil {
		return []TestResult{{
			Name:        c.Name,
			FailureKind: FailureKind(err),
			Err:         err,
		}}
	}
	defer func() {
		if err := runHook(c.Dir, HookTearDown, hctx); err != nil {
			log.Warn("chain tear_down hook failed", "error", err)
		}
	}()

	var results []TestResult
	var prevState map[string]any
	var prevArtifacts string

	for _, link := range c.Links {
		link.StateOverride = prevState
		link.ArtifactOverride = prevArtifacts

		start := time.Now()
		validation, err := link.Execute(ctx, opts)
		results = append(results, TestResult{
			Name:        c.Name + "/" + link.Name,
			Passed:      err == nil,
			FailureKind: FailureKind(err),
			Err:         err,
			Duration:    time.Since(start),
			Validation:  validation,
		})
		if err != nil {
			log.Info("chain aborted", "failed_link", link.Name)
			break
		}
		prevState = link.ResultState
		prevArtifacts = link.ArtifactPath
	}
	return results
}
