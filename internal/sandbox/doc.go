// Package sandbox manages the ephemeral working copy a component executes
// against: materializing a fixture into an isolated directory, templating
// its config from the environment, injecting chained state and artifacts,
// harvesting what the component wrote, and tearing the copy down.
//
// Each sandbox is exclusively owned by one test for its lifetime and moves
// through a guarded phase machine. Teardown is unconditional and
// best-effort: deletion failures are logged, never propagated.
package sandbox
