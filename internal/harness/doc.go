// Package harness orchestrates test execution: building test cases from
// fixtures, running chains with state and artifact threading, invoking the
// component under test, and verifying its outputs against the golden
// expectation.
//
// Execution is single-threaded and fully synchronous. One test runs to
// completion before the next begins, and a chain's links run strictly in
// sequence because each depends on the previous link's harvested state.
package harness
