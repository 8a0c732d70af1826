package cassette

import (
	"fmt"
)

// Mode is the requested recording mode.
type Mode string

const (
	// ModeRecord always records, credentials required.
	ModeRecord Mode = "record"
	// ModeReplay always replays and fails without a cassette.
	ModeReplay Mode = "replay"
	// ModeAuto replays when a cassette exists, records when secrets are
	// available, and otherwise degrades to passthrough execution.
	ModeAuto Mode = "auto"
)

// Decision is the resolved execution strategy for one test.
type Decision string

const (
	DecisionRecord      Decision = "record"
	DecisionReplay      Decision = "replay"
	DecisionPassthrough Decision = "passthrough"
)

// CassetteMissingError reports a forced replay with no cassette on disk.
// This is an environment problem, not a component behavior difference.
type CassetteMissingError struct {
	Path string
}

func (e *CassetteMissingError) Error() string {
	return fmt.Sprintf("no cassette found at %s; record one first", e.Path)
}

// DecideMode resolves the execution strategy. Rules in priority order:
// an explicit record request always records; an explicit replay request
// always replays and fails when no cassette exists; auto replays an
// existing cassette, records when secrets are available, and otherwise
// falls back to unwrapped passthrough so a suite still runs in
// environments without credentials.
func DecideMode(requested Mode, cassetteExists, secretsAvailable bool) (Decision, error) {
	switch requested {
	case ModeRecord:
		return DecisionRecord, nil
	case ModeReplay:
		if !cassetteExists {
			return "", &CassetteMissingError{}
		}
		return DecisionReplay, nil
	case ModeAuto:
		if cassetteExists {
			return DecisionReplay, nil
		}
		if secretsAvailable {
			return DecisionRecord, nil
		}
		return DecisionPassthrough, nil
	default:
		return "", fmt.Errorf("invalid recording mode %q: must be record, replay, or auto", requested)
	}
}
