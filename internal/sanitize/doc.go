// Package sanitize redacts sensitive content from captured HTTP
// interactions before they are persisted to a cassette.
//
// Sanitizers are small, composable transformers over one request or one
// response. A Pipeline applies an ordered list of them, each stage feeding
// the next. All sanitizers follow a strict never-throw policy: input that a
// stage does not recognize (non-JSON bodies, binary-adjacent content) falls
// through to a less specific strategy and, as a last resort, is returned
// unmodified. Corrupting a payload is always worse than leaving it alone;
// the header allow-list acts as the safety net for anything the
// content-aware stages miss.
//
// Sanitization runs at record time only. Replayed cassette content is
// trusted as already sanitized; re-applying sanitizers on replay would
// cause drift whenever the configuration changes after a cassette was
// recorded.
package sanitize
