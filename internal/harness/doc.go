// Package harness replays scripted voice scenarios against the speech
// capture and playback engines.
//
// A scenario drives one engine against a scripted platform: commands are
// issued the way the UI issues them, and platform callbacks are injected
// one at a time. After every step the engine's state is recorded in a
// trace, which tests compare against golden files.
//
// # Scenario Format
//
//	name: capture_dictation
//	description: "What this scenario validates"
//	engine: capture            # or playback
//	lang: ne-NP                # optional, defaults to ne-NP
//	unsupported: false         # true runs without a platform capability
//	voices:                    # playback only
//	  - { name: Nepali, lang: ne-NP }
//	steps:
//	  - do: start              # capture: start, stop; playback: speak, stop
//	    fail: "mic busy"       # optional: the platform rejects this call
//	    expect: { returns: ok, state: listening }
//	  - emit: result           # capture: result, error, end, close
//	    index: 0               # playback: start, end, error, close
//	    results:
//	      - { text: namaste, final: true }
//	  - emit: end
//	    session: 1             # optional: target an earlier session
//	assertions:
//	  - type: final_state
//	    expect: { state: idle, transcript: "namaste " }
//
// # Assertion Types
//
//   - trace_contains: some trace line contains the given text
//   - trace_order: the given texts appear in trace lines in order
//   - final_state: the engine state after teardown matches
//   - platform_calls: the scripted platform saw the given call counts
//
// # Deterministic Replay
//
// Session and utterance IDs come from testutil.SequenceIDs, the stop grace
// timer is disabled, and each injected callback is awaited before the next
// step runs, so traces are identical across runs.
package harness
