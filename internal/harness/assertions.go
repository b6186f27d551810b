package harness

import (
	"fmt"
	"strings"
)

// checkExpect records a mismatch between exp and the observed state.
func checkExpect(res *Result, where string, exp *Expect, outcome string, got view) {
	for _, msg := range matchExpect(exp, outcome, got) {
		res.AddError(fmt.Sprintf("%s: %s", where, msg))
	}
}

// matchExpect compares the fields set in exp. Returns one message per
// mismatch.
func matchExpect(exp *Expect, outcome string, got view) []string {
	if exp == nil {
		return nil
	}

	var errs []string
	mismatch := func(field, got, want string) {
		errs = append(errs, fmt.Sprintf("%s = %q, want %q", field, got, want))
	}

	if exp.Returns != "" && exp.Returns != outcome {
		mismatch("returns", outcome, exp.Returns)
	}
	if exp.State != "" && exp.State != got.State {
		mismatch("state", got.State, exp.State)
	}
	if exp.Transcript != nil && *exp.Transcript != got.Transcript {
		mismatch("transcript", got.Transcript, *exp.Transcript)
	}
	if exp.Error != "" && exp.Error != got.Error {
		mismatch("error", got.Error, exp.Error)
	}
	if exp.Utterance != nil && *exp.Utterance != got.Utterance {
		mismatch("utterance", got.Utterance, *exp.Utterance)
	}
	if exp.Voice != nil && *exp.Voice != got.Voice {
		mismatch("voice", got.Voice, *exp.Voice)
	}
	return errs
}

// EvaluateAssertions checks assertions against a finished run.
// Returns all failures (does not fail-fast).
func EvaluateAssertions(res *Result, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		for _, msg := range evaluateAssertion(res, a) {
			errs = append(errs, fmt.Sprintf("assertion %d (%s): %s", i, a.Type, msg))
		}
	}
	return errs
}

func evaluateAssertion(res *Result, a Assertion) []string {
	switch a.Type {
	case AssertTraceContains:
		for _, ev := range res.Trace {
			if strings.Contains(ev.String(), a.Contains) {
				return nil
			}
		}
		return []string{fmt.Sprintf("no trace line contains %q", a.Contains)}

	case AssertTraceOrder:
		next := 0
		for _, ev := range res.Trace {
			if next < len(a.Lines) && strings.Contains(ev.String(), a.Lines[next]) {
				next++
			}
		}
		if next < len(a.Lines) {
			return []string{fmt.Sprintf("%q not found in order", a.Lines[next])}
		}
		return nil

	case AssertFinalState:
		return matchExpect(a.Expect, "", res.final)

	case AssertPlatformCalls:
		var errs []string
		for name, want := range a.Calls {
			got, ok := res.Platform[name]
			if !ok {
				errs = append(errs, fmt.Sprintf("unknown platform call %q", name))
				continue
			}
			if got != want {
				errs = append(errs, fmt.Sprintf("%s = %d, want %d", name, got, want))
			}
		}
		return errs
	}

	return []string{fmt.Sprintf("unknown assertion type %q", a.Type)}
}
