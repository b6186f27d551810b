package harness

import (
	"fmt"
	"strings"

	"github.com/roach88/guff/internal/speech"
)

// TraceEvent is the engine state after one step.
type TraceEvent struct {
	Seq     int    `json:"seq"`
	Action  string `json:"action"`
	Outcome string `json:"outcome,omitempty"` // commands only
	State   string `json:"state"`
}

// String renders the event as one trace line.
func (e TraceEvent) String() string {
	if e.Outcome != "" {
		return fmt.Sprintf("%02d %s -> %s | %s", e.Seq, e.Action, e.Outcome, e.State)
	}
	return fmt.Sprintf("%02d %s | %s", e.Seq, e.Action, e.State)
}

// Result is the outcome of a scenario run.
type Result struct {
	Scenario string `json:"scenario"`
	Engine   string `json:"engine"`
	Lang     string `json:"lang"`

	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace holds one event per step.
	Trace []TraceEvent `json:"trace"`

	// Final is the engine state after teardown.
	Final string `json:"final"`

	// Platform counts calls made to the scripted platform.
	Platform map[string]int `json:"platform"`

	// Errors contains failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	final view
}

// NewResult creates a passing result for s.
func NewResult(s *Scenario) *Result {
	return &Result{
		Scenario: s.Name,
		Engine:   s.Engine,
		Lang:     s.lang(),
		Pass:     true,
		Trace:    []TraceEvent{},
		Errors:   []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addStep(seq int, action, outcome, state string) {
	r.Trace = append(r.Trace, TraceEvent{Seq: seq, Action: action, Outcome: outcome, State: state})
}

// Render formats the run as the text stored in golden files.
func (r *Result) Render() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", r.Scenario)
	fmt.Fprintf(&b, "engine: %s lang=%s\n", r.Engine, r.Lang)
	for _, ev := range r.Trace {
		b.WriteString(ev.String())
		b.WriteByte('\n')
	}
	fmt.Fprintf(&b, "final | %s\n", r.Final)

	keys := []string{"starts", "stops"}
	if r.Engine == EnginePlayback {
		keys = []string{"speaks", "cancels"}
	}
	b.WriteString("platform:")
	for _, k := range keys {
		fmt.Fprintf(&b, " %s=%d", k, r.Platform[k])
	}
	b.WriteByte('\n')
	return b.String()
}

// view is the engine state compared by expect clauses.
type view struct {
	State      string
	Transcript string
	Error      string
	Utterance  string
	Voice      string
}

func captureView(s speech.CaptureSnapshot) view {
	v := view{State: string(s.State), Transcript: s.Transcript(), Error: "none"}
	if s.Err != nil {
		v.Error = string(s.Err.Reason)
	}
	return v
}

func playbackView(s speech.PlaybackSnapshot) view {
	v := view{State: string(s.State), Utterance: s.UtteranceText, Voice: s.Voice, Error: "none"}
	if s.Err != nil {
		v.Error = string(s.Err.Reason)
	}
	return v
}

func describeCapture(s speech.CaptureSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "state=%s session=%s accumulated=%q interim=%q err=%s",
		s.State, orDash(s.SessionID), s.Accumulated, s.Interim, captureErr(s.Err))
	if s.Stopping {
		b.WriteString(" stopping")
	}
	return b.String()
}

func describePlayback(s speech.PlaybackSnapshot) string {
	return fmt.Sprintf("state=%s utterance=%s text=%q voice=%s err=%s",
		s.State, orDash(s.UtteranceID), s.UtteranceText, orDash(s.Voice), playbackErr(s.Err))
}

func captureErr(e *speech.CaptureError) string {
	if e == nil {
		return "none"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s(%s)", e.Reason, e.Code)
	}
	return string(e.Reason)
}

func playbackErr(e *speech.PlaybackError) string {
	if e == nil {
		return "none"
	}
	if e.Code != "" {
		return fmt.Sprintf("%s(%s)", e.Reason, e.Code)
	}
	return string(e.Reason)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
