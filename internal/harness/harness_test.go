package harness

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	scenarios, err := LoadScenarioDir("testdata/scenarios")
	require.NoError(t, err)
	require.NotEmpty(t, scenarios)

	for _, s := range scenarios {
		t.Run(s.Name, func(t *testing.T) {
			res, err := RunWithGolden(t, s)
			require.NoError(t, err)
			assert.True(t, res.Pass, "errors: %v", res.Errors)
		})
	}
}

func TestRun_ExpectMismatchFails(t *testing.T) {
	s := &Scenario{
		Name:        "mismatch",
		Description: "expects the wrong state",
		Engine:      EngineCapture,
		Steps: []Step{
			{Do: "start", Expect: &Expect{State: "idle", Returns: "already-listening"}},
		},
		Assertions: []Assertion{
			{Type: AssertPlatformCalls, Calls: map[string]int{"starts": 2, "speaks": 1}},
			{Type: AssertTraceContains, Contains: "session-9"},
		},
	}

	res, err := Run(context.Background(), s)
	require.NoError(t, err)

	assert.False(t, res.Pass)
	assert.Len(t, res.Errors, 5)
	assert.Contains(t, res.Errors[0], `step 1: returns = "ok", want "already-listening"`)
	assert.Contains(t, res.Errors[1], `step 1: state = "listening", want "idle"`)
}

func TestRun_EmitWithoutStream(t *testing.T) {
	s := &Scenario{
		Name:        "no-stream",
		Description: "emits before any start",
		Engine:      EngineCapture,
		Steps:       []Step{{Emit: "end"}},
	}

	_, err := Run(context.Background(), s)
	assert.ErrorContains(t, err, "step 1: no recognition stream")
}

func TestRun_EmitOnClosedUtterance(t *testing.T) {
	s := &Scenario{
		Name:        "closed-twice",
		Description: "closes an utterance twice",
		Engine:      EnginePlayback,
		Steps: []Step{
			{Do: "speak", Text: "hi"},
			{Emit: "close"},
			{Emit: "end"},
		},
	}

	_, err := Run(context.Background(), s)
	assert.ErrorContains(t, err, "step 3: utterance already closed")
}

func TestEvaluateAssertions_TraceOrder(t *testing.T) {
	res := &Result{Trace: []TraceEvent{
		{Seq: 1, Action: "start", Outcome: "ok", State: "a"},
		{Seq: 2, Action: "stop", Outcome: "ok", State: "b"},
	}}

	assert.Empty(t, EvaluateAssertions(res, []Assertion{
		{Type: AssertTraceOrder, Lines: []string{"start", "stop"}},
	}))

	errs := EvaluateAssertions(res, []Assertion{
		{Type: AssertTraceOrder, Lines: []string{"stop", "start"}},
	})
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], `"start" not found in order`)
}

func TestTraceEvent_String(t *testing.T) {
	cmd := TraceEvent{Seq: 3, Action: "start", Outcome: "ok", State: "state=listening"}
	assert.Equal(t, "03 start -> ok | state=listening", cmd.String())

	cb := TraceEvent{Seq: 12, Action: "s1 end", State: "state=idle"}
	assert.Equal(t, "12 s1 end | state=idle", cb.String())
}

func TestLoadScenario_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: d\nengine: capture\nstep: []\n",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nengine: capture\nsteps: [{do: start}]\n",
			wantErr: "description is required",
		},
		{
			name:    "unknown engine",
			yaml:    "name: x\ndescription: d\nengine: radio\nsteps: [{do: start}]\n",
			wantErr: "engine must be",
		},
		{
			name:    "no steps",
			yaml:    "name: x\ndescription: d\nengine: capture\n",
			wantErr: "steps list is required",
		},
		{
			name:    "wrong command for engine",
			yaml:    "name: x\ndescription: d\nengine: capture\nsteps: [{do: speak}]\n",
			wantErr: `unknown capture command "speak"`,
		},
		{
			name:    "do and emit",
			yaml:    "name: x\ndescription: d\nengine: capture\nsteps: [{do: start, emit: end}]\n",
			wantErr: "mutually exclusive",
		},
		{
			name:    "fail on emit",
			yaml:    "name: x\ndescription: d\nengine: playback\nsteps: [{emit: end, fail: boom}]\n",
			wantErr: "fail is only valid for commands",
		},
		{
			name:    "voices on capture",
			yaml:    "name: x\ndescription: d\nengine: capture\nvoices: [{name: v, lang: ne}]\nsteps: [{do: start}]\n",
			wantErr: "voices are only valid",
		},
		{
			name:    "bad assertion",
			yaml:    "name: x\ndescription: d\nengine: capture\nsteps: [{do: start}]\nassertions: [{type: trace_order, lines: [a]}]\n",
			wantErr: "at least 2 lines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "scenario.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := LoadScenario(path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
