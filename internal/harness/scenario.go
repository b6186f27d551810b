package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/guff/internal/speech"
)

// Engines a scenario can drive.
const (
	EngineCapture  = "capture"
	EnginePlayback = "playback"
)

// Scenario is a scripted run of one speech engine.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Engine is "capture" or "playback".
	Engine string `yaml:"engine"`

	// Lang is the BCP 47 locale for recognition or synthesis.
	// Empty means ne-NP.
	Lang string `yaml:"lang,omitempty"`

	// Unsupported runs the engine without a platform capability.
	Unsupported bool `yaml:"unsupported,omitempty"`

	// Voices are the synthesis voices the platform offers.
	Voices []VoiceSpec `yaml:"voices,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the finished run.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// VoiceSpec describes a platform voice.
type VoiceSpec struct {
	Name    string `yaml:"name"`
	Lang    string `yaml:"lang"`
	Default bool   `yaml:"default,omitempty"`
}

// Step is either a command (Do) or a platform callback (Emit).
type Step struct {
	// Do is a command: "start" or "stop" for capture, "speak" or "stop"
	// for playback.
	Do string `yaml:"do,omitempty"`

	// Text is spoken by "speak".
	Text string `yaml:"text,omitempty"`

	// Fail makes the platform reject this command's start or speak call
	// with the given message.
	Fail string `yaml:"fail,omitempty"`

	// Emit is a platform callback. Capture: "result", "error", "end",
	// "close". Playback: "start", "end", "error", "close".
	Emit string `yaml:"emit,omitempty"`

	// Session selects the stream or utterance to emit on, counting from 1.
	// Zero means the most recent one.
	Session int `yaml:"session,omitempty"`

	// Index and Results form a recognition result batch.
	Index   int           `yaml:"index,omitempty"`
	Results []SegmentSpec `yaml:"results,omitempty"`

	// Code is the platform error code of an "error" callback.
	Code string `yaml:"code,omitempty"`

	// Expect is checked against the state after the step.
	Expect *Expect `yaml:"expect,omitempty"`
}

// SegmentSpec is one recognition result.
type SegmentSpec struct {
	Text  string `yaml:"text"`
	Final bool   `yaml:"final,omitempty"`
}

// Expect is a subset match on engine state. Empty fields are not checked.
type Expect struct {
	// Returns is the command outcome: "ok", "already-listening", "closed",
	// or a failure reason such as "unsupported" or "generic".
	Returns string `yaml:"returns,omitempty"`

	State      string  `yaml:"state,omitempty"`
	Transcript *string `yaml:"transcript,omitempty"`

	// Error is the advisory error reason, or "none".
	Error string `yaml:"error,omitempty"`

	// Utterance and Voice are the playing text and voice name (playback).
	Utterance *string `yaml:"utterance,omitempty"`
	Voice     *string `yaml:"voice,omitempty"`
}

// Assertion validates a finished run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Contains is the text searched for (trace_contains).
	Contains string `yaml:"contains,omitempty"`

	// Lines are texts that must appear in order (trace_order).
	Lines []string `yaml:"lines,omitempty"`

	// Expect is matched against the final state (final_state).
	Expect *Expect `yaml:"expect,omitempty"`

	// Calls are expected platform call counts (platform_calls), keyed by
	// "starts", "stops", "speaks" or "cancels".
	Calls map[string]int `yaml:"calls,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertFinalState    = "final_state"
	AssertPlatformCalls = "platform_calls"
)

var (
	commands = map[string][]string{
		EngineCapture:  {"start", "stop"},
		EnginePlayback: {"speak", "stop"},
	}
	callbacks = map[string][]string{
		EngineCapture:  {"result", "error", "end", "close"},
		EnginePlayback: {"start", "end", "error", "close"},
	}
)

func (s *Scenario) lang() string {
	if s.Lang == "" {
		return speech.DefaultLang
	}
	return s.Lang
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// LoadScenarioDir loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarioDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if _, ok := commands[s.Engine]; !ok {
		return fmt.Errorf("engine must be %q or %q, got %q", EngineCapture, EnginePlayback, s.Engine)
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Voices) > 0 && s.Engine != EnginePlayback {
		return fmt.Errorf("voices are only valid for the playback engine")
	}

	for i, step := range s.Steps {
		if err := validateStep(s.Engine, step); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(a); err != nil {
			return fmt.Errorf("assertions[%d]: %w", i, err)
		}
	}

	return nil
}

func validateStep(engine string, step Step) error {
	switch {
	case step.Do != "" && step.Emit != "":
		return fmt.Errorf("do and emit are mutually exclusive")
	case step.Do != "":
		if !slices.Contains(commands[engine], step.Do) {
			return fmt.Errorf("unknown %s command %q", engine, step.Do)
		}
		if step.Fail != "" && step.Do == "stop" {
			return fmt.Errorf("fail is not valid for stop")
		}
		if step.Session != 0 {
			return fmt.Errorf("session is only valid for emit steps")
		}
	case step.Emit != "":
		if !slices.Contains(callbacks[engine], step.Emit) {
			return fmt.Errorf("unknown %s callback %q", engine, step.Emit)
		}
		if step.Fail != "" {
			return fmt.Errorf("fail is only valid for commands")
		}
		if step.Session < 0 {
			return fmt.Errorf("session must be positive")
		}
	default:
		return fmt.Errorf("either do or emit is required")
	}
	return nil
}

func validateAssertion(a Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Contains == "" {
			return fmt.Errorf("trace_contains requires contains")
		}
	case AssertTraceOrder:
		if len(a.Lines) < 2 {
			return fmt.Errorf("trace_order requires at least 2 lines")
		}
	case AssertFinalState:
		if a.Expect == nil {
			return fmt.Errorf("final_state requires expect")
		}
	case AssertPlatformCalls:
		if len(a.Calls) == 0 {
			return fmt.Errorf("platform_calls requires calls")
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}
