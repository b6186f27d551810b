package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestText_Table(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		max     int
		valid   bool
		reason  Reason
		trimmed string
	}{
		{"empty", "", 500, false, ReasonEmptyContent, ""},
		{"whitespace only", " \t\n  ", 500, false, ReasonEmptyContent, ""},
		{"single char", "a", 500, true, "", "a"},
		{"trims both ends", "  namaste  ", 500, true, "", "namaste"},
		{"exactly at limit", strings.Repeat("x", 500), 500, true, "", strings.Repeat("x", 500)},
		{"one over limit", strings.Repeat("x", 501), 500, false, ReasonTooLong, ""},
		{"padding does not count", "  " + strings.Repeat("x", 500) + "  ", 500, true, "", strings.Repeat("x", 500)},
		{"answer limit", strings.Repeat("y", 1000), 1000, true, "", strings.Repeat("y", 1000)},
		{"answer over limit", strings.Repeat("y", 1001), 1000, false, ReasonTooLong, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Text(tt.input, tt.max)
			assert.Equal(t, tt.valid, got.Valid)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, tt.trimmed, got.Trimmed)
		})
	}
}

func TestText_CountsCharactersNotBytes(t *testing.T) {
	// "नमस्ते" is 6 runes and 18 bytes.
	word := "नमस्ते"
	require.Equal(t, 18, len(word))

	got := Text(word, 6)
	assert.True(t, got.Valid)
	assert.Equal(t, 6, got.Length)

	got = Text(word, 5)
	assert.False(t, got.Valid)
	assert.Equal(t, ReasonTooLong, got.Reason)
}

func TestText_NormalisesToNFC(t *testing.T) {
	// e followed by a combining acute accent composes to a single rune.
	decomposed := "e\u0301"
	require.Equal(t, 2, len([]rune(decomposed)))

	got := Text(decomposed, 1)
	require.True(t, got.Valid)
	assert.Equal(t, "\u00e9", got.Trimmed)
}

func TestText_ValidIffTrimmedLengthInRange(t *testing.T) {
	inputs := []string{"", " ", "a", " a ", strings.Repeat("ab", 250), strings.Repeat("ab", 250) + "c", "\n\n" + strings.Repeat("क", 500)}
	for _, in := range inputs {
		n := len([]rune(strings.TrimSpace(in)))
		assert.Equal(t, n >= 1 && n <= 500, Message(in).Valid, "input length %d", n)
	}
}

func TestResult_Err(t *testing.T) {
	assert.NoError(t, Message("hello").Err())

	err := Message("   ").Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptyContent))
	assert.False(t, errors.Is(err, ErrTooLong))

	err = Answer(strings.Repeat("z", 1001)).Err()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooLong))
	assert.Contains(t, err.Error(), "1000")

	var ve *Error
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 1001, ve.Length)
}

func TestLimitsPerKind(t *testing.T) {
	assert.Equal(t, 500, Message("a").Limit)
	assert.Equal(t, 500, Question("a").Limit)
	assert.Equal(t, 1000, Answer("a").Limit)
	assert.Equal(t, 100, DisplayName("a").Limit)
}

func TestRemaining(t *testing.T) {
	assert.Equal(t, 500, Remaining("", MaxMessageLength))
	assert.Equal(t, 495, Remaining("hello", MaxMessageLength))
	assert.Equal(t, -1, Remaining(strings.Repeat("q", 501), MaxQuestionLength))
}
