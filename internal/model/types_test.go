package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMessage_AuthorName(t *testing.T) {
	assert.Equal(t, "Anonymous", Message{}.AuthorName())
	assert.Equal(t, "Anonymous", Message{DisplayName: OptionalString("")}.AuthorName())

	name := "Sita"
	assert.Equal(t, "Sita", Message{DisplayName: &name}.AuthorName())
}

func TestQuestion_HasAnswer(t *testing.T) {
	empty := ""
	answer := "हो"

	assert.False(t, Question{}.HasAnswer())
	assert.False(t, Question{Answer: &empty}.HasAnswer())
	assert.True(t, Question{Answer: &answer}.HasAnswer())
}

func TestOptionalString(t *testing.T) {
	assert.Nil(t, OptionalString(""))

	got := OptionalString("Ram")
	if assert.NotNil(t, got) {
		assert.Equal(t, "Ram", *got)
	}
}

func TestPrincipal_IsAnonymous(t *testing.T) {
	assert.True(t, Anonymous.IsAnonymous())
	assert.False(t, Principal("aaaaa-aa").IsAnonymous())
}
