package compose

import (
	"context"

	"github.com/roach88/guff/internal/validate"
)

// MessageSender posts chat messages.
type MessageSender interface {
	SendMessage(ctx context.Context, content, displayName string) error
}

// MessageComposer is the chat input box.
type MessageComposer struct {
	sender      MessageSender
	displayName string
	draft       string
}

// NewMessageComposer creates a composer that posts as displayName. An empty
// name posts anonymously-named messages.
func NewMessageComposer(s MessageSender, displayName string) *MessageComposer {
	return &MessageComposer{sender: s, displayName: displayName}
}

// SetDraft replaces the draft.
func (c *MessageComposer) SetDraft(s string) {
	c.draft = s
}

// Draft returns the current draft.
func (c *MessageComposer) Draft() string {
	return c.draft
}

// Remaining returns how many characters the draft may still grow.
func (c *MessageComposer) Remaining() int {
	return validate.Remaining(c.draft, validate.MaxMessageLength)
}

// Submit validates the draft and posts its trimmed text. The draft is
// cleared on success and kept on any failure. Invalid drafts never reach
// the sender.
func (c *MessageComposer) Submit(ctx context.Context) error {
	res := validate.Message(c.draft)
	if !res.Valid {
		return res.Err()
	}

	if err := c.sender.SendMessage(ctx, res.Trimmed, c.displayName); err != nil {
		return err
	}

	c.draft = ""
	return nil
}
