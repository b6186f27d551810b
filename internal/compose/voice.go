package compose

import (
	"context"

	"github.com/roach88/guff/internal/model"
	"github.com/roach88/guff/internal/speech"
)

// ToggleListening starts dictation, or stops it while listening.
func ToggleListening(ctx context.Context, c *speech.Capture) error {
	if c.Snapshot().Listening() {
		return c.Stop(ctx)
	}
	return c.Start(ctx)
}

// TogglePlayback speaks q, or stops playback while speaking.
func TogglePlayback(ctx context.Context, p *speech.Playback, q model.Question) error {
	if p.Snapshot().Speaking() {
		return p.Stop(ctx)
	}
	return p.Speak(ctx, PlaybackText(q))
}
