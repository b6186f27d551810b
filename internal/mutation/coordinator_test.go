package mutation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/guff/internal/backend"
	"github.com/roach88/guff/internal/datasync"
	"github.com/roach88/guff/internal/model"
)

type call struct {
	op          string
	displayName *string
	content     string
	id          model.QuestionID
}

type fakeWriter struct {
	calls  []call
	err    error
	nextID model.QuestionID
}

func (w *fakeWriter) SendMessage(ctx context.Context, displayName *string, content string) error {
	w.calls = append(w.calls, call{op: "sendMessage", displayName: displayName, content: content})
	return w.err
}

func (w *fakeWriter) CreateQuestion(ctx context.Context, displayName *string, content string) (model.QuestionID, error) {
	w.calls = append(w.calls, call{op: "createQuestion", displayName: displayName, content: content})
	if w.err != nil {
		return 0, w.err
	}
	w.nextID++
	return w.nextID, nil
}

func (w *fakeWriter) AnswerQuestion(ctx context.Context, id model.QuestionID, answer string) error {
	w.calls = append(w.calls, call{op: "answerQuestion", id: id, content: answer})
	return w.err
}

type recordingCache struct {
	keys []datasync.Key
}

func (c *recordingCache) Invalidate(key datasync.Key) {
	c.keys = append(c.keys, key)
}

func TestSendMessage_InvalidatesChat(t *testing.T) {
	w := &fakeWriter{}
	cache := &recordingCache{}
	c := New(w, cache, nil)

	require.NoError(t, c.SendMessage(context.Background(), "namaste", "Sita"))

	require.Len(t, w.calls, 1)
	assert.Equal(t, "namaste", w.calls[0].content)
	require.NotNil(t, w.calls[0].displayName)
	assert.Equal(t, "Sita", *w.calls[0].displayName)
	assert.Equal(t, []datasync.Key{datasync.KeyChatMessages}, cache.keys)
}

func TestSendMessage_EmptyDisplayNameIsAbsent(t *testing.T) {
	w := &fakeWriter{}
	c := New(w, &recordingCache{}, nil)

	require.NoError(t, c.SendMessage(context.Background(), "hi", ""))

	require.Len(t, w.calls, 1)
	assert.Nil(t, w.calls[0].displayName)
}

func TestCreateQuestion_ReturnsIDAndInvalidatesQuestions(t *testing.T) {
	w := &fakeWriter{nextID: 41}
	cache := &recordingCache{}
	c := New(w, cache, nil)

	id, err := c.CreateQuestion(context.Background(), "what is guff?")
	require.NoError(t, err)

	assert.Equal(t, model.QuestionID(42), id)
	assert.Nil(t, w.calls[0].displayName)
	assert.Equal(t, []datasync.Key{datasync.KeyMyQuestions}, cache.keys)
}

func TestAnswerQuestion_InvalidatesQuestions(t *testing.T) {
	w := &fakeWriter{}
	cache := &recordingCache{}
	c := New(w, cache, nil)

	require.NoError(t, c.AnswerQuestion(context.Background(), 7, "small talk"))

	assert.Equal(t, call{op: "answerQuestion", id: 7, content: "small talk"}, w.calls[0])
	assert.Equal(t, []datasync.Key{datasync.KeyMyQuestions}, cache.keys)
}

func TestFailure_ReturnsErrorUntouchedWithoutInvalidation(t *testing.T) {
	rejected := &backend.CallError{Op: "sendMessage", Status: 401, Message: "anonymous caller"}

	tests := []struct {
		name string
		run  func(c *Coordinator) error
	}{
		{"send", func(c *Coordinator) error {
			return c.SendMessage(context.Background(), "x", "")
		}},
		{"create", func(c *Coordinator) error {
			_, err := c.CreateQuestion(context.Background(), "x")
			return err
		}},
		{"answer", func(c *Coordinator) error {
			return c.AnswerQuestion(context.Background(), 1, "x")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &fakeWriter{err: rejected}
			cache := &recordingCache{}
			c := New(w, cache, nil)

			err := tt.run(c)

			assert.Same(t, rejected, err)
			assert.Len(t, w.calls, 1, "exactly one write, no retry")
			assert.Empty(t, cache.keys)
		})
	}
}

func TestNilBackend_NotConnected(t *testing.T) {
	cache := &recordingCache{}
	c := New(nil, cache, nil)

	err := c.SendMessage(context.Background(), "x", "")
	assert.True(t, errors.Is(err, backend.ErrNotConnected))

	_, err = c.CreateQuestion(context.Background(), "x")
	assert.ErrorIs(t, err, backend.ErrNotConnected)

	assert.ErrorIs(t, c.AnswerQuestion(context.Background(), 1, "x"), backend.ErrNotConnected)
	assert.Empty(t, cache.keys)
}

func TestSendMessage_TriggersRefetchOfSubscribedFeed(t *testing.T) {
	e := datasync.New(datasync.WithoutPolling(datasync.KeyChatMessages))
	reader := &countingReader{}
	sub := datasync.Subscribe(e, datasync.Messages(reader, backend.DefaultPageSize))
	defer sub.Close()
	require.NoError(t, sub.Wait(context.Background()))

	c := New(&fakeWriter{}, e, nil)
	require.NoError(t, c.SendMessage(context.Background(), "hello", ""))
	require.NoError(t, sub.Wait(context.Background()))
	e.Drain()

	assert.Equal(t, 2, reader.messageCalls)
}

type countingReader struct {
	messageCalls int
}

func (r *countingReader) GetMessages(ctx context.Context, limit, offset int) ([]model.Message, error) {
	r.messageCalls++
	return nil, nil
}

func (r *countingReader) GetQuestions(ctx context.Context, limit, offset int) ([]model.Question, error) {
	return nil, nil
}
