package store

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/guff/internal/model"
	"github.com/roach88/guff/internal/testutil"
	"github.com/roach88/guff/internal/validate"
)

const (
	alice model.Principal = "alice-principal"
	bob   model.Principal = "bob-principal"
)

func TestSession_MessagesNewestFirst(t *testing.T) {
	wall := testutil.NewManualClock()
	s := openTestStore(t, WithClock(wall.Now))
	ctx := context.Background()

	name := "Alice"
	require.NoError(t, s.ForPrincipal(alice).SendMessage(ctx, &name, "  first  "))
	wall.Advance(time.Second)
	require.NoError(t, s.ForPrincipal(bob).SendMessage(ctx, nil, "second"))

	msgs, err := s.ForPrincipal(model.Anonymous).GetMessages(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.Equal(t, "second", msgs[0].Content)
	assert.Equal(t, bob, msgs[0].Author)
	assert.Nil(t, msgs[0].DisplayName)
	assert.Equal(t, "first", msgs[1].Content, "content is stored trimmed")
	require.NotNil(t, msgs[1].DisplayName)
	assert.Equal(t, "Alice", *msgs[1].DisplayName)
	assert.Equal(t, testutil.Epoch.UnixNano(), msgs[1].Timestamp)
	assert.Greater(t, msgs[0].Timestamp, msgs[1].Timestamp)
}

func TestSession_MessagePaging(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sess := s.ForPrincipal(alice)

	for _, c := range []string{"m1", "m2", "m3", "m4"} {
		require.NoError(t, sess.SendMessage(ctx, nil, c))
	}

	page, err := sess.GetMessages(ctx, 2, 1)
	require.NoError(t, err)

	var got []string
	for _, m := range page {
		got = append(got, m.Content)
	}
	assert.Equal(t, []string{"m3", "m2"}, got)
}

func TestSession_AnonymousWritesRejected(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	anon := s.ForPrincipal(model.Anonymous)

	assert.ErrorIs(t, anon.SendMessage(ctx, nil, "hi"), ErrUnauthorized)
	_, err := anon.CreateQuestion(ctx, nil, "q?")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, anon.AnswerQuestion(ctx, 1, "a"), ErrUnauthorized)
	assert.ErrorIs(t, anon.SaveCallerUserProfile(ctx, model.Profile{Name: "x"}), ErrUnauthorized)

	qs, err := anon.GetQuestions(ctx, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, qs)
}

func TestSession_ValidatesInput(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sess := s.ForPrincipal(alice)

	assert.ErrorIs(t, sess.SendMessage(ctx, nil, "   "), validate.ErrEmptyContent)
	assert.ErrorIs(t, sess.SendMessage(ctx, nil, strings.Repeat("a", 501)), validate.ErrTooLong)
	long := strings.Repeat("n", 101)
	assert.ErrorIs(t, sess.SendMessage(ctx, &long, "hi"), validate.ErrTooLong)

	_, err := sess.CreateQuestion(ctx, nil, "")
	assert.ErrorIs(t, err, validate.ErrEmptyContent)
	assert.ErrorIs(t, sess.AnswerQuestion(ctx, 1, strings.Repeat("a", 1001)), validate.ErrTooLong)

	msgs, err := sess.GetMessages(ctx, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSession_QuestionsArePrivate(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	a := s.ForPrincipal(alice)
	b := s.ForPrincipal(bob)

	id1, err := a.CreateQuestion(ctx, nil, "alice one")
	require.NoError(t, err)
	id2, err := a.CreateQuestion(ctx, nil, "alice two")
	require.NoError(t, err)
	_, err = b.CreateQuestion(ctx, nil, "bob one")
	require.NoError(t, err)

	qs, err := a.GetQuestions(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, qs, 2)
	assert.Equal(t, id2, qs[0].ID)
	assert.Equal(t, id1, qs[1].ID)
	assert.Equal(t, alice, qs[1].Author)
	assert.Nil(t, qs[1].Answer)
	assert.Nil(t, qs[1].ModifiedAt)
	assert.Greater(t, qs[0].CreatedAt, qs[1].CreatedAt)

	// Bob cannot answer Alice's question.
	err = b.AnswerQuestion(ctx, id1, "mine now")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSession_QuestionPagingNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sess := s.ForPrincipal(alice)

	var ids []model.QuestionID
	for _, c := range []string{"q1", "q2", "q3", "q4", "q5"} {
		id, err := sess.CreateQuestion(ctx, nil, c)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	page, err := sess.GetQuestions(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, ids[4], page[0].ID, "the newest question is on the first page")
	assert.Equal(t, ids[3], page[1].ID)

	page, err = sess.GetQuestions(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []model.QuestionID{ids[2], ids[1]}, []model.QuestionID{page[0].ID, page[1].ID})

	// A question created after the page filled up is still on page 0.
	latest, err := sess.CreateQuestion(ctx, nil, "q6")
	require.NoError(t, err)
	page, err = sess.GetQuestions(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, latest, page[0].ID)
}

func TestSession_AnswerSetsModifiedAt(t *testing.T) {
	wall := testutil.NewManualClock()
	s := openTestStore(t, WithClock(wall.Now))
	ctx := context.Background()
	sess := s.ForPrincipal(alice)

	id, err := sess.CreateQuestion(ctx, nil, "Capital of Nepal?")
	require.NoError(t, err)
	wall.Advance(time.Minute)

	require.NoError(t, sess.AnswerQuestion(ctx, id, " Kathmandu "))

	qs, err := sess.GetQuestions(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, qs, 1)
	require.NotNil(t, qs[0].Answer)
	assert.Equal(t, "Kathmandu", *qs[0].Answer)
	require.NotNil(t, qs[0].ModifiedAt)
	assert.Equal(t, testutil.Epoch.Add(time.Minute).UnixNano(), *qs[0].ModifiedAt)

	// Answers can be replaced.
	require.NoError(t, sess.AnswerQuestion(ctx, id, "Kathmandu, in Bagmati"))
	qs, err = sess.GetQuestions(ctx, 100, 0)
	require.NoError(t, err)
	assert.Equal(t, "Kathmandu, in Bagmati", *qs[0].Answer)

	assert.ErrorIs(t, sess.AnswerQuestion(ctx, 999, "x"), ErrNotFound)
}

func TestSession_Profiles(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	sess := s.ForPrincipal(alice)

	p, err := sess.GetCallerUserProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, p)

	require.NoError(t, sess.SaveCallerUserProfile(ctx, model.Profile{Name: " Alice "}))
	require.NoError(t, sess.SaveCallerUserProfile(ctx, model.Profile{Name: "Alice B"}))
	assert.ErrorIs(t, sess.SaveCallerUserProfile(ctx, model.Profile{Name: ""}), validate.ErrEmptyContent)

	p, err = sess.GetCallerUserProfile(ctx)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Alice B", p.Name)

	other, err := s.ForPrincipal(bob).GetCallerUserProfile(ctx)
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestOpen_ResumesClockPastStoredTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	ctx := context.Background()

	future := testutil.NewManualClock()
	future.Advance(24 * time.Hour)
	s1, err := Open(path, WithClock(future.Now))
	require.NoError(t, err)
	require.NoError(t, s1.ForPrincipal(alice).SendMessage(ctx, nil, "from the future"))
	require.NoError(t, s1.Close())

	// Reopen with a wall clock a day behind.
	s2, err := Open(path, WithClock(testutil.NewManualClock().Now))
	require.NoError(t, err)
	defer s2.Close()
	require.NoError(t, s2.ForPrincipal(alice).SendMessage(ctx, nil, "later"))

	msgs, err := s2.ForPrincipal(alice).GetMessages(ctx, 100, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "later", msgs[0].Content)
}
