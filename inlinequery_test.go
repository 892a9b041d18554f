package tgevents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gotd/td/tg"
)

func inlineUpdate(userID int64, query string) *tg.UpdateBotInlineQuery {
	return &tg.UpdateBotInlineQuery{
		QueryID: 200,
		UserID:  userID,
		Query:   query,
	}
}

func TestInlineQueryPattern(t *testing.T) {
	c := newTestClient(&fakeInvoker{})
	b, err := InlineQuery{Pattern: "ping"}.compile()
	require.NoError(t, err)
	b.resolve()

	require.True(t, b.Filter(buildEvent(t, c, b, inlineUpdate(5, "ping me"))))
	require.False(t, b.Filter(buildEvent(t, c, b, inlineUpdate(5, "me ping"))))
}

func TestInlineQueryNoSpamGuard(t *testing.T) {
	c := newTestClient(&fakeInvoker{})
	b, err := InlineQuery{}.compile()
	require.NoError(t, err)
	b.resolve()

	// Every keystroke refinement from the same user passes, and the
	// shared guard stays untouched for the other filters.
	require.True(t, b.Filter(buildEvent(t, c, b, inlineUpdate(5, "p"))))
	require.True(t, b.Filter(buildEvent(t, c, b, inlineUpdate(5, "pi"))))
	require.True(t, b.Filter(buildEvent(t, c, b, inlineUpdate(5, "pin"))))
	require.False(t, c.spam.IsSpam(5))
}

func TestInlineAnswerIdempotent(t *testing.T) {
	inv := &fakeInvoker{}
	c := newTestClient(inv)
	b, err := InlineQuery{}.compile()
	require.NoError(t, err)
	b.resolve()

	ev := buildEvent(t, c, b, inlineUpdate(5, "q")).(*InlineQueryEvent)
	results := ev.Builder().Article("title", "", "text").Results()

	require.NoError(t, ev.Answer(context.Background(), results, InlineAnswer{}))
	require.NoError(t, ev.Answer(context.Background(), results, InlineAnswer{}))
	require.Len(t, inv.recorded(), 1)
}

func TestInlineAnswerPreservesOrder(t *testing.T) {
	inv := &fakeInvoker{}
	c := newTestClient(inv)
	b, err := InlineQuery{}.compile()
	require.NoError(t, err)
	b.resolve()

	ev := buildEvent(t, c, b, inlineUpdate(5, "q")).(*InlineQueryEvent)

	delayed := func(id string, d time.Duration) InlineResult {
		return func(ctx context.Context) (tg.InputBotInlineResultClass, error) {
			time.Sleep(d)
			return &tg.InputBotInlineResult{ID: id, Type: "article"}, nil
		}
	}
	results := []InlineResult{
		delayed("first", 30*time.Millisecond),
		delayed("second", 0),
		delayed("third", 10*time.Millisecond),
	}

	require.NoError(t, ev.Answer(context.Background(), results, InlineAnswer{}))

	reqs := inv.recorded()
	require.Len(t, reqs, 1)
	req, ok := reqs[0].(*tg.MessagesSetInlineBotResultsRequest)
	require.True(t, ok)
	require.Len(t, req.Results, 3)
	var ids []string
	for _, r := range req.Results {
		ids = append(ids, r.(*tg.InputBotInlineResult).ID)
	}
	require.Equal(t, []string{"first", "second", "third"}, ids)
}

func TestInlineAnswerOptions(t *testing.T) {
	inv := &fakeInvoker{}
	c := newTestClient(inv)
	b, err := InlineQuery{}.compile()
	require.NoError(t, err)
	b.resolve()

	ev := buildEvent(t, c, b, inlineUpdate(5, "q")).(*InlineQueryEvent)
	err = ev.Answer(context.Background(), nil, InlineAnswer{
		CacheTime:     300,
		Gallery:       true,
		Private:       true,
		NextOffset:    "page2",
		SwitchPM:      "Open settings",
		SwitchPMParam: "settings",
	})
	require.NoError(t, err)

	reqs := inv.recorded()
	require.Len(t, reqs, 1)
	req := reqs[0].(*tg.MessagesSetInlineBotResultsRequest)
	require.Equal(t, int64(200), req.QueryID)
	require.Equal(t, 300, req.CacheTime)
	require.True(t, req.Gallery)
	require.True(t, req.Private)

	offset, ok := req.GetNextOffset()
	require.True(t, ok)
	require.Equal(t, "page2", offset)

	pm, ok := req.GetSwitchPm()
	require.True(t, ok)
	require.Equal(t, "Open settings", pm.Text)
	require.Equal(t, "settings", pm.StartParam)
}

func TestInlineAnswerResultError(t *testing.T) {
	inv := &fakeInvoker{}
	c := newTestClient(inv)
	b, err := InlineQuery{}.compile()
	require.NoError(t, err)
	b.resolve()

	ev := buildEvent(t, c, b, inlineUpdate(5, "q")).(*InlineQueryEvent)
	boom := errors.New("boom")
	results := []InlineResult{
		StaticResult(&tg.InputBotInlineResult{ID: "a", Type: "article"}),
		func(ctx context.Context) (tg.InputBotInlineResultClass, error) {
			return nil, boom
		},
	}

	require.ErrorIs(t, ev.Answer(context.Background(), results, InlineAnswer{}), boom)
	require.Empty(t, inv.recorded())
}

func TestInlineBuilder(t *testing.T) {
	b := &InlineBuilder{}
	b.Article("Title", "Description", "body").
		Photo(&tg.InputPhoto{ID: 1}, "caption").
		Document(&tg.InputDocument{ID: 2}, "Doc", "file caption")

	results := b.Results()
	require.Len(t, results, 3)

	ctx := context.Background()

	r0, err := results[0](ctx)
	require.NoError(t, err)
	article := r0.(*tg.InputBotInlineResult)
	require.Equal(t, "article", article.Type)
	title, _ := article.GetTitle()
	require.Equal(t, "Title", title)
	require.Equal(t, "body", article.SendMessage.(*tg.InputBotInlineMessageText).Message)

	r1, err := results[1](ctx)
	require.NoError(t, err)
	photo := r1.(*tg.InputBotInlineResultPhoto)
	require.Equal(t, "photo", photo.Type)
	require.Equal(t, "caption", photo.SendMessage.(*tg.InputBotInlineMessageMediaAuto).Message)

	r2, err := results[2](ctx)
	require.NoError(t, err)
	doc := r2.(*tg.InputBotInlineResultDocument)
	require.Equal(t, "file", doc.Type)

	// Generated IDs must be unique within one answer.
	require.NotEqual(t, article.ID, photo.ID)
	require.NotEqual(t, photo.ID, doc.ID)
}
