package tgevents

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gotd/td/tg"
)

// InlineQuery describes criteria for inline queries, sent when a user
// types "@botname query" in any chat.
//
// Inline queries are not passed through the spam guard: Telegram already
// throttles them client-side, and a guard would drop the keystroke-by-
// keystroke refinements that make inline mode useful.
type InlineQuery struct {
	// Pattern is a regular expression matched against the start of the
	// query text. Mutually exclusive with Regexp.
	Pattern string

	// Regexp is a precompiled alternative to Pattern.
	Regexp *regexp.Regexp

	// Where is an optional predicate evaluated last.
	Where func(e *InlineQueryEvent) bool
}

// Builder compiles the criteria, reporting configuration errors.
func (f InlineQuery) Builder() (EventBuilder, error) {
	return f.compile()
}

func (f InlineQuery) compile() (*inlineQueryBuilder, error) {
	pattern, err := compilePattern(f.Pattern, f.Regexp)
	if err != nil {
		return nil, fmt.Errorf("tgevents: invalid pattern: %w", err)
	}
	b := &inlineQueryBuilder{pattern: pattern}
	if f.Where != nil {
		b.where = func(e Event) bool { return f.Where(e.(*InlineQueryEvent)) }
	}
	return b, nil
}

type inlineQueryBuilder struct {
	base
	pattern *regexp.Regexp
}

func (b *inlineQueryBuilder) Build(u Update, selfID int64) Event {
	upd, ok := u.(*tg.UpdateBotInlineQuery)
	if !ok {
		return nil
	}
	return &InlineQueryEvent{
		EventCommon: EventCommon{peer: &tg.PeerUser{UserID: upd.UserID}},
		query:       upd,
	}
}

// Filter checks the pattern and the shared base rules.
func (b *inlineQueryBuilder) Filter(e Event) bool {
	ev, ok := e.(*InlineQueryEvent)
	if !ok {
		return false
	}
	if b.pattern != nil && !patternMatches(b.pattern, ev.query.Query) {
		return false
	}
	return b.base.filter(e)
}

// InlineQueryEvent is an inline query awaiting results.
type InlineQueryEvent struct {
	EventCommon

	query    *tg.UpdateBotInlineQuery
	answered atomic.Bool
}

// ID returns the query ID, needed to answer it.
func (e *InlineQueryEvent) ID() int64 {
	return e.query.QueryID
}

// UserID returns the ID of the user typing the query.
func (e *InlineQueryEvent) UserID() int64 {
	return e.query.UserID
}

// Text returns the query text typed so far.
func (e *InlineQueryEvent) Text() string {
	return e.query.Query
}

// Offset returns the pagination offset from a previous answer's
// NextOffset, or an empty string for the first page.
func (e *InlineQueryEvent) Offset() string {
	return e.query.Offset
}

// Geo returns the user's location, if they shared it.
func (e *InlineQueryEvent) Geo() (tg.GeoPointClass, bool) {
	return e.query.GetGeo()
}

// Builder returns a fresh result builder for answering this query.
func (e *InlineQueryEvent) Builder() *InlineBuilder {
	return &InlineBuilder{}
}

// InlineResult produces a single inline result. Results that need I/O,
// such as uploading media, can do it inside the closure; Answer resolves
// all results concurrently.
type InlineResult func(ctx context.Context) (tg.InputBotInlineResultClass, error)

// StaticResult wraps an already-built result.
func StaticResult(r tg.InputBotInlineResultClass) InlineResult {
	return func(ctx context.Context) (tg.InputBotInlineResultClass, error) {
		return r, nil
	}
}

// InlineAnswer configures how a set of results is presented.
type InlineAnswer struct {
	// CacheTime is how long Telegram may cache the results, in seconds.
	CacheTime int

	// Gallery presents the results in a grid instead of a list.
	Gallery bool

	// NextOffset enables pagination; the client sends it back as the
	// offset of the next query. Empty means no more pages.
	NextOffset string

	// Private forbids Telegram from serving the cached answer to other
	// users with the same query.
	Private bool

	// SwitchPM shows a button on top of the results that switches the
	// user to a private chat with the bot, passing SwitchPMParam to the
	// /start command.
	SwitchPM      string
	SwitchPMParam string
}

// Answer resolves the results concurrently and sends them, preserving the
// order they were given in. Only the first call performs the request;
// later calls are no-ops.
func (e *InlineQueryEvent) Answer(ctx context.Context, results []InlineResult, a InlineAnswer) error {
	if !e.answered.CompareAndSwap(false, true) {
		return nil
	}

	resolved := make([]tg.InputBotInlineResultClass, len(results))
	g, gctx := errgroup.WithContext(ctx)
	for i, fn := range results {
		g.Go(func() error {
			r, err := fn(gctx)
			if err != nil {
				return err
			}
			resolved[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	req := &tg.MessagesSetInlineBotResultsRequest{
		Gallery:   a.Gallery,
		Private:   a.Private,
		QueryID:   e.ID(),
		Results:   resolved,
		CacheTime: a.CacheTime,
	}
	if a.NextOffset != "" {
		req.SetNextOffset(a.NextOffset)
	}
	if a.SwitchPM != "" {
		req.SetSwitchPm(tg.InlineBotSwitchPM{
			Text:       a.SwitchPM,
			StartParam: a.SwitchPMParam,
		})
	}
	_, err := e.client.api.MessagesSetInlineBotResults(ctx, req)
	return err
}

// InlineBuilder accumulates inline results. Result IDs are generated
// randomly; Telegram requires them to be unique within one answer.
type InlineBuilder struct {
	results []InlineResult
}

func inlineResultID() string {
	return strconv.FormatUint(rand.Uint64(), 16)
}

// Article appends a text result.
func (b *InlineBuilder) Article(title, description, text string) *InlineBuilder {
	r := &tg.InputBotInlineResult{
		ID:   inlineResultID(),
		Type: "article",
		SendMessage: &tg.InputBotInlineMessageText{
			Message: text,
		},
	}
	r.SetTitle(title)
	if description != "" {
		r.SetDescription(description)
	}
	b.results = append(b.results, StaticResult(r))
	return b
}

// Photo appends a photo result with an optional caption.
func (b *InlineBuilder) Photo(photo tg.InputPhotoClass, caption string) *InlineBuilder {
	r := &tg.InputBotInlineResultPhoto{
		ID:    inlineResultID(),
		Type:  "photo",
		Photo: photo,
		SendMessage: &tg.InputBotInlineMessageMediaAuto{
			Message: caption,
		},
	}
	b.results = append(b.results, StaticResult(r))
	return b
}

// Document appends a document result with an optional caption.
func (b *InlineBuilder) Document(doc tg.InputDocumentClass, title, caption string) *InlineBuilder {
	r := &tg.InputBotInlineResultDocument{
		ID:       inlineResultID(),
		Type:     "file",
		Document: doc,
		SendMessage: &tg.InputBotInlineMessageMediaAuto{
			Message: caption,
		},
	}
	if title != "" {
		r.SetTitle(title)
	}
	b.results = append(b.results, StaticResult(r))
	return b
}

// Result appends an arbitrary result.
func (b *InlineBuilder) Result(r InlineResult) *InlineBuilder {
	b.results = append(b.results, r)
	return b
}

// Results returns the accumulated results, ready for Answer.
func (b *InlineBuilder) Results() []InlineResult {
	return b.results
}
