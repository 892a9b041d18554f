package tgevents

import (
	"bytes"
	"context"
	"sync/atomic"
	"time"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
)

// detachedAnswerTimeout bounds the fire-and-forget callback answers
// scheduled by Respond, Reply, Edit and Delete.
const detachedAnswerTimeout = 10 * time.Second

// CallbackQuery describes criteria for inline-button callback queries.
//
// Without Split, the payload must equal Data exactly. With Split, the
// payload segment before the first separator must equal Data:
//
//	// handles exactly "panel"
//	CallbackQuery{Data: "panel"}
//
//	// handles "manage", "manage/other", "manage/one/two", ...
//	CallbackQuery{Data: "manage", Split: "/"}
//
//	// handles "manage_1_2", "manage_other_hi", ... but not "manage_1"
//	CallbackQuery{Data: "manage", Split: "_", SplitCount: 2}
type CallbackQuery struct {
	// Data is the payload to match.
	Data string

	// Split is the separator for segmented matching.
	Split string

	// SplitCount, when positive, additionally requires the payload to
	// contain exactly this many separator occurrences.
	SplitCount int

	// Where is an optional predicate evaluated last.
	Where func(e *CallbackQueryEvent) bool
}

// Builder compiles the criteria, reporting configuration errors.
func (f CallbackQuery) Builder() (EventBuilder, error) {
	return f.compile()
}

func (f CallbackQuery) compile() (*callbackQueryBuilder, error) {
	if f.SplitCount > 0 && f.Split == "" {
		return nil, ErrSplitCount
	}
	b := &callbackQueryBuilder{
		data:       []byte(f.Data),
		split:      []byte(f.Split),
		splitCount: f.SplitCount,
	}
	if f.Where != nil {
		b.where = func(e Event) bool { return f.Where(e.(*CallbackQueryEvent)) }
	}
	return b, nil
}

type callbackQueryBuilder struct {
	base
	data       []byte
	split      []byte
	splitCount int
}

func (b *callbackQueryBuilder) Build(u Update, selfID int64) Event {
	switch upd := u.(type) {
	case *tg.UpdateBotCallbackQuery:
		return &CallbackQueryEvent{
			EventCommon: EventCommon{peer: upd.Peer, msgID: upd.MsgID},
			query:       upd,
		}
	case *tg.UpdateInlineBotCallbackQuery:
		peer, msgID := inlineCallbackPeer(upd.MsgID)
		return &CallbackQueryEvent{
			EventCommon: EventCommon{peer: peer, msgID: msgID},
			inline:      upd,
		}
	}
	return nil
}

// inlineCallbackPeer recovers a peer and message ID from an inline message
// identifier. The 64-bit ID packs (message ID, peer ID) little-endian;
// negative peer IDs denote channels.
func inlineCallbackPeer(id tg.InputBotInlineMessageIDClass) (tg.PeerClass, int) {
	switch v := id.(type) {
	case *tg.InputBotInlineMessageID:
		msgID := int(int32(v.ID))
		peerID := int32(v.ID >> 32)
		if peerID < 0 {
			return &tg.PeerChannel{ChannelID: int64(-peerID)}, msgID
		}
		return &tg.PeerUser{UserID: int64(peerID)}, msgID
	case *tg.InputBotInlineMessageID64:
		if v.OwnerID < 0 {
			return &tg.PeerChannel{ChannelID: -v.OwnerID}, v.ID
		}
		return &tg.PeerUser{UserID: v.OwnerID}, v.ID
	}
	return nil, 0
}

// Filter checks the payload against the configured data and split rules,
// then the spam guard, then the shared base rules.
func (b *callbackQueryBuilder) Filter(e Event) bool {
	ev, ok := e.(*CallbackQueryEvent)
	if !ok {
		return false
	}
	if len(b.data) > 0 {
		payload := ev.Data()
		if len(b.split) == 0 {
			if !bytes.Equal(payload, b.data) {
				return false
			}
		} else {
			if b.splitCount > 0 && bytes.Count(payload, b.split) != b.splitCount {
				return false
			}
			head, _, _ := bytes.Cut(payload, b.split)
			if !bytes.Equal(head, b.data) {
				return false
			}
		}
	}
	if ev.client.spam.IsSpam(ev.UserID()) {
		return false
	}
	return b.base.filter(e)
}

// CallbackQueryEvent is a click on an inline button, either on a message
// the bot sent itself or on one sent via an inline query result.
type CallbackQueryEvent struct {
	EventCommon

	query  *tg.UpdateBotCallbackQuery       // nil for inline-origin callbacks
	inline *tg.UpdateInlineBotCallbackQuery // nil for regular callbacks

	answered atomic.Bool
	message  *tg.Message
}

// ID returns the query ID, generated when the button was clicked.
func (e *CallbackQueryEvent) ID() int64 {
	if e.inline != nil {
		return e.inline.QueryID
	}
	return e.query.QueryID
}

// UserID returns the ID of the user who clicked the button.
func (e *CallbackQueryEvent) UserID() int64 {
	if e.inline != nil {
		return e.inline.UserID
	}
	return e.query.UserID
}

// Data returns the payload of the clicked button.
func (e *CallbackQueryEvent) Data() []byte {
	if e.inline != nil {
		return e.inline.Data
	}
	return e.query.Data
}

// DataString returns the payload as a string.
func (e *CallbackQueryEvent) DataString() string {
	return string(e.Data())
}

// ChatInstance returns the opaque token identifying the chat the callback
// occurred in, stable across messages in that chat.
func (e *CallbackQueryEvent) ChatInstance() int64 {
	if e.inline != nil {
		return e.inline.ChatInstance
	}
	return e.query.ChatInstance
}

// ViaInline reports whether the clicked button belongs to a message sent
// via an inline query result rather than by the bot itself. Such messages
// are addressed by a different identifier scheme: Respond and Reply will
// likely fail since the bot is not in the chat, and Delete is impossible.
func (e *CallbackQueryEvent) ViaInline() bool {
	return e.inline != nil
}

// CallbackAnswer is the feedback shown to the user who clicked the button.
type CallbackAnswer struct {
	// Message is the toast text; empty just stops the loading circle.
	Message string

	// Alert shows a pop-up dialog instead of a toast.
	Alert bool

	// URL to open in the user's client. Only game URLs and
	// "t.me/your_bot?start=xyz" links are accepted by Telegram.
	URL string

	// CacheTime is how long clients may cache this answer, in seconds.
	CacheTime int
}

// Answer acknowledges the callback query and stops the loading circle.
// Only the first call performs the request; later calls are no-ops.
func (e *CallbackQueryEvent) Answer(ctx context.Context, a CallbackAnswer) error {
	if !e.answered.CompareAndSwap(false, true) {
		return nil
	}
	req := &tg.MessagesSetBotCallbackAnswerRequest{
		QueryID:   e.ID(),
		Alert:     a.Alert,
		CacheTime: a.CacheTime,
	}
	if a.Message != "" {
		req.SetMessage(a.Message)
	}
	if a.URL != "" {
		req.SetURL(a.URL)
	}
	_, err := e.client.api.MessagesSetBotCallbackAnswer(ctx, req)
	return err
}

// answerDetached schedules a best-effort empty Answer as a fire-and-forget
// task. Callers must not assume the callback has been acknowledged by the
// time their own request completes.
func (e *CallbackQueryEvent) answerDetached() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), detachedAnswerTimeout)
		defer cancel()
		if err := e.Answer(ctx, CallbackAnswer{}); err != nil {
			e.client.config.Logger.Debug("detached callback answer failed", "error", err)
		}
	}()
}

// GetMessage fetches the message the clicked button belongs to. The result
// is cached after the first success. A failed lookup reports no message
// rather than an error.
func (e *CallbackQueryEvent) GetMessage(ctx context.Context) (*tg.Message, bool) {
	if e.message != nil {
		return e.message, true
	}

	ids := []tg.InputMessageClass{&tg.InputMessageID{ID: e.msgID}}
	var (
		res tg.MessagesMessagesClass
		err error
	)
	if ch, ok := e.peer.(*tg.PeerChannel); ok {
		res, err = e.client.api.ChannelsGetMessages(ctx, &tg.ChannelsGetMessagesRequest{
			Channel: &tg.InputChannel{ChannelID: ch.ChannelID},
			ID:      ids,
		})
	} else {
		res, err = e.client.api.MessagesGetMessages(ctx, ids)
	}
	if err != nil {
		return nil, false
	}

	msg := firstMessage(res)
	if msg == nil {
		return nil, false
	}
	e.message = msg
	return msg, true
}

func firstMessage(res tg.MessagesMessagesClass) *tg.Message {
	var list []tg.MessageClass
	switch m := res.(type) {
	case *tg.MessagesMessages:
		list = m.Messages
	case *tg.MessagesMessagesSlice:
		list = m.Messages
	case *tg.MessagesChannelMessages:
		list = m.Messages
	}
	for _, m := range list {
		if msg, ok := m.(*tg.Message); ok {
			return msg
		}
	}
	return nil
}

// Respond sends a message to the chat the button was clicked in, not as a
// reply. A detached Answer is scheduled first.
func (e *CallbackQueryEvent) Respond(ctx context.Context, text string) error {
	e.answerDetached()
	sender := message.NewSender(e.client.api)
	_, err := sender.To(e.inputPeer()).Text(ctx, text)
	return err
}

// Reply replies to the message the button belongs to. A detached Answer is
// scheduled first.
func (e *CallbackQueryEvent) Reply(ctx context.Context, text string) error {
	e.answerDetached()
	sender := message.NewSender(e.client.api)
	_, err := sender.To(e.inputPeer()).Reply(e.msgID).Text(ctx, text)
	return err
}

// Edit edits the message the button belongs to. Inline-origin messages are
// edited through their inline identifier. A detached Answer is scheduled
// first.
func (e *CallbackQueryEvent) Edit(ctx context.Context, text string) error {
	e.answerDetached()
	if e.inline != nil {
		req := &tg.MessagesEditInlineBotMessageRequest{ID: e.inline.MsgID}
		req.SetMessage(text)
		_, err := e.client.api.MessagesEditInlineBotMessage(ctx, req)
		return err
	}
	req := &tg.MessagesEditMessageRequest{
		Peer: e.inputPeer(),
		ID:   e.msgID,
	}
	req.SetMessage(text)
	_, err := e.client.api.MessagesEditMessage(ctx, req)
	return err
}

// Delete deletes the message the button belongs to. Inline-origin messages
// cannot be deleted; ErrInlineDelete is returned for them. A detached
// Answer is scheduled first.
func (e *CallbackQueryEvent) Delete(ctx context.Context) error {
	e.answerDetached()
	if e.inline != nil {
		return ErrInlineDelete
	}
	if ch, ok := e.peer.(*tg.PeerChannel); ok {
		_, err := e.client.api.ChannelsDeleteMessages(ctx, &tg.ChannelsDeleteMessagesRequest{
			Channel: &tg.InputChannel{ChannelID: ch.ChannelID},
			ID:      []int{e.msgID},
		})
		return err
	}
	_, err := e.client.api.MessagesDeleteMessages(ctx, &tg.MessagesDeleteMessagesRequest{
		Revoke: true,
		ID:     []int{e.msgID},
	})
	return err
}
