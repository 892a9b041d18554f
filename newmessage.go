package tgevents

import (
	"context"
	"fmt"
	"regexp"

	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/tg"
)

// NewMessage describes criteria for new text or media messages.
//
// Use Command instead for bot commands starting with a slash.
type NewMessage struct {
	// Pattern is a regular expression matched against the start of the
	// message text. Mutually exclusive with Regexp.
	Pattern string

	// Regexp is a precompiled alternative to Pattern.
	Regexp *regexp.Regexp

	// Incoming selects only incoming messages when true, only outgoing
	// ones when false. Leaving one of Incoming/Outgoing nil infers it as
	// the complement of the other; both nil means no direction filter.
	// Explicitly requesting neither direction is an error.
	Incoming *bool

	// Outgoing is the counterpart of Incoming.
	Outgoing *bool

	// Private selects only private chats. Mutually exclusive with Public.
	Private bool

	// Public selects only groups and channels.
	Public bool

	// Where is an optional predicate evaluated last.
	Where func(e *MessageEvent) bool
}

// Builder compiles the criteria, reporting configuration errors.
func (f NewMessage) Builder() (EventBuilder, error) {
	return f.compile()
}

func (f NewMessage) compile() (*newMessageBuilder, error) {
	if f.Private && f.Public {
		return nil, ErrPrivateAndPublic
	}
	dir, err := normalizeDirection(f.Incoming, f.Outgoing)
	if err != nil {
		return nil, err
	}
	pattern, err := compilePattern(f.Pattern, f.Regexp)
	if err != nil {
		return nil, fmt.Errorf("tgevents: invalid pattern: %w", err)
	}

	b := &newMessageBuilder{
		pattern: pattern,
		dir:     dir,
		private: f.Private,
		public:  f.Public,
	}
	if f.Where != nil {
		b.where = func(e Event) bool { return f.Where(e.(*MessageEvent)) }
	}
	return b, nil
}

// direction is the normalized incoming/outgoing pair: when set, incoming
// and outgoing are complementary.
type direction struct {
	set      bool
	incoming bool
}

func normalizeDirection(incoming, outgoing *bool) (direction, error) {
	switch {
	case incoming == nil && outgoing == nil:
		return direction{}, nil
	case incoming != nil && outgoing != nil:
		if *incoming && *outgoing {
			// Same as no filter at all.
			return direction{}, nil
		}
		if !*incoming && !*outgoing {
			return direction{}, ErrNoDirection
		}
		return direction{set: true, incoming: *incoming}, nil
	case incoming != nil:
		return direction{set: true, incoming: *incoming}, nil
	default:
		return direction{set: true, incoming: !*outgoing}, nil
	}
}

func (d direction) rejects(out bool) bool {
	if !d.set {
		return false
	}
	if d.incoming && out {
		return true
	}
	if !d.incoming && !out {
		return true
	}
	return false
}

type newMessageBuilder struct {
	base
	pattern *regexp.Regexp
	dir     direction
	private bool
	public  bool
}

// Build accepts full new-message updates (service messages excluded) and
// the two compact forms, which are reconstructed into a full message
// record. Outgoing short messages attribute the sender as the client
// itself.
func (b *newMessageBuilder) Build(u Update, selfID int64) Event {
	switch upd := u.(type) {
	case *tg.UpdateNewMessage:
		msg, ok := upd.Message.(*tg.Message)
		if !ok {
			return nil
		}
		return newMessageEvent(msg)
	case *tg.UpdateNewChannelMessage:
		msg, ok := upd.Message.(*tg.Message)
		if !ok {
			return nil
		}
		return newMessageEvent(msg)
	case *tg.UpdateShortMessage:
		from := upd.UserID
		if upd.Out {
			from = selfID
		}
		msg := &tg.Message{
			ID:      upd.ID,
			Date:    upd.Date,
			Message: upd.Message,
			PeerID:  &tg.PeerUser{UserID: upd.UserID},
		}
		msg.SetFromID(&tg.PeerUser{UserID: from})
		copyShortMessageFlags(msg, upd.Out, upd.Mentioned, upd.MediaUnread, upd.Silent)
		if fwd, ok := upd.GetFwdFrom(); ok {
			msg.SetFwdFrom(fwd)
		}
		if via, ok := upd.GetViaBotID(); ok {
			msg.SetViaBotID(via)
		}
		if replyTo, ok := upd.GetReplyTo(); ok {
			msg.SetReplyTo(replyTo)
		}
		if entities, ok := upd.GetEntities(); ok {
			msg.SetEntities(entities)
		}
		if ttl, ok := upd.GetTTLPeriod(); ok {
			msg.SetTTLPeriod(ttl)
		}
		return newMessageEvent(msg)
	case *tg.UpdateShortChatMessage:
		from := upd.FromID
		if upd.Out {
			from = selfID
		}
		msg := &tg.Message{
			ID:      upd.ID,
			Date:    upd.Date,
			Message: upd.Message,
			PeerID:  &tg.PeerChat{ChatID: upd.ChatID},
		}
		msg.SetFromID(&tg.PeerUser{UserID: from})
		copyShortMessageFlags(msg, upd.Out, upd.Mentioned, upd.MediaUnread, upd.Silent)
		if fwd, ok := upd.GetFwdFrom(); ok {
			msg.SetFwdFrom(fwd)
		}
		if via, ok := upd.GetViaBotID(); ok {
			msg.SetViaBotID(via)
		}
		if replyTo, ok := upd.GetReplyTo(); ok {
			msg.SetReplyTo(replyTo)
		}
		if entities, ok := upd.GetEntities(); ok {
			msg.SetEntities(entities)
		}
		if ttl, ok := upd.GetTTLPeriod(); ok {
			msg.SetTTLPeriod(ttl)
		}
		return newMessageEvent(msg)
	}
	return nil
}

func copyShortMessageFlags(msg *tg.Message, out, mentioned, mediaUnread, silent bool) {
	msg.SetOut(out)
	msg.SetMentioned(mentioned)
	msg.SetMediaUnread(mediaUnread)
	msg.SetSilent(silent)
}

// Filter checks, in order: visibility, direction, pattern, spam guard,
// then the shared base rules. Every check short-circuits on rejection.
func (b *newMessageBuilder) Filter(e Event) bool {
	ev, ok := e.(*MessageEvent)
	if !ok {
		return false
	}
	if b.private && !ev.IsPrivate() {
		return false
	}
	if b.public && !(ev.IsGroup() || ev.IsChannel()) {
		return false
	}
	if b.dir.rejects(ev.Message.Out) {
		return false
	}
	if b.pattern != nil && !patternMatches(b.pattern, ev.Message.Message) {
		return false
	}
	if ev.client.spam.IsSpam(ev.SenderID()) {
		return false
	}
	return b.base.filter(e)
}

// MessageEvent is a new message, either received or sent.
type MessageEvent struct {
	EventCommon

	// Message is the full message record.
	Message *tg.Message
}

func newMessageEvent(msg *tg.Message) *MessageEvent {
	return &MessageEvent{
		EventCommon: EventCommon{peer: msg.PeerID, msgID: msg.ID},
		Message:     msg,
	}
}

// Text returns the message text.
func (e *MessageEvent) Text() string {
	return e.Message.Message
}

// SenderID returns the sender's user ID. Posts without an individual
// sender (channel posts, anonymous admins) return the negated chat or
// channel ID, so distinct originators never share an ID.
func (e *MessageEvent) SenderID() int64 {
	// FromID is set in groups and channels.
	if id, ok := peerSenderID(e.Message.FromID); ok {
		return id
	}
	// For private chats FromID may be empty; the peer is the sender.
	id, _ := peerSenderID(e.Message.PeerID)
	return id
}

func peerSenderID(peer tg.PeerClass) (int64, bool) {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID, true
	case *tg.PeerChannel:
		return -p.ChannelID, true
	case *tg.PeerChat:
		return -p.ChatID, true
	}
	return 0, false
}

// IsOutgoing returns true if this message was sent by the client itself.
func (e *MessageEvent) IsOutgoing() bool {
	return e.Message.Out
}

// Entities returns the message entities.
func (e *MessageEvent) Entities() []tg.MessageEntityClass {
	return e.Message.Entities
}

// Media returns the message media, or nil.
func (e *MessageEvent) Media() tg.MessageMediaClass {
	return e.Message.Media
}

// Respond sends a message to the chat this message was received in.
func (e *MessageEvent) Respond(ctx context.Context, text string) error {
	sender := message.NewSender(e.client.api)
	_, err := sender.To(e.inputPeer()).Text(ctx, text)
	return err
}

// Reply sends a reply to this message.
func (e *MessageEvent) Reply(ctx context.Context, text string) error {
	sender := message.NewSender(e.client.api)
	_, err := sender.To(e.inputPeer()).Reply(e.msgID).Text(ctx, text)
	return err
}

// Edit edits this message's text.
func (e *MessageEvent) Edit(ctx context.Context, text string) error {
	req := &tg.MessagesEditMessageRequest{
		Peer: e.inputPeer(),
		ID:   e.msgID,
	}
	req.SetMessage(text)
	_, err := e.client.api.MessagesEditMessage(ctx, req)
	return err
}

// Delete deletes this message for all participants.
func (e *MessageEvent) Delete(ctx context.Context) error {
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
