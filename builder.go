package tgevents

import (
	"regexp"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"
)

// Update is a single raw protocol update as delivered by the MTProto
// connection: one of the tg.UpdateClass variants, or one of the compact
// forms (*tg.UpdateShortMessage, *tg.UpdateShortChatMessage) that arrive
// at the transport level without a full message record.
type Update interface {
	TypeID() uint32
	TypeName() string
	bin.Encoder
	bin.Decoder
}

// Event is a typed wrapper around a matched update. Concrete types are
// *MessageEvent, *CallbackQueryEvent and *InlineQueryEvent.
type Event interface {
	// Client returns the client that produced this event.
	Client() *Client

	common() *EventCommon
}

// EventBuilder classifies raw updates into typed events and decides
// whether a built event should be dispatched to its handler. Builders are
// created from the criteria structs (NewMessage, Command, CallbackQuery,
// InlineQuery) and registered with Client.On.
type EventBuilder interface {
	// Build classifies u into a typed event, or returns nil when the
	// update is not of this builder's kind. selfID is the client's own
	// user ID, used to attribute outgoing short messages.
	Build(u Update, selfID int64) Event

	// Filter reports whether a built event passes this builder's criteria.
	// A false result drops the update silently.
	Filter(e Event) bool

	resolve()
}

// base carries the state every builder shares: the one-way resolved flag
// and the optional user predicate.
type base struct {
	resolved bool
	where    func(Event) bool
}

// resolve marks the builder ready for filtering. Repeated calls are no-ops.
func (b *base) resolve() {
	if b.resolved {
		return
	}
	b.resolved = true
}

// filter applies the rules shared by all builders: nothing passes until
// the builder is resolved and the event has its client attached, then the
// user predicate (if any) decides.
func (b *base) filter(e Event) bool {
	if !b.resolved {
		return false
	}
	if !e.common().finalized {
		return false
	}
	if b.where != nil {
		return b.where(e)
	}
	return true
}

// EventCommon is embedded by every event type. An event is built as a raw
// shell and finalized exactly once with the owning client before any
// filtering runs; after that it is not mutated.
type EventCommon struct {
	client    *Client
	peer      tg.PeerClass
	msgID     int
	finalized bool
}

func (e *EventCommon) common() *EventCommon { return e }

func (e *EventCommon) finalize(c *Client) {
	if e.finalized {
		return
	}
	e.client = c
	e.finalized = true
}

// Client returns the client that produced this event.
func (e *EventCommon) Client() *Client { return e.client }

// MessageID returns the ID of the message this event relates to.
func (e *EventCommon) MessageID() int { return e.msgID }

// ChatID returns the ID of the chat the event occurred in.
func (e *EventCommon) ChatID() int64 {
	switch p := e.peer.(type) {
	case *tg.PeerChannel:
		return p.ChannelID
	case *tg.PeerChat:
		return p.ChatID
	case *tg.PeerUser:
		return p.UserID
	}
	return 0
}

// IsPrivate returns true if the event occurred in a private chat.
func (e *EventCommon) IsPrivate() bool {
	_, ok := e.peer.(*tg.PeerUser)
	return ok
}

// IsGroup returns true if the event occurred in a basic group.
func (e *EventCommon) IsGroup() bool {
	_, ok := e.peer.(*tg.PeerChat)
	return ok
}

// IsChannel returns true if the event occurred in a channel or supergroup.
func (e *EventCommon) IsChannel() bool {
	_, ok := e.peer.(*tg.PeerChannel)
	return ok
}

func (e *EventCommon) inputPeer() tg.InputPeerClass {
	switch p := e.peer.(type) {
	case *tg.PeerChannel:
		return &tg.InputPeerChannel{ChannelID: p.ChannelID}
	case *tg.PeerChat:
		return &tg.InputPeerChat{ChatID: p.ChatID}
	case *tg.PeerUser:
		return &tg.InputPeerUser{UserID: p.UserID}
	}
	return nil
}

// Bool returns a pointer to v, for the tri-state Incoming/Outgoing fields
// of the NewMessage and Command criteria.
func Bool(v bool) *bool { return &v }

// compilePattern turns the literal/precompiled pattern pair of a criteria
// struct into a single regexp. Supplying both is an error.
func compilePattern(pattern string, re *regexp.Regexp) (*regexp.Regexp, error) {
	if pattern != "" && re != nil {
		return nil, ErrPatternConflict
	}
	if re != nil {
		return re, nil
	}
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(pattern)
}

// patternMatches mirrors a match anchored at the start of the subject:
// the pattern may match a prefix, but not from the middle of the text.
func patternMatches(re *regexp.Regexp, s string) bool {
	loc := re.FindStringIndex(s)
	return loc != nil && loc[0] == 0
}
