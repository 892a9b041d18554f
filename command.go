package tgevents

import (
	"strings"

	"github.com/gotd/td/tg"
)

// Command describes criteria for bot commands: messages whose first entity
// is a bot-command entity at offset zero, such as "/start" or
// "/start@botname". Matching is structural; no pattern is involved.
type Command struct {
	// Commands are the command names to handle, with or without the
	// leading slash: "start" and "/start" are equivalent.
	Commands []string

	// Incoming/Outgoing behave as in NewMessage.
	Incoming *bool
	Outgoing *bool

	// Private selects only private chats. Mutually exclusive with Public.
	Private bool

	// Public selects only groups and channels.
	Public bool

	// Description is shown in the bot's command menu when SyncCommands
	// is enabled. Commands without a description are not synced.
	Description string

	// Where is an optional predicate evaluated last.
	Where func(e *MessageEvent) bool
}

// Builder compiles the criteria, reporting configuration errors.
func (f Command) Builder() (EventBuilder, error) {
	return f.compile()
}

func (f Command) compile() (*commandBuilder, error) {
	if len(f.Commands) == 0 {
		return nil, ErrNoCommands
	}
	parent, err := NewMessage{
		Incoming: f.Incoming,
		Outgoing: f.Outgoing,
		Private:  f.Private,
		Public:   f.Public,
	}.compile()
	if err != nil {
		return nil, err
	}

	b := &commandBuilder{
		newMessageBuilder: *parent,
		commands:          make(map[string]struct{}, len(f.Commands)),
	}
	for _, name := range f.Commands {
		name = strings.Replace(name, "/", "", 1)
		if _, ok := b.commands[name]; ok {
			continue
		}
		b.commands[name] = struct{}{}
		b.names = append(b.names, name)
	}
	if f.Where != nil {
		b.where = func(e Event) bool { return f.Where(e.(*MessageEvent)) }
	}
	return b, nil
}

type commandBuilder struct {
	newMessageBuilder
	commands map[string]struct{}
	names    []string
}

// Filter checks visibility and direction like a plain message filter,
// then requires a bot-command entity at offset zero as the first entity.
// The command token is split on "@": the bare name must be one of the
// configured commands, and an explicit username suffix must be the
// client's own. The plain-message pattern step does not apply to commands;
// after the spam guard only the shared base rules run.
func (b *commandBuilder) Filter(e Event) bool {
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

	entities := ev.Message.Entities
	if len(entities) == 0 {
		return false
	}
	entity, ok := entities[0].(*tg.MessageEntityBotCommand)
	if !ok || entity.Offset != 0 {
		return false
	}

	text := ev.Message.Message
	if entity.Length > len(text) || entity.Length < 1 {
		return false
	}
	parts := strings.Split(text[1:entity.Length], "@")
	if _, ok := b.commands[parts[0]]; !ok {
		return false
	}
	if len(parts) > 1 && parts[1] != ev.client.selfUsername() {
		return false
	}

	if ev.client.spam.IsSpam(ev.SenderID()) {
		return false
	}
	return b.base.filter(e)
}

func (c *Client) selfUsername() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.self == nil {
		return ""
	}
	return c.self.Username
}
