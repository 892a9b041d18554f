package tgevents

import (
	"context"

	"github.com/gotd/td/tg"
)

// SyncCommands publishes the commands registered through OnCommand with a
// non-empty description to the bot's command menu. Run calls this on
// startup when Config.SyncCommands is set; calling it again later picks up
// commands registered since.
func (c *Client) SyncCommands(ctx context.Context) error {
	c.mu.RLock()
	api := c.api
	seen := make(map[string]struct{}, len(c.commands))
	commands := make([]tg.BotCommand, 0, len(c.commands))
	for _, cmd := range c.commands {
		if _, ok := seen[cmd.Command]; ok {
			continue
		}
		seen[cmd.Command] = struct{}{}
		commands = append(commands, cmd)
	}
	c.mu.RUnlock()

	if api == nil {
		return ErrNotRunning
	}
	_, err := api.BotsSetBotCommands(ctx, &tg.BotsSetBotCommandsRequest{
		Scope:    &tg.BotCommandScopeDefault{},
		Commands: commands,
	})
	return err
}

// ResetCommands removes all commands from the bot's command menu.
func (c *Client) ResetCommands(ctx context.Context) error {
	c.mu.RLock()
	api := c.api
	c.mu.RUnlock()
	if api == nil {
		return ErrNotRunning
	}
	_, err := api.BotsResetBotCommands(ctx, &tg.BotsResetBotCommandsRequest{
		Scope: &tg.BotCommandScopeDefault{},
	})
	return err
}
