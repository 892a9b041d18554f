// Package tgevents extends a gotd/td Telegram client with declarative
// event filters: incoming updates are matched against per-handler criteria
// and dispatched as typed events.
//
// Four event kinds are supported:
//   - NewMessage: plain text or media messages
//   - Command: bot commands such as /start
//   - CallbackQuery: inline-button clicks
//   - InlineQuery: queries typed as @bot query
//
// Basic usage:
//
//	client, err := tgevents.New(tgevents.Config{
//	    APIID:    12345,
//	    APIHash:  "your-api-hash",
//	    BotToken: "your-bot-token",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	client.OnCommand(tgevents.Command{Commands: []string{"start"}}, func(ctx context.Context, e *tgevents.MessageEvent) error {
//	    return e.Reply(ctx, "Hello!")
//	})
//
//	client.OnCallbackQuery(tgevents.CallbackQuery{Data: "manage", Split: "/"}, func(ctx context.Context, e *tgevents.CallbackQueryEvent) error {
//	    return e.Answer(ctx, tgevents.CallbackAnswer{Message: "done"})
//	})
//
//	if err := client.Run(context.Background()); err != nil {
//	    log.Fatal(err)
//	}
//
// Filter criteria are validated when the handler is registered and are
// immutable afterwards. Updates that match no criteria are dropped silently.
package tgevents
