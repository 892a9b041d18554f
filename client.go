package tgevents

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gotd/td/session"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
)

// Handler consumes a dispatched event.
type Handler func(ctx context.Context, e Event) error

type registration struct {
	builder EventBuilder
	handler Handler
}

// Client extends a gotd/td Telegram client with declarative event filters.
type Client struct {
	config Config
	client *telegram.Client
	api    *tg.Client
	spam   *spamGuard

	mu            sync.RWMutex
	registrations []registration
	commands      []tg.BotCommand

	onReady func(ctx context.Context)

	running atomic.Bool
	self    *tg.User
}

// New creates a new Client with the given configuration.
func New(cfg Config) (*Client, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.SessionDir, 0700); err != nil {
		return nil, err
	}

	c := &Client{
		config: cfg,
		spam:   newSpamGuard(),
	}

	var middlewares []telegram.Middleware
	if cfg.RetryFloodWait {
		middlewares = append(middlewares, floodWaitMiddleware{})
	}

	c.client = telegram.NewClient(cfg.APIID, cfg.APIHash, telegram.Options{
		Logger:        cfg.zapLogger(),
		UpdateHandler: telegram.UpdateHandlerFunc(c.handleUpdates),
		Middlewares:   middlewares,
		Device: telegram.DeviceConfig{
			DeviceModel:    cfg.DeviceModel,
			SystemVersion:  cfg.SystemVersion,
			AppVersion:     cfg.AppVersion,
			LangCode:       cfg.LangCode,
			SystemLangCode: cfg.SystemLangCode,
		},
		SessionStorage: &session.FileStorage{
			Path: filepath.Join(cfg.SessionDir, "session"),
		},
	})

	return c, nil
}

// OnReady sets a callback that's called when the client is connected and
// ready to receive updates.
func (c *Client) OnReady(fn func(ctx context.Context)) {
	c.onReady = fn
}

// On registers a handler for events matched by b. The builder is resolved
// here; its criteria are immutable afterwards.
func (c *Client) On(b EventBuilder, h Handler) {
	b.resolve()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.registrations = append(c.registrations, registration{builder: b, handler: h})
}

// OnNewMessage registers a handler for new messages matching f.
func (c *Client) OnNewMessage(f NewMessage, h func(ctx context.Context, e *MessageEvent) error) error {
	b, err := f.compile()
	if err != nil {
		return err
	}
	c.On(b, func(ctx context.Context, e Event) error {
		return h(ctx, e.(*MessageEvent))
	})
	return nil
}

// OnCommand registers a handler for bot commands matching f. Commands with
// a non-empty description are included in SyncCommands.
func (c *Client) OnCommand(f Command, h func(ctx context.Context, e *MessageEvent) error) error {
	b, err := f.compile()
	if err != nil {
		return err
	}
	if f.Description != "" {
		c.mu.Lock()
		for _, name := range b.names {
			c.commands = append(c.commands, tg.BotCommand{
				Command:     name,
				Description: f.Description,
			})
		}
		c.mu.Unlock()
	}
	c.On(b, func(ctx context.Context, e Event) error {
		return h(ctx, e.(*MessageEvent))
	})
	return nil
}

// OnCallbackQuery registers a handler for callback queries matching f.
func (c *Client) OnCallbackQuery(f CallbackQuery, h func(ctx context.Context, e *CallbackQueryEvent) error) error {
	b, err := f.compile()
	if err != nil {
		return err
	}
	c.On(b, func(ctx context.Context, e Event) error {
		return h(ctx, e.(*CallbackQueryEvent))
	})
	return nil
}

// OnInlineQuery registers a handler for inline queries matching f.
func (c *Client) OnInlineQuery(f InlineQuery, h func(ctx context.Context, e *InlineQueryEvent) error) error {
	b, err := f.compile()
	if err != nil {
		return err
	}
	c.On(b, func(ctx context.Context, e Event) error {
		return h(ctx, e.(*InlineQueryEvent))
	})
	return nil
}

// Run starts the client and blocks until the context is cancelled.
func (c *Client) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	return c.client.Run(ctx, func(ctx context.Context) error {
		status, err := c.client.Auth().Status(ctx)
		if err != nil {
			return err
		}
		if !status.Authorized {
			if _, err := c.client.Auth().Bot(ctx, c.config.BotToken); err != nil {
				return err
			}
		}

		self, err := c.client.Self(ctx)
		if err != nil {
			return err
		}
		c.authorize(self)

		if c.onReady != nil {
			c.onReady(ctx)
		}

		if c.config.SyncCommands {
			if err := c.SyncCommands(ctx); err != nil {
				c.config.Logger.Warn("failed to sync commands", "error", err)
			}
		}

		c.config.Logger.Info("client started", "id", self.ID, "username", self.Username)

		<-ctx.Done()
		return ctx.Err()
	})
}

// authorize publishes the authorized identity and the request client.
// Updates arriving before this point are dropped by dispatch.
func (c *Client) authorize(self *tg.User) {
	c.mu.Lock()
	c.self = self
	c.api = tg.NewClient(c.client)
	c.mu.Unlock()
}

// API returns the raw tg.Client for advanced operations.
func (c *Client) API() *tg.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.api
}

// Self returns the client's own user, available once Run has authorized.
func (c *Client) Self() *tg.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.self
}

// handleUpdates flattens update containers and offers every inner update
// to the registered builders. The compact short-message forms are offered
// as-is so builders can reconstruct the full message record themselves.
func (c *Client) handleUpdates(ctx context.Context, u tg.UpdatesClass) error {
	switch upd := u.(type) {
	case *tg.Updates:
		for _, v := range upd.Updates {
			c.dispatch(ctx, v)
		}
	case *tg.UpdatesCombined:
		for _, v := range upd.Updates {
			c.dispatch(ctx, v)
		}
	case *tg.UpdateShort:
		c.dispatch(ctx, upd.Update)
	case *tg.UpdateShortMessage:
		c.dispatch(ctx, upd)
	case *tg.UpdateShortChatMessage:
		c.dispatch(ctx, upd)
	}
	return nil
}

func (c *Client) dispatch(ctx context.Context, u Update) {
	c.mu.RLock()
	regs := c.registrations
	self := c.self
	c.mu.RUnlock()

	// The connection delivers updates before authorization completes;
	// nothing can be answered then, so they are dropped.
	if self == nil {
		return
	}
	selfID := self.ID

	for _, r := range regs {
		ev := r.builder.Build(u, selfID)
		if ev == nil {
			continue
		}
		ev.common().finalize(c)
		if !r.builder.Filter(ev) {
			continue
		}
		if err := r.handler(ctx, ev); err != nil {
			c.config.Logger.Error("handler error",
				"update", u.TypeName(),
				"error", err)
		}
	}
}
