package tgevents

import "errors"

// Configuration errors
var (
	ErrMissingAPIID    = errors.New("tgevents: API ID is required")
	ErrMissingAPIHash  = errors.New("tgevents: API hash is required")
	ErrMissingBotToken = errors.New("tgevents: bot token is required")
)

// Criteria errors, reported when a handler is registered.
var (
	ErrPrivateAndPublic = errors.New("tgevents: private and public are mutually exclusive")
	ErrNoDirection      = errors.New("tgevents: neither incoming nor outgoing messages requested")
	ErrPatternConflict  = errors.New("tgevents: pattern and regexp are mutually exclusive")
	ErrNoCommands       = errors.New("tgevents: at least one command name is required")
	ErrSplitCount       = errors.New("tgevents: split count requires a split separator")
)

// Runtime errors
var (
	ErrNotRunning     = errors.New("tgevents: client is not running")
	ErrAlreadyRunning = errors.New("tgevents: client is already running")
	ErrInlineDelete   = errors.New("tgevents: messages sent via inline queries cannot be deleted")
)
