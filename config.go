package tgevents

import (
	"log/slog"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the configuration for the client.
type Config struct {
	// APIID is the Telegram API ID from https://my.telegram.org
	APIID int

	// APIHash is the Telegram API hash from https://my.telegram.org
	APIHash string

	// BotToken is the bot token from @BotFather
	BotToken string

	// SessionDir is the directory for storing session data.
	// Defaults to "./session" if empty.
	SessionDir string

	// Logger is the logger to use. If nil, a default logger is created.
	Logger *slog.Logger

	// DeviceModel is the device model to report to Telegram.
	// Defaults to "tgevents" if empty.
	DeviceModel string

	// SystemVersion is the system version to report to Telegram.
	// Defaults to "1.0" if empty.
	SystemVersion string

	// AppVersion is the app version to report to Telegram.
	// Defaults to "1.0.0" if empty.
	AppVersion string

	// LangCode is the language code to report to Telegram.
	// Defaults to "en" if empty.
	LangCode string

	// SystemLangCode is the system language code.
	// Defaults to "en" if empty.
	SystemLangCode string

	// SyncCommands pushes registered command descriptions to the bot's
	// command menu once the client is running.
	SyncCommands bool

	// RetryFloodWait automatically sleeps and retries requests that hit a
	// FLOOD_WAIT error. When false, such errors propagate to the caller.
	RetryFloodWait bool

	// Verbose enables debug logging for the MTProto client.
	Verbose bool
}

func (c *Config) setDefaults() {
	if c.SessionDir == "" {
		c.SessionDir = "./session"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	if c.DeviceModel == "" {
		c.DeviceModel = "tgevents"
	}
	if c.SystemVersion == "" {
		c.SystemVersion = "1.0"
	}
	if c.AppVersion == "" {
		c.AppVersion = "1.0.0"
	}
	if c.LangCode == "" {
		c.LangCode = "en"
	}
	if c.SystemLangCode == "" {
		c.SystemLangCode = "en"
	}
}

func (c *Config) validate() error {
	if c.APIID == 0 {
		return ErrMissingAPIID
	}
	if c.APIHash == "" {
		return ErrMissingAPIHash
	}
	if c.BotToken == "" {
		return ErrMissingBotToken
	}
	return nil
}

// zapLogger creates the logger handed to the wrapped MTProto client.
// Transport internals stay at info unless Verbose asks for the debug
// firehose.
func (c *Config) zapLogger() *zap.Logger {
	level := zapcore.InfoLevel
	if c.Verbose {
		level = zapcore.DebugLevel
	}

	enc := zap.NewProductionEncoderConfig()
	enc.EncodeTime = zapcore.ISO8601TimeEncoder
	enc.EncodeLevel = zapcore.LowercaseLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(os.Stderr),
		level,
	)
	return zap.New(core)
}
