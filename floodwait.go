package tgevents

import (
	"context"
	"time"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/gotd/td/tgerr"
)

// floodWaitMiddleware retries requests rejected with FLOOD_WAIT after
// sleeping for the server-requested duration. Waits longer than
// maxFloodWait are not retried; the error is returned to the caller.
type floodWaitMiddleware struct{}

const maxFloodWait = 60 * time.Second

func (floodWaitMiddleware) Handle(next tg.Invoker) telegram.InvokeFunc {
	return func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		for {
			err := next.Invoke(ctx, input, output)
			d, ok := tgerr.AsFloodWait(err)
			if !ok || d > maxFloodWait {
				return err
			}
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
