package tgevents

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	spamGuardTTL  = 600 * time.Millisecond
	spamGuardSize = 500
)

// spamGuard suppresses rapid repeats from the same originator: a sender ID
// seen within the TTL window counts as a duplicate. Repeat hits do not
// extend the window. The cache is bounded; beyond spamGuardSize distinct
// IDs the least recently seen entry is evicted.
//
// Every client owns one guard, shared by its message, command and callback
// filters.
type spamGuard struct {
	seen *expirable.LRU[int64, struct{}]
}

func newSpamGuard() *spamGuard {
	return &spamGuard{
		seen: expirable.NewLRU[int64, struct{}](spamGuardSize, nil, spamGuardTTL),
	}
}

// IsSpam reports whether id was seen within the TTL window, and marks it
// seen if it was not.
func (g *spamGuard) IsSpam(id int64) bool {
	if _, ok := g.seen.Get(id); ok {
		return true
	}
	g.seen.Add(id, struct{}{})
	return false
}
