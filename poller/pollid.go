package poller

import (
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// pollIDs hands out lexically sortable poll identifiers. ULIDs generated within the same
// millisecond stay ordered thanks to the monotonic entropy source.
type pollIDs struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

func newPollIDs(seed time.Time) *pollIDs {
	return &pollIDs{
		entropy: ulid.Monotonic(rand.New(rand.NewSource(seed.UnixNano())), 0),
	}
}

func (g *pollIDs) next(t time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(t), g.entropy).String()
}
