package adunit

import (
	"sync/atomic"

	"github.com/prebid/prebid-mobile-core/position"
)

// serverPosition is the process-wide cache of the most recent position the ad
// server declared. One writer (the latest successful fetch), many readers
// (every active ad instance); a single atomic value needs no locking.
var serverPosition atomic.Int32

// storeServerPosition records the position from a successful fetch.
func storeServerPosition(p position.Position) {
	serverPosition.Store(int32(p))
}

// loadServerPosition returns the cached position, Unknown when no fetch has
// declared one yet.
func loadServerPosition() position.Position {
	return position.FromInt(int(serverPosition.Load()))
}
