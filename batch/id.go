package batch

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

var ulidReader = &ulid.LockedMonotonicReader{
	MonotonicReader: &ulid.MonotonicEntropy{
		Reader: rand.Reader,
	},
}

// newID returns a lexicographically sortable batch identifier, used
// to correlate log lines of one batch.
func newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), ulidReader).String()
}
