package metrics

import (
	"time"

	"github.com/LavishGent/subtitlecache/internal/types"
)

// StartTimer starts timing an operation. The returned func publishes the
// elapsed time under name with tags plus any tags passed at stop time, and
// returns it. Tags known only at the end, like the outcome, go in the stop call.
func StartTimer(publisher types.Publisher, name string, tags ...string) func(extra ...string) time.Duration {
	start := time.Now()
	return func(extra ...string) time.Duration {
		elapsed := time.Since(start)
		publisher.Timing(name, elapsed, joinTags(tags, extra)...)
		return elapsed
	}
}
