package scheduler

import (
	"github.com/btcsuite/btclog/v2"
	"github.com/flowkit/actorflow/internal/build"
)

var log = build.NewSubLogger("SCHD")

// UseLogger overrides the package-level logger, for callers embedding this
// module alongside their own log rotation/fan-out setup.
func UseLogger(logger btclog.Logger) {
	log = logger
}
