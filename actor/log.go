package actor

import (
	"github.com/btcsuite/btclog/v2"
	"github.com/flowkit/actorflow/internal/build"
)

var log = build.NewSubLogger("ACTR")

// UseLogger overrides the package-level logger.
func UseLogger(logger btclog.Logger) {
	log = logger
}
