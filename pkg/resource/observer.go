package resource

import "time"

// Observer receives lifecycle events from a resource. Implementations must
// be safe for concurrent use; events for superseded invocations are still
// reported (as stale discards) so instrumentation sees every outcome.
//
// The observe package provides a Prometheus/OpenTelemetry implementation.
type Observer interface {
	// FetchStarted fires when an invocation of the producer begins.
	FetchStarted(gen uint64)

	// FetchDone fires when an invocation settles, whether or not its
	// result committed.
	FetchDone(gen uint64, elapsed time.Duration, err error)

	// StaleDiscarded fires when a settled invocation's result is dropped
	// because a newer generation superseded it.
	StaleDiscarded(gen uint64)

	// MutationDone fires when a Mutate operation settles.
	MutationDone(err error)

	// RolledBack fires when a failed mutation's rollback value is applied.
	RolledBack()
}
