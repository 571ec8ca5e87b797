package resource

import "errors"

// ErrBudgetExceeded is returned when the revalidation budget rejects a
// fetch. This happens when too many fetch starts occur within the
// configured time window.
//
// Applications should handle this by:
// - Logging the event for debugging
// - Optionally showing user feedback about rate limiting
// - Reducing the revalidation frequency if possible
var ErrBudgetExceeded = errors.New("refetch: revalidation budget exceeded")

// ErrAborted is returned by a handle whose invocation was cancelled
// through its AbortController before it could settle.
var ErrAborted = errors.New("refetch: invocation aborted")

// ErrClosed is returned when an operation is requested on a resource that
// has been closed. The resource's last snapshot remains readable.
var ErrClosed = errors.New("refetch: resource closed")
