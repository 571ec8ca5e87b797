// Package resource provides asynchronous data loading and management for
// interactive applications.
//
// A Resource is a per-call-site state machine that wraps an arbitrary
// asynchronous producer and handles the complete lifecycle of its data:
//
//   - Pending, Loading, Ready, and Error states
//   - Manual revalidation with last-request-wins stale suppression
//   - Advisory abort via per-invocation AbortControllers
//   - Optimistic mutation with rollback on failure
//   - Stale-time caching, retry on error, and pattern matching
//
// Basic usage:
//
//	user := resource.New(func(ctx context.Context) (*User, error) {
//	    return db.Users.Find(ctx, id)
//	})
//	defer user.Close()
//
//	view, _ := resource.Match(user,
//	    resource.OnLoading[*User](func() View { return Spinner() }),
//	    resource.OnFailure[*User](func(err error) View { return ErrorBox(err) }),
//	    resource.OnReady[*User, View](func(u *User) View { return Profile(u) }),
//	)
//
// Every fetch and mutation is tagged with a monotonically increasing
// generation; only the newest generation commits into resource state, so
// overlapping revalidations resolve last-request-wins regardless of
// completion order. Handles returned by Revalidate and Mutate always
// settle with their own invocation's true outcome.
//
// Bind resources to a loop.Loop (via WithCtx) to get single-threaded
// cooperative commits; unbound resources apply commits inline under their
// own locks.
package resource
