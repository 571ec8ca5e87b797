// Package loop provides the single-threaded cooperative dispatcher that
// resources bind to.
//
// All commits of resources sharing one Loop run on one goroutine, in
// dispatch order; no locks are needed around snapshot reads performed on
// the loop, only ordering discipline. The Loop also carries the standard
// context invocations derive their abort contexts from, and an optional
// Budget that rate-limits fetch starts.
//
//	lp := loop.New(loop.WithBudget(loop.NewBudget(50, time.Second)))
//	lp.Start()
//	defer lp.Stop()
//
//	r := resource.New(fetchUsers, resource.WithCtx(lp))
package loop
