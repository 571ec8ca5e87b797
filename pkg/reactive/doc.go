// Package reactive provides the minimal reactive value container used by
// refetch resources to publish state.
//
// A Signal holds a value and a set of subscribers. Writes that change the
// value (per the signal's equality function) notify every subscriber.
// Subscription is explicit: collaborators call Subscribe and hold the
// returned cancel function for the lifetime of their interest.
//
//	loading := reactive.NewSignal(false)
//	stop := loading.Subscribe(func() { redraw() })
//	defer stop()
package reactive
