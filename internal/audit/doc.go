// Package audit implements async event dispatching for session activity: logins,
// logouts, renewals, forced logouts, hydration and denied navigations.
//
// [Dispatcher] is a buffered relay with drop-if-full or block-if-full semantics.
// It does not decide which events to emit; the engine does. Event ids are ULIDs so
// a sink can order records without trusting timestamps. A panicking sink loses the
// event being delivered and is counted in [Stats].
package audit
