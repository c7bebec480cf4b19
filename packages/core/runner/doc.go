// Package runner executes parsed .http scripts. The Executor drives a
// single request through variable declaration, pre-request handling,
// placeholder substitution, the HTTP exchange and the response
// handler. The Runtime runs every request of a run in order, resets
// the script engine between requests and persists the snapshot once
// at the end.
package runner
