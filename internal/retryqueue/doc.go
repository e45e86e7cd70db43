// Package retryqueue persists repositories whose mirror attempt was deferred
// by the daily quota. The queue is a single JSON document keyed by clone URL,
// rewritten whole on every mutation so readers never observe partial state.
package retryqueue
