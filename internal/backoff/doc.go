// Package backoff computes jittered exponential retry delays and wraps
// provider calls in the retry loop the stitching orchestrator relies on.
// The policy is pure; waiting belongs to the caller via a Sleeper.
package backoff
