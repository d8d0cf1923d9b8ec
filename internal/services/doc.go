// Package services defines the shared error taxonomy and context annotations
// used across provider clients and the stitching orchestrator.
//
// Every failure a provider reports is tagged with one of the sentinel errors
// so callers can classify it without inspecting provider-specific payloads:
// transient failures are retried with backoff, credit exhaustion stops a run
// gracefully, and everything else propagates as fatal.
package services
