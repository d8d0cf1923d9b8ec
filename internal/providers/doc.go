// Package providers defines the clip-generation seam between the stitching
// orchestrator and vendor backends, plus the helpers (image encoding, video
// download, credit-failure detection) the vendor clients share. Each backend
// lives in its own subpackage and satisfies the Generator interface.
package providers
