// Package main hosts the vidstitch CLI entrypoint and command graph.
//
// The Cobra-based command tree covers single-clip generation, multi-clip
// stitching with resume, model discovery, the artifact ledger, dependency
// checks, and configuration scaffolding. It centralizes configuration
// resolution, provider construction, and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
