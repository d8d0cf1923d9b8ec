// Package stitch turns a list of prompts into a continuous multi-clip
// video sequence. Clips are generated strictly one at a time; the final
// frame of each finished clip seeds the next generation so motion carries
// across clip boundaries. Runs are resumable: completed clips are detected
// on disk and skipped, and a run halted by credit exhaustion keeps what it
// already produced.
package stitch
