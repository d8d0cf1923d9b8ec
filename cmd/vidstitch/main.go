package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := newRootCommand().Execute(); err != nil {
		if errors.Is(err, context.Canceled) {
			// interrupted by signal, stay quiet
			return 130
		}
		fmt.Fprintf(os.Stderr, "vidstitch: %v\n", err)
		return 1
	}
	return 0
}
