package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// Exit codes: 1 for pipeline or usage errors, 130 for operator interrupt.
func main() {
	err := newRootCommand().Execute()
	if err == nil {
		return
	}
	if errors.Is(err, context.Canceled) {
		os.Exit(130)
	}
	fmt.Fprintf(os.Stderr, "examforge: %v\n", err)
	os.Exit(1)
}
