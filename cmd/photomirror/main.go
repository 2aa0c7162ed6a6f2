// Command photomirror mirrors a remote personal photo library onto a
// local filesystem tree.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/photomirror/photomirror/internal/syncengine"
)

// Exit codes distinguish a sync that gave up after exhausting its
// retry budget (§6) from any other unexpected failure, so a caller
// scripting around photomirror can tell "transient, try again later"
// apart from "something is actually broken".
const (
	exitOK = iota
	exitUnexpected
	exitRetryBudgetExceeded
)

func main() {
	err := newRootCmd().Execute()
	if err == nil {
		os.Exit(exitOK)
	}

	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, syncengine.ErrRetryBudgetExceeded) {
		os.Exit(exitRetryBudgetExceeded)
	}
	os.Exit(exitUnexpected)
}
