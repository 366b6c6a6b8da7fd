package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/intervuhq/intervu/internal/api"
)

// Exit codes for different failure modes
const (
	ExitSuccess       = 0 // Interview completed or command succeeded
	ExitNotAccessible = 1 // Valid session that cannot be joined yet
	ExitError         = 2 // Configuration or runtime error
)

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		// Timing failures are recoverable: the caller can retry once the
		// indicated wait has elapsed.
		var notYet *api.NotAccessibleError
		if errors.As(err, &notYet) {
			os.Exit(ExitNotAccessible)
		}

		os.Exit(ExitError)
	}
}
