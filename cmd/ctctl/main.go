// Command ctctl manages a customtrans library from the shell: works,
// glossaries, chapter renders and update runs. It runs the pipeline in
// process against the configured stores.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
