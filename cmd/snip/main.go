// Command snip is the terminal client for a snippet-store server. It
// wraps the client package: queries go through the normalized cache and
// the session persists across invocations until logout or token expiry.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
