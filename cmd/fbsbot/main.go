// Command fbsbot books UTown facilities on behalf of Telegram users.
//
// It runs as a long-polling bot (serve) and also exposes the booking path and
// its administrative chores on the command line.
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
