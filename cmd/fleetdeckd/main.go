// Command fleetdeckd runs the operational console: an HTTP+WebSocket API
// in front of the log inspection engine and the service enumerator/power
// guard.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
