// Command todo is a local-first todo list synchronized with a remote
// backend.
//
// Every mutation is attempted against the server first and falls back
// to local persistence when the network is unavailable, so the list
// keeps working offline.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
