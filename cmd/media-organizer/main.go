// Command media-organizer moves photos and videos into a YYYY/YYYY-MM-DD
// folder tree, dating each file from embedded metadata, Google Photos
// sidecar JSON, or filesystem timestamps.
//
// Usage:
//
//	media-organizer [source_dir] [target_dir]
//	media-organizer -n ~/Takeout ~/Pictures   # preview only
//	media-organizer config init               # write a starter config
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
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
