package mcpserver

import (
	"context"
	"os"
	"time"
)

// WatchParent monitors for parent process death in a background goroutine
// and calls cancelFn when the parent PID changes, so disconnected clients
// do not leave zombie server processes behind.
//
// It must NOT read from stdin: the MCP StdioTransport owns stdin
// exclusively, and stealing bytes here would corrupt the JSON-RPC stream.
func WatchParent(ctx context.Context, cancelFn context.CancelFunc) {
	ppid := os.Getppid()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(2 * time.Second):
				if os.Getppid() != ppid {
					cancelFn()
					return
				}
			}
		}
	}()
}
