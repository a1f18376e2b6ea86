// Package input is the keyboard collaborator for a development host: the
// wearable's function keys become lines typed on stdin.
package input

import (
	"bufio"
	"io"
	"sync/atomic"
)

// Keys polls for the "done" action without ever blocking the caller. A
// reader goroutine drains r line by line; any line whose first word is
// "q", "quit" or "done" arms the flag, and Done consumes it.
type Keys struct {
	done atomic.Bool
}

func NewKeys(r io.Reader) *Keys {
	k := &Keys{}
	go func() {
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			switch sc.Text() {
			case "q", "quit", "done":
				k.done.Store(true)
			}
		}
	}()
	return k
}

// Done reports and clears the pending "done" action.
func (k *Keys) Done() bool {
	return k.done.Swap(false)
}
