//go:build !windows && !plan9 && !js && !wasip1

package term

import (
	"os"
	"os/signal"

	"golang.org/x/sys/unix"
)

// watchResize calls notify every time the process receives SIGWINCH.
func watchResize(notify func(delta uint64) uint64) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, unix.SIGWINCH)
	go func() {
		for range ch {
			notify(1)
		}
	}()
}
