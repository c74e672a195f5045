//go:build windows || plan9 || js || wasip1

package term

// watchResize is a no-op on platforms without SIGWINCH. The width is detected
// once, when the stream is first inspected.
func watchResize(func(delta uint64) uint64) {}
