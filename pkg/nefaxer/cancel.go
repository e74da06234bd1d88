package nefaxer

import "sync/atomic"

// CancelSignal is a shared flag a signal handler sets to request cooperative
// cancellation. The diff engine polls it on a 200ms receive timeout (§5);
// once the diff engine leaves its receive loop, internal/pipeline stops the
// walker and drains the workers' remaining output so both can exit.
type CancelSignal struct {
	flag atomic.Bool
}

// NewCancelSignal returns a fresh, unset signal.
func NewCancelSignal() *CancelSignal {
	return &CancelSignal{}
}

// Cancel requests cancellation. Safe to call from a signal handler.
func (c *CancelSignal) Cancel() {
	if c != nil {
		c.flag.Store(true)
	}
}

// Cancelled reports whether cancellation has been requested.
func (c *CancelSignal) Cancelled() bool {
	return c != nil && c.flag.Load()
}
