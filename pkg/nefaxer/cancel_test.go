package nefaxer

import "testing"

func TestCancelSignal(t *testing.T) {
	c := NewCancelSignal()
	if c.Cancelled() {
		t.Fatal("a fresh signal should not be cancelled")
	}
	c.Cancel()
	if !c.Cancelled() {
		t.Fatal("Cancel should set Cancelled to true")
	}
}

func TestCancelSignalNilSafe(t *testing.T) {
	var c *CancelSignal
	if c.Cancelled() {
		t.Fatal("a nil signal should report not cancelled")
	}
	c.Cancel() // must not panic
}
