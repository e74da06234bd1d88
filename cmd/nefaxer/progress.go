package main

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/mattn/go-isatty"
	"github.com/pterm/pterm"
	"github.com/thicclatka/nefaxer/cmd"
)

// cliObserver implements pkg/nefaxer.Observer, rendering a live spinner only
// when attached to a terminal (so scripted output is not garbled) and
// collecting the skipped ledger for the verbose end-of-run report.
type cliObserver struct {
	verbose bool

	found    atomic.Int64
	received atomic.Int64
	written  atomic.Int64

	mu      sync.Mutex
	skipped []skippedPath

	spinner *pterm.SpinnerPrinter
}

type skippedPath struct {
	path   string
	reason string
}

// newObserver returns an observer with a live spinner attached only when
// standard error is a terminal; scripted/piped invocations get silent
// progress tracking with a plain summary at the end.
func newObserver(verbose bool) *cliObserver {
	o := &cliObserver{verbose: verbose}
	if isatty.IsTerminal(os.Stderr.Fd()) {
		spinner, err := pterm.DefaultSpinner.Start("indexing...")
		if err == nil {
			o.spinner = spinner
		}
	}
	return o
}

func (o *cliObserver) OnPathsFound(count int) {
	total := o.found.Add(int64(count))
	o.updateSpinner(total)
}

func (o *cliObserver) OnEntriesReceived(count int) {
	o.received.Add(int64(count))
}

func (o *cliObserver) OnBatchWritten(count int) {
	o.written.Add(int64(count))
}

func (o *cliObserver) OnSkipped(path, reason string) {
	o.mu.Lock()
	o.skipped = append(o.skipped, skippedPath{path: path, reason: reason})
	o.mu.Unlock()
	if o.verbose {
		cmd.Warning(fmt.Sprintf("skipped %s: %s", path, reason))
	}
}

func (o *cliObserver) updateSpinner(found int64) {
	if o.spinner != nil {
		o.spinner.UpdateText(fmt.Sprintf("indexing... %d paths found", found))
	}
}

// finish stops the spinner (if any) and returns a breakdown of skip reasons
// by count, for the verbose end-of-run report.
func (o *cliObserver) finish() map[string]int {
	if o.spinner != nil {
		o.spinner.Stop()
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	reasons := make(map[string]int, len(o.skipped))
	for _, s := range o.skipped {
		reasons[s.reason]++
	}
	return reasons
}
