package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/thicclatka/nefaxer/cmd"
	"github.com/thicclatka/nefaxer/internal/diffengine"
	"github.com/thicclatka/nefaxer/internal/passphrase"
	"github.com/thicclatka/nefaxer/internal/rootguard"
	"github.com/thicclatka/nefaxer/internal/store"
	"github.com/thicclatka/nefaxer/pkg/nefaxer"
)

func runMain(command *cobra.Command, arguments []string) error {
	dir := "."
	if len(arguments) == 1 {
		dir = arguments[0]
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		exitCode = exitUnreadableRoot
		return fmt.Errorf("resolve directory: %w", err)
	}
	if info, err := os.Stat(root); err != nil || !info.IsDir() {
		exitCode = exitUnreadableRoot
		if err == nil {
			err = fmt.Errorf("not a directory")
		}
		return fmt.Errorf("unreadable root %s: %w", root, err)
	}
	if err := rootguard.Check(root, rootConfiguration.allowRootOwned); err != nil {
		exitCode = exitUnreadableRoot
		return err
	}

	opts := nefaxer.Opts{
		DBPath:         rootConfiguration.db,
		WithHash:       rootConfiguration.checkHash,
		FollowLinks:    rootConfiguration.followLinks,
		Exclude:        rootConfiguration.exclude,
		Verbose:        rootConfiguration.verbose,
		MtimeWindowNs:  rootConfiguration.mtimeWindow * int64(1_000_000_000),
		Strict:         rootConfiguration.strict,
		Paranoid:       rootConfiguration.paranoid,
		Encrypt:        rootConfiguration.encrypt,
		AllowRootOwned: rootConfiguration.allowRootOwned,
		ListPaths:      rootConfiguration.list,
		WriteToDB:      !rootConfiguration.dryRun,
	}

	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = filepath.Join(root, nefaxer.DefaultDBFileName)
	}

	// A write run opens a scratch temp copy of the index and only replaces
	// the real path with an atomic rename once everything has committed
	// cleanly; a dry run never writes, so it reads dbPath directly.
	workPath := dbPath
	useTemp := false
	if opts.WriteToDB {
		var prepErr error
		workPath, useTemp, prepErr = store.PrepareWorkPath(dbPath)
		if prepErr != nil {
			return fmt.Errorf("prepare index for writing: %w", prepErr)
		}
	}

	_, dbExists := os.Stat(workPath)
	isNewDB := dbExists != nil

	var db *store.DB
	if opts.Encrypt && isNewDB {
		key, err := passphrase.Get(root, true)
		if err != nil {
			exitCode = exitPassphraseFailure
			return fmt.Errorf("acquire new passphrase: %w", err)
		}
		db, err = store.Open(workPath, key)
		if err != nil {
			exitCode = exitPassphraseFailure
			return fmt.Errorf("create encrypted index: %w", err)
		}
	} else {
		db, err = store.OpenOrDetectEncrypted(workPath, func() (string, error) {
			return passphrase.Get(root, false)
		})
		if err != nil {
			exitCode = exitPassphraseFailure
			return fmt.Errorf("open index: %w", err)
		}
	}

	existingIdx, err := db.LoadIndex()
	if err != nil {
		db.Close()
		return fmt.Errorf("load existing index: %w", err)
	}
	existing := fromStoreIndex(existingIdx)

	observer := newObserver(opts.Verbose)
	opts.Observer = observer
	cancel := nefaxer.NewCancelSignal()
	opts.Cancel = cancel

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, cmd.TerminationSignals...)
	defer signal.Stop(sigCh)
	go func() {
		if _, ok := <-sigCh; ok {
			cmd.Warning("received interrupt; flushing partial index")
			cancel.Cancel()
		}
	}()

	if opts.Verbose {
		if opts.WriteToDB {
			fmt.Fprintf(os.Stderr, "[nefaxer] indexing %s\n", root)
		} else {
			cmd.Warning("dry run: comparing only, no changes will be written to the index")
		}
	}

	ctx := context.Background()
	result, diff, err := nefaxer.Run(ctx, root, opts, existing, db)
	reasons := observer.finish()
	if err != nil {
		db.Close()
		return fmt.Errorf("index %s: %w", root, err)
	}

	if closeErr := db.Close(); closeErr != nil {
		return fmt.Errorf("close index: %w", closeErr)
	}
	if useTemp {
		if err := store.RenameTempToFinal(workPath, dbPath); err != nil {
			exitCode = exitFailedRename
			return fmt.Errorf("replace index with updated copy: %w", err)
		}
	}

	if cancel.Cancelled() {
		exitCode = exitCancelledPartial
		cmd.Warning("cancelled; a partial index was flushed")
	}

	printSummary(result, diff)
	if opts.ListPaths {
		if err := writeChangedPaths(root, diff); err != nil {
			return fmt.Errorf("write changed-path list: %w", err)
		}
	}
	if opts.Verbose && len(reasons) > 0 {
		printSkipBreakdown(reasons)
	}
	return nil
}

func fromStoreIndex(idx diffengine.Index) nefaxer.Nefax {
	n := make(nefaxer.Nefax, len(idx))
	for path, meta := range idx {
		n[path] = nefaxer.PathMeta{MtimeNs: meta.MtimeNs, Size: meta.Size, Hash: meta.Hash}
	}
	return n
}

func printSummary(result nefaxer.Nefax, diff nefaxer.Diff) {
	fmt.Printf("%s paths tracked: %d added, %d modified, %d removed\n",
		humanize.Comma(int64(len(result))), len(diff.Added), len(diff.Modified), len(diff.Removed))
}

func writeChangedPaths(root string, diff nefaxer.Diff) error {
	var lines []string
	for _, p := range diff.Added {
		lines = append(lines, "added\t"+p)
	}
	for _, p := range diff.Modified {
		lines = append(lines, "modified\t"+p)
	}
	for _, p := range diff.Removed {
		lines = append(lines, "removed\t"+p)
	}

	if len(lines) <= nefaxer.ListOverflowThreshold {
		for _, line := range lines {
			fmt.Println(line)
		}
		return nil
	}

	resultsPath := filepath.Join(root, nefaxer.ResultsFileName)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(resultsPath, []byte(content), 0o644); err != nil {
		return err
	}
	fmt.Printf("%d changed paths written to %s\n", len(lines), resultsPath)
	return nil
}

func printSkipBreakdown(reasons map[string]int) {
	total := 0
	for _, n := range reasons {
		total += n
	}
	cmd.Warning(fmt.Sprintf("%d paths skipped:", total))
	for reason, n := range reasons {
		pct := float64(n) / float64(total) * 100
		fmt.Fprintf(os.Stderr, "  %5.1f%%  (%d)  %s\n", pct, n, reason)
	}
}
