package main

import (
	"github.com/spf13/cobra"

	"github.com/thicclatka/nefaxer/cmd"
)

// exitCode is set by runMain to distinguish the specific failure categories
// spec.md §6 calls out (strict abort, cancellation with a partial flush,
// unreadable root, failed rename, passphrase failure) from a generic error,
// which is reported at exitGenericError. main exits with it.
var exitCode int

const (
	exitSuccess           = 0
	exitGenericError      = 1
	exitCancelledPartial  = 2
	exitUnreadableRoot    = 3
	exitPassphraseFailure = 4
	exitFailedRename      = 5
)

var rootCommand = &cobra.Command{
	Use:   "nefaxer [DIR]",
	Short: "High-throughput directory indexer with content-aware diffing",
	Args:  cobra.MaximumNArgs(1),
	Run: func(command *cobra.Command, arguments []string) {
		if err := runMain(command, arguments); err != nil {
			cmd.Error(err)
			if exitCode == exitSuccess {
				exitCode = exitGenericError
			}
		}
	},
}

var rootConfiguration struct {
	db             string
	dryRun         bool
	list           bool
	verbose        bool
	checkHash      bool
	followLinks    bool
	mtimeWindow    int64
	exclude        []string
	strict         bool
	paranoid       bool
	encrypt        bool
	allowRootOwned bool
}

func init() {
	flags := rootCommand.Flags()
	flags.SortFlags = false

	flags.StringVar(&rootConfiguration.db, "db", "", "Path to the index database (default: .nefaxer in DIR)")
	flags.BoolVar(&rootConfiguration.dryRun, "dry-run", false, "Compare only; do not write to the index")
	flags.BoolVar(&rootConfiguration.list, "list", false, "Enumerate changed paths (overflows to nefaxer.results beyond 100 entries)")
	flags.BoolVarP(&rootConfiguration.verbose, "verbose", "v", false, "Verbose output")
	flags.BoolVarP(&rootConfiguration.checkHash, "check-hash", "c", false, "Compute a content hash for files (slower, catches same-size same-mtime edits)")
	flags.BoolVarP(&rootConfiguration.followLinks, "follow-links", "l", false, "Follow symbolic links")
	flags.Int64VarP(&rootConfiguration.mtimeWindow, "mtime-window", "m", 0, "Modification-time tolerance, in seconds (0 = exact match)")
	flags.StringSliceVarP(&rootConfiguration.exclude, "exclude", "e", nil, "Glob pattern to exclude (repeatable)")
	flags.BoolVar(&rootConfiguration.strict, "strict", false, "Abort on the first filesystem error instead of skipping it")
	flags.BoolVar(&rootConfiguration.paranoid, "paranoid", false, "Re-hash on a suspected same-hash collision before calling a file modified")
	flags.BoolVarP(&rootConfiguration.encrypt, "encrypt", "x", false, "Encrypt a newly created index with a passphrase")
	flags.BoolVar(&rootConfiguration.allowRootOwned, "allow-root-owned", false, "Permit indexing a directory owned by UID 0")
}
