// Package config loads the optional ".nefaxer.toml" project file (spec
// §6): settings that seed an Opts before CLI flags are applied on top.
// Grounded on original_source/src/utils/nefaxer_toml.rs; CLI flags always
// win over the file, matching apply_file_to_opts's "call before applying
// CLI" contract.
package config

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// File is the decoded shape of ".nefaxer.toml". Every field is optional;
// an absent field leaves the corresponding Opts field at whatever the CLI
// defaults (or a prior file load) set it to.
type File struct {
	Settings Settings `toml:"settings"`
}

// Settings mirrors original_source's IndexSection.
type Settings struct {
	DBPath      *string  `toml:"db_path"`
	Hash        *bool    `toml:"hash"`
	FollowLinks *bool    `toml:"follow_links"`
	Exclude     []string `toml:"exclude"`
	List        *bool    `toml:"list"`
	Verbose     *bool    `toml:"verbose"`
	MtimeWindow *int64   `toml:"mtime_window"` // seconds, converted to ns by callers
	Strict      *bool    `toml:"strict"`
	Paranoid    *bool    `toml:"paranoid"`
	Encrypt     *bool    `toml:"encrypt"`
}

// FileName is the project config file's name, looked up relative to the
// indexed directory.
const FileName = ".nefaxer.toml"

// Load reads and parses FileName from dir. A missing file is not an error
// — it returns (nil, nil), meaning "no file config"; any other read error,
// and a present-but-malformed file, is returned as an error so the caller
// can warn rather than silently ignore it.
func Load(dir string) (*File, error) {
	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var f File
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}
