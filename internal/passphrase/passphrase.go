// Package passphrase resolves the SQLCipher key used to open an encrypted
// index: environment variable, then a ".env" file in the indexed
// directory, then an interactive masked prompt (spec §4.G / §6).
// Grounded on original_source/src/utils/passphrase.rs for the precedence
// order and on mutagen's pkg/prompting/command_line.go for the Go prompt
// idiom (gopass.GetPasswd).
package passphrase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mutagen-io/gopass"
	"github.com/pkg/errors"
)

// EnvKey is the environment variable carrying the index passphrase.
const EnvKey = "NEFAXER_DB_KEY"

// Get resolves the passphrase for the index rooted at dir: first EnvKey in
// the current environment, then EnvKey as loaded from a ".env" file in
// dir, then an interactive masked prompt. isNew changes the prompt
// wording for creating a fresh encrypted index versus opening one.
func Get(dir string, isNew bool) (string, error) {
	if s, ok := fromEnvOrDotenv(dir); ok {
		return s, nil
	}

	prompt := "Enter passphrase: "
	if isNew {
		prompt = "Create new passphrase: "
	}
	fmt.Print("[nefaxer] " + prompt)

	result, err := gopass.GetPasswd()
	if err != nil {
		return "", errors.Wrap(err, "read passphrase")
	}
	return strings.TrimSpace(string(result)), nil
}

func fromEnvOrDotenv(dir string) (string, bool) {
	if s := strings.TrimSpace(os.Getenv(EnvKey)); s != "" {
		return s, true
	}

	envPath := filepath.Join(dir, ".env")
	if info, err := os.Stat(envPath); err == nil && !info.IsDir() {
		_ = godotenv.Load(envPath)
		if s := strings.TrimSpace(os.Getenv(EnvKey)); s != "" {
			return s, true
		}
	}
	return "", false
}
