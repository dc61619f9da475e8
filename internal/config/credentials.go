package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"golang.org/x/term"
)

// Environment variables consulted for the account
const (
	PasswordEnvVar = "SMARTWEB_PASSWORD"
	HostEnvVar     = "SMARTWEB_HOST"
	UsernameEnvVar = "SMARTWEB_USERNAME"
)

// ErrNoPassword is returned when no password is set and stdin is not a terminal
var ErrNoPassword = errors.New("no password: set " + PasswordEnvVar + " or run interactively")

// LoadEnvFiles loads KEY=value pairs from the given .env files (".env" when
// none are named) without overriding variables already set. Missing files
// are ignored.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// ApplyEnv overrides host and username from SMARTWEB_HOST and SMARTWEB_USERNAME
func (r *Registry) ApplyEnv() {
	host, username := r.Host, r.Username
	if v := os.Getenv(HostEnvVar); v != "" {
		host = v
	}
	if v := os.Getenv(UsernameEnvVar); v != "" {
		username = v
	}
	r.SetCredentials(host, username)
}

// ResolvePassword returns SMARTWEB_PASSWORD if set, and otherwise prompts on
// the terminal with echo disabled.
func ResolvePassword(prompt string) (string, error) {
	if pw, ok := os.LookupEnv(PasswordEnvVar); ok && pw != "" {
		return pw, nil
	}
	return PromptPassword(os.Stdin, os.Stderr, prompt)
}

// PromptPassword reads a password from in, which must be a terminal
func PromptPassword(in *os.File, out io.Writer, prompt string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", ErrNoPassword
	}

	fmt.Fprint(out, prompt)
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	password := strings.TrimRight(string(pw), "\r\n")
	if password == "" {
		return "", ErrNoPassword
	}
	return password, nil
}
