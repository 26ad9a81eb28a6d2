package dburl

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// CredentialsDirEnv overrides the base directory holding per-user
	// credentials files.
	CredentialsDirEnv = "ACAREA"

	// DefaultCredentialsDir is used when $ACAREA is unset.
	DefaultCredentialsDir = "/usr/local/sybase/stbin"
)

// CredentialsDir returns the directory searched for <username>.dat
// credentials files.
func CredentialsDir() string {
	if dir := os.Getenv(CredentialsDirEnv); dir != "" {
		return dir
	}
	return DefaultCredentialsDir
}

// ResolveCredentials produces the username and password for a server.
//
// An empty username is derived from $USER, then $LOGNAME. A password is
// looked up by server name in <credentials dir>/<username>.dat, a plain
// text file of one whitespace-delimited "server password" pair per line.
// Every failure is a *ConfigError.
func ResolveCredentials(server, username string) (string, string, error) {
	if username == "" {
		var err error
		username, err = ResolveUsername()
		if err != nil {
			return "", "", err
		}
	}
	password, err := LookupPassword(server, username)
	if err != nil {
		return "", "", err
	}
	return username, password, nil
}

// ResolveUsername derives the database username from the process
// environment: $USER, then $LOGNAME.
func ResolveUsername() (string, error) {
	if u := os.Getenv("USER"); u != "" {
		return u, nil
	}
	if u := os.Getenv("LOGNAME"); u != "" {
		return u, nil
	}
	return "", &ConfigError{Msg: "unable to derive username from either $USER or $LOGNAME"}
}

// LookupPassword reads the password for server from the user's
// credentials file.
func LookupPassword(server, username string) (string, error) {
	path := filepath.Join(CredentialsDir(), username+".dat")
	passwords, err := readCredentialsFile(path)
	if err != nil {
		return "", &ConfigError{
			Msg: fmt.Sprintf("unable to access %s to retrieve the database password", path),
			Err: err,
		}
	}

	password, ok := passwords[server]
	if !ok {
		return "", &ConfigError{Msg: fmt.Sprintf("unable to find password for %q in %s", server, path)}
	}
	return password, nil
}

// readCredentialsFile parses a credentials file into a server -> password
// map. Blank lines are skipped; any other line must have exactly two
// fields.
func readCredentialsFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read credentials file")
	}

	passwords := make(map[string]string)
	for i, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, errors.Errorf("%s:%d: want \"server password\", got %d fields", path, i+1, len(fields))
		}
		passwords[fields[0]] = fields[1]
	}
	return passwords, nil
}
