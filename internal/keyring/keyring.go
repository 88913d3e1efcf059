package keyring

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/pills/internal/constants"
)

// Entry names a secret stored under the pills service.
type Entry string

const (
	// DBConnection holds the PostgreSQL connection string.
	DBConnection Entry = constants.DefaultKeyringUser
	// SNSTopic holds the SNS topic ARN used by the sns notifier.
	SNSTopic Entry = "sns-topic-arn"
)

// Entries lists every entry the CLI manages.
var Entries = []Entry{DBConnection, SNSTopic}

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// ParseEntry maps a CLI name to an Entry.
func ParseEntry(name string) (Entry, error) {
	switch name {
	case "db", "database", string(DBConnection):
		return DBConnection, nil
	case "sns", string(SNSTopic):
		return SNSTopic, nil
	}
	return "", fmt.Errorf("unknown keyring entry %q (expected db or sns)", name)
}

// Get reads an entry. Returns ErrNotFound if nothing is stored.
func Get(e Entry) (string, error) {
	v, err := keyring.Get(constants.AppName, string(e))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func Set(e Entry, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", e)
	}
	if err := keyring.Set(constants.AppName, string(e), value); err != nil {
		return fmt.Errorf("failed to store %s in keyring: %w", e, err)
	}
	return nil
}

func Delete(e Entry) error {
	err := keyring.Delete(constants.AppName, string(e))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete %s from keyring: %w", e, err)
	}
	return nil
}

// GetConnectionString retrieves the database connection string.
func GetConnectionString() (string, error) {
	return Get(DBConnection)
}

func SetConnectionString(connStr string) error {
	return Set(DBConnection, connStr)
}

func DeleteConnectionString() error {
	return Delete(DBConnection)
}

// IsAvailable reports whether the OS keyring can be reached.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "test-availability")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// Status reports, per entry, whether a value is stored.
func Status() (map[Entry]bool, error) {
	out := make(map[Entry]bool, len(Entries))
	for _, e := range Entries {
		_, err := Get(e)
		switch {
		case err == nil:
			out[e] = true
		case errors.Is(err, ErrNotFound):
			out[e] = false
		default:
			return nil, err
		}
	}
	return out, nil
}
