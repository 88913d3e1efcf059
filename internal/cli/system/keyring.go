package system

import (
	"errors"
	"fmt"
	"strings"

	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/keyring"
	"github.com/julianstephens/pills/internal/storage/postgres"
)

// KeyringSetCmd stores a secret in the OS keyring
type KeyringSetCmd struct {
	Entry string `arg:"" enum:"db,sns" help:"Entry to store: db (PostgreSQL connection string) or sns (SNS topic ARN)."`
	Value string `arg:"" help:"Value to store."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	entry, err := keyring.ParseEntry(cmd.Entry)
	if err != nil {
		return err
	}

	switch entry {
	case keyring.DBConnection:
		if !postgres.IsConnString(cmd.Value) {
			return errors.New("connection string must be a valid PostgreSQL connection string")
		}
		if _, err := postgres.ValidateConnString(cmd.Value); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Println("⚠️  Warning: Connection string contains embedded credentials.")
			ctx.Println("   It will be stored as-is in the encrypted OS keyring.")
		}
	case keyring.SNSTopic:
		if !strings.HasPrefix(cmd.Value, "arn:") {
			return fmt.Errorf("invalid SNS topic ARN: %s", cmd.Value)
		}
	}

	if err := keyring.Set(entry, cmd.Value); err != nil {
		return err
	}
	ctx.Printf("✓ %s stored in OS keyring\n", entry)
	return nil
}

// KeyringGetCmd prints a stored secret with any password masked
type KeyringGetCmd struct {
	Entry string `arg:"" enum:"db,sns" default:"db" help:"Entry to read."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	entry, err := keyring.ParseEntry(cmd.Entry)
	if err != nil {
		return err
	}
	value, err := keyring.Get(entry)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use 'pills keyring set %s' to store one", entry, cmd.Entry)
		}
		return err
	}
	ctx.Println(maskPassword(value))
	return nil
}

// KeyringDeleteCmd removes a secret from the OS keyring
type KeyringDeleteCmd struct {
	Entry string `arg:"" enum:"db,sns" default:"db" help:"Entry to delete."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	entry, err := keyring.ParseEntry(cmd.Entry)
	if err != nil {
		return err
	}
	if err := keyring.Delete(entry); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", entry)
		}
		return err
	}
	ctx.Printf("✓ %s deleted from OS keyring\n", entry)
	return nil
}

// KeyringStatusCmd checks the availability of the OS keyring
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Println("❌ OS keyring is not available on this system")
		return keyring.ErrKeyringUnavailable
	}
	ctx.Println("✓ OS keyring is available")

	status, err := keyring.Status()
	if err != nil {
		return err
	}
	for _, e := range keyring.Entries {
		if status[e] {
			ctx.Printf("✓ %s is stored\n", e)
		} else {
			ctx.Printf("ℹ %s is not stored\n", e)
		}
	}
	return nil
}

// maskPassword masks passwords in connection strings for display
func maskPassword(connStr string) string {
	if postgres.IsConnString(connStr) {
		if idx := strings.Index(connStr, "://"); idx != -1 {
			remaining := connStr[idx+3:]
			if atIdx := strings.LastIndex(remaining, "@"); atIdx != -1 {
				userInfo := remaining[:atIdx]
				if colonIdx := strings.Index(userInfo, ":"); colonIdx != -1 {
					return connStr[:idx+3] + userInfo[:colonIdx] + ":****" + connStr[idx+3+atIdx:]
				}
			}
		}
	}

	if strings.Contains(connStr, "password=") {
		parts := strings.Fields(connStr)
		for i, part := range parts {
			if strings.HasPrefix(part, "password=") {
				parts[i] = "password=****"
			}
		}
		return strings.Join(parts, " ")
	}

	return connStr
}
