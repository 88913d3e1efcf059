package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"

	"github.com/julianstephens/pills/internal/backup"
	"github.com/julianstephens/pills/internal/cli"
	"github.com/julianstephens/pills/internal/cli/backups"
	"github.com/julianstephens/pills/internal/cli/doses"
	"github.com/julianstephens/pills/internal/cli/reminders"
	"github.com/julianstephens/pills/internal/cli/settings"
	"github.com/julianstephens/pills/internal/cli/system"
	"github.com/julianstephens/pills/internal/constants"
	"github.com/julianstephens/pills/internal/errors"
	"github.com/julianstephens/pills/internal/keyring"
	"github.com/julianstephens/pills/internal/logger"
	"github.com/julianstephens/pills/internal/storage"
	"github.com/julianstephens/pills/internal/storage/postgres"
	"github.com/julianstephens/pills/internal/storage/sqlite"
)

var CLI struct {
	Version  kong.VersionFlag
	Config   string `help:"Database file path or PostgreSQL connection string. For PostgreSQL, credentials must NOT be embedded in the connection string. Use PILLS_DB_CONNECTION, .pgpass, or the OS keyring instead." type:"string" default:"${config}"`
	Debug    bool   `help:"Enable debug logging to stderr."`
	LogLevel string `help:"Log level (debug, info, warn, error)."`
	Tz       string `name:"tz" help:"IANA timezone to use instead of the stored setting for this run."`

	Init     system.InitCmd       `cmd:"" help:"Initialize pills storage."`
	Migrate  system.MigrateCmd    `cmd:"" help:"Run database migrations."`
	Doctor   system.DoctorCmd     `cmd:"" help:"Run health checks and diagnostics."`
	Tui      system.TuiCmd        `cmd:"" help:"Launch the interactive TUI." default:"1"`
	Take     doses.TakeCmd        `cmd:"" help:"Toggle a dose as taken."`
	Status   doses.StatusCmd      `cmd:"" help:"Show today's doses and streak."`
	Calendar doses.CalendarCmd    `cmd:"" help:"Show a month of dose history."`
	Lock     doses.LockCmd        `cmd:"" help:"Lock editing of past days."`
	Unlock   doses.UnlockCmd      `cmd:"" help:"Unlock editing of past days for a short while."`
	Settings settings.SettingsCmd `cmd:"" help:"Manage application settings."`

	Reminders reminders.RemindersCmd `cmd:"" help:"List scheduled reminders."`
	Notify    system.NotifyCmd       `cmd:"" help:"Deliver reminders that are due."`
	Watch     system.WatchCmd        `cmd:"" help:"Deliver reminders as they come due until interrupted."`

	Backup struct {
		Create  backups.BackupCreateCmd  `cmd:"" help:"Create a manual backup." default:"1"`
		List    backups.BackupListCmd    `cmd:"" help:"List available backups."`
		Restore backups.BackupRestoreCmd `cmd:"" help:"Restore from a backup."`
	} `cmd:"" help:"Manage database backups."`
	Keyring struct {
		Set    system.KeyringSetCmd    `cmd:"" help:"Store a secret in the OS keyring."`
		Get    system.KeyringGetCmd    `cmd:"" help:"Show a stored secret with its password masked."`
		Delete system.KeyringDeleteCmd `cmd:"" help:"Delete a secret from the OS keyring."`
		Status system.KeyringStatusCmd `cmd:"" help:"Check OS keyring availability."`
	} `cmd:"" help:"Manage secrets in the OS keyring."`
}

// commands that open the store themselves or never touch it
var skipLoad = map[string]bool{
	"init":    true,
	"migrate": true,
	"doctor":  true,
	"keyring": true,
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	kctx := kong.Parse(&CLI,
		kong.Name(constants.AppName),
		kong.Description("Twice-daily medication tracker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Vars{
			"version": constants.Version,
			"config":  constants.DefaultConfigPath,
		},
	)
	command := strings.Fields(kctx.Command())[0]

	target, fromSecret := resolveTarget(CLI.Config)
	isPostgres := postgres.IsConnString(target)

	logDir := filepath.Dir(expandHome(constants.DefaultConfigPath))
	if !isPostgres {
		logDir = filepath.Dir(target)
	}
	if err := logger.Init(logger.Config{
		Debug:     CLI.Debug,
		ConfigDir: logDir,
		Level:     CLI.LogLevel,
		Stderr:    command == "watch",
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize logger: %v\n", err)
	}

	var store storage.Provider
	if isPostgres {
		if _, err := postgres.ValidateConnString(target); err != nil {
			// secrets from the keyring or environment may carry a password
			if !fromSecret || !stderrors.Is(err, postgres.ErrEmbeddedCredentials) {
				fmt.Fprintln(os.Stderr, errors.Format(errors.WithHint(err,
					"store the connection string with 'pills keyring set db <conn>' or export "+constants.EnvDBConnection)))
				os.Exit(1)
			}
		}
		store = postgres.New(target)
	} else {
		store = sqlite.NewStore(target)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	appCtx := &cli.Context{
		Ctx:         ctx,
		Store:       store,
		Timezone:    CLI.Tz,
		TopicARN:    topicARN(),
		AWSRegion:   envOr(constants.EnvAWSRegion, constants.DefaultAWSRegion),
		Backup:      backupConfig(),
		Interactive: isatty.IsTerminal(os.Stdin.Fd()) && isatty.IsTerminal(os.Stdout.Fd()),
	}

	exit := func(err error) {
		logger.Error("Command execution failed", "command", command, "error", err)
		fmt.Fprintln(os.Stderr, errors.Format(err))
		appCtx.Close()
		_ = store.Close()
		stop()
		os.Exit(1)
	}

	if !skipLoad[command] {
		if err := store.Load(); err != nil {
			exit(errors.WithHint(err, "run 'pills init' to create the database"))
		}
	}

	logger.Debug("Running command", "command", kctx.Command(), "postgres", isPostgres)
	if err := kctx.Run(appCtx); err != nil {
		exit(err)
	}

	appCtx.Close()
	if err := store.Close(); err != nil {
		logger.Warn("Failed to close store", "error", err)
	}
	stop()
}

// resolveTarget picks the database location: the environment, then the
// keyring, then --config. The second result reports whether it came from
// a secret store.
func resolveTarget(flag string) (string, bool) {
	if flag == constants.DefaultConfigPath {
		if conn := os.Getenv(constants.EnvDBConnection); conn != "" {
			return conn, true
		}
		if conn, err := keyring.GetConnectionString(); err == nil {
			return conn, true
		}
	}
	return expandHome(flag), false
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func topicARN() string {
	if arn := os.Getenv(constants.EnvSNSTopicARN); arn != "" {
		return arn
	}
	arn, err := keyring.Get(keyring.SNSTopic)
	if err != nil {
		return ""
	}
	return arn
}

func backupConfig() backup.S3Config {
	return backup.S3Config{
		Bucket:   os.Getenv(constants.EnvBackupBucket),
		Prefix:   os.Getenv(constants.EnvBackupPrefix),
		Region:   envOr(constants.EnvBackupRegion, envOr(constants.EnvAWSRegion, constants.DefaultAWSRegion)),
		Endpoint: os.Getenv(constants.EnvBackupEndpoint),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
