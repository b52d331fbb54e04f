package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/tally/internal/commands"
	"github.com/colonyops/tally/internal/core/config"
	"github.com/colonyops/tally/internal/core/logging"
	"github.com/colonyops/tally/internal/data/db"
	"github.com/colonyops/tally/internal/data/stores"
	"github.com/colonyops/tally/internal/tally"
	"github.com/colonyops/tally/pkg/clock"
	"github.com/colonyops/tally/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// ldflags aren't set by `go install module@version`, so fall back to
	// the module version and VCS metadata Go records in BuildInfo.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// openDatabase opens the sqlite database, moving a corrupted file aside and
// starting fresh when the existing one cannot be read.
func openDatabase(cfg *config.Config) (*db.DB, error) {
	opts := db.OpenOptions{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		BusyTimeout:  cfg.Database.BusyTimeout,
	}

	database, err := db.Open(cfg.DataDir, opts)
	if err == nil || !stores.IsCorruptionError(err) {
		return database, err
	}

	backup, recoverErr := stores.RecoverFromCorruption(cfg.DataDir)
	if recoverErr != nil {
		return nil, fmt.Errorf("%w (recovery failed: %w)", err, recoverErr)
	}
	log.Warn().Err(err).Str("backup", backup).Msg("database was corrupted, starting with a fresh one")

	return db.Open(cfg.DataDir, opts)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		tallyApp  = &tally.App{}
		database  *db.DB
		busCancel context.CancelFunc
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "tally",
		Usage:     "Track tasks, reminders and recurring series",
		UsageText: "tally [global options] command [command options]",
		Description: `Tally keeps a list of tasks with time tracking, reminders and recurrence.

Completing a recurring task creates its next occurrence. Run 'tally watch'
to have reminders delivered as they come due.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("TALLY_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file",
				Sources:     cli.EnvVars("TALLY_LOG_FILE"),
				Value:       commands.DefaultLogFile(),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("TALLY_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("TALLY_DATA_DIR"),
				Value:       commands.DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger.Hook(logging.ContextHook{})
			logCloser = closer

			cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			var st tally.Stores
			switch cfg.Store.Driver {
			case config.DriverMemory:
				st.Tasks = stores.NewMemoryStore(clock.System{})
			default:
				database, err = openDatabase(cfg)
				if err != nil {
					return ctx, fmt.Errorf("open database: %w", err)
				}
				st.Tasks = stores.NewTaskStore(database, clock.System{})
				st.Notifications = stores.NewNotifyStore(database)
			}

			// Populate the pre-allocated App struct (commands already hold a pointer to it)
			*tallyApp = *tally.NewApp(cfg, st, tally.Runtime{}, log.With().Str("component", "tally").Logger())

			busCtx, cancel := context.WithCancel(ctx)
			busCancel = cancel
			tallyApp.Start(busCtx)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if tallyApp.Tasks != nil {
				tallyApp.Close()
			}

			if busCancel != nil {
				busCancel()
			}

			if database != nil {
				if err := database.Close(); err != nil {
					log.Error().Err(err).Msg("failed to close database")
					return err
				}
			}

			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewTaskCmd(flags, tallyApp).Register(app)
	app = commands.NewRecurCmd(flags).Register(app)
	app = commands.NewWatchCmd(flags, tallyApp).Register(app)
	app = commands.NewNotificationsCmd(flags, tallyApp).Register(app)
	app = commands.NewConfigCmd(flags).Register(app)

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		if err.Error() != "" {
			_ = commands.WriteError(os.Stderr, err)
		}
		exitCode = 1
	}

	os.Exit(exitCode)
}
