package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/davidjes1/fitnesstracker/internal/config"
	"github.com/davidjes1/fitnesstracker/internal/events"
	"github.com/davidjes1/fitnesstracker/internal/identity"
	"github.com/davidjes1/fitnesstracker/internal/logging"
	"github.com/davidjes1/fitnesstracker/internal/session"
	"github.com/davidjes1/fitnesstracker/internal/storage"
	"github.com/davidjes1/fitnesstracker/internal/storage/sqlitestore"
	"github.com/davidjes1/fitnesstracker/internal/tracker"
	"github.com/davidjes1/fitnesstracker/pkg"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// app is the state shared by the commands of one invocation.
type app struct {
	configPath string
	env        string
	envFile    string
	dbPath     string
	jsonOutput bool
	now        func() time.Time

	cfg       *config.Config
	loc       *time.Location
	store     *sqlitestore.Store
	publisher events.Publisher
	session   *session.Session
}

func Execute() {
	a := &app{now: time.Now}
	rootCmd := newRootCmd(a)
	err := rootCmd.Execute()
	a.close()
	if err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "trackerctl",
		Short: "trackerctl - personal fitness tracker",
		Long: `trackerctl logs strength and cardio workouts and body weight,
and shows stats, weekly progress and personal records.

Data is kept in a local SQLite database.`,
		PersistentPreRunE: a.setup,
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&a.env, "env", "development", "config environment [dev | prod]")
	rootCmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "optional file with env vars")
	rootCmd.PersistentFlags().StringVar(&a.dbPath, "db", "", "SQLite database path (default ~/.fitness-tracker/tracker.db)")
	rootCmd.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "print JSON")

	rootCmd.AddCommand(
		newWorkoutCmd(a),
		newWeightCmd(a),
		newStatsCmd(a),
		newProgressCmd(a),
		newTemplatesCmd(a),
		newResetCmd(a),
	)
	return rootCmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(a.envFile); err != nil {
		return err
	}

	if a.configPath != "" {
		cfg, err := config.Load(a.env, a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
	} else {
		a.cfg = config.Default()
		a.cfg.LogLevel = "warn"
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:   a.cfg.LogsPath,
		LogLevel:      a.cfg.LogLevel,
		LogFormatJSON: a.cfg.LogFormatJSON,
		Environment:   a.cfg.Environment,
	})
	if a.cfg.LogsPath == "" {
		log.SetOutput(cmd.ErrOrStderr())
	}

	loc, err := a.cfg.Location()
	if err != nil {
		return err
	}
	a.loc = loc

	dbPath, err := a.resolveDBPath()
	if err != nil {
		return err
	}
	if err := pkg.EnsureDir(filepath.Dir(dbPath)); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	a.store, err = sqlitestore.New(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	log.Debugf("using database %s", dbPath)

	a.publisher = events.NopPublisher{}
	if len(a.cfg.KafkaBrokers) > 0 {
		a.publisher = events.NewKafkaPublisher(a.cfg.KafkaBrokers, a.cfg.KafkaTopic)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a.session = session.New(ctx, session.Params{
		Provider: identity.NewLocalProvider(),
		Store: storage.NewGuard(a.store, storage.GuardParams{
			Timeout: a.cfg.StorageTimeout(),
			Retries: a.cfg.StorageRetries,
		}),
		Publisher:            a.publisher,
		PublishTimeout:       a.cfg.StorageTimeout(),
		Now:                  a.now,
		Location:             loc,
		WeeklyGoal:           a.cfg.WeeklyGoal,
		PersonalRecordsLimit: a.cfg.PersonalRecordsLimit,
		WeightHistoryLimit:   a.cfg.WeightHistoryLimit,
	})
	if _, err := a.session.SignIn(ctx); err != nil {
		return fmt.Errorf("sign in: %w", err)
	}
	return nil
}

func (a *app) resolveDBPath() (string, error) {
	if a.dbPath != "" {
		return a.dbPath, nil
	}
	if a.cfg.SQLitePath != "" {
		return a.cfg.SQLitePath, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fitness-tracker", "tracker.db"), nil
}

func (a *app) close() {
	if a.session != nil {
		a.session.Close()
	}
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			log.Warnf("close event publisher: %s", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			log.Warnf("close database: %s", err)
		}
	}
}

func (a *app) today() tracker.Date {
	return tracker.DateOf(a.now().In(a.loc))
}

func (a *app) printJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// explain turns validation errors into a one line hint.
func explain(err error) error {
	var vErr *tracker.ValidationError
	if errors.As(err, &vErr) {
		return errors.New(vErr.Message)
	}
	if errors.Is(err, session.ErrActionNotPerformed) {
		return fmt.Errorf("could not save, nothing was changed: %w", err)
	}
	return err
}
