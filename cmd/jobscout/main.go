package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobscout/internal/app"
	"jobscout/internal/config"
	"jobscout/internal/database/migration"
	dbpostgres "jobscout/internal/database/postgres"
	"jobscout/internal/database/seeder"
	"jobscout/internal/domain/embedding"
	"jobscout/internal/infrastructure/notification"
	"jobscout/internal/pipeline"
	"jobscout/internal/pkg/jwt"
	"jobscout/internal/pkg/logger"
	"jobscout/internal/usecase"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "jobscout",
		Short:         "jobscout maintenance commands",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		newReembedCmd(),
		newSweepCmd(),
		newParseResumeCmd(),
		newTokenCmd(),
	)
	return rootCmd
}

func loadEnv() (config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, nil, err
	}
	zl, err := logger.New(cfg.Log)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, zl, nil
}

func signalContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
}

func newMigrateCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zl, err := loadEnv()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			db, err := dbpostgres.Connect(ctx, cfg.Database, zl)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			return migration.Runner{Dir: dir, Logger: zl}.Run(ctx, db)
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "read migrations from this directory instead of the embedded set")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "insert sample job postings for local runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zl, err := loadEnv()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			db, err := dbpostgres.Connect(ctx, cfg.Database, zl)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := (migration.Runner{Logger: zl}).Run(ctx, db); err != nil {
				return err
			}
			return seeder.Runner{Seeders: seeder.Defaults(), Logger: zl}.Run(ctx, db)
		},
	}
}

func newReembedCmd() *cobra.Command {
	var (
		kind       string
		workers    int
		rps        int
		pageSize   int
		maxElapsed time.Duration
		logOnly    bool
	)
	cmd := &cobra.Command{
		Use:   "reembed",
		Short: "refresh embeddings, matches and notifications for every job or resume",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := embedding.ParseOwnerKind(kind)
			if err != nil {
				return fmt.Errorf("--kind: %w", err)
			}
			cfg, zl, err := loadEnv()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			c, err := app.NewContainer(ctx, cfg, zl, containerOptions(zl, logOnly))
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if !cmd.Flags().Changed("workers") {
				workers = cfg.Matching.ReembedWorkers
			}
			if !cmd.Flags().Changed("rps") {
				rps = cfg.Matching.ReembedRPS
			}

			report, err := c.Pipeline.Reembed(ctx, pipeline.ReembedParams{
				Kind:       k,
				Workers:    workers,
				RPS:        rps,
				PageSize:   pageSize,
				MaxElapsed: maxElapsed,
			})
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "job", "owner kind: job or resume")
	cmd.Flags().IntVar(&workers, "workers", 4, "concurrent refreshes")
	cmd.Flags().IntVar(&rps, "rps", 0, "provider requests per second, 0 for unlimited")
	cmd.Flags().IntVar(&pageSize, "page-size", 500, "owner ids read per query")
	cmd.Flags().DurationVar(&maxElapsed, "max-retry", 2*time.Minute, "retry budget per owner")
	cmd.Flags().BoolVar(&logOnly, "log-only", false, "log notifications instead of queueing them")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		limit   int
		logOnly bool
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "dispatch notifications for matches that are still pending",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, zl, err := loadEnv()
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()

			ctx, cancel := signalContext(cmd)
			defer cancel()

			c, err := app.NewContainer(ctx, cfg, zl, containerOptions(zl, logOnly))
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if limit <= 0 {
				limit = cfg.Notification.SweepLimit
			}
			summary, err := c.Notifications.SweepPending(ctx, limit)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), summary)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum pending matches to read")
	cmd.Flags().BoolVar(&logOnly, "log-only", false, "log notifications instead of queueing them")
	return cmd
}

func newParseResumeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse-resume [file]",
		Short: "print the profile extracted from a plain-text resume (stdin when no file)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				r = f
			}
			raw, err := io.ReadAll(r)
			if err != nil {
				return err
			}

			profile, err := usecase.NewResumeUsecase(nil, 0, 0, nil).ParseResumeText(string(raw))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), profile)
		},
	}
}

func newTokenCmd() *cobra.Command {
	var (
		userID string
		email  string
		role   string
		ttl    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "mint an access token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("JWT_ACCESS_SECRET")
			if secret == "" {
				return fmt.Errorf("JWT_ACCESS_SECRET is not set")
			}
			id := uuid.New()
			if userID != "" {
				parsed, err := uuid.Parse(userID)
				if err != nil {
					return fmt.Errorf("--user: %w", err)
				}
				id = parsed
			}
			tok, err := jwt.NewHMACService(secret, ttl).GenerateAccessToken(id, email, role)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "user id, random when empty")
	cmd.Flags().StringVar(&email, "email", "", "email claim")
	cmd.Flags().StringVar(&role, "role", "", "role claim, e.g. admin")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "token lifetime")
	return cmd
}

func containerOptions(zl *zap.Logger, logOnly bool) app.Options {
	opts := app.Options{SkipMigrations: true}
	if logOnly {
		opts.Notifier = notification.NewLogNotifier(zl)
	}
	return opts
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
