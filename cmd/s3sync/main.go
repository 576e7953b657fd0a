// s3sync reconciles stored object metadata with the configured profiles.
// It walks every object under each profile's key prefix and rewrites the
// headers of objects whose metadata drifted from what the profile would
// produce today.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kbukum/s3fs/config"
	apperrors "github.com/kbukum/s3fs/errors"
	"github.com/kbukum/s3fs/logger"
	"github.com/kbukum/s3fs/storage/s3"
	"github.com/kbukum/s3fs/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configFile string
		envFile    string
	)

	cmd := &cobra.Command{
		Use:   "s3sync [profile...]",
		Short: "Reconcile stored object metadata with the configured profiles",
		Long: `s3sync walks every object under each profile's key prefix and rewrites
the headers of objects whose metadata no longer matches the profile:
content type, cache control, disposition, language and custom metadata.
Object bodies are never read or modified.

With no arguments every configured profile is synced; otherwise only the
named profiles ("files", "static", ...).`,
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configFile, envFile, args)
		},
	}

	cmd.Flags().StringVarP(&configFile, "config", "c", "config.yml", "path to the config file")
	cmd.Flags().StringVar(&envFile, "env-file", "", "path to an explicit .env file")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cobra.OnFinalize(stop)
	cmd.SetContext(ctx)
	return cmd
}

func run(ctx context.Context, configFile, envFile string, profiles []string) error {
	var opts []config.LoaderOption
	if envFile != "" {
		opts = append(opts, config.WithEnvFile(envFile))
	}
	cfg, err := config.Load(configFile, opts...)
	if err != nil {
		logger.NewDefault("s3sync").Error("configuration failed", logger.Fields(logger.FieldError, err.Error()))
		return err
	}

	log := logger.New(&cfg.Logging, "s3sync")
	logger.SetGlobalLogger(log)

	if len(profiles) == 0 {
		profiles = cfg.ProfileNames()
	}

	failed, total := 0, 0
	for _, name := range profiles {
		profile, err := cfg.Profile(name)
		if err != nil {
			log.Error("unknown profile", logger.Fields(logger.FieldProfile, name, logger.FieldError, err.Error()))
			return err
		}

		engine, err := s3.NewStorage(ctx, profile, &cfg.S3, log)
		if err != nil {
			log.Error("engine init failed", logger.Fields(logger.FieldProfile, name, logger.FieldError, err.Error()))
			return err
		}

		log.Info("syncing profile metadata", logger.Fields(
			logger.FieldProfile, name,
			logger.FieldBucket, profile.Bucket,
		))
		report, err := engine.SyncMeta(ctx)
		if err != nil {
			log.Error("sync aborted", logger.Fields(logger.FieldProfile, name, logger.FieldError, err.Error()))
			return err
		}

		log.Info("profile sync complete", logger.Fields(
			logger.FieldProfile, name,
			"updated", len(report.Updated),
			"unchanged", len(report.Unchanged),
			"failed", len(report.Failed),
		))
		failed += len(report.Failed)
		total += report.Total()
	}

	if failed > 0 {
		err := apperrors.PartialSync(failed, total)
		log.Error("sync finished with failures", logger.Fields(logger.FieldError, err.Error()))
		return err
	}
	return nil
}
