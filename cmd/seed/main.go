package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"seedling/internal/bootstrap"
	"seedling/internal/config"
	"seedling/internal/logging"
	"seedling/internal/repository"
	"seedling/internal/seed"
	"seedling/internal/services"

	"github.com/spf13/cobra"
)

var (
	configFile  string
	environment string
	remotes     []string
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "seed",
		Short:        "Seed a record store with environment fixtures",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configFile, "config", "", "Path to config file")
	root.PersistentFlags().StringVar(&environment, "env", "", "Environment to seed (overrides config)")
	root.PersistentFlags().StringArrayVar(&remotes, "remote", nil, "Extra seed fetched from a URL, as Key=URL (repeatable)")

	root.AddCommand(newRunCmd(), newListCmd())
	return root
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Seed the environment",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			store, closeStore, err := bootstrap.OpenStore(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeStore()

			sources, err := remoteSources()
			if err != nil {
				return err
			}
			svc := services.NewSeedService(bootstrap.NewSeeder(cfg, store, environment, logger, sources))
			result, err := svc.Run(ctx)
			if err != nil {
				return err
			}
			return printJSON(cmd, result)
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the seeds of the environment without running them",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup()
			if err != nil {
				return err
			}
			sources, err := remoteSources()
			if err != nil {
				return err
			}
			seeder := bootstrap.NewSeeder(cfg, repository.NewMemoryStore(), environment, logger, sources)
			infos, err := services.NewSeedService(seeder).List(cmd.Context())
			if err != nil {
				return err
			}
			for _, info := range infos {
				fmt.Fprintf(cmd.OutOrStdout(), "%-24s %-16s %-9s %d\n", info.Key, info.Model, info.Kind, info.Records)
			}
			return nil
		},
	}
}

func setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.New(logging.Options{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Out: os.Stderr})
	return cfg, logger, nil
}

// remoteSources parses the --remote flags into deferred seeds.
func remoteSources() (seed.Seeds, error) {
	parsed := make([]config.RemoteSeed, 0, len(remotes))
	for _, r := range remotes {
		key, url, ok := strings.Cut(r, "=")
		if !ok || key == "" || url == "" {
			return nil, fmt.Errorf("invalid --remote %q: want Key=URL", r)
		}
		parsed = append(parsed, config.RemoteSeed{Key: key, URL: url})
	}
	return bootstrap.RemoteSeeds(nil, parsed), nil
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
